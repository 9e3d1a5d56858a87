package main

import (
	"context"
	"strings"
	"sync"

	"github.com/miekg/dns"
)

const (
	defaultMaxAttempts = 3
)

// HostKind is the record type that proved a host exists
type HostKind int

const (
	HostA HostKind = iota
	HostCNAME
)

func (k HostKind) String() string {
	switch k {
	case HostA:
		return "A"
	case HostCNAME:
		return "CNAME"
	default:
		return "?"
	}
}

// DiscoveredHost is a hostname found while probing a candidate
type DiscoveredHost struct {
	Name string
	Kind HostKind
	// Candidate is the probed name and Domain its base domain
	Candidate string
	Domain    string
	// Alias marks the candidate recorded because it carries a CNAME, which
	// keeps it as a host even without an A record of its own
	Alias bool
}

// ProbeStatus classifies the outcome of probing one candidate
type ProbeStatus int

const (
	ProbeNoRecord ProbeStatus = iota
	ProbeTimeout
	ProbeFound
)

func (s ProbeStatus) String() string {
	switch s {
	case ProbeNoRecord:
		return "no record"
	case ProbeTimeout:
		return "timeout"
	case ProbeFound:
		return "found"
	default:
		return "unknown"
	}
}

// ProbeOutcome is the result of probing one candidate. Err holds the last
// resolver error, if any.
type ProbeOutcome struct {
	Candidate string
	Status    ProbeStatus
	Hosts     []DiscoveredHost
	Attempts  int
	Err       error
}

// Bruteforcer probes every wordlist candidate of each base domain
type Bruteforcer struct {
	querier     Querier
	detector    *WildcardDetector
	sink        HostSink
	reporter    *Reporter
	stats       *Stats
	workers     int
	maxAttempts int
}

// NewBruteforcer creates a brute forcer running workers concurrent probes per
// domain, each making at most maxAttempts queries
func NewBruteforcer(querier Querier, detector *WildcardDetector, sink HostSink,
	reporter *Reporter, stats *Stats, workers, maxAttempts int) *Bruteforcer {

	if workers <= 0 {
		workers = defaultWorkers
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Bruteforcer{
		querier:     querier,
		detector:    detector,
		sink:        sink,
		reporter:    reporter,
		stats:       stats,
		workers:     workers,
		maxAttempts: maxAttempts,
	}
}

// Run brute forces domains one after another. Domains with a wildcard entry or
// a failing wildcard probe are skipped. Run only returns an error when ctx is
// cancelled.
func (b *Bruteforcer) Run(ctx context.Context, domains []string, words []string) error {
	for _, domain := range domains {
		if err := ctx.Err(); err != nil {
			return err
		}

		b.stats.IncrementDomains()
		b.reporter.Heading(domain)

		status, probe := b.detector.Detect(ctx, domain)
		switch status {
		case WildcardDetected:
			b.stats.IncrementWildcards()
			b.reporter.Wildcard(domain, probe)
			continue
		case WildcardResolverUnavailable:
			b.stats.IncrementUnavailable()
			b.reporter.ResolverInvalid(domain, probe)
			continue
		}

		b.reporter.NoWildcard(domain)
		b.bruteforceDomain(ctx, domain, words)
	}

	return ctx.Err()
}

// bruteforceDomain feeds every candidate of domain to the worker pool and
// returns once all of them were probed
func (b *Bruteforcer) bruteforceDomain(ctx context.Context, domain string, words []string) {
	workers := b.workers
	if workers > len(words) {
		workers = len(words)
	}

	b.stats.AddCandidates(len(words))
	candidates := generateCandidates(ctx, words, domain)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for candidate := range candidates {
				b.handle(ctx, domain, candidate)
			}
		}()
	}

	wg.Wait()
}

func (b *Bruteforcer) handle(ctx context.Context, domain, candidate string) {
	outcome := b.probe(ctx, domain, candidate)

	b.stats.RecordOutcome(outcome)
	b.reporter.Outcome(outcome)

	for _, host := range outcome.Hosts {
		if err := b.sink.AddHost(host); err != nil {
			b.reporter.SinkError(host, err)
		}
	}
}

// probe queries candidate until it gets a definitive answer. Only timeouts are
// retried, immediately and at most maxAttempts times in total.
func (b *Bruteforcer) probe(ctx context.Context, domain, candidate string) ProbeOutcome {
	outcome := ProbeOutcome{
		Candidate: candidate,
		Status:    ProbeTimeout,
	}

	for outcome.Attempts < b.maxAttempts {
		outcome.Attempts++
		result := b.querier.Query(ctx, candidate)

		switch result.Status {
		case QueryTimeout:
			outcome.Err = result.Err
			continue
		case QueryOK:
			outcome.Err = nil
			outcome.Hosts = classifyAnswer(domain, candidate, result.Answer)
			if len(outcome.Hosts) > 0 {
				outcome.Status = ProbeFound
			} else {
				outcome.Status = ProbeNoRecord
			}
		default:
			// NXDOMAIN, empty answers and nameserver failures are all final
			outcome.Status = ProbeNoRecord
			outcome.Err = result.Err
		}
		return outcome
	}

	return outcome
}

// classifyAnswer extracts hosts from the A and CNAME records of an answer
func classifyAnswer(domain, candidate string, answer []dns.RR) []DiscoveredHost {
	var hosts []DiscoveredHost
	seen := make(map[DiscoveredHost]bool)

	add := func(host DiscoveredHost) {
		if !seen[host] {
			seen[host] = true
			hosts = append(hosts, host)
		}
	}

	for _, rr := range answer {
		switch record := rr.(type) {
		case *dns.A:
			add(DiscoveredHost{Name: candidate, Kind: HostA, Candidate: candidate, Domain: domain})
		case *dns.CNAME:
			add(DiscoveredHost{
				Name:      strings.TrimSuffix(record.Target, "."),
				Kind:      HostCNAME,
				Candidate: candidate,
				Domain:    domain,
			})
			add(DiscoveredHost{Name: candidate, Kind: HostA, Candidate: candidate, Domain: domain, Alias: true})
		}
	}

	return hosts
}
