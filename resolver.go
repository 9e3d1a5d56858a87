package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
)

const systemResolvConf = "/etc/resolv.conf"

var errNoNameservers = errors.New("no nameservers available")

// QueryStatus classifies the outcome of a single DNS query
type QueryStatus int

const (
	// QueryOK means the resolver returned a non-empty answer section
	QueryOK QueryStatus = iota
	// QueryNoRecord covers NXDOMAIN and NOERROR with an empty answer
	QueryNoRecord
	// QueryTimeout means the resolver did not answer in time
	QueryTimeout
	// QueryNameserverError means no resolver in the pool produced a usable answer
	QueryNameserverError
)

func (s QueryStatus) String() string {
	switch s {
	case QueryOK:
		return "ok"
	case QueryNoRecord:
		return "no record"
	case QueryTimeout:
		return "timeout"
	case QueryNameserverError:
		return "nameserver error"
	default:
		return fmt.Sprintf("QueryStatus(%d)", int(s))
	}
}

// QueryResult is the tagged result of a DNS query. Answer is only set for QueryOK.
type QueryResult struct {
	Name     string
	Status   QueryStatus
	Answer   []dns.RR
	Rcode    int
	Resolver string
	Err      error
}

// Querier performs A queries. Implementations must be safe for concurrent use.
type Querier interface {
	Query(ctx context.Context, name string) QueryResult
}

// DNSResolver represents a single DNS resolver
type DNSResolver struct {
	Address string
	Client  *dns.Client
	// fallback client used when a UDP answer comes back truncated
	tcp *dns.Client
}

// ResolverPool manages a pool of DNS resolvers. The set of resolvers is fixed
// at construction; only the round-robin cursor changes afterwards.
type ResolverPool struct {
	resolvers []*DNSResolver
	next      atomic.Uint64
	limiter   *RateLimiter
	logger    *logrus.Logger
}

// NewResolverPool creates a resolver pool from the configured sources
func NewResolverPool(config *Config, limiter *RateLimiter, logger *logrus.Logger) *ResolverPool {
	var resolverAddresses []string

	// Load from command line
	if config.Resolvers != "" {
		for _, addr := range strings.Split(config.Resolvers, ",") {
			addr = strings.TrimSpace(addr)
			if addr == "" {
				continue
			}
			normalized, err := normalizeResolverAddress(addr)
			if err != nil {
				logger.WithError(err).Warn("Skipping resolver")
				continue
			}
			resolverAddresses = append(resolverAddresses, normalized)
		}
	}

	// Load from file
	if config.ResolversFile != "" {
		fileAddresses, err := loadResolversFromFile(config.ResolversFile)
		if err != nil {
			logger.WithError(err).Warn("Problems loading resolvers file")
		}
		resolverAddresses = append(resolverAddresses, fileAddresses...)
	}

	// Fall back to the system configuration, then to public resolvers
	if len(resolverAddresses) == 0 {
		resolverAddresses = loadSystemResolvers(systemResolvConf)
		if len(resolverAddresses) > 0 {
			logger.Debugf("Using system resolvers from %s", systemResolvConf)
		}
	}
	if len(resolverAddresses) == 0 {
		resolverAddresses = GetDefaultResolvers()
		logger.Info("Using default DNS resolvers")
	}

	timeout := time.Duration(config.Timeout) * time.Second
	pool := newResolverPool(resolverAddresses, timeout, config.Net, limiter, logger, true)
	logger.Infof("Initialized resolver pool with %d resolvers", pool.GetResolverCount())
	return pool
}

// newResolverPool builds a pool from already normalized addresses. When check is
// set every resolver must answer a test query to be admitted.
func newResolverPool(addresses []string, timeout time.Duration, network string,
	limiter *RateLimiter, logger *logrus.Logger, check bool) *ResolverPool {

	if limiter == nil {
		limiter = NewRateLimiter(0)
	}
	pool := &ResolverPool{
		resolvers: make([]*DNSResolver, 0, len(addresses)),
		limiter:   limiter,
		logger:    logger,
	}

	seen := make(map[string]bool)
	for _, addr := range addresses {
		if seen[addr] {
			continue
		}
		seen[addr] = true
		if resolver := pool.createResolver(addr, timeout, network, check); resolver != nil {
			pool.resolvers = append(pool.resolvers, resolver)
		}
	}

	return pool
}

// createResolver creates a new DNS resolver for a host:port address
func (p *ResolverPool) createResolver(address string, timeout time.Duration, network string, check bool) *DNSResolver {
	if network == "" {
		network = "udp"
	}

	resolver := &DNSResolver{
		Address: address,
		Client: &dns.Client{
			Timeout: timeout,
			Net:     network,
		},
	}
	if network == "udp" {
		resolver.tcp = &dns.Client{
			Timeout: timeout,
			Net:     "tcp",
		}
	}

	if check && !p.testResolver(resolver) {
		p.logger.WithField("resolver", address).Warn("Resolver test failed")
		return nil
	}

	return resolver
}

// testResolver performs a basic connectivity test
func (p *ResolverPool) testResolver(resolver *DNSResolver) bool {
	msg := &dns.Msg{}
	msg.SetQuestion(dns.Fqdn("google.com"), dns.TypeA)

	_, _, err := resolver.Client.Exchange(msg, resolver.Address)
	return err == nil
}

// Query resolves the A records of name. Resolvers are tried in round-robin order
// starting at the pool cursor; a timeout ends the query so that the caller decides
// whether to retry, while refusals and server failures fall through to the next
// resolver.
func (p *ResolverPool) Query(ctx context.Context, name string) QueryResult {
	result := QueryResult{Name: name}

	n := uint64(len(p.resolvers))
	if n == 0 {
		result.Status = QueryNameserverError
		result.Err = errNoNameservers
		return result
	}

	msg := &dns.Msg{}
	msg.SetQuestion(dns.Fqdn(name), dns.TypeA)
	msg.RecursionDesired = true

	start := p.next.Add(1) - 1
	var lastErr error

	for i := uint64(0); i < n; i++ {
		if err := p.limiter.Wait(ctx); err != nil {
			result.Status = QueryNameserverError
			result.Err = err
			return result
		}

		resolver := p.resolvers[(start+i)%n]
		result.Resolver = resolver.Address

		response, err := resolver.ExchangeContext(ctx, msg)
		if err != nil {
			if isTimeout(err) {
				result.Status = QueryTimeout
				result.Err = err
				return result
			}
			p.logger.WithFields(logrus.Fields{
				"resolver": resolver.Address,
				"name":     name,
			}).WithError(err).Debug("Query failed")
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		result.Rcode = response.Rcode
		switch response.Rcode {
		case dns.RcodeNameError:
			result.Status = QueryNoRecord
			return result
		case dns.RcodeSuccess:
			if len(response.Answer) == 0 {
				result.Status = QueryNoRecord
				return result
			}
			result.Status = QueryOK
			result.Answer = response.Answer
			return result
		default:
			lastErr = fmt.Errorf("%s answered %s", resolver.Address, dns.RcodeToString[response.Rcode])
		}
	}

	result.Status = QueryNameserverError
	result.Err = fmt.Errorf("%w: %v", errNoNameservers, lastErr)
	return result
}

// GetResolverCount returns the number of available resolvers
func (p *ResolverPool) GetResolverCount() int {
	return len(p.resolvers)
}

// ExchangeContext performs a DNS query with context support, repeating it over
// TCP when the UDP answer was truncated
func (r *DNSResolver) ExchangeContext(ctx context.Context, msg *dns.Msg) (*dns.Msg, error) {
	response, _, err := r.Client.ExchangeContext(ctx, msg, r.Address)
	if err != nil {
		return nil, err
	}
	if response.Truncated && r.tcp != nil {
		response, _, err = r.tcp.ExchangeContext(ctx, msg, r.Address)
		if err != nil {
			return nil, err
		}
	}
	return response, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// normalizeResolverAddress adds the default DNS port when address has none
func normalizeResolverAddress(address string) (string, error) {
	if host, port, err := net.SplitHostPort(address); err == nil {
		if host == "" || port == "" {
			return "", fmt.Errorf("invalid resolver address %q", address)
		}
		return address, nil
	}

	host := strings.Trim(address, "[]")
	if net.ParseIP(host) == nil && !dnsNamePattern.MatchString(host) {
		return "", fmt.Errorf("invalid resolver address %q", address)
	}
	return net.JoinHostPort(host, "53"), nil
}

// loadResolversFromFile loads resolver addresses from a file. Invalid lines are
// reported together in the returned error alongside the valid addresses.
func loadResolversFromFile(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open resolvers file: %w", err)
	}
	defer file.Close()

	var (
		resolvers []string
		result    error
		lineNum   int
	)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		addr, err := normalizeResolverAddress(line)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}
		resolvers = append(resolvers, addr)
	}

	if err := scanner.Err(); err != nil {
		result = multierror.Append(result, fmt.Errorf("error reading resolvers file: %w", err))
	}

	return resolvers, result
}

// loadSystemResolvers returns the nameservers of a resolv.conf style file, or
// nil when it cannot be read
func loadSystemResolvers(path string) []string {
	conf, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return nil
	}

	resolvers := make([]string, 0, len(conf.Servers))
	for _, server := range conf.Servers {
		resolvers = append(resolvers, net.JoinHostPort(server, conf.Port))
	}
	return resolvers
}
