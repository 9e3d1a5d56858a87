package main

import (
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Reporter turns engine events into log lines and alert output
type Reporter struct {
	logger  *logrus.Logger
	alerts  io.Writer
	quiet   bool
	heading *color.Color
	found   *color.Color
	mutex   sync.Mutex
}

// NewReporter creates a reporter logging to logger and writing headings and
// found hosts to alerts. A quiet reporter only logs.
func NewReporter(logger *logrus.Logger, alerts io.Writer, quiet bool) *Reporter {
	return &Reporter{
		logger:  logger,
		alerts:  alerts,
		quiet:   quiet,
		heading: color.New(color.Bold),
		found:   color.New(color.FgGreen),
	}
}

// Heading announces the start of a base domain
func (r *Reporter) Heading(domain string) {
	if r.quiet {
		r.logger.WithField("domain", domain).Info("Brute forcing domain")
		return
	}

	title := strings.ToUpper(domain)

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.heading.Fprintf(r.alerts, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
}

// Wildcard reports a domain skipped because it resolves every label
func (r *Reporter) Wildcard(domain string, probe QueryResult) {
	r.logger.WithFields(logrus.Fields{
		"domain": domain,
		"probe":  probe.Name,
	}).Infof("Wildcard DNS entry found for '%s'. Cannot brute force hostnames.", domain)
}

// ResolverInvalid reports a domain skipped because its wildcard probe failed
func (r *Reporter) ResolverInvalid(domain string, probe QueryResult) {
	entry := r.logger.WithFields(logrus.Fields{
		"domain":   domain,
		"probe":    probe.Name,
		"status":   probe.Status.String(),
		"resolver": probe.Resolver,
	})
	if probe.Err != nil {
		entry = entry.WithError(probe.Err)
	}
	entry.Error("Invalid nameserver.")
}

// NoWildcard reports a domain that is safe to brute force
func (r *Reporter) NoWildcard(domain string) {
	r.logger.WithField("domain", domain).Debug("No Wildcard DNS entry found.")
}

// Outcome reports the result of one candidate probe
func (r *Reporter) Outcome(outcome ProbeOutcome) {
	switch outcome.Status {
	case ProbeNoRecord:
		entry := r.logger.WithField("attempts", outcome.Attempts)
		if outcome.Err != nil {
			entry = entry.WithError(outcome.Err)
		}
		entry.Debugf("%s => No record found.", outcome.Candidate)
	case ProbeTimeout:
		r.logger.WithField("attempts", outcome.Attempts).Debugf("%s => Request timed out.", outcome.Candidate)
	case ProbeFound:
		for _, host := range outcome.Hosts {
			r.alert(outcome.Candidate, host)
		}
	}
}

func (r *Reporter) alert(candidate string, host DiscoveredHost) {
	if r.quiet || host.Alias {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.found.Fprintf(r.alerts, "[+] %s => (%s) %s - Host found!\n", candidate, host.Kind, host.Name)
}

// SinkError reports a host the sink failed to store
func (r *Reporter) SinkError(host DiscoveredHost, err error) {
	r.logger.WithField("host", host.Name).WithError(err).Error("Failed to record host")
}
