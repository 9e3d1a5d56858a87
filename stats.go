package main

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Stats tracks statistics for a brute force run
type Stats struct {
	domains            int64
	wildcardDomains    int64
	unavailableDomains int64
	candidates         int64
	probed             int64
	queries            int64
	found              int64
	noRecord           int64
	timeouts           int64
	startTime          time.Time
}

// NewStats creates a new statistics tracker
func NewStats() *Stats {
	return &Stats{
		startTime: time.Now(),
	}
}

// IncrementDomains increments the base domain count
func (s *Stats) IncrementDomains() {
	atomic.AddInt64(&s.domains, 1)
}

// IncrementWildcards increments the count of domains skipped for a wildcard
func (s *Stats) IncrementWildcards() {
	atomic.AddInt64(&s.wildcardDomains, 1)
}

// IncrementUnavailable increments the count of domains skipped for a broken resolver
func (s *Stats) IncrementUnavailable() {
	atomic.AddInt64(&s.unavailableDomains, 1)
}

// AddCandidates adds n candidates to the expected total
func (s *Stats) AddCandidates(n int) {
	atomic.AddInt64(&s.candidates, int64(n))
}

// RecordOutcome accounts for a finished probe
func (s *Stats) RecordOutcome(outcome ProbeOutcome) {
	atomic.AddInt64(&s.probed, 1)
	atomic.AddInt64(&s.queries, int64(outcome.Attempts))

	switch outcome.Status {
	case ProbeFound:
		atomic.AddInt64(&s.found, 1)
	case ProbeTimeout:
		atomic.AddInt64(&s.timeouts, 1)
	default:
		atomic.AddInt64(&s.noRecord, 1)
	}
}

// GetProbed returns the number of finished probes
func (s *Stats) GetProbed() int64 {
	return atomic.LoadInt64(&s.probed)
}

// GetQueries returns the number of candidate queries sent, retries included
func (s *Stats) GetQueries() int64 {
	return atomic.LoadInt64(&s.queries)
}

// GetFound returns the number of candidates that resolved
func (s *Stats) GetFound() int64 {
	return atomic.LoadInt64(&s.found)
}

// GetTimeouts returns the number of candidates abandoned after timeouts
func (s *Stats) GetTimeouts() int64 {
	return atomic.LoadInt64(&s.timeouts)
}

// GetNoRecord returns the number of candidates without a record
func (s *Stats) GetNoRecord() int64 {
	return atomic.LoadInt64(&s.noRecord)
}

// GetElapsedTime returns the elapsed time since start
func (s *Stats) GetElapsedTime() time.Duration {
	return time.Since(s.startTime)
}

// GetQueriesPerSecond calculates the current queries per second rate
func (s *Stats) GetQueriesPerSecond() float64 {
	elapsed := s.GetElapsedTime().Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(s.GetQueries()) / elapsed
}

// PrintCurrentStats prints current progress
func (s *Stats) PrintCurrentStats(logger *logrus.Logger) {
	bar := NewProgressBar(atomic.LoadInt64(&s.candidates), 30)
	bar.Update(s.GetProbed())

	logger.WithFields(logrus.Fields{
		"found":    s.GetFound(),
		"timeouts": s.GetTimeouts(),
		"qps":      fmt.Sprintf("%.2f", s.GetQueriesPerSecond()),
	}).Infof("Progress %s", bar)
}

// PrintFinalStats prints final statistics summary
func (s *Stats) PrintFinalStats(logger *logrus.Logger) {
	probed := s.GetProbed()

	logger.Info("=== Final Statistics ===")
	logger.Infof("Base domains: %d (wildcard: %d, resolver unavailable: %d)",
		atomic.LoadInt64(&s.domains), atomic.LoadInt64(&s.wildcardDomains), atomic.LoadInt64(&s.unavailableDomains))
	logger.Infof("Candidates probed: %d", probed)
	logger.Infof("Hosts found: %d (%.2f%%)", s.GetFound(), percentage(s.GetFound(), probed))
	logger.Infof("No record: %d (%.2f%%)", s.GetNoRecord(), percentage(s.GetNoRecord(), probed))
	logger.Infof("Timed out: %d (%.2f%%)", s.GetTimeouts(), percentage(s.GetTimeouts(), probed))
	logger.Infof("Queries sent: %d", s.GetQueries())
	logger.Infof("Total elapsed time: %s", FormatDuration(s.GetElapsedTime()))
	logger.Infof("Average queries per second: %.2f", s.GetQueriesPerSecond())
}

// StartReporter periodically reports progress until ctx is done
func (s *Stats) StartReporter(ctx context.Context, logger *logrus.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.PrintCurrentStats(logger)
		case <-ctx.Done():
			return
		}
	}
}

// percentage calculates percentage with zero division protection
func percentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// FormatDuration formats a duration in a human-readable format
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// ProgressBar represents a simple progress bar
type ProgressBar struct {
	total   int64
	current int64
	width   int
}

// NewProgressBar creates a new progress bar
func NewProgressBar(total int64, width int) *ProgressBar {
	return &ProgressBar{
		total: total,
		width: width,
	}
}

// Update updates the progress bar
func (p *ProgressBar) Update(current int64) {
	p.current = current
}

// String returns the progress bar as a string
func (p *ProgressBar) String() string {
	if p.total == 0 {
		return "[" + strings.Repeat("=", p.width) + "]"
	}

	progress := float64(p.current) / float64(p.total)
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(p.width))

	bar := "["
	bar += strings.Repeat("=", filled)
	if filled < p.width {
		bar += ">"
		bar += strings.Repeat(" ", p.width-filled-1)
	}
	bar += "]"

	return fmt.Sprintf("%s %.1f%% (%d/%d)", bar, progress*100, p.current, p.total)
}
