package main

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const (
	wildcardLabelStar   = "star"
	wildcardLabelRandom = "random"

	randomLabelLength = 12
)

// WildcardStatus is the verdict of a wildcard probe for one base domain
type WildcardStatus int

const (
	// WildcardClean means unmatched names do not resolve; brute forcing is meaningful
	WildcardClean WildcardStatus = iota
	// WildcardDetected means the domain answers for any label
	WildcardDetected
	// WildcardResolverUnavailable means the probe itself failed, saying nothing about the domain
	WildcardResolverUnavailable
)

func (s WildcardStatus) String() string {
	switch s {
	case WildcardClean:
		return "clean"
	case WildcardDetected:
		return "wildcard"
	case WildcardResolverUnavailable:
		return "resolver unavailable"
	default:
		return "unknown"
	}
}

// WildcardDetector detects DNS wildcard configurations of base domains
type WildcardDetector struct {
	querier    Querier
	labelMode  string
	cache      map[string]wildcardVerdict
	cacheMutex sync.Mutex
	rng        *rand.Rand
	rngMutex   sync.Mutex
}

// NewWildcardDetector creates a new wildcard detector
func NewWildcardDetector(querier Querier, labelMode string) *WildcardDetector {
	if labelMode == "" {
		labelMode = wildcardLabelStar
	}
	return &WildcardDetector{
		querier:   querier,
		labelMode: labelMode,
		cache:     make(map[string]wildcardVerdict),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type wildcardVerdict struct {
	status WildcardStatus
	result QueryResult
}

// Detect issues a single probe for domain and classifies the answer. Verdicts
// other than WildcardResolverUnavailable are cached so a repeated domain is
// not probed again.
func (w *WildcardDetector) Detect(ctx context.Context, domain string) (WildcardStatus, QueryResult) {
	w.cacheMutex.Lock()
	verdict, exists := w.cache[domain]
	w.cacheMutex.Unlock()
	if exists {
		return verdict.status, verdict.result
	}

	result := w.querier.Query(ctx, w.probeName(domain))

	var status WildcardStatus
	switch result.Status {
	case QueryOK:
		status = WildcardDetected
	case QueryNoRecord:
		status = WildcardClean
	default:
		return WildcardResolverUnavailable, result
	}

	w.cacheMutex.Lock()
	w.cache[domain] = wildcardVerdict{status: status, result: result}
	w.cacheMutex.Unlock()

	return status, result
}

// probeName returns the name queried to test domain for a wildcard
func (w *WildcardDetector) probeName(domain string) string {
	if w.labelMode == wildcardLabelRandom {
		return w.generateRandomString(randomLabelLength) + "." + domain
	}
	return "*." + domain
}

// generateRandomString creates a random string of specified length
func (w *WildcardDetector) generateRandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"

	w.rngMutex.Lock()
	defer w.rngMutex.Unlock()

	result := make([]byte, length)
	for i := range result {
		result[i] = charset[w.rng.Intn(len(charset))]
	}

	return string(result)
}

// GetCacheSize returns the number of cached wildcard verdicts
func (w *WildcardDetector) GetCacheSize() int {
	w.cacheMutex.Lock()
	defer w.cacheMutex.Unlock()

	return len(w.cache)
}
