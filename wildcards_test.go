package main

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/miekg/dns"
)

func TestWildcardDetect(t *testing.T) {
	tests := []struct {
		name   string
		result QueryResult
		want   WildcardStatus
	}{
		{
			name:   "answer means wildcard",
			result: QueryResult{Status: QueryOK, Answer: []dns.RR{&dns.A{}}},
			want:   WildcardDetected,
		},
		{
			name:   "nxdomain means clean",
			result: QueryResult{Status: QueryNoRecord, Rcode: dns.RcodeNameError},
			want:   WildcardClean,
		},
		{
			name:   "timeout means resolver unavailable",
			result: QueryResult{Status: QueryTimeout},
			want:   WildcardResolverUnavailable,
		},
		{
			name:   "no nameservers means resolver unavailable",
			result: QueryResult{Status: QueryNameserverError, Err: errNoNameservers},
			want:   WildcardResolverUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			querier := newFakeQuerier(func(string, int) QueryResult { return tt.result })
			detector := NewWildcardDetector(querier, wildcardLabelStar)

			status, probe := detector.Detect(context.Background(), "example.com")
			if status != tt.want {
				t.Errorf("status = %v, want %v", status, tt.want)
			}
			if probe.Name != "*.example.com" {
				t.Errorf("probe name = %q, want *.example.com", probe.Name)
			}
			if querier.total() != 1 {
				t.Errorf("sent %d queries, want exactly 1", querier.total())
			}
		})
	}
}

func TestWildcardDetectCachesVerdicts(t *testing.T) {
	querier := newFakeQuerier(func(name string, _ int) QueryResult {
		if name == "*.broken.test" {
			return QueryResult{Status: QueryTimeout}
		}
		return QueryResult{Status: QueryNoRecord}
	})
	detector := NewWildcardDetector(querier, wildcardLabelStar)

	for i := 0; i < 2; i++ {
		if status, _ := detector.Detect(context.Background(), "clean.test"); status != WildcardClean {
			t.Fatalf("status = %v, want clean", status)
		}
		detector.Detect(context.Background(), "broken.test")
	}

	if got := querier.count("*.clean.test"); got != 1 {
		t.Errorf("clean domain probed %d times, want 1", got)
	}
	if got := querier.count("*.broken.test"); got != 2 {
		t.Errorf("unavailable verdict was cached: probed %d times, want 2", got)
	}
	if detector.GetCacheSize() != 1 {
		t.Errorf("cache size = %d, want 1", detector.GetCacheSize())
	}
}

func TestWildcardDetectRandomLabel(t *testing.T) {
	querier := newFakeQuerier(func(string, int) QueryResult { return QueryResult{Status: QueryNoRecord} })
	detector := NewWildcardDetector(querier, wildcardLabelRandom)

	_, probe := detector.Detect(context.Background(), "example.com")

	pattern := regexp.MustCompile(`^[a-z0-9]{12}\.example\.com$`)
	if !pattern.MatchString(probe.Name) {
		t.Errorf("probe name %q does not match %s", probe.Name, pattern)
	}
}

func TestWildcardDetectAgainstServer(t *testing.T) {
	server := startTestServer(t, map[string]zoneEntry{
		"*.wild.test": {
			rcode:  dns.RcodeSuccess,
			answer: []dns.RR{mustRR(t, "*.wild.test. 60 IN A 192.0.2.10")},
		},
	})
	detector := NewWildcardDetector(newTestPool(t, defaultTestTimeout, server.addr), wildcardLabelStar)

	if status, _ := detector.Detect(context.Background(), "wild.test"); status != WildcardDetected {
		t.Errorf("wild.test: status = %v, want wildcard", status)
	}
	if status, _ := detector.Detect(context.Background(), "clean.test"); status != WildcardClean {
		t.Errorf("clean.test: status = %v, want clean", status)
	}

	unavailable := NewWildcardDetector(newTestPool(t, defaultTestTimeout), wildcardLabelStar)
	status, probe := unavailable.Detect(context.Background(), "clean.test")
	if status != WildcardResolverUnavailable || !errors.Is(probe.Err, errNoNameservers) {
		t.Errorf("empty pool: status = %v, err = %v", status, probe.Err)
	}
}
