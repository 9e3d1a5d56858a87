package main

import (
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

const defaultTestTimeout = time.Second

// zoneEntry scripts how the test server answers one name
type zoneEntry struct {
	rcode  int
	answer []dns.RR
	// drop leaves the query unanswered so the client times out
	drop bool
}

type testServer struct {
	addr    string
	mu      sync.Mutex
	zone    map[string]zoneEntry
	queries map[string]int
}

// startTestServer serves zone on a random UDP port of 127.0.0.1. Names missing
// from zone get NXDOMAIN.
func startTestServer(t *testing.T, zone map[string]zoneEntry) *testServer {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := &testServer{
		addr:    pc.LocalAddr().String(),
		zone:    make(map[string]zoneEntry),
		queries: make(map[string]int),
	}
	for name, entry := range zone {
		s.zone[dns.Fqdn(strings.ToLower(name))] = entry
	}

	started := make(chan struct{})
	server := &dns.Server{
		PacketConn:        pc,
		Handler:           dns.HandlerFunc(s.handle),
		NotifyStartedFunc: func() { close(started) },
	}
	go server.ActivateAndServe()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("dns server did not start")
	}
	t.Cleanup(func() { server.Shutdown() })

	return s
}

func (s *testServer) handle(w dns.ResponseWriter, r *dns.Msg) {
	name := strings.ToLower(r.Question[0].Name)

	s.mu.Lock()
	s.queries[name]++
	entry, ok := s.zone[name]
	s.mu.Unlock()

	if ok && entry.drop {
		return
	}

	reply := &dns.Msg{}
	reply.SetReply(r)
	if !ok {
		reply.Rcode = dns.RcodeNameError
	} else {
		reply.Rcode = entry.rcode
		reply.Answer = entry.answer
	}
	w.WriteMsg(reply)
}

func (s *testServer) queryCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[dns.Fqdn(strings.ToLower(name))]
}

func mustRR(t *testing.T, s string) dns.RR {
	t.Helper()
	rr, err := dns.NewRR(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return rr
}

func newTestLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func newTestReporter() *Reporter {
	logger, _ := newTestLogger()
	return NewReporter(logger, io.Discard, false)
}

// newTestPool builds an unchecked pool against the given servers
func newTestPool(t *testing.T, timeout time.Duration, addrs ...string) *ResolverPool {
	t.Helper()
	logger, _ := newTestLogger()
	return newResolverPool(addrs, timeout, "udp", nil, logger, false)
}

// fakeQuerier answers with a scripted result per name and attempt
type fakeQuerier struct {
	mu     sync.Mutex
	calls  map[string]int
	order  []string
	script func(name string, attempt int) QueryResult
}

func newFakeQuerier(script func(name string, attempt int) QueryResult) *fakeQuerier {
	return &fakeQuerier{
		calls:  make(map[string]int),
		script: script,
	}
}

func (f *fakeQuerier) Query(_ context.Context, name string) QueryResult {
	f.mu.Lock()
	f.calls[name]++
	attempt := f.calls[name]
	f.order = append(f.order, name)
	f.mu.Unlock()

	result := f.script(name, attempt)
	result.Name = name
	return result
}

func (f *fakeQuerier) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeQuerier) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}

func (f *fakeQuerier) queried() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

// recordingSink keeps every host it is given
type recordingSink struct {
	mu    sync.Mutex
	hosts []DiscoveredHost
}

func (s *recordingSink) AddHost(host DiscoveredHost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosts = append(s.hosts, host)
	return nil
}

func (s *recordingSink) names() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make(map[string]bool)
	for _, host := range s.hosts {
		names[host.Name] = true
	}
	return names
}
