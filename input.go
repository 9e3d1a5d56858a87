package main

import (
	"bufio"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
)

//go:embed hostnames.txt
var bundledWordlist string

var errEmptyWordlist = errors.New("wordlist contains no labels")

var dnsNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]([a-zA-Z0-9\-_]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9_]([a-zA-Z0-9\-_]{0,61}[a-zA-Z0-9])?)*$`)

// LoadWordlist reads candidate labels from path, or the bundled list when path
// is empty. Lines are trimmed; blank lines and comments are skipped.
func LoadWordlist(path string) ([]string, error) {
	if path == "" {
		return readWords(strings.NewReader(bundledWordlist))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wordlist: %w", err)
	}
	defer file.Close()

	words, err := readWords(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return words, nil
}

func readWords(reader io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(reader)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading wordlist: %w", err)
	}
	if len(words) == 0 {
		return nil, errEmptyWordlist
	}

	return words, nil
}

// candidateName joins a wordlist label and a base domain
func candidateName(label, domain string) string {
	return label + "." + domain
}

// generateCandidates lazily yields one candidate per word for domain. The
// channel is closed once every word was sent or ctx is done. words is only
// read, so the same slice can be reused for every domain of a run.
func generateCandidates(ctx context.Context, words []string, domain string) <-chan string {
	candidates := make(chan string)

	go func() {
		defer close(candidates)
		for _, word := range words {
			select {
			case candidates <- candidateName(word, domain):
			case <-ctx.Done():
				return
			}
		}
	}()

	return candidates
}

// InputReader handles reading and validating base domains from input
type InputReader struct {
	scanner   *bufio.Scanner
	validator *DomainValidator
	logger    *logrus.Logger
}

// DomainValidator validates base domains
type DomainValidator struct {
	domainRegex *regexp.Regexp
}

// NewDomainValidator creates a validator for base domains
func NewDomainValidator() *DomainValidator {
	return &DomainValidator{
		domainRegex: dnsNamePattern,
	}
}

// NewInputReader creates a new input reader
func NewInputReader(reader io.Reader, logger *logrus.Logger) *InputReader {
	return &InputReader{
		scanner:   bufio.NewScanner(reader),
		validator: NewDomainValidator(),
		logger:    logger,
	}
}

// ReadDomains reads, normalizes and validates base domains from input
func (r *InputReader) ReadDomains() ([]string, error) {
	var domains []string
	lineNum := 0

	for r.scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		domain := NormalizeDomain(line)
		if err := r.validator.Validate(domain); err != nil {
			r.logger.Warnf("Invalid domain on line %d: %v", lineNum, err)
			continue
		}
		domains = append(domains, domain)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	return domains, nil
}

// NormalizeDomain lower-cases domain and strips whitespace and the root label
func NormalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	return strings.TrimSuffix(domain, ".")
}

// Validate checks that domain is a syntactically valid name that can hold
// hostnames of its own, i.e. it is not a bare public suffix such as "co.uk"
func (v *DomainValidator) Validate(domain string) error {
	if len(domain) == 0 || len(domain) > 253 {
		return fmt.Errorf("%q: invalid length", domain)
	}
	if !v.domainRegex.MatchString(domain) {
		return fmt.Errorf("%q: not a valid domain name", domain)
	}

	suffix, icann := publicsuffix.PublicSuffix(domain)
	if icann && suffix == domain {
		return fmt.Errorf("%q: is a public suffix", domain)
	}
	if !strings.Contains(domain, ".") {
		return fmt.Errorf("%q: is a top-level domain", domain)
	}

	return nil
}

// ReadDomainsFromFile reads domains from a file
func ReadDomainsFromFile(filename string, logger *logrus.Logger) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open domains file: %w", err)
	}
	defer file.Close()

	return NewInputReader(file, logger).ReadDomains()
}

// ParseDomainList splits a comma separated list of domains
func ParseDomainList(list string, logger *logrus.Logger) []string {
	validator := NewDomainValidator()

	var domains []string
	for _, item := range strings.Split(list, ",") {
		domain := NormalizeDomain(item)
		if domain == "" {
			continue
		}
		if err := validator.Validate(domain); err != nil {
			logger.Warnf("Invalid domain: %v", err)
			continue
		}
		domains = append(domains, domain)
	}
	return domains
}

// FilterDomains drops repeated domains, keeping the first occurrence in order
func FilterDomains(domains []string) []string {
	var filtered []string
	seen := make(map[string]bool)

	for _, domain := range domains {
		if seen[domain] {
			continue
		}
		seen[domain] = true
		filtered = append(filtered, domain)
	}

	return filtered
}
