package main

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Config holds all configuration options for the brute forcer
type Config struct {
	// Input/Output options
	Domains      string
	DomainsFile  string
	Wordlist     string
	OutputFile   string
	LogFile      string
	OutputFormat string

	// DNS resolver options
	Resolvers     string
	ResolversFile string
	Net           string
	WildcardLabel string

	// Performance options
	QPS     int
	Timeout int
	Retries int
	Workers int

	// Feature flags
	Verbose bool
	Help    bool
	Version bool
	Quiet   bool
}

// Validate reports every invalid option at once.
func (c *Config) Validate() error {
	var result error

	switch c.OutputFormat {
	case "simple", "json", "csv":
	default:
		result = multierror.Append(result, fmt.Errorf("unknown output format %q", c.OutputFormat))
	}

	switch c.Net {
	case "udp", "tcp":
	default:
		result = multierror.Append(result, fmt.Errorf("unknown transport %q", c.Net))
	}

	switch c.WildcardLabel {
	case wildcardLabelStar, wildcardLabelRandom:
	default:
		result = multierror.Append(result, fmt.Errorf("unknown wildcard label mode %q", c.WildcardLabel))
	}

	if c.QPS < 0 {
		result = multierror.Append(result, fmt.Errorf("qps must not be negative, got %d", c.QPS))
	}
	if c.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("timeout must be positive, got %d", c.Timeout))
	}
	if c.Retries <= 0 {
		result = multierror.Append(result, fmt.Errorf("retries must be positive, got %d", c.Retries))
	}
	if c.Workers <= 0 {
		result = multierror.Append(result, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.Verbose && c.Quiet {
		result = multierror.Append(result, fmt.Errorf("verbose and quiet are mutually exclusive"))
	}

	return result
}

// GetDefaultResolvers returns a list of popular public DNS resolvers
func GetDefaultResolvers() []string {
	return []string{
		"8.8.8.8:53",         // Google DNS
		"8.8.4.4:53",         // Google DNS
		"1.1.1.1:53",         // Cloudflare DNS
		"1.0.0.1:53",         // Cloudflare DNS
		"9.9.9.9:53",         // Quad9 DNS
		"149.112.112.112:53", // Quad9 DNS
		"208.67.222.222:53",  // OpenDNS
		"208.67.220.220:53",  // OpenDNS
	}
}
