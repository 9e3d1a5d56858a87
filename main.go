// DNS hostname brute forcer
// Probes wordlist labels under each base domain and records the hosts that resolve
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultQPS     = 0
	defaultTimeout = 3
	defaultWorkers = 10
)

var version = "1.0.0"

func main() {
	os.Exit(run())
}

func run() int {
	config := parseFlags()

	if config.Help {
		printUsage()
		return 0
	}

	if config.Version {
		fmt.Println("hostbrute v" + version)
		return 0
	}

	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid options: %v\n", err)
		return 2
	}

	// Initialize logger
	logger, closeLog, err := setupLogger(config.LogFile, config.Verbose, config.Quiet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		return 1
	}
	defer closeLog()

	// The wordlist is loaded before any domain is touched; without it there is nothing to do
	words, err := LoadWordlist(config.Wordlist)
	if err != nil {
		logger.WithError(err).Error("Unable to load wordlist")
		return 1
	}
	logger.Debugf("Loaded %d labels", len(words))

	domains, err := readDomains(config, logger)
	if err != nil {
		logger.WithError(err).Error("Unable to read domains")
		return 1
	}
	if len(domains) == 0 {
		logger.Error("No domains to brute force")
		return 1
	}

	rateLimiter := NewRateLimiter(config.QPS)
	resolverPool := NewResolverPool(config, rateLimiter, logger)
	wildcardDetector := NewWildcardDetector(resolverPool, config.WildcardLabel)

	outputHandler, err := NewOutputHandler(config.OutputFile, config.OutputFormat)
	if err != nil {
		logger.WithError(err).Error("Unable to open output")
		return 1
	}
	defer func() {
		if err := outputHandler.Close(); err != nil {
			logger.WithError(err).Error("Unable to close output")
		}
	}()

	stats := NewStats()
	reporter := NewReporter(logger, os.Stderr, config.Quiet)

	// Setup signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if config.Verbose {
		go stats.StartReporter(ctx, logger, 10*time.Second)
	}

	bruteforcer := NewBruteforcer(resolverPool, wildcardDetector, outputHandler, reporter, stats,
		config.Workers, config.Retries)

	if err := bruteforcer.Run(ctx, domains, words); err != nil {
		logger.WithError(err).Warn("Brute force interrupted")
	}

	logger.Infof("%d unique hosts recorded", outputHandler.Count())
	if !config.Quiet {
		stats.PrintFinalStats(logger)
	}

	return 0
}

func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.Domains, "d", "", "Comma-separated list of base domains")
	flag.StringVar(&config.DomainsFile, "dL", "", "File containing base domains (default: stdin when -d is not given)")
	flag.StringVar(&config.Wordlist, "w", "", "Hostname wordlist (default: bundled list)")
	flag.StringVar(&config.OutputFile, "o", "", "Output file for discovered hosts (default: stdout)")
	flag.StringVar(&config.LogFile, "l", "", "Log file (default: stderr)")
	flag.StringVar(&config.OutputFormat, "f", "simple", "Output format: simple, json, csv")
	flag.StringVar(&config.ResolversFile, "rf", "", "File containing DNS resolver addresses")
	flag.StringVar(&config.Resolvers, "r", "", "Comma-separated list of DNS resolver addresses (default: system resolvers)")
	flag.StringVar(&config.Net, "net", "udp", "DNS transport: udp, tcp")
	flag.StringVar(&config.WildcardLabel, "wildcard-label", wildcardLabelStar, "Wildcard probe label: star (*.domain), random")
	flag.IntVar(&config.QPS, "qps", defaultQPS, "Maximum queries per second (0: unlimited)")
	flag.IntVar(&config.Timeout, "timeout", defaultTimeout, "Query timeout in seconds")
	flag.IntVar(&config.Retries, "retries", defaultMaxAttempts, "Maximum query attempts per candidate on timeout")
	flag.IntVar(&config.Workers, "workers", defaultWorkers, "Number of concurrent probes per domain")
	flag.BoolVar(&config.Verbose, "v", false, "Verbose logging")
	flag.BoolVar(&config.Help, "h", false, "Show help message")
	flag.BoolVar(&config.Version, "version", false, "Show version information")
	flag.BoolVar(&config.Quiet, "q", false, "Quiet mode (suppress non-essential output)")

	flag.Parse()

	return config
}

func printUsage() {
	fmt.Println("hostbrute - DNS hostname brute forcer")
	fmt.Println()
	fmt.Println("Usage: hostbrute [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  hostbrute -d example.com")
	fmt.Println("  hostbrute -dL domains.txt -w hostnames.txt -o hosts.txt -workers 50")
	fmt.Println("  echo example.com | hostbrute -r 8.8.8.8,1.1.1.1 -f json -v")
}

// setupLogger builds the run logger. The returned func closes the log file, if any.
func setupLogger(logFile string, verbose, quiet bool) (*logrus.Logger, func(), error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	switch {
	case verbose:
		logger.SetLevel(logrus.DebugLevel)
	case quiet:
		logger.SetLevel(logrus.WarnLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	closeLog := func() {}
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		logger.SetOutput(file)
		closeLog = func() { file.Close() }
	}

	return logger, closeLog, nil
}

// readDomains collects base domains from -d, -dL or stdin, keeping their order
func readDomains(config *Config, logger *logrus.Logger) ([]string, error) {
	var domains []string

	if config.Domains != "" {
		domains = append(domains, ParseDomainList(config.Domains, logger)...)
	}

	if config.DomainsFile != "" {
		fileDomains, err := ReadDomainsFromFile(config.DomainsFile, logger)
		if err != nil {
			return nil, err
		}
		domains = append(domains, fileDomains...)
	}

	if config.Domains == "" && config.DomainsFile == "" {
		stdinDomains, err := NewInputReader(os.Stdin, logger).ReadDomains()
		if err != nil {
			return nil, err
		}
		domains = append(domains, stdinDomains...)
	}

	return FilterDomains(domains), nil
}
