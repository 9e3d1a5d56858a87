package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestReadDomainsFromFlagsAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domains.txt")
	if err := os.WriteFile(path, []byte("example.org\nexample.com\n"), 0644); err != nil {
		t.Fatal(err)
	}
	logger, _ := newTestLogger()

	config := validConfig()
	config.Domains = "example.com,example.net"
	config.DomainsFile = path

	domains, err := readDomains(config, logger)
	if err != nil {
		t.Fatalf("readDomains() = %v", err)
	}
	want := []string{"example.com", "example.net", "example.org"}
	if !reflect.DeepEqual(domains, want) {
		t.Errorf("domains = %v, want %v", domains, want)
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		verbose, quiet bool
		want           logrus.Level
	}{
		{want: logrus.InfoLevel},
		{verbose: true, want: logrus.DebugLevel},
		{quiet: true, want: logrus.WarnLevel},
	}

	for _, tt := range tests {
		logger, closeLog, err := setupLogger("", tt.verbose, tt.quiet)
		if err != nil {
			t.Fatal(err)
		}
		if logger.GetLevel() != tt.want {
			t.Errorf("verbose=%v quiet=%v: level = %v, want %v", tt.verbose, tt.quiet, logger.GetLevel(), tt.want)
		}
		closeLog()
	}
}

func TestSetupLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	logger, closeLog, err := setupLogger(path, false, false)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hello")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("log file is empty")
	}
}
