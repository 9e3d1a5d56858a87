package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// HostSink receives discovered hosts. Implementations must be safe for
// concurrent use by probe workers.
type HostSink interface {
	AddHost(host DiscoveredHost) error
}

// OutputHandler is the HostSink writing unique hosts in the configured format
type OutputHandler struct {
	out    io.Writer
	file   *os.File
	format string
	csv    *csv.Writer
	seen   map[string]bool
	mutex  sync.Mutex
}

// OutputRecord represents a single discovered host for output
type OutputRecord struct {
	Host      string `json:"host"`
	Kind      string `json:"kind"`
	Candidate string `json:"candidate"`
	Domain    string `json:"domain"`
}

// NewOutputHandler creates an output handler writing to filename, or to stdout
// when filename is empty
func NewOutputHandler(filename, format string) (*OutputHandler, error) {
	var file *os.File
	var out io.Writer = os.Stdout

	if filename != "" {
		var err error
		file, err = os.Create(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file: %w", err)
		}
		out = file
	}

	handler, err := newOutputHandler(out, format)
	if err != nil {
		if file != nil {
			file.Close()
		}
		return nil, err
	}
	handler.file = file
	return handler, nil
}

func newOutputHandler(out io.Writer, format string) (*OutputHandler, error) {
	handler := &OutputHandler{
		out:    out,
		format: format,
		seen:   make(map[string]bool),
	}

	if format == "csv" {
		handler.csv = csv.NewWriter(out)
		if err := handler.csv.Write([]string{"Host", "Kind", "Candidate", "Domain"}); err != nil {
			return nil, fmt.Errorf("failed to write csv header: %w", err)
		}
		handler.csv.Flush()
		if err := handler.csv.Error(); err != nil {
			return nil, fmt.Errorf("failed to write csv header: %w", err)
		}
	}

	return handler, nil
}

// AddHost writes host unless a host with the same name was already written
func (o *OutputHandler) AddHost(host DiscoveredHost) error {
	name := strings.ToLower(host.Name)

	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.seen[name] {
		return nil
	}
	o.seen[name] = true

	record := OutputRecord{
		Host:      name,
		Kind:      host.Kind.String(),
		Candidate: host.Candidate,
		Domain:    host.Domain,
	}

	switch o.format {
	case "json":
		return o.writeJSON(record)
	case "csv":
		return o.writeCSV(record)
	default:
		return o.writeSimple(record)
	}
}

// Count returns the number of unique hosts written so far
func (o *OutputHandler) Count() int {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	return len(o.seen)
}

// writeSimple writes a record as a bare hostname line
func (o *OutputHandler) writeSimple(record OutputRecord) error {
	_, err := fmt.Fprintln(o.out, record.Host)
	return err
}

// writeJSON writes a record as one JSON line
func (o *OutputHandler) writeJSON(record OutputRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(o.out, "%s\n", data)
	return err
}

// writeCSV writes a record as a CSV row
func (o *OutputHandler) writeCSV(record OutputRecord) error {
	row := []string{
		record.Host,
		record.Kind,
		record.Candidate,
		record.Domain,
	}
	if err := o.csv.Write(row); err != nil {
		return err
	}
	o.csv.Flush()
	return o.csv.Error()
}

// Close flushes pending output and closes the output file
func (o *OutputHandler) Close() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	var result error

	if o.csv != nil {
		o.csv.Flush()
		if err := o.csv.Error(); err != nil {
			result = multierror.Append(result, fmt.Errorf("flushing csv: %w", err))
		}
	}

	if o.file != nil {
		if err := o.file.Sync(); err != nil {
			result = multierror.Append(result, fmt.Errorf("syncing output: %w", err))
		}
		if err := o.file.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("closing output: %w", err))
		}
	}

	return result
}
