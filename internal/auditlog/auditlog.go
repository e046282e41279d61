// Package auditlog appends one CSV record per evaluation to a log file.
//
// The file is opened in append mode and closed after every record, so the
// log stays valid even if the process dies between evaluations. A header row
// is written when the file is empty.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Validation statuses written to the log.
const (
	StatusValid   = "VALID"
	StatusInvalid = "INVALID"
)

// TimeLayout is the timestamp format of the log.
const TimeLayout = "2006-01-02 15:04:05"

var header = []string{"timestamp", "source_name", "f0_total", "validation_status", "holding_minutes"}

// Record is one evaluation as it appears in the log.
type Record struct {
	Timestamp        time.Time
	SourceName       string
	F0Total          float64
	ValidationStatus string
	HoldingMinutes   int
}

// Status maps a holding-time verdict to its log status.
func Status(met bool) string {
	if met {
		return StatusValid
	}
	return StatusInvalid
}

// Sink receives evaluation records.
type Sink interface {
	Append(Record) error
}

// FileSink appends records to a CSV file.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink returns a sink writing to path. The file is created on the
// first Append.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the log file location.
func (s *FileSink) Path() string { return s.path }

// Append writes rec as one CSV line.
func (s *FileSink) Append(rec Record) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("auditlog: open %s: %w", s.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("auditlog: close %s: %w", s.path, cerr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("auditlog: stat %s: %w", s.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("auditlog: write header: %w", err)
		}
	}
	if err := w.Write(row(rec)); err != nil {
		return fmt.Errorf("auditlog: write record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("auditlog: flush: %w", err)
	}
	return nil
}

func row(rec Record) []string {
	return []string{
		rec.Timestamp.Format(TimeLayout),
		rec.SourceName,
		strconv.FormatFloat(rec.F0Total, 'f', 2, 64),
		rec.ValidationStatus,
		strconv.Itoa(rec.HoldingMinutes),
	}
}

// Discard is a Sink that drops every record.
var Discard Sink = discard{}

type discard struct{}

func (discard) Append(Record) error { return nil }
