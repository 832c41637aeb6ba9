package metadata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// DefaultFileName is the metadata log name under the dataset root
const DefaultFileName = "dataset_metadata.csv"

// Header is the first row of every metadata log
var Header = []string{"filename", "label", "source", "query", "url"}

// Record describes one saved image
type Record struct {
	Filename string
	Label    string
	Source   string
	Query    string
	URL      string
}

func (r Record) row() []string {
	return []string{r.Filename, r.Label, r.Source, r.Query, r.URL}
}

// Log is an append-only CSV metadata file
type Log struct {
	path string
	mu   sync.Mutex
}

// Open prepares the log at path, writing the header if the file does not exist
// or is empty. Existing rows are never rewritten.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create metadata directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat metadata file: %w", err)
	}

	if info.Size() == 0 {
		if err := writeRows(f, Header); err != nil {
			return nil, fmt.Errorf("failed to write metadata header: %w", err)
		}
	}

	return &Log{path: path}, nil
}

// Path returns the file the log appends to
func (l *Log) Path() string {
	return l.path
}

// Append writes one record as a CSV row
func (l *Log) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open metadata file: %w", err)
	}

	if err := writeRows(f, rec.row()); err != nil {
		f.Close()
		return fmt.Errorf("failed to append metadata row: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close metadata file: %w", err)
	}
	return nil
}

// ReadAll loads every record from the log, skipping the header
func (l *Log) ReadAll() ([]Record, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	var records []Record
	first := true
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse metadata file: %w", err)
		}
		if first {
			first = false
			if row[0] == Header[0] {
				continue
			}
		}
		records = append(records, Record{
			Filename: row[0],
			Label:    row[1],
			Source:   row[2],
			Query:    row[3],
			URL:      row[4],
		})
	}

	return records, nil
}

func writeRows(w io.Writer, rows ...[]string) error {
	cw := csv.NewWriter(w)
	// Rows end in CRLF like files written by Python's csv module
	cw.UseCRLF = true
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
