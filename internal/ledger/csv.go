package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"portal-go/internal/portal"
)

// CSVLedger stores each log as <dir>/<log>_log.csv with a header row.
//
// Every append is encoded into a buffer first and written with a single
// write on an O_APPEND descriptor, so concurrent writers never interleave
// partial rows.
type CSVLedger struct {
	dir string

	mu    sync.Mutex
	locks map[portal.LogName]*sync.Mutex
}

var _ portal.Ledger = (*CSVLedger)(nil)

// NewCSVLedger creates dir if needed.
func NewCSVLedger(dir string) (*CSVLedger, error) {
	if dir == "" {
		return nil, fmt.Errorf("ledger directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}
	return &CSVLedger{dir: dir, locks: make(map[portal.LogName]*sync.Mutex)}, nil
}

// FileName returns the on-disk name of a log.
func FileName(log portal.LogName) string {
	return string(log) + "_log.csv"
}

func (l *CSVLedger) path(log portal.LogName) (string, error) {
	if _, err := portal.ParseLogName(string(log)); err != nil {
		return "", fmt.Errorf("%w: %w", portal.ErrInvalid, err)
	}
	return filepath.Join(l.dir, FileName(log)), nil
}

func (l *CSVLedger) lock(log portal.LogName) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[log]
	if !ok {
		m = &sync.Mutex{}
		l.locks[log] = m
	}
	return m
}

func (l *CSVLedger) Append(log portal.LogName, rec portal.Record) error {
	p, err := l.path(log)
	if err != nil {
		return err
	}
	m := l.lock(log)
	m.Lock()
	defer m.Unlock()

	f, err := os.OpenFile(p, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("opening %s log: %w: %w", log, portal.ErrIO, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s log: %w: %w", log, portal.ErrIO, err)
	}

	var buf bytes.Buffer
	if info.Size() > 0 {
		// Terminate a torn final row so this record starts on its own line.
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, info.Size()-1); err != nil {
			return fmt.Errorf("reading %s log tail: %w: %w", log, portal.ErrIO, err)
		}
		if last[0] != '\n' {
			buf.WriteByte('\n')
		}
	}
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		w.Write(portal.RecordHeader)
	}
	w.Write(rec.Fields())
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encoding %s record: %w: %w", log, portal.ErrIO, err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("appending to %s log: %w: %w", log, portal.ErrIO, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing %s log: %w: %w", log, portal.ErrIO, err)
	}
	return nil
}

// ReadAll parses every row after the header. Rows whose timestamp cannot be
// parsed, such as a torn final line, are skipped.
func (l *CSVLedger) ReadAll(log portal.LogName) ([]portal.Record, error) {
	p, err := l.path(log)
	if err != nil {
		return nil, err
	}
	m := l.lock(log)
	m.Lock()
	defer m.Unlock()

	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s log: %w: %w", log, portal.ErrIO, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var recs []portal.Record
	for first := true; ; first = false {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return nil, fmt.Errorf("reading %s log: %w: %w", log, portal.ErrIO, err)
		}
		if first && len(fields) > 0 && fields[0] == portal.RecordHeader[0] {
			continue
		}
		rec, err := portal.ParseRecord(fields)
		if err != nil {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (l *CSVLedger) Close() error { return nil }
