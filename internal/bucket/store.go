package bucket

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"portal-go/internal/portal"
)

// SnapshotHeader is the column layout of every bucket snapshot file.
var SnapshotHeader = []string{"email", "password", "role", "status"}

// Store reads and rewrites the per-bucket snapshot files under one directory:
//
//	<dir>/
//	  pending.csv
//	  active.csv
//	  denied.csv
//
// A snapshot is always rewritten in full. Store does no locking of its own;
// callers serialize through Machine.
type Store struct {
	dir string
}

// NewStore creates dir if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("accounts directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating accounts directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// SnapshotPath returns the file holding bucket b.
func (s *Store) SnapshotPath(b portal.Bucket) string {
	return filepath.Join(s.dir, string(b)+".csv")
}

// Read parses a bucket snapshot. A missing file is an empty bucket. Rows
// with fewer than three columns are skipped and a missing status column
// reads as active.
func (s *Store) Read(b portal.Bucket) ([]*portal.Principal, error) {
	f, err := os.Open(s.SnapshotPath(b))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s bucket: %w: %w", b, portal.ErrIO, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var out []*portal.Principal
	for first := true; ; first = false {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s bucket: %w: %w", b, portal.ErrIntegrity, err)
		}
		if first && len(row) > 0 && row[0] == SnapshotHeader[0] {
			continue
		}
		if len(row) < 3 || row[0] == "" {
			continue
		}
		p := &portal.Principal{
			Identity:       row[0],
			CredentialHash: row[1],
			Role:           portal.Role(row[2]),
			Status:         portal.StatusActive,
		}
		if len(row) > 3 && row[3] != "" {
			p.Status = row[3]
		}
		out = append(out, p)
	}
	return out, nil
}

// Write replaces the snapshot of bucket b with ps via temp file and rename.
func (s *Store) Write(b portal.Bucket, ps []*portal.Principal) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(SnapshotHeader)
	for _, p := range ps {
		w.Write([]string{p.Identity, p.CredentialHash, string(p.Role), p.Status})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encoding %s bucket: %w: %w", b, portal.ErrIO, err)
	}

	dest := s.SnapshotPath(b)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("writing %s bucket: %w: %w", b, portal.ErrIO, err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s bucket: %w: %w", b, portal.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s bucket: %w: %w", b, portal.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s bucket: %w: %w", b, portal.ErrIO, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("replacing %s bucket: %w: %w", b, portal.ErrIO, err)
	}
	success = true
	return nil
}
