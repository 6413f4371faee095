package staging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"portal-go/internal/portal"
)

// spoolPattern names in-flight uploads. The leading "." keeps them out of
// listings and out of the moderation queue.
const spoolPattern = ".upload-*"

// FileSystemStagingArea implements portal.StagingArea on the staging root.
// Uploads are spooled to a hidden file first and only renamed into place
// after the caller's check passes, so a rejected upload leaves nothing behind.
//
// Layout:
//
//	<staging>/
//	  .upload-*          (spool files, transient)
//	  <file>             (single-file upload)
//	  <dir>/<...>/<file> (directory upload, one top-level item)
type FileSystemStagingArea struct {
	ns portal.Namespace
	mu sync.Mutex
}

var _ portal.StagingArea = (*FileSystemStagingArea)(nil)

// NewFileSystemStagingArea creates a staging area over the namespace's staging root.
func NewFileSystemStagingArea(ns portal.Namespace) *FileSystemStagingArea {
	return &FileSystemStagingArea{ns: ns}
}

// Stage spools r, runs check with the spooled size and leading bytes, and
// places the result at staging/<rel>, replacing an earlier file of the same name.
func (s *FileSystemStagingArea) Stage(rel string, r io.Reader, limit int64, check portal.StageCheck) (*portal.StagedFile, error) {
	target, err := s.ns.Resolve(portal.RootStaging, rel)
	if err != nil {
		return nil, err
	}
	if target.IsRoot() {
		return nil, fmt.Errorf("empty upload path: %w", portal.ErrInvalid)
	}
	root, err := s.ns.Resolve(portal.RootStaging, "")
	if err != nil {
		return nil, err
	}

	tmpFile, err := os.CreateTemp(root.String(), spoolPattern)
	if err != nil {
		return nil, fmt.Errorf("creating spool file: %w: %w", portal.ErrIO, err)
	}
	tmpPath := tmpFile.Name()

	// Clean up spool file on failure
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	// One byte past the limit is enough to tell the upload is too large.
	prefix := &prefixBuffer{max: portal.SignatureLength}
	written, err := io.Copy(tmpFile, io.TeeReader(io.LimitReader(r, limit+1), prefix))
	if err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("spooling upload: %w: %w", portal.ErrIO, err)
	}
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("closing spool file: %w: %w", portal.ErrIO, err)
	}

	if check != nil {
		if err := check(written, prefix.Bytes()); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if parent := path.Dir(target.Rel()); parent != "." {
		if err := s.checkAncestors(parent); err != nil {
			return nil, err
		}
		dir, err := s.ns.Resolve(portal.RootStaging, parent)
		if err != nil {
			return nil, err
		}
		if err := s.ns.MkdirAll(dir); err != nil {
			return nil, err
		}
	}
	if info, err := s.ns.Stat(target); err == nil && info.IsDir() {
		return nil, fmt.Errorf("staging %s: a directory of that name is pending: %w", target.Rel(), portal.ErrConflict)
	}

	if err := os.Rename(tmpPath, target.String()); err != nil {
		return nil, fmt.Errorf("placing upload: %w: %w", portal.ErrIO, err)
	}

	success = true
	return &portal.StagedFile{
		Rel:  target.Rel(),
		Item: portal.TopLevel(target.Rel()),
		Size: written,
	}, nil
}

// checkAncestors refuses to stage beneath a staged file.
func (s *FileSystemStagingArea) checkAncestors(dir string) error {
	for cur := ""; ; {
		next, rest, more := strings.Cut(dir, "/")
		cur = path.Join(cur, next)
		p, err := s.ns.Resolve(portal.RootStaging, cur)
		if err != nil {
			return err
		}
		info, err := s.ns.Stat(p)
		if err != nil {
			if errors.Is(err, portal.ErrNotFound) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("staging under %s: a file of that name is pending: %w", cur, portal.ErrConflict)
		}
		if !more {
			return nil
		}
		dir = rest
	}
}

// Exists reports whether staging/<rel> is present.
func (s *FileSystemStagingArea) Exists(rel string) (bool, error) {
	p, err := s.ns.Resolve(portal.RootStaging, rel)
	if err != nil {
		return false, err
	}
	if p.IsRoot() {
		return false, nil
	}
	return s.ns.Exists(p)
}

// Resolve returns the contained path of a staged entry.
func (s *FileSystemStagingArea) Resolve(rel string) (*portal.Path, error) {
	p, err := s.ns.Resolve(portal.RootStaging, rel)
	if err != nil {
		return nil, err
	}
	if p.IsRoot() {
		return nil, fmt.Errorf("empty staged path: %w", portal.ErrInvalid)
	}
	return p, nil
}

// Discard removes staging/<rel> and everything beneath it.
func (s *FileSystemStagingArea) Discard(rel string) error {
	p, err := s.Resolve(rel)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ns.RemoveAll(p)
}

// Items lists the top-level staged entries. Spool files are never included.
func (s *FileSystemStagingArea) Items() ([]*portal.Entry, error) {
	root, err := s.ns.Resolve(portal.RootStaging, "")
	if err != nil {
		return nil, err
	}
	return s.ns.List(root)
}

// prefixBuffer keeps the first max bytes written to it and discards the rest.
type prefixBuffer struct {
	buf []byte
	max int
}

func (b *prefixBuffer) Write(p []byte) (int, error) {
	if room := b.max - len(b.buf); room > 0 {
		b.buf = append(b.buf, p[:min(room, len(p))]...)
	}
	return len(p), nil
}

func (b *prefixBuffer) Bytes() []byte { return b.buf }
