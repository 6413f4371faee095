package portal

import (
	"io/fs"
	"strings"
	"time"
)

// Entry is one row of a directory listing.
type Entry struct {
	Name    string
	Rel     string // root-relative, forward slashes
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// SortKey is the case-insensitive ordering key for listings.
func (e *Entry) SortKey() string { return strings.ToLower(e.Name) }

// Namespace provides every filesystem touch the portal makes. All paths go
// through Resolve first; nothing else accepts a raw string.
type Namespace interface {
	// Resolve validates rel against the named root and returns a contained Path.
	// Escapes of any kind wrap ErrForbidden.
	Resolve(root RootName, rel string) (*Path, error)

	// List returns the visible entries of a directory, folders first, each
	// group ordered by SortKey. Wraps ErrNotFound if the directory is missing.
	List(dir *Path) ([]*Entry, error)

	// Stat returns file info, wrapping ErrNotFound when absent.
	Stat(p *Path) (fs.FileInfo, error)

	// Exists reports whether anything is present at p.
	Exists(p *Path) (bool, error)

	// Mkdir creates a single directory. Wraps ErrConflict if p exists and
	// ErrNotFound if the parent is missing.
	Mkdir(p *Path) error

	// MkdirAll creates p and any missing parents.
	MkdirAll(p *Path) error

	// Move relocates src to dst, which must not exist. Falls back to
	// copy-then-delete across volumes.
	Move(src, dst *Path) error

	// RemoveAll deletes p and everything beneath it.
	RemoveAll(p *Path) error

	// Hidden reports whether the entry at a root-relative path is excluded
	// from listings.
	Hidden(rel string) bool
}
