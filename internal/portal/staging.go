package portal

import (
	"io"
	"time"
)

// StageCheck is called by the staging area once the upload has been spooled,
// with its real size and leading bytes. A non-nil error aborts the upload and
// leaves nothing behind.
type StageCheck func(size int64, prefix []byte) error

// StagedFile describes a file written into the staging root.
type StagedFile struct {
	Rel  string // relative upload path
	Item string // top-level segment, the unit of moderation
	Size int64
}

// StagingArea holds uploads awaiting moderation.
type StagingArea interface {
	// Stage reads at most limit+1 bytes from r into a hidden spool file,
	// runs check, and moves the spool to staging/<rel> when it passes.
	// An existing file at rel is replaced.
	Stage(rel string, r io.Reader, limit int64, check StageCheck) (*StagedFile, error)

	// Exists reports whether staging/<rel> is present.
	Exists(rel string) (bool, error)

	// Resolve returns the contained path of a staged item.
	Resolve(rel string) (*Path, error)

	// Discard removes staging/<rel> and everything beneath it.
	Discard(rel string) error

	// Items lists the top-level items currently staged.
	Items() ([]*Entry, error)
}

// StagedUpload is returned by IngestUpload.
type StagedUpload struct {
	StagedFile
	Owner     string
	Suggested string
	Time      time.Time
}
