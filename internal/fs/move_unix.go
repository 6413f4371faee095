//go:build unix

package fs

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isCrossDevice reports whether a rename failed because source and
// destination are on different filesystems.
func isCrossDevice(err error) bool {
	return errors.Is(err, unix.EXDEV)
}

// isNotDir reports whether a path component that should be a directory is a file.
func isNotDir(err error) bool {
	return errors.Is(err, unix.ENOTDIR)
}
