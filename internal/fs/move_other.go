//go:build !unix

package fs

import (
	"errors"
	"os"
)

// isCrossDevice treats any link error as a possible volume boundary.
func isCrossDevice(err error) bool {
	var le *os.LinkError
	return errors.As(err, &le)
}

func isNotDir(err error) bool { return false }
