package vault

import (
	"fmt"
	"strings"

	"portal-go/internal/portal"
)

// CheckName rejects export names that are not a single plain segment.
// Every backend stores exports flat, keyed by name.
func CheckName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, "/\\\x00") || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid export name %q: %w", name, portal.ErrInvalid)
	}
	return nil
}
