package portal

import "io"

// Vault stores ledger exports. Operations stream through io.Reader and
// io.Writer so large logs are never held in memory by the backend.
type Vault interface {
	// Put stores an export under name. size is the number of bytes in r.
	Put(name string, r io.Reader, size int64) error

	// Get writes a stored export to w.
	Get(name string, w io.Writer) error

	// List returns stored export names in lexical order.
	List() ([]string, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
