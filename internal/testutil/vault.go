package testutil

import (
	"portal-go/internal/vault"
)

// NewTestVault creates a new in-memory export vault.
func NewTestVault() *vault.MemoryVault {
	return vault.NewMemoryVault("test-vault")
}
