package testutil

import (
	"portal-go/internal/encryption"
)

// NewTestEncryptor returns a crypto-free encryptor for export tests.
func NewTestEncryptor() *encryption.TestEncryptor {
	return encryption.NewTestEncryptor()
}
