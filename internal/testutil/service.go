package testutil

import (
	"path/filepath"
	"testing"

	"portal-go/internal/bucket"
	"portal-go/internal/config"
	"portal-go/internal/encryption"
	"portal-go/internal/ledger"
	"portal-go/internal/portal"
	"portal-go/internal/ratelimit"
	"portal-go/internal/staging"
	"portal-go/internal/trash"
	"portal-go/internal/upload"
	"portal-go/internal/vault"
)

// Common actors for service tests.
var (
	Admin = portal.Actor{Identity: "admin@example.com", Role: portal.RoleAdmin}
	Alice = portal.Actor{Identity: "alice@example.com", Role: portal.RoleUser}
	Bob   = portal.Actor{Identity: "bob@example.com", Role: portal.RoleUser}
)

// TestEnv is a PortalService wired to real filesystem components in a temp
// directory, an in-memory ledger and a stub clock.
type TestEnv struct {
	Service   *portal.PortalService
	Roots     *TestRoots
	Ledger    *ledger.MemoryLedger
	Accounts  *bucket.Machine
	Store     *bucket.Store
	Vault     *vault.MemoryVault
	Encryptor *encryption.TestEncryptor
	Clock     *StubClock
	IDGen     *StubIDGenerator
}

// NewTestService builds a TestEnv with default upload limits and cooldowns.
func NewTestService(t *testing.T) *TestEnv {
	t.Helper()
	return NewTestServiceWithUploads(t, config.DefaultUploadsConfig())
}

// NewTestServiceWithUploads builds a TestEnv with the given upload limits.
func NewTestServiceWithUploads(t *testing.T, uploads config.UploadsConfig) *TestEnv {
	t.Helper()

	roots := NewTestRoots(t)
	led := ledger.NewMemoryLedger()
	clock := FixedClock()
	idgen := NewStubIDGenerator()

	store, err := bucket.NewStore(filepath.Join(t.TempDir(), "accounts"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	accounts := bucket.NewMachine(store)

	ladder, err := ratelimit.NewLadder(nil)
	if err != nil {
		t.Fatalf("NewLadder() error = %v", err)
	}
	v := NewTestVault()
	enc := NewTestEncryptor()

	svc := portal.NewPortalService(portal.Components{
		Namespace: roots.Namespace,
		Staging:   staging.NewFileSystemStagingArea(roots.Namespace),
		Validator: upload.NewValidator(uploads),
		Ledger:    led,
		Moderator: accounts,
		Trash:     trash.NewArchive(roots.Namespace, led, clock, idgen),
		Quota:     ladder,
		Vault:     v,
		Encryptor: enc,
		Clock:     clock,
		IDGen:     idgen,
	})

	return &TestEnv{
		Service:   svc,
		Roots:     roots,
		Ledger:    led,
		Accounts:  accounts,
		Store:     store,
		Vault:     v,
		Encryptor: enc,
		Clock:     clock,
		IDGen:     idgen,
	}
}

// Records returns every record of a log, failing the test on error.
func (e *TestEnv) Records(t *testing.T, log portal.LogName) []portal.Record {
	t.Helper()
	recs, err := e.Ledger.ReadAll(log)
	if err != nil {
		t.Fatalf("ReadAll(%s) error = %v", log, err)
	}
	return recs
}
