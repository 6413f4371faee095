package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"portal-go/internal/config"
	"portal-go/internal/portal"

	"golang.org/x/crypto/bcrypt"
)

const adminID = "admin@example.com"

func newTestApp(t *testing.T) *PortalApp {
	t.Helper()
	cfg := config.NewConfig("test-instance", t.TempDir())
	cfg.Accounts.BcryptCost = bcrypt.MinCost
	cfg.Encryption.Type = "test"

	a, err := NewPortalApp(cfg, "Test")
	if err != nil {
		t.Fatalf("NewPortalApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func bootstrapAdmin(t *testing.T, a *PortalApp) portal.Actor {
	t.Helper()
	if err := a.AddAccount(adminID, "secret", true); err != nil {
		t.Fatalf("AddAccount(admin) error = %v", err)
	}
	actor, err := a.Actor(adminID)
	if err != nil {
		t.Fatalf("Actor() error = %v", err)
	}
	return actor
}

func TestPortalApp_Accounts(t *testing.T) {
	a := newTestApp(t)
	admin := bootstrapAdmin(t, a)
	if admin.Role != portal.RoleAdmin {
		t.Errorf("bootstrapped role = %q, want admin", admin.Role)
	}

	if err := a.AddAccount("second@example.com", "pw", true); !errors.Is(err, portal.ErrForbidden) {
		t.Errorf("second admin bootstrap error = %v, want ErrForbidden", err)
	}

	if err := a.AddAccount("user@example.com", "pw", false); err != nil {
		t.Fatalf("AddAccount(user) error = %v", err)
	}
	if _, err := a.Actor("user@example.com"); !errors.Is(err, portal.ErrForbidden) {
		t.Errorf("pending Actor() error = %v, want ErrForbidden", err)
	}
	if err := a.Service().Approve(admin, "user@example.com"); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	user, err := a.Actor("user@example.com")
	if err != nil || user.Role != portal.RoleUser {
		t.Errorf("Actor() = %+v, %v", user, err)
	}

	if err := a.CheckPassword("user@example.com", "pw"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}
	if err := a.CheckPassword("user@example.com", "nope"); !errors.Is(err, portal.ErrForbidden) {
		t.Errorf("CheckPassword(wrong) error = %v, want ErrForbidden", err)
	}

	if _, err := a.Actor(""); !errors.Is(err, portal.ErrInvalid) {
		t.Errorf("Actor(\"\") error = %v, want ErrInvalid", err)
	}
	if _, err := a.Actor("ghost@example.com"); !errors.Is(err, portal.ErrNotFound) {
		t.Errorf("Actor(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestPortalApp_UploadPath(t *testing.T) {
	a := newTestApp(t)
	admin := bootstrapAdmin(t, a)

	local := filepath.Join(t.TempDir(), "proj")
	for name, content := range map[string]string{"a.txt": "a", "sub/b.txt": "b", "tool.exe": "MZ"} {
		p := filepath.Join(local, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	res, err := a.UploadPath(admin, local, "docs")
	if err != nil {
		t.Fatalf("UploadPath() error = %v", err)
	}
	if len(res.Accepted) != 2 || len(res.Failures) != 1 {
		t.Fatalf("UploadPath() accepted %d, failures %v", len(res.Accepted), res.Failures)
	}

	pending, err := a.PendingUploads(admin, nil)
	if err != nil {
		t.Fatalf("PendingUploads() error = %v", err)
	}
	if len(pending) != 1 || pending[0].Item != "proj" || !pending[0].IsDir {
		t.Fatalf("PendingUploads() = %+v", pending)
	}

	pending, err = a.PendingUploads(admin, map[string]string{"proj": "archive"})
	if err != nil {
		t.Fatalf("PendingUploads(dests) error = %v", err)
	}
	if pending[0].Destination != "archive" {
		t.Errorf("Destination = %q, want archive", pending[0].Destination)
	}

	if _, err := a.PendingUploads(admin, map[string]string{"proj": "../x"}); !errors.Is(err, portal.ErrForbidden) {
		t.Errorf("PendingUploads(escape) error = %v, want ErrForbidden", err)
	}
}

func TestPortalApp_Suggest(t *testing.T) {
	a := newTestApp(t)
	admin := bootstrapAdmin(t, a)

	d, err := a.Suggest(admin, "first")
	if err != nil || !d.Allowed {
		t.Fatalf("Suggest() = %+v, %v", d, err)
	}
	d, err = a.Suggest(admin, "second")
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if d.Allowed {
		t.Error("second suggestion within a minute was allowed")
	}

	state, err := a.cooldownState(adminID)
	if err != nil {
		t.Fatalf("cooldownState() error = %v", err)
	}
	if state.Level != 1 || state.LastAction.IsZero() {
		t.Errorf("cooldownState() = %+v, want level 1", state)
	}
}

func TestPortalApp_ExportAndFetch(t *testing.T) {
	a := newTestApp(t)
	admin := bootstrapAdmin(t, a)
	if err := a.Service().RecordSession(adminID, portal.ActionLogin, ""); err != nil {
		t.Fatal(err)
	}
	if err := a.InitKeys("pw"); err != nil {
		t.Fatalf("InitKeys() error = %v", err)
	}
	if err := a.ValidateVault(); err != nil {
		t.Fatalf("ValidateVault() error = %v", err)
	}

	if _, err := a.ExportLedger(admin, "nonsense", false); !errors.Is(err, portal.ErrNotFound) {
		t.Errorf("ExportLedger(unknown log) error = %v, want ErrNotFound", err)
	}

	name, err := a.ExportLedger(admin, "session", true)
	if err != nil {
		t.Fatalf("ExportLedger() error = %v", err)
	}
	if !IsEncrypted(name) {
		t.Errorf("export %q not marked encrypted", name)
	}

	var out bytes.Buffer
	if err := a.FetchExport(admin, name, "wrong", &out); !errors.Is(err, portal.ErrForbidden) {
		t.Errorf("FetchExport(wrong passphrase) error = %v, want ErrForbidden", err)
	}
	if err := a.FetchExport(admin, name, "pw", &out); err != nil {
		t.Fatalf("FetchExport() error = %v", err)
	}
	if !strings.Contains(out.String(), adminID+",LOGIN") {
		t.Errorf("export content = %q", out.String())
	}
}

func TestPortalApp_Finish(t *testing.T) {
	a := newTestApp(t)
	want := errors.New("boom")
	if err := a.Finish(want); err != want {
		t.Errorf("Finish() = %v, want passthrough", err)
	}
	if !a.Operation().Failed() {
		t.Error("operation not marked failed")
	}
	if err := a.Finish(nil); err != nil {
		t.Errorf("Finish(nil) = %v", err)
	}
}
