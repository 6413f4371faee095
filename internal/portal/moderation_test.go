package portal_test

import (
	"errors"
	"testing"

	"portal-go/internal/portal"
	"portal-go/internal/testutil"
)

func TestPortalService_AccountLifecycle(t *testing.T) {
	t.Parallel()
	env := testutil.NewTestService(t)

	if err := env.Service.Register("new@example.com", "$2a$10$hash"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := env.Service.Register("new@example.com", "$2a$10$hash"); !errors.Is(err, portal.ErrConflict) {
		t.Errorf("duplicate Register() error = %v, want ErrConflict", err)
	}

	pending, err := env.Service.Accounts(testutil.Admin, portal.BucketPending)
	if err != nil {
		t.Fatalf("Accounts() error = %v", err)
	}
	if len(pending) != 1 || pending[0].Role != portal.RoleUser || pending[0].Status != portal.StatusPending {
		t.Errorf("pending = %+v", pending)
	}

	if err := env.Service.Deny(testutil.Admin, "new@example.com"); err != nil {
		t.Fatalf("Deny() error = %v", err)
	}
	if err := env.Service.Repend(testutil.Admin, "new@example.com"); err != nil {
		t.Fatalf("Repend() error = %v", err)
	}
	if err := env.Service.Approve(testutil.Admin, "new@example.com"); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	p, b, err := env.Service.Account("new@example.com")
	if err != nil {
		t.Fatalf("Account() error = %v", err)
	}
	if b != portal.BucketActive || p.Status != portal.StatusActive || p.CredentialHash != "$2a$10$hash" {
		t.Errorf("Account() = %+v in %s", p, b)
	}

	p, err = env.Service.ToggleRole(testutil.Admin, "new@example.com")
	if err != nil || p.Role != portal.RoleAdmin {
		t.Errorf("ToggleRole() = %+v, %v", p, err)
	}
	p, err = env.Service.ToggleStatus(testutil.Admin, "new@example.com")
	if err != nil || p.Status != portal.StatusInactive {
		t.Errorf("ToggleStatus() = %+v, %v", p, err)
	}
	if err := env.Service.VerifyAccounts(); err != nil {
		t.Errorf("VerifyAccounts() error = %v", err)
	}
}

func TestPortalService_Moderation_Rejections(t *testing.T) {
	t.Parallel()
	env := testutil.NewTestService(t)
	if err := env.Service.Register(testutil.Admin.Identity, "h"); err != nil {
		t.Fatal(err)
	}

	if err := env.Service.Approve(testutil.Admin, testutil.Admin.Identity); !errors.Is(err, portal.ErrForbidden) {
		t.Errorf("self Approve() error = %v, want ErrForbidden", err)
	}
	if err := env.Service.Approve(testutil.Alice, testutil.Admin.Identity); !errors.Is(err, portal.ErrForbidden) {
		t.Errorf("non-admin Approve() error = %v, want ErrForbidden", err)
	}
	if _, err := env.Service.Accounts(testutil.Alice, portal.BucketPending); !errors.Is(err, portal.ErrForbidden) {
		t.Errorf("non-admin Accounts() error = %v, want ErrForbidden", err)
	}
	if err := env.Service.Register("", "h"); !errors.Is(err, portal.ErrInvalid) {
		t.Errorf("Register() without identity error = %v, want ErrInvalid", err)
	}
}
