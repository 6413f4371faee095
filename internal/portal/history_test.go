package portal_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"portal-go/internal/portal"
	"portal-go/internal/testutil"
)

func TestPortalService_History(t *testing.T) {
	t.Parallel()
	env := testutil.NewTestService(t)
	for _, id := range []string{"a@x", "b@x", "c@x"} {
		if err := env.Service.RecordSession(id, portal.ActionLogin, ""); err != nil {
			t.Fatalf("RecordSession() error = %v", err)
		}
		env.Clock.Advance(time.Second)
	}

	recs, err := env.Service.History(testutil.Admin, portal.LogSession, 2)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(recs) != 2 || recs[0].Identity != "c@x" || recs[1].Identity != "b@x" {
		t.Errorf("History() = %+v, want c@x then b@x", recs)
	}

	all, _ := env.Service.History(testutil.Admin, portal.LogSession, 0)
	if len(all) != 3 {
		t.Errorf("History(limit 0) returned %d records, want 3", len(all))
	}

	if _, err := env.Service.History(testutil.Alice, portal.LogSession, 0); !errors.Is(err, portal.ErrForbidden) {
		t.Errorf("non-admin History() error = %v, want ErrForbidden", err)
	}
}

func TestPortalService_ExportLedger(t *testing.T) {
	t.Parallel()
	env := testutil.NewTestService(t)
	ingest(t, env, testutil.Alice, "a.txt", "docs")

	name, err := env.Service.ExportLedger(testutil.Admin, portal.LogUpload, false)
	if err != nil {
		t.Fatalf("ExportLedger() error = %v", err)
	}
	if !strings.HasPrefix(name, "upload_log_20240115T") || !strings.HasSuffix(name, ".csv") {
		t.Errorf("export name = %q", name)
	}

	var out bytes.Buffer
	if err := env.Service.FetchExport(testutil.Admin, name, nil, &out); err != nil {
		t.Fatalf("FetchExport() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || lines[0] != "timestamp,identity,action,subject,extra" {
		t.Fatalf("export = %q", out.String())
	}
	if !strings.Contains(lines[1], "alice@example.com,UPLOAD,a.txt,docs/a.txt") {
		t.Errorf("export row = %q", lines[1])
	}

	names, err := env.Service.Exports(testutil.Admin)
	if err != nil || len(names) != 1 || names[0] != name {
		t.Errorf("Exports() = %v, %v", names, err)
	}
}

func TestPortalService_ExportLedger_Encrypted(t *testing.T) {
	t.Parallel()
	env := testutil.NewTestService(t)
	if err := env.Service.RecordSession("a@x", portal.ActionLogin, ""); err != nil {
		t.Fatal(err)
	}

	name, err := env.Service.ExportLedger(testutil.Admin, portal.LogSession, true)
	if err != nil {
		t.Fatalf("ExportLedger() error = %v", err)
	}
	if !strings.HasSuffix(name, ".csv.age") {
		t.Errorf("encrypted export name = %q", name)
	}

	var sealed bytes.Buffer
	if err := env.Vault.Get(name, &sealed); err != nil {
		t.Fatal(err)
	}
	if strings.HasPrefix(sealed.String(), "timestamp") {
		t.Error("encrypted export stored as plaintext")
	}

	var out bytes.Buffer
	if err := env.Service.FetchExport(testutil.Admin, name, nil, &out); err == nil {
		t.Error("FetchExport() of encrypted export without unlock should fail")
	}
	dc, err := env.Encryptor.Unlock("pw")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if err := env.Service.FetchExport(testutil.Admin, name, dc, &out); err != nil {
		t.Fatalf("FetchExport() error = %v", err)
	}
	if !strings.Contains(out.String(), "a@x,LOGIN") {
		t.Errorf("decrypted export = %q", out.String())
	}
}
