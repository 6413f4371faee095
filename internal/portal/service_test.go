package portal_test

import (
	"errors"
	"path/filepath"
	"testing"

	"portal-go/internal/portal"
	"portal-go/internal/testutil"
)

func TestPortalService_ListNamespace(t *testing.T) {
	t.Parallel()
	env := testutil.NewTestService(t)
	testutil.WriteFile(t, filepath.Join(env.Roots.Share, "b.txt"), "b")
	testutil.WriteFile(t, filepath.Join(env.Roots.Share, "A.txt"), "a")
	testutil.WriteFile(t, filepath.Join(env.Roots.Share, ".secret"), "s")
	testutil.Mkdir(t, filepath.Join(env.Roots.Share, "zeta"))

	entries, err := env.Service.ListNamespace(portal.RootShare, "")
	if err != nil {
		t.Fatalf("ListNamespace() error = %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	want := []string{"zeta", "A.txt", "b.txt"}
	if len(names) != len(want) {
		t.Fatalf("ListNamespace() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("ListNamespace() = %v, want %v", names, want)
			break
		}
	}

	if _, err := env.Service.ListNamespace(portal.RootShare, "../staging"); !errors.Is(err, portal.ErrForbidden) {
		t.Errorf("ListNamespace() escape error = %v, want ErrForbidden", err)
	}
}

func TestPortalService_CreateFolder(t *testing.T) {
	t.Parallel()
	env := testutil.NewTestService(t)
	testutil.Mkdir(t, filepath.Join(env.Roots.Share, "docs"))

	p, err := env.Service.CreateFolder(testutil.Admin, "docs", "  Reports ")
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	if p.Rel() != "docs/Reports" {
		t.Errorf("CreateFolder() = %s, want docs/Reports", p.Rel())
	}
	recs := env.Records(t, portal.LogActivity)
	if len(recs) != 1 || recs[0].Action != portal.ActionCreateFolder || recs[0].Subject != "docs/Reports" {
		t.Errorf("activity = %+v", recs)
	}

	tests := []struct {
		name    string
		actor   portal.Actor
		parent  string
		folder  string
		wantErr error
	}{
		{"existing", testutil.Admin, "docs", "Reports", portal.ErrConflict},
		{"separator", testutil.Admin, "docs", "a/b", portal.ErrInvalid},
		{"dot dot", testutil.Admin, "docs", "..", portal.ErrInvalid},
		{"empty", testutil.Admin, "docs", "   ", portal.ErrInvalid},
		{"parent escape", testutil.Admin, "../trash", "x", portal.ErrForbidden},
		{"non-admin", testutil.Alice, "docs", "x", portal.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.Service.CreateFolder(tt.actor, tt.parent, tt.folder); !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateFolder() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPortalService_SoftDelete(t *testing.T) {
	t.Parallel()
	env := testutil.NewTestService(t)
	testutil.WriteFile(t, filepath.Join(env.Roots.Share, "old.txt"), "x")

	if _, err := env.Service.SoftDelete(testutil.Alice, "old.txt"); !errors.Is(err, portal.ErrForbidden) {
		t.Errorf("non-admin SoftDelete() error = %v, want ErrForbidden", err)
	}
	name, err := env.Service.SoftDelete(testutil.Admin, "old.txt")
	if err != nil {
		t.Fatalf("SoftDelete() error = %v", err)
	}
	entries, err := env.Service.ListTrash(testutil.Admin)
	if err != nil {
		t.Fatalf("ListTrash() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name != name {
		t.Errorf("ListTrash() = %v, want [%s]", entries, name)
	}
}

func TestPortalService_RecordDownload(t *testing.T) {
	t.Parallel()
	env := testutil.NewTestService(t)
	testutil.WriteFile(t, filepath.Join(env.Roots.Share, "docs", "a.txt"), "a")

	if _, err := env.Service.RecordDownload(testutil.Alice, "docs/a.txt"); err != nil {
		t.Fatalf("RecordDownload(file) error = %v", err)
	}
	if _, err := env.Service.RecordDownload(testutil.Alice, "docs"); err != nil {
		t.Fatalf("RecordDownload(folder) error = %v", err)
	}
	if _, err := env.Service.RecordDownload(testutil.Alice, "missing"); !errors.Is(err, portal.ErrNotFound) {
		t.Errorf("RecordDownload(missing) error = %v, want ErrNotFound", err)
	}

	recs := env.Records(t, portal.LogActivity)
	if len(recs) != 2 || recs[0].Action != portal.ActionDownloadFile || recs[1].Action != portal.ActionDownloadFolder {
		t.Errorf("activity = %+v, want FILE then FOLDER", recs)
	}
}

func TestPortalService_RecordSession(t *testing.T) {
	t.Parallel()
	env := testutil.NewTestService(t)

	if err := env.Service.RecordSession(testutil.Alice.Identity, portal.ActionLogin, ""); err != nil {
		t.Fatalf("RecordSession() error = %v", err)
	}
	if err := env.Service.RecordSession("", portal.ActionLogout, ""); !errors.Is(err, portal.ErrInvalid) {
		t.Errorf("RecordSession() without identity error = %v, want ErrInvalid", err)
	}
	if recs := env.Records(t, portal.LogSession); len(recs) != 1 || recs[0].Action != portal.ActionLogin {
		t.Errorf("session log = %+v", recs)
	}
}

func TestMessage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want string
	}{
		{&portal.RejectedError{Filename: "a.exe", Reason: portal.RejectUnsupportedType}, "a.exe: file type not allowed"},
		{&portal.RejectedError{Filename: "b.pdf", Reason: portal.RejectTooLarge, Detail: "max 20 MB"}, "b.pdf: file exceeds the size limit (max 20 MB)"},
		{&portal.RejectedError{Filename: "c.pdf", Reason: portal.RejectMaliciousSignature}, "c.pdf: file content looks like an executable"},
		{&portal.RejectedError{Filename: "../d", Reason: portal.RejectUnsafeFilename}, "../d: invalid file name"},
		{portal.ErrForbidden, "access denied"},
		{errors.Join(errors.New("ctx"), portal.ErrNotFound), "not found"},
		{errors.New("boom"), "operation failed"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := portal.Message(tt.err); got != tt.want {
			t.Errorf("Message(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestTopLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		rel    string
		want   string
		nested bool
	}{
		{"a.txt", "a.txt", false},
		{"proj/a/b.txt", "proj", true},
		{`proj\a\b.txt`, "proj", true},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := portal.TopLevel(tt.rel); got != tt.want {
			t.Errorf("TopLevel(%q) = %q, want %q", tt.rel, got, tt.want)
		}
		if got := portal.IsNested(tt.rel); got != tt.nested {
			t.Errorf("IsNested(%q) = %v, want %v", tt.rel, got, tt.nested)
		}
	}
}
