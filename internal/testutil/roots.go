package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"portal-go/internal/fs"
	"portal-go/internal/portal"
)

// TestRoots is a namespace over three fresh roots in a temp directory.
// Share, Staging and Trash hold the canonical absolute root paths.
type TestRoots struct {
	Namespace *fs.OSNamespace
	Share     string
	Staging   string
	Trash     string
}

// NewTestRoots creates share, staging and trash roots under t.TempDir().
func NewTestRoots(t *testing.T) *TestRoots {
	t.Helper()
	base := t.TempDir()
	ns, err := fs.NewOSNamespace(map[portal.RootName]string{
		portal.RootShare:   filepath.Join(base, "share"),
		portal.RootStaging: filepath.Join(base, "staging"),
		portal.RootTrash:   filepath.Join(base, "trash"),
	}, nil)
	if err != nil {
		t.Fatalf("NewOSNamespace() error = %v", err)
	}
	dir := func(root portal.RootName) string {
		p, err := ns.Resolve(root, "")
		if err != nil {
			t.Fatalf("Resolve(%s) error = %v", root, err)
		}
		return p.String()
	}
	return &TestRoots{
		Namespace: ns,
		Share:     dir(portal.RootShare),
		Staging:   dir(portal.RootStaging),
		Trash:     dir(portal.RootTrash),
	}
}

// WriteFile creates path with content, making parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Mkdir creates path and its parents.
func Mkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

// Exists reports whether path is present.
func Exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Lstat(path)
	return err == nil
}
