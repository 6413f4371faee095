package bucket

import (
	"os"
	"path/filepath"
	"testing"

	"portal-go/internal/portal"
)

func TestStore_ReadMissing(t *testing.T) {
	t.Parallel()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	ps, err := s.Read(portal.BucketPending)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(ps) != 0 {
		t.Errorf("Read() = %v, want empty", ps)
	}
}

func TestStore_ReadTolerance(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	content := "email,password,role,status\n" +
		"a@x,hash-a,admin,active\n" +
		"short,row\n" +
		"b@x,hash-b,user\n" +
		"c@x,hash-c,user,inactive\n"
	if err := os.WriteFile(filepath.Join(dir, "active.csv"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	s, _ := NewStore(dir)

	ps, err := s.Read(portal.BucketActive)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(ps) != 3 {
		t.Fatalf("Read() returned %d principals, want 3", len(ps))
	}
	if ps[1].Identity != "b@x" || ps[1].Status != portal.StatusActive {
		t.Errorf("missing status column: got %+v, want status active", ps[1])
	}
	if ps[2].Status != portal.StatusInactive {
		t.Errorf("ps[2].Status = %q, want inactive", ps[2].Status)
	}
}

func TestStore_WriteReplaces(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s, _ := NewStore(dir)

	first := []*portal.Principal{
		{Identity: "a@x", CredentialHash: "h1", Role: portal.RoleUser, Status: portal.StatusPending},
		{Identity: "b@x", CredentialHash: "h,with,commas", Role: portal.RoleUser, Status: portal.StatusPending},
	}
	if err := s.Write(portal.BucketPending, first); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := s.Write(portal.BucketPending, first[1:]); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	ps, err := s.Read(portal.BucketPending)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(ps) != 1 || ps[0].Identity != "b@x" || ps[0].CredentialHash != "h,with,commas" {
		t.Errorf("Read() = %+v, want only b@x", ps)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if e.Name() != "pending.csv" {
			t.Errorf("unexpected leftover file %s", e.Name())
		}
	}
}
