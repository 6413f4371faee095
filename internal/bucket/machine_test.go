package bucket

import (
	"errors"
	"os"
	"sync"
	"testing"

	"portal-go/internal/portal"
)

var admin = portal.Actor{Identity: "root@x", Role: portal.RoleAdmin}

func newTestMachine(t *testing.T, seed map[portal.Bucket][]string) (*Machine, *Store) {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	for b, ids := range seed {
		var ps []*portal.Principal
		for _, id := range ids {
			ps = append(ps, &portal.Principal{Identity: id, CredentialHash: "hash-" + id, Role: portal.RoleUser, Status: portal.StatusFor(b)})
		}
		if err := s.Write(b, ps); err != nil {
			t.Fatalf("seeding %s: %v", b, err)
		}
	}
	return NewMachine(s), s
}

func identities(t *testing.T, s *Store, b portal.Bucket) []string {
	t.Helper()
	ps, err := s.Read(b)
	if err != nil {
		t.Fatalf("Read(%s) error = %v", b, err)
	}
	var ids []string
	for _, p := range ps {
		ids = append(ids, p.Identity)
	}
	return ids
}

func TestMachine_Approve(t *testing.T) {
	t.Parallel()
	m, s := newTestMachine(t, map[portal.Bucket][]string{
		portal.BucketPending: {"a@x", "b@x"},
		portal.BucketActive:  {"root@x"},
	})

	if err := m.Approve(admin, "a@x"); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	if got := identities(t, s, portal.BucketPending); len(got) != 1 || got[0] != "b@x" {
		t.Errorf("pending = %v, want [b@x]", got)
	}
	active, _ := s.Read(portal.BucketActive)
	if len(active) != 2 || active[1].Identity != "a@x" {
		t.Fatalf("active = %v, want root@x then a@x", identities(t, s, portal.BucketActive))
	}
	moved := active[1]
	if moved.Status != portal.StatusActive || moved.CredentialHash != "hash-a@x" || moved.Role != portal.RoleUser {
		t.Errorf("moved principal = %+v, want only status changed", moved)
	}
}

func TestMachine_RoundTripConservesCount(t *testing.T) {
	t.Parallel()
	m, s := newTestMachine(t, map[portal.Bucket][]string{
		portal.BucketPending: {"a@x", "b@x", "c@x"},
	})
	total := func() int {
		n := 0
		for _, b := range portal.AllBuckets() {
			n += len(identities(t, s, b))
		}
		return n
	}

	steps := []func() error{
		func() error { return m.Deny(admin, "a@x") },
		func() error { return m.Approve(admin, "b@x") },
		func() error { return m.Repend(admin, "a@x") },
		func() error { return m.Approve(admin, "a@x") },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d error = %v", i, err)
		}
		if n := total(); n != 3 {
			t.Fatalf("after step %d total = %d, want 3", i, n)
		}
	}
	if err := m.Verify(); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestMachine_Rejections(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		actor   portal.Actor
		op      func(m *Machine, actor portal.Actor) error
		wantErr error
	}{
		{
			name:    "self transition",
			actor:   portal.Actor{Identity: "a@x", Role: portal.RoleAdmin},
			op:      func(m *Machine, a portal.Actor) error { return m.Approve(a, "a@x") },
			wantErr: portal.ErrForbidden,
		},
		{
			name:    "non-admin",
			actor:   portal.Actor{Identity: "u@x", Role: portal.RoleUser},
			op:      func(m *Machine, a portal.Actor) error { return m.Approve(a, "a@x") },
			wantErr: portal.ErrForbidden,
		},
		{
			name:    "absent from source",
			actor:   admin,
			op:      func(m *Machine, a portal.Actor) error { return m.Repend(a, "a@x") },
			wantErr: portal.ErrNotFound,
		},
		{
			name:    "disallowed pair",
			actor:   admin,
			op:      func(m *Machine, a portal.Actor) error { return m.Transition(a, "a@x", portal.BucketActive, portal.BucketDenied) },
			wantErr: portal.ErrForbidden,
		},
		{
			name:    "self toggle role",
			actor:   admin,
			op:      func(m *Machine, a portal.Actor) error { _, err := m.ToggleRole(a, a.Identity); return err },
			wantErr: portal.ErrForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestMachine(t, map[portal.Bucket][]string{portal.BucketPending: {"a@x"}})
			if err := tt.op(m, tt.actor); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMachine_SelfTransitionReadsNothing(t *testing.T) {
	t.Parallel()
	m, s := newTestMachine(t, nil)
	// An unreadable snapshot would surface as an integrity error if read.
	if err := os.WriteFile(s.SnapshotPath(portal.BucketPending), []byte("\"unterminated\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err := m.Approve(portal.Actor{Identity: "me@x", Role: portal.RoleAdmin}, "me@x")
	if !errors.Is(err, portal.ErrForbidden) {
		t.Errorf("Approve() error = %v, want ErrForbidden", err)
	}
}

func TestMachine_Toggles(t *testing.T) {
	t.Parallel()
	m, _ := newTestMachine(t, map[portal.Bucket][]string{portal.BucketActive: {"root@x", "u@x"}})

	p, err := m.ToggleRole(admin, "u@x")
	if err != nil {
		t.Fatalf("ToggleRole() error = %v", err)
	}
	if p.Role != portal.RoleAdmin {
		t.Errorf("ToggleRole() role = %q, want admin", p.Role)
	}
	p, _ = m.ToggleRole(admin, "u@x")
	if p.Role != portal.RoleUser {
		t.Errorf("second ToggleRole() role = %q, want user", p.Role)
	}

	p, err = m.ToggleStatus(admin, "u@x")
	if err != nil {
		t.Fatalf("ToggleStatus() error = %v", err)
	}
	if p.Status != portal.StatusInactive {
		t.Errorf("ToggleStatus() status = %q, want inactive", p.Status)
	}
	located, b, err := m.Locate("u@x")
	if err != nil || b != portal.BucketActive || located.Status != portal.StatusInactive {
		t.Errorf("Locate() = %+v, %s, %v", located, b, err)
	}

	if _, err := m.ToggleStatus(admin, "ghost@x"); !errors.Is(err, portal.ErrNotFound) {
		t.Errorf("ToggleStatus() missing error = %v, want ErrNotFound", err)
	}
}

func TestMachine_Enroll(t *testing.T) {
	t.Parallel()
	m, s := newTestMachine(t, map[portal.Bucket][]string{portal.BucketDenied: {"d@x"}})

	if err := m.Enroll(portal.Principal{Identity: "n@x", CredentialHash: "h", Role: portal.RoleUser}); err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	pending, _ := s.Read(portal.BucketPending)
	if len(pending) != 1 || pending[0].Status != portal.StatusPending {
		t.Errorf("pending = %+v", pending)
	}

	err := m.Enroll(portal.Principal{Identity: "d@x", CredentialHash: "h", Role: portal.RoleUser})
	if !errors.Is(err, portal.ErrConflict) {
		t.Errorf("Enroll() duplicate error = %v, want ErrConflict", err)
	}

	if err := m.Bootstrap(portal.Principal{Identity: "boss@x", CredentialHash: "h", Role: portal.RoleAdmin}); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if _, b, _ := m.Locate("boss@x"); b != portal.BucketActive {
		t.Errorf("Bootstrap() placed account in %s, want active", b)
	}
}

func TestMachine_DuplicateDetection(t *testing.T) {
	t.Parallel()
	m, _ := newTestMachine(t, map[portal.Bucket][]string{
		portal.BucketPending: {"dup@x", "ok@x"},
		portal.BucketActive:  {"dup@x"},
	})

	if _, _, err := m.Locate("dup@x"); !errors.Is(err, portal.ErrIntegrity) {
		t.Errorf("Locate() error = %v, want ErrIntegrity", err)
	}
	if _, _, err := m.Locate("ok@x"); err != nil {
		t.Errorf("Locate() error = %v", err)
	}
	if err := m.Verify(); !errors.Is(err, portal.ErrIntegrity) {
		t.Errorf("Verify() error = %v, want ErrIntegrity", err)
	}
	if err := m.Approve(admin, "dup@x"); !errors.Is(err, portal.ErrIntegrity) {
		t.Errorf("Approve() into bucket already holding identity error = %v, want ErrIntegrity", err)
	}
}

func TestMachine_ConcurrentTransitions(t *testing.T) {
	t.Parallel()
	ids := []string{"a@x", "b@x", "c@x", "d@x", "e@x", "f@x", "g@x", "h@x"}
	m, s := newTestMachine(t, map[portal.Bucket][]string{portal.BucketPending: ids})

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				err = m.Approve(admin, id)
			} else {
				err = m.Deny(admin, id)
			}
			if err != nil {
				t.Errorf("transition %s error = %v", id, err)
			}
		}()
	}
	wg.Wait()

	if n := len(identities(t, s, portal.BucketPending)); n != 0 {
		t.Errorf("pending has %d left, want 0", n)
	}
	if n := len(identities(t, s, portal.BucketActive)) + len(identities(t, s, portal.BucketDenied)); n != len(ids) {
		t.Errorf("active+denied = %d, want %d", n, len(ids))
	}
}
