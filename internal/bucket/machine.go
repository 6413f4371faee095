package bucket

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"portal-go/internal/portal"
)

// transitions lists the allowed from→to moves.
var transitions = map[[2]portal.Bucket]bool{
	{portal.BucketPending, portal.BucketActive}: true,
	{portal.BucketPending, portal.BucketDenied}: true,
	{portal.BucketDenied, portal.BucketPending}: true,
}

// Machine is the account admission state machine over a Store.
//
// Each bucket is guarded by an in-process mutex and an flock on
// "<snapshot>.lock". Locks are always acquired in portal.AllBuckets order.
type Machine struct {
	store *Store
	mu    map[portal.Bucket]*sync.Mutex
}

var _ portal.Moderator = (*Machine)(nil)

func NewMachine(store *Store) *Machine {
	mu := make(map[portal.Bucket]*sync.Mutex)
	for _, b := range portal.AllBuckets() {
		mu[b] = &sync.Mutex{}
	}
	return &Machine{store: store, mu: mu}
}

// lock acquires the given buckets in lock order and returns the release func.
func (m *Machine) lock(buckets ...portal.Bucket) (func(), error) {
	var releases []func()
	release := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, b := range portal.AllBuckets() {
		if !slices.Contains(buckets, b) {
			continue
		}
		mu := m.mu[b]
		mu.Lock()
		unlock, err := lockFile(m.store.SnapshotPath(b) + ".lock")
		if err != nil {
			mu.Unlock()
			release()
			return nil, fmt.Errorf("locking %s bucket: %w: %w", b, portal.ErrIO, err)
		}
		releases = append(releases, func() {
			unlock()
			mu.Unlock()
		})
	}
	return release, nil
}

// authorize applies the rules that hold before any snapshot is read.
func authorize(op string, actor portal.Actor, identity string) error {
	if actor.Identity == identity {
		return fmt.Errorf("%s: cannot modify own account: %w", op, portal.ErrForbidden)
	}
	return actor.RequireAdmin(op)
}

func (m *Machine) Approve(actor portal.Actor, identity string) error {
	return m.Transition(actor, identity, portal.BucketPending, portal.BucketActive)
}

func (m *Machine) Deny(actor portal.Actor, identity string) error {
	return m.Transition(actor, identity, portal.BucketPending, portal.BucketDenied)
}

func (m *Machine) Repend(actor portal.Actor, identity string) error {
	return m.Transition(actor, identity, portal.BucketDenied, portal.BucketPending)
}

// Transition moves identity from one bucket to another. The target snapshot
// is rewritten before the source; if the source rewrite fails the principal
// is left in both and the error says so.
func (m *Machine) Transition(actor portal.Actor, identity string, from, to portal.Bucket) error {
	op := fmt.Sprintf("move %s to %s", from, to)
	if err := authorize(op, actor, identity); err != nil {
		return err
	}
	if !transitions[[2]portal.Bucket{from, to}] {
		return fmt.Errorf("%s: transition not allowed: %w", op, portal.ErrForbidden)
	}

	release, err := m.lock(from, to)
	if err != nil {
		return err
	}
	defer release()

	src, err := m.store.Read(from)
	if err != nil {
		return err
	}
	i := indexOf(src, identity)
	if i < 0 {
		return fmt.Errorf("%s not in %s bucket: %w", identity, from, portal.ErrNotFound)
	}
	dst, err := m.store.Read(to)
	if err != nil {
		return err
	}
	if indexOf(dst, identity) >= 0 {
		return fmt.Errorf("%s already in %s bucket: %w", identity, to, portal.ErrIntegrity)
	}

	moved := *src[i]
	moved.Status = portal.StatusFor(to)
	if err := m.store.Write(to, append(dst, &moved)); err != nil {
		return err
	}
	if err := m.store.Write(from, slices.Delete(src, i, i+1)); err != nil {
		return fmt.Errorf("%s now held in both %s and %s buckets: %w", identity, from, to, err)
	}
	return nil
}

func (m *Machine) ToggleRole(actor portal.Actor, identity string) (*portal.Principal, error) {
	return m.updateActive("toggle role", actor, identity, func(p *portal.Principal) {
		if p.Role == portal.RoleAdmin {
			p.Role = portal.RoleUser
		} else {
			p.Role = portal.RoleAdmin
		}
	})
}

func (m *Machine) ToggleStatus(actor portal.Actor, identity string) (*portal.Principal, error) {
	return m.updateActive("toggle status", actor, identity, func(p *portal.Principal) {
		if p.Status == portal.StatusActive {
			p.Status = portal.StatusInactive
		} else {
			p.Status = portal.StatusActive
		}
	})
}

func (m *Machine) updateActive(op string, actor portal.Actor, identity string, fn func(*portal.Principal)) (*portal.Principal, error) {
	if err := authorize(op, actor, identity); err != nil {
		return nil, err
	}
	release, err := m.lock(portal.BucketActive)
	if err != nil {
		return nil, err
	}
	defer release()

	ps, err := m.store.Read(portal.BucketActive)
	if err != nil {
		return nil, err
	}
	i := indexOf(ps, identity)
	if i < 0 {
		return nil, fmt.Errorf("%s not in active bucket: %w", identity, portal.ErrNotFound)
	}
	fn(ps[i])
	if err := m.store.Write(portal.BucketActive, ps); err != nil {
		return nil, err
	}
	out := *ps[i]
	return &out, nil
}

// Enroll appends p to the pending bucket. It is also used to seed the
// first admin, so it carries no actor.
func (m *Machine) Enroll(p portal.Principal) error {
	return m.enroll(portal.BucketPending, p)
}

// Bootstrap places p directly in the active bucket. Used by "account add"
// to create accounts without an admin already present.
func (m *Machine) Bootstrap(p portal.Principal) error {
	return m.enroll(portal.BucketActive, p)
}

func (m *Machine) enroll(b portal.Bucket, p portal.Principal) error {
	if p.Identity == "" {
		return fmt.Errorf("enroll: identity is required: %w", portal.ErrInvalid)
	}
	release, err := m.lock(portal.AllBuckets()...)
	if err != nil {
		return err
	}
	defer release()

	all, err := m.readAll()
	if err != nil {
		return err
	}
	for other, ps := range all {
		if indexOf(ps, p.Identity) >= 0 {
			return fmt.Errorf("%s already in %s bucket: %w", p.Identity, other, portal.ErrConflict)
		}
	}
	p.Status = portal.StatusFor(b)
	return m.store.Write(b, append(all[b], &p))
}

func (m *Machine) List(b portal.Bucket) ([]*portal.Principal, error) {
	release, err := m.lock(b)
	if err != nil {
		return nil, err
	}
	defer release()
	return m.store.Read(b)
}

func (m *Machine) Locate(identity string) (*portal.Principal, portal.Bucket, error) {
	release, err := m.lock(portal.AllBuckets()...)
	if err != nil {
		return nil, "", err
	}
	defer release()

	all, err := m.readAll()
	if err != nil {
		return nil, "", err
	}
	var found *portal.Principal
	var where []portal.Bucket
	for _, b := range portal.AllBuckets() {
		if i := indexOf(all[b], identity); i >= 0 {
			found = all[b][i]
			where = append(where, b)
		}
	}
	switch len(where) {
	case 0:
		return nil, "", fmt.Errorf("account %s: %w", identity, portal.ErrNotFound)
	case 1:
		return found, where[0], nil
	}
	return nil, "", fmt.Errorf("account %s held in %s: %w", identity, joinBuckets(where), portal.ErrIntegrity)
}

func (m *Machine) Verify() error {
	release, err := m.lock(portal.AllBuckets()...)
	if err != nil {
		return err
	}
	defer release()

	all, err := m.readAll()
	if err != nil {
		return err
	}
	seen := make(map[string][]portal.Bucket)
	var order []string
	for _, b := range portal.AllBuckets() {
		for _, p := range all[b] {
			if _, ok := seen[p.Identity]; !ok {
				order = append(order, p.Identity)
			}
			seen[p.Identity] = append(seen[p.Identity], b)
		}
	}
	var dups []string
	for _, id := range order {
		if len(seen[id]) > 1 {
			dups = append(dups, fmt.Sprintf("%s (%s)", id, joinBuckets(seen[id])))
		}
	}
	if len(dups) > 0 {
		return fmt.Errorf("accounts held more than once: %s: %w", strings.Join(dups, ", "), portal.ErrIntegrity)
	}
	return nil
}

func (m *Machine) readAll() (map[portal.Bucket][]*portal.Principal, error) {
	all := make(map[portal.Bucket][]*portal.Principal)
	for _, b := range portal.AllBuckets() {
		ps, err := m.store.Read(b)
		if err != nil {
			return nil, err
		}
		all[b] = ps
	}
	return all, nil
}

func indexOf(ps []*portal.Principal, identity string) int {
	return slices.IndexFunc(ps, func(p *portal.Principal) bool { return p.Identity == identity })
}

func joinBuckets(bs []portal.Bucket) string {
	s := make([]string, len(bs))
	for i, b := range bs {
		s[i] = string(b)
	}
	return strings.Join(s, " and ")
}
