package trash

import (
	"fmt"
	"slices"
	"strings"

	"portal-go/internal/portal"
)

// NameTimeFormat prefixes every archived entry so names sort by deletion time.
const NameTimeFormat = "20060102_150405"

// Archive implements portal.Trash by moving share entries into the trash root.
type Archive struct {
	ns     portal.Namespace
	ledger portal.Ledger
	clock  portal.Clock
	idgen  portal.IDGenerator
}

var _ portal.Trash = (*Archive)(nil)

func NewArchive(ns portal.Namespace, ledger portal.Ledger, clock portal.Clock, idgen portal.IDGenerator) *Archive {
	return &Archive{ns: ns, ledger: ledger, clock: clock, idgen: idgen}
}

// SoftDelete moves share/<rel> to trash/<timestamp>_<base>, adding a short
// random suffix while that name is taken. The DELETE record is appended after
// the move; if the append fails the entry stays in the trash and the error is
// returned alongside its name.
func (a *Archive) SoftDelete(actor portal.Actor, rel string) (string, error) {
	src, err := a.ns.Resolve(portal.RootShare, rel)
	if err != nil {
		return "", err
	}
	if src.IsRoot() {
		return "", fmt.Errorf("cannot delete the share root: %w", portal.ErrForbidden)
	}
	ok, err := a.ns.Exists(src)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%s: %w", src.Rel(), portal.ErrNotFound)
	}

	now := a.clock.Now()
	dst, err := a.destination(now.Format(NameTimeFormat) + "_" + src.Base())
	if err != nil {
		return "", err
	}
	if err := a.ns.Move(src, dst); err != nil {
		return "", fmt.Errorf("moving %s to trash: %w", src.Rel(), err)
	}

	rec := portal.Record{
		Time:     now.UTC(),
		Identity: actor.Identity,
		Action:   portal.ActionDelete,
		Subject:  src.Rel(),
		Extra:    dst.Rel(),
	}
	if err := a.ledger.Append(portal.LogActivity, rec); err != nil {
		return dst.Rel(), fmt.Errorf("recording deletion of %s: %w", src.Rel(), err)
	}
	return dst.Rel(), nil
}

func (a *Archive) destination(name string) (*portal.Path, error) {
	candidate := name
	for {
		p, err := a.ns.Resolve(portal.RootTrash, candidate)
		if err != nil {
			return nil, err
		}
		taken, err := a.ns.Exists(p)
		if err != nil {
			return nil, err
		}
		if !taken {
			return p, nil
		}
		candidate = name + "_" + portal.ShortID(a.idgen, 8)
	}
}

// List returns the trash root's entries, newest first.
func (a *Archive) List() ([]*portal.Entry, error) {
	root, err := a.ns.Resolve(portal.RootTrash, "")
	if err != nil {
		return nil, err
	}
	entries, err := a.ns.List(root)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(entries, func(x, y *portal.Entry) int {
		return strings.Compare(y.Name, x.Name)
	})
	return entries, nil
}
