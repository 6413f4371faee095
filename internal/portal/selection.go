package portal

import (
	"fmt"
	"maps"
)

// Selection is the path-selection context of one moderating admin. It holds
// the item currently being placed and the destinations chosen so far. The
// caller owns it (typically in its session) and passes it explicitly; the
// next PendingUploads call consumes and clears the chosen destinations.
type Selection struct {
	actor     Actor
	selecting string
	chosen    map[string]string
}

// NewSelection creates an empty selection context for actor.
func NewSelection(actor Actor) *Selection {
	return &Selection{actor: actor, chosen: make(map[string]string)}
}

// Actor returns the owner of the context.
func (sel *Selection) Actor() Actor { return sel.actor }

// Selecting returns the item a destination is currently being chosen for.
func (sel *Selection) Selecting() string { return sel.selecting }

// Chosen returns a copy of the destinations chosen so far, keyed by item.
func (sel *Selection) Chosen() map[string]string { return maps.Clone(sel.chosen) }

// take returns the chosen destinations and clears them.
func (sel *Selection) take() map[string]string {
	out := sel.chosen
	sel.chosen = make(map[string]string)
	return out
}

// BeginPathSelection marks item as the one awaiting a destination.
func (s *PortalService) BeginPathSelection(sel *Selection, item string) error {
	if err := sel.actor.RequireAdmin("select path"); err != nil {
		return err
	}
	if err := checkSegment(item); err != nil {
		return fmt.Errorf("staged item: %w", err)
	}
	sel.selecting = item
	return nil
}

// Browse lists only the folders of a share directory, for choosing a destination.
func (s *PortalService) Browse(sel *Selection, rel string) ([]*Entry, error) {
	if err := sel.actor.RequireAdmin("browse"); err != nil {
		return nil, err
	}
	entries, err := s.ListNamespace(RootShare, rel)
	if err != nil {
		return nil, err
	}
	folders := entries[:0]
	for _, e := range entries {
		if e.IsDir {
			folders = append(folders, e)
		}
	}
	return folders, nil
}

// CompletePathSelection records chosen as the destination for item. An empty
// item completes the selection started by BeginPathSelection. chosen must
// resolve inside the share root.
func (s *PortalService) CompletePathSelection(sel *Selection, item, chosen string) error {
	if err := sel.actor.RequireAdmin("select path"); err != nil {
		return err
	}
	if item == "" {
		item = sel.selecting
	}
	if item == "" {
		return fmt.Errorf("no path selection in progress: %w", ErrNotFound)
	}
	p, err := s.ns.Resolve(RootShare, chosen)
	if err != nil {
		return err
	}
	sel.chosen[item] = p.Rel()
	if sel.selecting == item {
		sel.selecting = ""
	}
	return nil
}
