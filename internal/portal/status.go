package portal

import (
	"fmt"
	"path"
	"slices"
	"time"
)

// UploadStatus is derived by replaying the ledger; it is never stored.
type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadDeclined  UploadStatus = "declined"
	UploadPublished UploadStatus = "published"
)

// MyUpload is one upload record of an identity with its derived status.
type MyUpload struct {
	Time      time.Time
	Rel       string
	Item      string
	Suggested string
	Status    UploadStatus
}

// PendingUpload is one top-level staged item awaiting moderation.
type PendingUpload struct {
	Time        time.Time
	Owner       string
	Item        string
	Destination string
	IsDir       bool

	order int
}

// MyUploads replays the upload and decline logs for identity, newest first.
// A declined top-level item wins over everything else; otherwise a file still
// in staging is pending and one that has left staging has been published.
func (s *PortalService) MyUploads(identity string) ([]*MyUpload, error) {
	declines, err := s.ledger.ReadAll(LogDecline)
	if err != nil {
		return nil, fmt.Errorf("reading decline log: %w", err)
	}
	declined := make(map[string]bool)
	for _, d := range declines {
		if d.Identity == identity {
			declined[TopLevel(d.Subject)] = true
		}
	}

	uploads, err := s.ledger.ReadAll(LogUpload)
	if err != nil {
		return nil, fmt.Errorf("reading upload log: %w", err)
	}

	var out []*MyUpload
	for i := len(uploads) - 1; i >= 0; i-- {
		rec := uploads[i]
		if rec.Identity != identity {
			continue
		}
		item := TopLevel(rec.Subject)
		status := UploadPublished
		switch {
		case declined[item]:
			status = UploadDeclined
		default:
			staged, err := s.staging.Exists(rec.Subject)
			if err != nil {
				return nil, err
			}
			if staged {
				status = UploadPending
			}
		}
		out = append(out, &MyUpload{
			Time:      rec.Time,
			Rel:       rec.Subject,
			Item:      item,
			Suggested: rec.Extra,
			Status:    status,
		})
	}
	return out, nil
}

// PendingUploads groups staged uploads by top-level item for moderation.
//
// The newest upload record of each item wins, so a corrective re-upload
// replaces the earlier suggestion. Items no longer in staging are skipped.
// Destinations chosen in sel override the recorded suggestion and are
// cleared once applied. sel may be nil. Results are oldest first.
func (s *PortalService) PendingUploads(actor Actor, sel *Selection) ([]*PendingUpload, error) {
	if err := actor.RequireAdmin("list pending uploads"); err != nil {
		return nil, err
	}
	uploads, err := s.ledger.ReadAll(LogUpload)
	if err != nil {
		return nil, fmt.Errorf("reading upload log: %w", err)
	}

	var chosen map[string]string
	if sel != nil {
		if sel.Actor().Identity != actor.Identity {
			return nil, fmt.Errorf("selection belongs to %s: %w", sel.Actor().Identity, ErrForbidden)
		}
		chosen = sel.Chosen()
	}

	seen := make(map[string]bool)
	var out []*PendingUpload
	for i := len(uploads) - 1; i >= 0; i-- {
		rec := uploads[i]
		item := TopLevel(rec.Subject)
		if item == "" || seen[item] {
			continue
		}
		staged, err := s.staging.Exists(item)
		if err != nil {
			return nil, err
		}
		if !staged {
			continue
		}
		seen[item] = true

		nested := IsNested(rec.Subject)
		dest := rec.Extra
		if nested {
			dest = path.Dir(rec.Extra)
		}
		if c, ok := chosen[item]; ok {
			dest = c
		}
		out = append(out, &PendingUpload{
			Time:        rec.Time,
			Owner:       rec.Identity,
			Item:        item,
			Destination: dest,
			IsDir:       nested,
			order:       i,
		})
	}

	slices.SortFunc(out, func(a, b *PendingUpload) int {
		if c := a.Time.Compare(b.Time); c != 0 {
			return c
		}
		return a.order - b.order
	})
	if sel != nil {
		sel.take()
	}
	return out, nil
}
