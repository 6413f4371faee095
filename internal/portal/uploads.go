package portal

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// UploadFile is one member of an upload batch.
type UploadFile struct {
	Name   string
	Reader io.Reader
}

// BatchResult summarizes a batch: the accepted uploads plus one message per
// failed file.
type BatchResult struct {
	Accepted []*StagedUpload
	Failures []string
}

// UploadLimits returns the ceilings that apply to the actor.
func (s *PortalService) UploadLimits(actor Actor) []UploadLimit {
	return s.validator.Limits(actor.Role)
}

// IngestUpload validates one file and places it in staging. suggested is the
// share directory the uploader was browsing; it is recorded, not acted on.
//
// Validation failures are returned as *RejectedError and leave nothing staged.
func (s *PortalService) IngestUpload(actor Actor, filename string, r io.Reader, suggested string) (*StagedUpload, error) {
	limit, err := s.validator.Admit(filename, actor.Role)
	if err != nil {
		s.logger.Warn("upload rejected", "file", filename, "by", actor.Identity, "error", err)
		return nil, err
	}
	rel := strings.ReplaceAll(filename, `\`, "/")

	dest, err := s.ns.Resolve(RootShare, suggested)
	if err != nil {
		return nil, fmt.Errorf("suggested destination: %w", err)
	}

	check := func(size int64, prefix []byte) error {
		return s.validator.Check(filename, size, limit, prefix)
	}
	staged, err := s.staging.Stage(rel, r, limit, check)
	if err != nil {
		var rej *RejectedError
		if errors.As(err, &rej) {
			s.logger.Warn("upload rejected", "file", filename, "by", actor.Identity, "reason", string(rej.Reason))
		}
		return nil, err
	}

	now := s.clock.Now().UTC()
	extra := path.Join(dest.Rel(), rel)
	if err := s.ledger.Append(LogUpload, Record{
		Time:     now,
		Identity: actor.Identity,
		Action:   ActionUpload,
		Subject:  rel,
		Extra:    extra,
	}); err != nil {
		// An unrecorded staged file would be invisible to moderation.
		if derr := s.staging.Discard(rel); derr != nil {
			s.logger.Error("discarding unrecorded upload", "file", rel, "error", derr)
		}
		return nil, fmt.Errorf("recording upload: %w", err)
	}

	s.logger.Info("upload staged", "file", rel, "size", staged.Size, "by", actor.Identity)
	return &StagedUpload{
		StagedFile: *staged,
		Owner:      actor.Identity,
		Suggested:  extra,
		Time:       now,
	}, nil
}

// IngestBatch runs IngestUpload for every file. A failure of one file does
// not stop the others.
func (s *PortalService) IngestBatch(actor Actor, files []UploadFile, suggested string) *BatchResult {
	res := &BatchResult{}
	if len(files) == 0 {
		res.Failures = append(res.Failures, "no files selected")
		return res
	}
	for _, f := range files {
		up, err := s.IngestUpload(actor, f.Name, f.Reader, suggested)
		if err != nil {
			res.Failures = append(res.Failures, failureMessage(f.Name, err))
			continue
		}
		res.Accepted = append(res.Accepted, up)
	}
	return res
}

func failureMessage(name string, err error) string {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return Message(err)
	}
	return fmt.Sprintf("%s: %s", name, Message(err))
}

// Publish moves a staged item into the share root. Directory items land at
// share/<destination>/<item>. File items land at share/<destination>, or
// inside it when it is an existing folder, or at share/<item> when
// destination is empty.
func (s *PortalService) Publish(actor Actor, item, destination string) (*Path, error) {
	if err := actor.RequireAdmin("publish"); err != nil {
		return nil, err
	}
	if err := checkSegment(item); err != nil {
		return nil, fmt.Errorf("staged item: %w", err)
	}

	src, err := s.staging.Resolve(item)
	if err != nil {
		return nil, err
	}
	info, err := s.ns.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("staged item %q: %w", item, err)
	}

	destination = strings.TrimSpace(destination)
	targetRel := destination
	if isDir(info) {
		targetRel = path.Join(destination, item)
	} else if targetRel == "" {
		targetRel = item
	}
	target, err := s.ns.Resolve(RootShare, targetRel)
	if err != nil {
		return nil, err
	}
	if target.IsRoot() {
		return nil, fmt.Errorf("cannot publish onto the share root: %w", ErrForbidden)
	}
	if !isDir(info) {
		if ti, err := s.ns.Stat(target); err == nil && isDir(ti) {
			if target, err = s.ns.Resolve(RootShare, path.Join(target.Rel(), item)); err != nil {
				return nil, err
			}
		}
	}
	exists, err := s.ns.Exists(target)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("publish target %q: %w", target.Rel(), ErrConflict)
	}

	parent, err := s.ns.Resolve(RootShare, path.Dir(target.Rel()))
	if err != nil {
		return nil, err
	}
	if err := s.ns.MkdirAll(parent); err != nil {
		return nil, err
	}
	if err := s.ns.Move(src, target); err != nil {
		return nil, err
	}

	if err := s.record(LogActivity, actor.Identity, ActionPublish, item, target.Rel()); err != nil {
		return target, err
	}
	s.logger.Info("upload published", "item", item, "target", target.Rel(), "by", actor.Identity)
	return target, nil
}

// Decline removes a staged item and records the decision against its
// uploader. The decline record is written before anything is removed.
func (s *PortalService) Decline(actor Actor, item string) error {
	if err := actor.RequireAdmin("decline"); err != nil {
		return err
	}
	if err := checkSegment(item); err != nil {
		return fmt.Errorf("staged item: %w", err)
	}

	exists, err := s.staging.Exists(item)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("staged item %q: %w", item, ErrNotFound)
	}

	owner, err := s.uploaderOf(item)
	if err != nil {
		return err
	}

	if err := s.record(LogDecline, owner, ActionDecline, item, actor.Identity); err != nil {
		return err
	}
	if err := s.staging.Discard(item); err != nil {
		return fmt.Errorf("removing declined item %q: %w", item, err)
	}

	s.logger.Info("upload declined", "item", item, "owner", owner, "by", actor.Identity)
	return nil
}

// uploaderOf returns the identity on the latest upload record for item.
func (s *PortalService) uploaderOf(item string) (string, error) {
	recs, err := s.ledger.ReadAll(LogUpload)
	if err != nil {
		return "", fmt.Errorf("reading upload log: %w", err)
	}
	for i := len(recs) - 1; i >= 0; i-- {
		if TopLevel(recs[i].Subject) == item {
			return recs[i].Identity, nil
		}
	}
	return "unknown", nil
}
