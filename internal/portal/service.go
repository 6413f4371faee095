package portal

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"portal-go/internal/ratelimit"
)

// Quota is the cooldown policy applied to suggestion submission.
type Quota interface {
	TryConsume(state *ratelimit.CooldownState, now time.Time) ratelimit.Decision
}

// Components bundles the dependencies of a PortalService.
// Logger, Clock and IDGen default to NopLogger, RealClock and UUIDGenerator.
type Components struct {
	Namespace Namespace
	Staging   StagingArea
	Validator UploadValidator
	Ledger    Ledger
	Moderator Moderator
	Trash     Trash
	Quota     Quota
	Vault     Vault
	Encryptor Encryptor
	Logger    Logger
	Clock     Clock
	IDGen     IDGenerator
}

// PortalService is the orchestration layer that coordinates the namespace,
// staging, ledger and moderation components for the CLI.
// Every call reads current state from disk; nothing is cached between calls.
type PortalService struct {
	ns        Namespace
	staging   StagingArea
	validator UploadValidator
	ledger    Ledger
	moderator Moderator
	trash     Trash
	quota     Quota
	vault     Vault
	encryptor Encryptor
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// NewPortalService creates a new PortalService with the provided dependencies.
func NewPortalService(c Components) *PortalService {
	s := &PortalService{
		ns:        c.Namespace,
		staging:   c.Staging,
		validator: c.Validator,
		ledger:    c.Ledger,
		moderator: c.Moderator,
		trash:     c.Trash,
		quota:     c.Quota,
		vault:     c.Vault,
		encryptor: c.Encryptor,
		logger:    c.Logger,
		clock:     c.Clock,
		idgen:     c.IDGen,
	}
	if s.logger == nil {
		s.logger = NewNopLogger()
	}
	if s.clock == nil {
		s.clock = RealClock{}
	}
	if s.idgen == nil {
		s.idgen = UUIDGenerator{}
	}
	return s
}

// ListNamespace returns the visible entries of a directory under root:
// folders first, then files, each ordered case-insensitively.
func (s *PortalService) ListNamespace(root RootName, rel string) ([]*Entry, error) {
	dir, err := s.ns.Resolve(root, rel)
	if err != nil {
		return nil, err
	}
	return s.ns.List(dir)
}

// CreateFolder creates a single new directory named name inside parent.
func (s *PortalService) CreateFolder(actor Actor, parent, name string) (*Path, error) {
	if err := actor.RequireAdmin("create folder"); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := checkSegment(name); err != nil {
		return nil, fmt.Errorf("folder name: %w", err)
	}

	dir, err := s.ns.Resolve(RootShare, parent)
	if err != nil {
		return nil, err
	}
	target, err := s.ns.Resolve(RootShare, path.Join(dir.Rel(), name))
	if err != nil {
		return nil, err
	}
	if err := s.ns.Mkdir(target); err != nil {
		return nil, err
	}

	if err := s.record(LogActivity, actor.Identity, ActionCreateFolder, target.Rel(), ""); err != nil {
		return target, err
	}
	s.logger.Info("folder created", "path", target.Rel(), "by", actor.Identity)
	return target, nil
}

// SoftDelete archives a share entry into the trash root.
func (s *PortalService) SoftDelete(actor Actor, rel string) (string, error) {
	if err := actor.RequireAdmin("delete"); err != nil {
		return "", err
	}
	name, err := s.trash.SoftDelete(actor, rel)
	if err != nil {
		return "", err
	}
	s.logger.Info("entry moved to trash", "path", rel, "trash", name, "by", actor.Identity)
	return name, nil
}

// ListTrash returns archived entries, newest first.
func (s *PortalService) ListTrash(actor Actor) ([]*Entry, error) {
	if err := actor.RequireAdmin("list trash"); err != nil {
		return nil, err
	}
	return s.trash.List()
}

// RecordDownload appends a FILE or FOLDER activity for a share entry the
// actor retrieved. The entry must exist.
func (s *PortalService) RecordDownload(actor Actor, rel string) (*Path, error) {
	p, err := s.ns.Resolve(RootShare, rel)
	if err != nil {
		return nil, err
	}
	info, err := s.ns.Stat(p)
	if err != nil {
		return nil, err
	}
	action := ActionDownloadFile
	if info.IsDir() {
		action = ActionDownloadFolder
	}
	if err := s.record(LogActivity, actor.Identity, action, p.Rel(), ""); err != nil {
		return nil, err
	}
	return p, nil
}

// RecordSession appends a session event such as LOGIN or LOGOUT.
func (s *PortalService) RecordSession(identity, action, detail string) error {
	if identity == "" || action == "" {
		return fmt.Errorf("session record needs identity and action: %w", ErrInvalid)
	}
	return s.record(LogSession, identity, action, detail, "")
}

// record appends a record stamped with the service clock.
func (s *PortalService) record(log LogName, identity, action, subject, extra string) error {
	rec := Record{
		Time:     s.clock.Now().UTC(),
		Identity: identity,
		Action:   action,
		Subject:  subject,
		Extra:    extra,
	}
	if err := s.ledger.Append(log, rec); err != nil {
		s.logger.Error("ledger append failed", "log", string(log), "action", action, "error", err)
		return fmt.Errorf("recording %s: %w", action, err)
	}
	return nil
}

// checkSegment validates a single path element supplied by a caller.
func checkSegment(name string) error {
	switch {
	case name == "" || name == "." || name == "..":
		return fmt.Errorf("invalid name %q: %w", name, ErrInvalid)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("name %q must not contain separators: %w", name, ErrInvalid)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("name contains NUL: %w", ErrInvalid)
	}
	return nil
}

// isDir reports whether info describes a directory. A nil info is treated as a file.
func isDir(info fs.FileInfo) bool {
	return info != nil && info.IsDir()
}
