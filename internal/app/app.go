package app

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"portal-go/internal/bucket"
	"portal-go/internal/config"
	"portal-go/internal/encryption"
	pfs "portal-go/internal/fs"
	"portal-go/internal/ledger"
	"portal-go/internal/portal"
	"portal-go/internal/ratelimit"
	"portal-go/internal/staging"
	"portal-go/internal/trash"
	"portal-go/internal/upload"
	"portal-go/internal/vault"

	"golang.org/x/crypto/bcrypt"
)

// PortalApp is the application layer between the CLI and PortalService.
// It constructs all dependencies from config, resolves the acting identity,
// turns local paths into upload batches and closes the ledger on Close.
type PortalApp struct {
	cfg       *config.Config
	ledger    portal.Ledger
	accounts  *bucket.Machine
	vault     portal.Vault
	encryptor portal.Encryptor
	service   *portal.PortalService
	op        *Operation
	logger    *slogAdapter
	logFile   *os.File
}

// NewPortalApp creates a fully wired PortalApp from the given config.
// operation identifies the CLI command being run (e.g. "Publish", "ExportLedger").
// The caller must call Close when done.
func NewPortalApp(cfg *config.Config, operation string) (*PortalApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ns, err := pfs.NewOSNamespace(map[portal.RootName]string{
		portal.RootShare:   cfg.Roots.Share,
		portal.RootStaging: cfg.Roots.Staging,
		portal.RootTrash:   cfg.Roots.Trash,
	}, cfg.Namespace.Hidden)
	if err != nil {
		return nil, fmt.Errorf("opening roots: %w", err)
	}

	store, err := bucket.NewStore(cfg.Accounts.Dir)
	if err != nil {
		return nil, fmt.Errorf("opening account buckets: %w", err)
	}

	ladder, err := ratelimit.NewLadderFromSeconds(cfg.Suggestions.CooldownSeconds)
	if err != nil {
		return nil, fmt.Errorf("suggestion cooldowns: %w", err)
	}

	var v portal.Vault
	if len(cfg.Vaults) > 0 {
		v, err = vault.NewVaultFromConfig(cfg.Vaults[0])
		if err != nil {
			return nil, fmt.Errorf("creating vault: %w", err)
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	led, err := ledger.NewLedgerFromConfig(cfg.Ledger)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		led.Close()
		return nil, err
	}
	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID, level)
	if err != nil {
		led.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	adapter := &slogAdapter{l: logger}

	accounts := bucket.NewMachine(store)
	clock := portal.RealClock{}
	idgen := portal.UUIDGenerator{}
	svc := portal.NewPortalService(portal.Components{
		Namespace: ns,
		Staging:   staging.NewFileSystemStagingArea(ns),
		Validator: upload.NewValidator(cfg.Uploads),
		Ledger:    led,
		Moderator: accounts,
		Trash:     trash.NewArchive(ns, led, clock, idgen),
		Quota:     ladder,
		Vault:     v,
		Encryptor: enc,
		Logger:    adapter,
		Clock:     clock,
		IDGen:     idgen,
	})

	return &PortalApp{
		cfg:       cfg,
		ledger:    led,
		accounts:  accounts,
		vault:     v,
		encryptor: enc,
		service:   svc,
		op:        NewOperation(opID, operation, ""),
		logger:    adapter,
		logFile:   logFile,
	}, nil
}

// Service exposes the wired PortalService for operations that need no
// translation from CLI input.
func (a *PortalApp) Service() *portal.PortalService {
	return a.service
}

// Operation returns the record of the running CLI command.
func (a *PortalApp) Operation() *Operation {
	return a.op
}

// Actor resolves identity against the active bucket. Pending, denied and
// deactivated accounts cannot act.
func (a *PortalApp) Actor(identity string) (portal.Actor, error) {
	if identity == "" {
		return portal.Actor{}, fmt.Errorf("no acting identity: pass --as or set %s: %w", EnvUser, portal.ErrInvalid)
	}
	p, b, err := a.accounts.Locate(identity)
	if err != nil {
		return portal.Actor{}, fmt.Errorf("resolving %s: %w", identity, err)
	}
	if b != portal.BucketActive || p.Status != portal.StatusActive {
		return portal.Actor{}, fmt.Errorf("account %s is %s: %w", identity, p.Status, portal.ErrForbidden)
	}
	a.op.Parameters = identity
	return portal.Actor{Identity: p.Identity, Role: p.Role}, nil
}

// AddAccount hashes password and registers identity into the pending bucket.
// With admin set the account goes straight to the active bucket as an admin,
// which is only allowed while no active admin exists.
func (a *PortalApp) AddAccount(identity, password string, admin bool) error {
	if password == "" {
		return fmt.Errorf("password is required: %w", portal.ErrInvalid)
	}
	cost := a.cfg.Accounts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if !admin {
		return a.service.Register(identity, string(hash))
	}

	active, err := a.accounts.List(portal.BucketActive)
	if err != nil {
		return err
	}
	if slices.ContainsFunc(active, func(p *portal.Principal) bool { return p.Role == portal.RoleAdmin }) {
		return fmt.Errorf("an admin already exists; register and have it approved instead: %w", portal.ErrForbidden)
	}
	err = a.accounts.Bootstrap(portal.Principal{
		Identity:       identity,
		CredentialHash: string(hash),
		Role:           portal.RoleAdmin,
		Status:         portal.StatusActive,
	})
	if err != nil {
		return fmt.Errorf("bootstrapping %s: %w", identity, err)
	}
	a.logger.Info("admin bootstrapped", "identity", identity)
	return nil
}

// CheckPassword reports whether password matches the stored hash of identity.
func (a *PortalApp) CheckPassword(identity, password string) error {
	p, _, err := a.accounts.Locate(identity)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.CredentialHash), []byte(password)); err != nil {
		return fmt.Errorf("credentials for %s: %w", identity, portal.ErrForbidden)
	}
	return nil
}

// UploadPath stages a local file, or every regular file beneath a local
// directory, as one batch. Directory members are named <dir>/<rel> so the
// directory becomes a single pending item.
func (a *PortalApp) UploadPath(actor portal.Actor, local, suggested string) (*portal.BatchResult, error) {
	info, err := os.Stat(local)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", local, err)
	}

	var files []portal.UploadFile
	var readers []*lazyFile
	add := func(name, p string) {
		lf := &lazyFile{path: p}
		readers = append(readers, lf)
		files = append(files, portal.UploadFile{Name: name, Reader: lf})
	}
	defer func() {
		for _, lf := range readers {
			lf.Close()
		}
	}()

	if !info.IsDir() {
		add(filepath.Base(local), local)
	} else {
		base := filepath.Base(filepath.Clean(local))
		err := filepath.WalkDir(local, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(local, p)
			if err != nil {
				return err
			}
			add(path.Join(base, filepath.ToSlash(rel)), p)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", local, err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("%s contains no files: %w", local, portal.ErrInvalid)
		}
	}

	a.op.Parameters = local
	return a.service.IngestBatch(actor, files, suggested), nil
}

// PendingUploads lists the moderation queue with dests applied as chosen
// destinations, keyed by staged item.
func (a *PortalApp) PendingUploads(actor portal.Actor, dests map[string]string) ([]*portal.PendingUpload, error) {
	sel := portal.NewSelection(actor)
	for item, chosen := range dests {
		if err := a.service.BeginPathSelection(sel, item); err != nil {
			return nil, err
		}
		if err := a.service.CompletePathSelection(sel, "", chosen); err != nil {
			return nil, fmt.Errorf("destination for %s: %w", item, err)
		}
	}
	return a.service.PendingUploads(actor, sel)
}

// Suggest submits a suggestion. The cooldown state is rebuilt from the
// identity's earlier suggestions since a CLI process has no session.
func (a *PortalApp) Suggest(actor portal.Actor, text string) (ratelimit.Decision, error) {
	state, err := a.cooldownState(actor.Identity)
	if err != nil {
		return ratelimit.Decision{}, err
	}
	return a.service.SubmitSuggestion(actor, &state, text)
}

// cooldownState derives the ladder position from the suggestion log: the
// last suggestion and how many were made on its calendar day.
func (a *PortalApp) cooldownState(identity string) (ratelimit.CooldownState, error) {
	recs, err := a.ledger.ReadAll(portal.LogSuggestion)
	if err != nil {
		return ratelimit.CooldownState{}, fmt.Errorf("reading suggestion log: %w", err)
	}
	var mine []time.Time
	for _, r := range recs {
		if r.Identity == identity {
			mine = append(mine, r.Time.Local())
		}
	}
	if len(mine) == 0 {
		return ratelimit.CooldownState{}, nil
	}
	last := mine[len(mine)-1]
	y, m, d := last.Date()
	level := 0
	for _, t := range mine {
		if ty, tm, td := t.Date(); ty == y && tm == m && td == d {
			level++
		}
	}
	return ratelimit.CooldownState{LastAction: last, Level: level}, nil
}

// ExportLedger exports the named log to the configured vault.
func (a *PortalApp) ExportLedger(actor portal.Actor, logName string, encrypt bool) (string, error) {
	log, err := portal.ParseLogName(logName)
	if err != nil {
		return "", err
	}
	a.op.Parameters = logName
	return a.service.ExportLedger(actor, log, encrypt)
}

// FetchExport writes a stored export to w, unlocking the private key with
// passphrase when the export is encrypted.
func (a *PortalApp) FetchExport(actor portal.Actor, name, passphrase string, w io.Writer) error {
	var dc portal.DecryptionContext
	if IsEncrypted(name) {
		var err error
		dc, err = a.encryptor.Unlock(passphrase)
		if err != nil {
			return fmt.Errorf("unlocking private key: %w", err)
		}
	}
	return a.service.FetchExport(actor, name, dc, w)
}

// IsEncrypted reports whether a stored export needs a passphrase to read.
func IsEncrypted(name string) bool {
	return strings.HasSuffix(name, ".age")
}

// InitKeys generates the export key pair.
func (a *PortalApp) InitKeys(passphrase string) error {
	if err := a.encryptor.Setup(passphrase); err != nil {
		return fmt.Errorf("generating keys: %w", err)
	}
	a.logger.Info("export keys generated")
	return nil
}

// ValidateVault checks that the configured export vault is reachable.
func (a *PortalApp) ValidateVault() error {
	if a.vault == nil {
		return fmt.Errorf("no vault configured: %w", portal.ErrNotFound)
	}
	return a.vault.ValidateSetup()
}

// Finish records the outcome of the operation and passes err through.
func (a *PortalApp) Finish(err error) error {
	if err != nil {
		a.op.Fail(err)
	}
	return err
}

// Close logs the operation outcome and releases the ledger and log file.
func (a *PortalApp) Close() error {
	var firstErr error

	args := []any{"operation", a.op.Name, "status", a.op.Status, "duration", a.op.Duration(time.Now())}
	if a.op.Parameters != "" {
		args = append(args, "parameters", a.op.Parameters)
	}
	if a.op.Err != nil {
		args = append(args, "error", a.op.Err)
		a.logger.Warn("operation finished", args...)
	} else {
		a.logger.Debug("operation finished", args...)
	}

	if err := a.ledger.Close(); err != nil {
		firstErr = fmt.Errorf("closing ledger: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// lazyFile opens its file on first read and closes it at EOF, so a large
// batch does not hold every descriptor open at once.
type lazyFile struct {
	path string
	f    *os.File
	done bool
}

func (l *lazyFile) Read(p []byte) (int, error) {
	if l.done {
		return 0, io.EOF
	}
	if l.f == nil {
		f, err := os.Open(l.path)
		if err != nil {
			l.done = true
			return 0, err
		}
		l.f = f
	}
	n, err := l.f.Read(p)
	if err != nil {
		l.Close()
		l.done = true
	}
	return n, err
}

func (l *lazyFile) Close() error {
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
