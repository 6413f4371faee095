package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for portal.
type Config struct {
	InstanceID  string            `toml:"instance_id"`
	BaseDir     string            `toml:"base_dir"`
	LogDir      string            `toml:"log_dir"`
	LogLevel    string            `toml:"log_level,omitempty"` // debug, info (default), warn, error
	Roots       RootsConfig       `toml:"roots"`
	Accounts    AccountsConfig    `toml:"accounts"`
	Ledger      LedgerConfig      `toml:"ledger"`
	Uploads     UploadsConfig     `toml:"uploads"`
	Suggestions SuggestionsConfig `toml:"suggestions"`
	Namespace   NamespaceConfig   `toml:"namespace"`
	Encryption  EncryptionConfig  `toml:"encryption"`
	Vaults      []VaultConfig     `toml:"vaults"`
}

// RootsConfig names the three directory boundaries. They must be distinct
// and must not contain one another.
type RootsConfig struct {
	Share   string `toml:"share"`
	Staging string `toml:"staging"`
	Trash   string `toml:"trash"`
}

// AccountsConfig locates the account bucket snapshots.
type AccountsConfig struct {
	Dir        string `toml:"dir"`
	BcryptCost int    `toml:"bcrypt_cost,omitempty"` // 0 uses bcrypt.DefaultCost
}

// LedgerConfig represents configuration for the event ledger.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type LedgerConfig struct {
	Type string `toml:"type"`          // "csv" (default), "sqlite" or "memory"
	Dir  string `toml:"dir,omitempty"` // used for type=csv and type=sqlite
}

// UploadsConfig holds per-class upload ceilings (in MB, 1 MB = 1024*1024
// bytes) and the extension lists that define each class.
type UploadsConfig struct {
	MaxImageMB         int64    `toml:"max_image_mb"`
	MaxVideoMB         int64    `toml:"max_video_mb"`
	MaxDocumentMB      int64    `toml:"max_document_mb"`
	MaxAdminMB         int64    `toml:"max_admin_mb"`
	ImageExtensions    []string `toml:"image_extensions"`
	VideoExtensions    []string `toml:"video_extensions"`
	DocumentExtensions []string `toml:"document_extensions"`
}

// SuggestionsConfig holds the suggestion cooldown ladder.
type SuggestionsConfig struct {
	CooldownSeconds []int `toml:"cooldown_seconds"`
}

// NamespaceConfig holds listing settings.
type NamespaceConfig struct {
	Hidden []string `toml:"hidden"`
}

// EncryptionConfig holds paths to the age key pair used for export encryption.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
	Armor          bool   `toml:"armor,omitempty"` // PEM-style ASCII output for exports
}

// VaultConfig represents configuration for an export vault backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`          // for S3-compatible stores
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`     // empty uses the default chain
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"` // empty uses the default chain

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// DefaultUploadsConfig returns the stock upload classes and ceilings.
func DefaultUploadsConfig() UploadsConfig {
	return UploadsConfig{
		MaxImageMB:         5,
		MaxVideoMB:         100,
		MaxDocumentMB:      20,
		MaxAdminMB:         500,
		ImageExtensions:    []string{"png", "jpg", "jpeg", "gif"},
		VideoExtensions:    []string{"mp4", "mov", "avi", "mkv", "wmv"},
		DocumentExtensions: []string{"txt", "pdf", "zip", "rar", "7z", "doc", "docx", "xls", "xlsx", "ppt", "pptx"},
	}
}

// DefaultCooldownSeconds is the stock suggestion cooldown ladder.
func DefaultCooldownSeconds() []int {
	return []int{60, 300, 600, 1800, 3600}
}

// NewConfig creates a new Config with every path placed under baseDir.
func NewConfig(instanceID, baseDir string) *Config {
	return &Config{
		InstanceID: instanceID,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
		Roots: RootsConfig{
			Share:   filepath.Join(baseDir, "share"),
			Staging: filepath.Join(baseDir, "uploads"),
			Trash:   filepath.Join(baseDir, "trash"),
		},
		Accounts: AccountsConfig{Dir: filepath.Join(baseDir, "accounts")},
		Ledger:   LedgerConfig{Type: "csv", Dir: filepath.Join(baseDir, "logs")},
		Uploads:  DefaultUploadsConfig(),
		Suggestions: SuggestionsConfig{
			CooldownSeconds: DefaultCooldownSeconds(),
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "portal.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "portal.key"),
		},
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: filepath.Join(baseDir, "exports")},
		},
	}
}

// Validate checks that the roots are configured, distinct and disjoint.
func (c *Config) Validate() error {
	roots := map[string]string{
		"share":   c.Roots.Share,
		"staging": c.Roots.Staging,
		"trash":   c.Roots.Trash,
	}
	abs := make(map[string]string, len(roots))
	for name, dir := range roots {
		if dir == "" {
			return fmt.Errorf("roots.%s is not set", name)
		}
		a, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("roots.%s: %w", name, err)
		}
		abs[name] = a
	}
	for a, pa := range abs {
		for b, pb := range abs {
			if a == b {
				continue
			}
			if pa == pb || strings.HasPrefix(pb, pa+string(filepath.Separator)) {
				return fmt.Errorf("roots.%s (%s) overlaps roots.%s (%s)", a, pa, b, pb)
			}
		}
	}
	if c.Accounts.Dir == "" {
		return fmt.Errorf("accounts.dir is not set")
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes a new config file at path. It refuses to overwrite an existing one.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
