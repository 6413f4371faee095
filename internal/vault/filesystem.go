package vault

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"portal-go/internal/portal"
)

// FileSystemVault keeps exports as plain files in one directory. Temporary
// files use a "." prefix and are never listed.
type FileSystemVault struct {
	name string
	root string
}

var _ portal.Vault = (*FileSystemVault)(nil)

// NewFileSystemVault creates root if needed.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}
	return &FileSystemVault{name: name, root: root}, nil
}

func (v *FileSystemVault) Name() string { return v.name }

// Put writes via a temp file and rename so a reader never sees a partial
// export. A negative size skips the length check.
func (v *FileSystemVault) Put(name string, r io.Reader, size int64) error {
	if err := CheckName(name); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(v.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if size >= 0 && written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}
	if err := os.Rename(tmpPath, filepath.Join(v.root, name)); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}

func (v *FileSystemVault) Get(name string, w io.Writer) error {
	if err := CheckName(name); err != nil {
		return err
	}
	f, err := os.Open(filepath.Join(v.root, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("export %s: %w", name, portal.ErrNotFound)
		}
		return fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read export: %w", err)
	}
	return nil
}

func (v *FileSystemVault) List() ([]string, error) {
	des, err := os.ReadDir(v.root)
	if err != nil {
		return nil, fmt.Errorf("listing vault %s: %w", v.name, err)
	}
	var names []string
	for _, de := range des {
		if de.Type().IsRegular() && CheckName(de.Name()) == nil {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ValidateSetup verifies the vault directory exists and is writable.
func (v *FileSystemVault) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root is not a directory: %s", v.root)
	}
	probe, err := os.CreateTemp(v.root, ".probe-*")
	if err != nil {
		return fmt.Errorf("vault root not writable: %w", err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}
