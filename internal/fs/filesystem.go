package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"portal-go/internal/portal"
)

// OSNamespace is the real filesystem implementation of portal.Namespace.
// Each root is canonicalized once at construction; every Resolve checks the
// target against that canonical form.
type OSNamespace struct {
	roots  map[portal.RootName]string
	hidden *HiddenMatcher
}

var _ portal.Namespace = (*OSNamespace)(nil)

// NewOSNamespace creates the given root directories if needed and returns a
// namespace over them. hidden holds extra patterns on top of the reserved
// "." prefix; patterns listed in a root's hide file are added as well.
func NewOSNamespace(roots map[portal.RootName]string, hidden []string) (*OSNamespace, error) {
	canon := make(map[portal.RootName]string, len(roots))
	patterns := slices.Clone(hidden)
	for name, dir := range roots {
		if dir == "" {
			return nil, fmt.Errorf("root %q has no directory configured", name)
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolving root %q: %w", name, err)
		}
		if err := os.MkdirAll(abs, 0755); err != nil {
			return nil, fmt.Errorf("creating root %q: %w", name, err)
		}
		canonical, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return nil, fmt.Errorf("canonicalizing root %q: %w", name, err)
		}
		canon[name] = canonical

		extra, err := ParseHideFile(filepath.Join(canonical, HideFileName))
		if err != nil {
			return nil, fmt.Errorf("root %q: %w", name, err)
		}
		patterns = append(patterns, extra...)
	}
	return &OSNamespace{roots: canon, hidden: NewHiddenMatcher(patterns)}, nil
}

// Resolve validates a caller-supplied relative path against the named root.
// Backslashes are treated as separators. Absolute forms, drive letters, NUL
// bytes and ".." segments are refused outright; whatever remains is cleaned,
// joined to the root and checked again after symlink evaluation.
func (m *OSNamespace) Resolve(root portal.RootName, rel string) (*portal.Path, error) {
	base, ok := m.roots[root]
	if !ok {
		return nil, fmt.Errorf("unknown root %q: %w", root, portal.ErrNotFound)
	}
	clean, err := cleanRel(rel)
	if err != nil {
		return nil, err
	}
	abs := base
	if clean != "" {
		abs = filepath.Join(base, filepath.FromSlash(clean))
	}
	if err := contain(base, abs); err != nil {
		return nil, fmt.Errorf("resolving %q in %s: %w", rel, root, err)
	}
	return portal.NewPath(root, clean, abs), nil
}

// cleanRel normalizes rel to a slash-separated relative path, "" for the root.
func cleanRel(rel string) (string, error) {
	s := strings.ReplaceAll(rel, `\`, "/")
	switch {
	case strings.ContainsRune(s, 0):
		return "", fmt.Errorf("path contains NUL: %w", portal.ErrForbidden)
	case strings.HasPrefix(s, "/"), filepath.IsAbs(rel), hasDriveLetter(s):
		return "", fmt.Errorf("absolute path %q: %w", rel, portal.ErrForbidden)
	}
	for _, seg := range strings.Split(s, "/") {
		if seg == ".." {
			return "", fmt.Errorf("parent reference in %q: %w", rel, portal.ErrForbidden)
		}
	}
	c := path.Clean(s)
	if c == "." {
		return "", nil
	}
	return c, nil
}

func hasDriveLetter(s string) bool {
	if len(s) < 2 || s[1] != ':' {
		return false
	}
	c := s[0] | 0x20
	return c >= 'a' && c <= 'z'
}

// contain checks that abs, or its nearest existing ancestor, evaluates to a
// location inside base.
func contain(base, abs string) error {
	if !within(base, abs) {
		return fmt.Errorf("outside root: %w", portal.ErrForbidden)
	}
	probe := abs
	for {
		_, err := os.Lstat(probe)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrNotExist) && !isNotDir(err) {
			return fmt.Errorf("stat %s: %w: %w", probe, portal.ErrIO, err)
		}
		parent := filepath.Dir(probe)
		if parent == probe || !within(base, parent) {
			return nil
		}
		probe = parent
	}
	target, err := filepath.EvalSymlinks(probe)
	if err != nil {
		return fmt.Errorf("evaluating %s: %w: %w", probe, portal.ErrIO, err)
	}
	if !within(base, target) {
		return fmt.Errorf("link leaves root: %w", portal.ErrForbidden)
	}
	return nil
}

// within reports whether p is base or lies beneath it.
func within(base, p string) bool {
	if p == base {
		return true
	}
	prefix := base
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}

// List returns the visible entries of dir. Symlinks and special files are
// never listed.
func (m *OSNamespace) List(dir *portal.Path) ([]*portal.Entry, error) {
	info, err := os.Stat(dir.String())
	if err != nil {
		return nil, classify("listing "+dir.Rel(), err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("listing %s: not a directory: %w", dir.Rel(), portal.ErrInvalid)
	}
	des, err := os.ReadDir(dir.String())
	if err != nil {
		return nil, classify("listing "+dir.Rel(), err)
	}

	entries := make([]*portal.Entry, 0, len(des))
	for _, de := range des {
		name := de.Name()
		if m.Hidden(path.Join(dir.Rel(), name)) {
			continue
		}
		if !de.IsDir() && !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w: %w", name, portal.ErrIO, err)
		}
		entries = append(entries, &portal.Entry{
			Name:    name,
			Rel:     path.Join(dir.Rel(), name),
			IsDir:   de.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	SortEntries(entries)
	return entries, nil
}

// SortEntries orders folders before files, each group by lowercase name.
func SortEntries(entries []*portal.Entry) {
	slices.SortStableFunc(entries, func(a, b *portal.Entry) int {
		if a.IsDir != b.IsDir {
			if a.IsDir {
				return -1
			}
			return 1
		}
		return strings.Compare(a.SortKey(), b.SortKey())
	})
}

// Stat returns fresh file info for a path.
func (m *OSNamespace) Stat(p *portal.Path) (fs.FileInfo, error) {
	info, err := os.Stat(p.String())
	if err != nil {
		return nil, classify("stat "+p.Rel(), err)
	}
	return info, nil
}

// Exists reports whether anything is present at p.
func (m *OSNamespace) Exists(p *portal.Path) (bool, error) {
	_, err := os.Lstat(p.String())
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) || isNotDir(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w: %w", p.Rel(), portal.ErrIO, err)
}

// Mkdir creates exactly one directory.
func (m *OSNamespace) Mkdir(p *portal.Path) error {
	if p.IsRoot() {
		return fmt.Errorf("root already exists: %w", portal.ErrConflict)
	}
	if err := os.Mkdir(p.String(), 0755); err != nil {
		return classify("creating "+p.Rel(), err)
	}
	return nil
}

// MkdirAll creates p and any missing parents.
func (m *OSNamespace) MkdirAll(p *portal.Path) error {
	if err := os.MkdirAll(p.String(), 0755); err != nil {
		return classify("creating "+p.Rel(), err)
	}
	return nil
}

// Move renames src to dst. When the two live on different volumes the
// content is copied and the source removed afterwards; a failed copy leaves
// the source untouched and removes the partial destination.
func (m *OSNamespace) Move(src, dst *portal.Path) error {
	if src.IsRoot() {
		return fmt.Errorf("cannot move a root: %w", portal.ErrForbidden)
	}
	exists, err := m.Exists(dst)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("moving to %s: %w", dst.Rel(), portal.ErrConflict)
	}

	err = os.Rename(src.String(), dst.String())
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return classify("moving "+src.Rel(), err)
	}

	if err := copyTree(src.String(), dst.String()); err != nil {
		if rerr := os.RemoveAll(dst.String()); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return fmt.Errorf("copying %s across volumes: %w: %w", src.Rel(), portal.ErrIO, err)
	}
	if err := os.RemoveAll(src.String()); err != nil {
		return fmt.Errorf("removing %s after copy: %w: %w", src.Rel(), portal.ErrIO, err)
	}
	return nil
}

// RemoveAll deletes p and everything beneath it. Roots cannot be removed.
func (m *OSNamespace) RemoveAll(p *portal.Path) error {
	if p.IsRoot() {
		return fmt.Errorf("cannot remove a root: %w", portal.ErrForbidden)
	}
	if err := os.RemoveAll(p.String()); err != nil {
		return fmt.Errorf("removing %s: %w: %w", p.Rel(), portal.ErrIO, err)
	}
	return nil
}

// Hidden reports whether the entry at the root-relative path rel is
// excluded from listings.
func (m *OSNamespace) Hidden(rel string) bool {
	return m.hidden.Match(rel)
}

// copyTree copies a file or directory tree, preserving permission bits.
// Symlinks and special files are skipped.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case d.Type().IsRegular():
			return copyFile(p, target, info.Mode().Perm())
		default:
			return nil
		}
	})
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// classify maps os errors onto the portal taxonomy.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s: %w", op, portal.ErrNotFound)
	case errors.Is(err, fs.ErrExist), isNotDir(err):
		return fmt.Errorf("%s: %w", op, portal.ErrConflict)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%s: %w: %w", op, portal.ErrForbidden, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, portal.ErrIO, err)
	}
}
