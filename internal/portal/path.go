package portal

import (
	"path"
	"strings"
)

// RootName identifies one of the directory boundaries the portal works in.
type RootName string

const (
	RootShare   RootName = "share"
	RootStaging RootName = "staging"
	RootTrash   RootName = "trash"
)

// Path is a location that has passed containment checks against its root.
// Path objects are created by Namespace.Resolve; holding one means the
// absolute form is the root itself or lies beneath it.
type Path struct {
	root    RootName
	rel     string
	absPath string
}

// NewPath creates a Path from its components.
// This is primarily for use by Namespace implementations.
func NewPath(root RootName, rel, absPath string) *Path {
	return &Path{root: root, rel: rel, absPath: absPath}
}

// Root returns the root this path was resolved against.
func (p *Path) Root() RootName { return p.root }

// Rel returns the canonical root-relative form using forward slashes.
// The root itself is "".
func (p *Path) Rel() string { return p.rel }

// String returns the absolute path.
func (p *Path) String() string { return p.absPath }

// IsRoot reports whether the path is the root directory itself.
func (p *Path) IsRoot() bool { return p.rel == "" }

// Base returns the last element of the relative path.
func (p *Path) Base() string {
	if p.rel == "" {
		return ""
	}
	return path.Base(p.rel)
}

// TopLevel returns the first segment of a relative upload path, splitting on
// either separator. "proj/a/b.txt" and "proj\\a\\b.txt" both give "proj".
func TopLevel(rel string) string {
	if i := strings.IndexAny(rel, `/\`); i >= 0 {
		return rel[:i]
	}
	return rel
}

// IsNested reports whether a relative upload path came from a directory
// upload, i.e. carries a separator of either kind.
func IsNested(rel string) bool {
	return strings.ContainsAny(rel, `/\`)
}
