// Package upload decides which files may enter the staging area: by name,
// by extension class, by size ceiling and by content signature.
package upload

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"portal-go/internal/config"
	"portal-go/internal/portal"
)

// MB is the unit of the configured ceilings.
const MB = 1024 * 1024

// Upload classes.
const (
	ClassImage        = "image"
	ClassVideo        = "video"
	ClassDocument     = "document"
	ClassUnclassified = "unclassified"
)

// executableTypes are refused regardless of extension. A detected type is
// refused if it or any of its ancestors is listed here.
var executableTypes = map[string]bool{
	"application/x-executable":                      true,
	"application/x-elf":                             true,
	"application/x-sharedlib":                       true,
	"application/x-mach-binary":                     true,
	"application/vnd.microsoft.portable-executable": true,
	"application/x-msdownload":                      true,
	"application/x-dosexec":                         true,
}

type class struct {
	name       string
	extensions map[string]bool
	maxBytes   int64
}

// Validator implements portal.UploadValidator.
type Validator struct {
	classes  []class
	adminMax int64
}

var _ portal.UploadValidator = (*Validator)(nil)

// NewValidator builds a Validator from config. Zero ceilings and empty
// extension lists fall back to config.DefaultUploadsConfig.
func NewValidator(cfg config.UploadsConfig) *Validator {
	def := config.DefaultUploadsConfig()
	pick := func(v, d int64) int64 {
		if v > 0 {
			return v
		}
		return d
	}
	exts := func(v, d []string) map[string]bool {
		if len(v) == 0 {
			v = d
		}
		m := make(map[string]bool, len(v))
		for _, e := range v {
			m[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))] = true
		}
		return m
	}
	return &Validator{
		classes: []class{
			{name: ClassImage, extensions: exts(cfg.ImageExtensions, def.ImageExtensions), maxBytes: pick(cfg.MaxImageMB, def.MaxImageMB) * MB},
			{name: ClassVideo, extensions: exts(cfg.VideoExtensions, def.VideoExtensions), maxBytes: pick(cfg.MaxVideoMB, def.MaxVideoMB) * MB},
			{name: ClassDocument, extensions: exts(cfg.DocumentExtensions, def.DocumentExtensions), maxBytes: pick(cfg.MaxDocumentMB, def.MaxDocumentMB) * MB},
		},
		adminMax: pick(cfg.MaxAdminMB, def.MaxAdminMB) * MB,
	}
}

// Extension returns the lowercase suffix after the last "." of the
// filename's final element, or "" if there is none.
func Extension(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	i := strings.LastIndex(base, ".")
	if i < 0 || i == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[i+1:])
}

// Classify maps a filename to exactly one class.
func (v *Validator) Classify(filename string) string {
	ext := Extension(filename)
	if ext == "" {
		return ClassUnclassified
	}
	for _, c := range v.classes {
		if c.extensions[ext] {
			return c.name
		}
	}
	return ClassUnclassified
}

// Limit returns the byte ceiling for a class. Admins get the admin ceiling
// for every class; unclassified files have no ceiling because they are
// refused before size matters.
func (v *Validator) Limit(className string, role portal.Role) int64 {
	if role == portal.RoleAdmin {
		return v.adminMax
	}
	for _, c := range v.classes {
		if c.name == className {
			return c.maxBytes
		}
	}
	return 0
}

// CheckName refuses empty names, absolute forms, ".." segments under either
// separator and NUL bytes.
func CheckName(filename string) error {
	reject := func(detail string) error {
		return &portal.RejectedError{Filename: filename, Reason: portal.RejectUnsafeFilename, Detail: detail}
	}
	s := strings.ReplaceAll(filename, `\`, "/")
	switch {
	case strings.TrimSpace(s) == "":
		return reject("empty name")
	case strings.ContainsRune(s, 0):
		return reject("NUL byte")
	case strings.HasPrefix(s, "/"):
		return reject("absolute path")
	case len(s) >= 2 && s[1] == ':':
		return reject("drive letter")
	}
	for _, seg := range strings.Split(s, "/") {
		if seg == ".." {
			return reject("parent reference")
		}
		if seg == "" || seg == "." {
			return reject("empty path segment")
		}
	}
	return nil
}

// Admit runs the checks that need only the name: filename safety, then
// extension class. It returns the ceiling for role.
func (v *Validator) Admit(filename string, role portal.Role) (int64, error) {
	if err := CheckName(filename); err != nil {
		return 0, err
	}
	c := v.Classify(filename)
	if c == ClassUnclassified {
		return 0, &portal.RejectedError{
			Filename: filename,
			Reason:   portal.RejectUnsupportedType,
			Detail:   "." + Extension(filename),
		}
	}
	return v.Limit(c, role), nil
}

// Check runs the checks that need the content: size against limit, then
// the content signature. A file exactly at the limit is accepted.
func (v *Validator) Check(filename string, size, limit int64, prefix []byte) error {
	if size > limit {
		return &portal.RejectedError{
			Filename: filename,
			Reason:   portal.RejectTooLarge,
			Detail:   fmt.Sprintf("max %d MB", limit/MB),
		}
	}
	return Inspect(filename, prefix)
}

// Inspect refuses content whose leading bytes identify an executable.
func Inspect(filename string, prefix []byte) error {
	if len(prefix) > portal.SignatureLength {
		prefix = prefix[:portal.SignatureLength]
	}
	for m := mimetype.Detect(prefix); m != nil; m = m.Parent() {
		mt := m.String()
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = mt[:i]
		}
		if executableTypes[mt] || strings.Contains(mt, "executable") {
			return &portal.RejectedError{
				Filename: filename,
				Reason:   portal.RejectMaliciousSignature,
				Detail:   mt,
			}
		}
	}
	return nil
}

// Limits lists the ceiling of every class for role.
func (v *Validator) Limits(role portal.Role) []portal.UploadLimit {
	out := make([]portal.UploadLimit, 0, len(v.classes))
	for _, c := range v.classes {
		exts := make([]string, 0, len(c.extensions))
		for e := range c.extensions {
			exts = append(exts, e)
		}
		slices.Sort(exts)
		out = append(out, portal.UploadLimit{
			Class:      c.name,
			Extensions: exts,
			MaxBytes:   v.Limit(c.name, role),
		})
	}
	return out
}
