package loader

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	// NamespaceSeparator splits a qualified name into namespace segments.
	NamespaceSeparator = `\`

	// DefaultExtension is appended to resolved names.
	DefaultExtension = ".html"
)

// Option configures a Loader.
type Option func(*Loader)

// WithNamespace restricts the loader to names under prefix.
func WithNamespace(prefix string) Option {
	return func(l *Loader) {
		l.namespace = strings.Trim(prefix, NamespaceSeparator)
	}
}

// WithExtension sets the file extension appended to resolved names.
// An empty extension is allowed.
func WithExtension(ext string) Option {
	return func(l *Loader) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		l.ext = ext
	}
}

// WithFs sets the filesystem roots are resolved against.
// Defaults to the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(l *Loader) {
		if fsys != nil {
			l.fs = fsys
		}
	}
}

// Loader resolves names to files. It is safe for concurrent use.
type Loader struct {
	fs        afero.Fs
	namespace string
	ext       string
	roots     []string
}

// New creates a Loader that searches roots in order.
func New(roots []string, opts ...Option) *Loader {
	l := &Loader{
		fs:    afero.NewOsFs(),
		ext:   DefaultExtension,
		roots: append([]string(nil), roots...),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Roots returns the search roots in lookup order.
func (l *Loader) Roots() []string {
	return append([]string(nil), l.roots...)
}

// Fs returns the underlying filesystem.
func (l *Loader) Fs() afero.Fs {
	return l.fs
}

// RelPath converts a qualified name to a slash-separated relative path.
// Names that already contain "/" are taken literally and only get the
// extension appended when it is missing. The namespace applies to both
// forms: with namespace `Acme`, `Acme\X` and "Acme/X" match and
// "Other/X" does not.
// It reports false for names outside the namespace or containing
// parent-directory segments.
func (l *Loader) RelPath(name string) (string, bool) {
	name = strings.TrimLeft(name, NamespaceSeparator+"/")
	if name == "" {
		return "", false
	}

	var rel string
	if strings.Contains(name, "/") {
		if l.namespace != "" && !strings.HasPrefix(name, l.namespaceDir()+"/") {
			return "", false
		}
		rel = name
		if l.ext != "" && path.Ext(rel) != l.ext {
			rel += l.ext
		}
	} else {
		if l.namespace != "" && !strings.HasPrefix(name, l.namespace+NamespaceSeparator) {
			return "", false
		}

		var dir, base string
		if i := strings.LastIndex(name, NamespaceSeparator); i >= 0 {
			dir = strings.ReplaceAll(name[:i], NamespaceSeparator, "/")
			base = name[i+1:]
		} else {
			base = name
		}
		rel = path.Join(dir, strings.ReplaceAll(base, "_", "/")) + l.ext
	}

	for seg := range strings.SplitSeq(rel, "/") {
		if seg == ".." {
			return "", false
		}
	}
	return rel, true
}

func (l *Loader) namespaceDir() string {
	return strings.ReplaceAll(l.namespace, NamespaceSeparator, "/")
}

// Resolve returns the path of the first root containing name.
func (l *Loader) Resolve(name string) (string, bool) {
	rel, ok := l.RelPath(name)
	if !ok {
		return "", false
	}

	for _, root := range l.roots {
		p := filepath.Join(root, filepath.FromSlash(rel))
		info, err := l.fs.Stat(p)
		if err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Open opens the first match for name.
func (l *Loader) Open(name string) (afero.File, error) {
	p, err := l.lookup(name)
	if err != nil {
		return nil, err
	}
	return l.fs.Open(p)
}

// ReadFile reads the first match for name.
func (l *Loader) ReadFile(name string) ([]byte, error) {
	p, err := l.lookup(name)
	if err != nil {
		return nil, err
	}
	return afero.ReadFile(l.fs, p)
}

func (l *Loader) lookup(name string) (string, error) {
	if _, ok := l.RelPath(name); !ok {
		if strings.Contains(name, "..") || strings.Trim(name, NamespaceSeparator+"/") == "" {
			return "", errors.Join(ErrInvalidName, fmt.Errorf("%q", name))
		}
		return "", errors.Join(ErrNotFound, fmt.Errorf("%q is outside namespace %q", name, l.namespace))
	}
	p, ok := l.Resolve(name)
	if !ok {
		return "", errors.Join(ErrNotFound, fmt.Errorf("%q in %v", name, l.roots))
	}
	return p, nil
}
