package view

import (
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/a-h/templ"
	"github.com/spf13/afero"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/dmitrymomot/jetpack/pkg/loader"
)

// SharedDirs are template directories parsed together with every page,
// so pages can reference their templates by name.
var SharedDirs = []string{"layouts", "partials"}

type executor interface {
	Execute(w io.Writer, data any) error
}

type source struct {
	name string
	body string
}

// Engine renders templates found through a loader.
type Engine struct {
	loader   *loader.Loader
	funcs    map[string]any
	encoding encoding.Encoding
	charset  string

	debug      bool
	strict     bool
	autoReload bool
	autoescape bool
	cache      bool

	mu     sync.RWMutex
	parsed map[string]executor
}

// New creates an engine for templates under dir.
// dir may be empty when WithLoader is given.
func New(dir string, opts ...Option) (*Engine, error) {
	e := &Engine{
		autoescape: true,
		cache:      true,
		parsed:     make(map[string]executor),
	}
	e.funcs = e.builtins()
	for _, opt := range opts {
		opt(e)
	}

	if e.loader == nil {
		if dir == "" {
			return nil, ErrNoTemplateDir
		}
		e.loader = loader.New([]string{dir})
	}

	if e.charset != "" {
		enc, err := htmlindex.Get(e.charset)
		if err != nil {
			return nil, errors.Join(ErrUnknownCharset, fmt.Errorf("%q: %w", e.charset, err))
		}
		if enc != unicode.UTF8 {
			e.encoding = enc
		}
	}

	return e, nil
}

// Loader returns the loader used to resolve template names.
func (e *Engine) Loader() *loader.Loader { return e.loader }

// Charset returns the output charset name.
func (e *Engine) Charset() string {
	if e.charset == "" {
		return "utf-8"
	}
	return e.charset
}

// Exists reports whether name resolves to a template file.
func (e *Engine) Exists(name string) bool {
	_, ok := e.loader.Resolve(name)
	return ok
}

// Render executes the template called name with data and writes the result to w.
func (e *Engine) Render(ctx context.Context, w io.Writer, name string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t, err := e.template(name)
	if err != nil {
		return err
	}

	if e.encoding != nil {
		tw := transform.NewWriter(w, e.encoding.NewEncoder())
		if err := t.Execute(tw, data); err != nil {
			return errors.Join(ErrRender, err)
		}
		if err := tw.Close(); err != nil {
			return errors.Join(ErrRender, err)
		}
		return nil
	}

	if err := t.Execute(w, data); err != nil {
		return errors.Join(ErrRender, err)
	}
	return nil
}

// Component wraps a template as a templ.Component.
func (e *Engine) Component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return e.Render(ctx, w, name, data)
	})
}

// Reset drops every cached template.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.parsed = make(map[string]executor)
}

func (e *Engine) template(name string) (executor, error) {
	rel, ok := e.loader.RelPath(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	keep := e.cache && !e.autoReload
	if keep {
		e.mu.RLock()
		t, ok := e.parsed[rel]
		e.mu.RUnlock()
		if ok {
			return t, nil
		}
	}

	t, err := e.parse(name, rel)
	if err != nil {
		return nil, err
	}

	if keep {
		e.mu.Lock()
		e.parsed[rel] = t
		e.mu.Unlock()
	}
	return t, nil
}

func (e *Engine) parse(name, rel string) (executor, error) {
	body, err := e.loader.ReadFile(name)
	if err != nil {
		if errors.Is(err, loader.ErrNotFound) || errors.Is(err, loader.ErrInvalidName) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
		return nil, err
	}

	shared, err := e.shared()
	if err != nil {
		return nil, err
	}

	page := source{name: trimExt(rel), body: string(body)}
	if e.autoescape {
		return e.parseHTML(page, shared)
	}
	return e.parseText(page, shared)
}

func (e *Engine) parseHTML(page source, shared []source) (executor, error) {
	t := htmltemplate.New(page.name).Funcs(e.funcs)
	if e.strict {
		t = t.Option("missingkey=error")
	}
	for _, s := range shared {
		if s.name == page.name {
			continue
		}
		if _, err := t.New(s.name).Parse(s.body); err != nil {
			return nil, errors.Join(ErrParse, err)
		}
	}
	if _, err := t.Parse(page.body); err != nil {
		return nil, errors.Join(ErrParse, err)
	}
	return t, nil
}

func (e *Engine) parseText(page source, shared []source) (executor, error) {
	t := texttemplate.New(page.name).Funcs(e.funcs)
	if e.strict {
		t = t.Option("missingkey=error")
	}
	for _, s := range shared {
		if s.name == page.name {
			continue
		}
		if _, err := t.New(s.name).Parse(s.body); err != nil {
			return nil, errors.Join(ErrParse, err)
		}
	}
	if _, err := t.Parse(page.body); err != nil {
		return nil, errors.Join(ErrParse, err)
	}
	return t, nil
}

// shared reads templates under SharedDirs of every root.
// A name found in an earlier root hides the same name in later roots.
func (e *Engine) shared() ([]source, error) {
	fsys := e.loader.Fs()
	seen := make(map[string]bool)
	var out []source

	for _, root := range e.loader.Roots() {
		for _, dir := range SharedDirs {
			base := filepath.Join(root, dir)
			if ok, _ := afero.DirExists(fsys, base); !ok {
				continue
			}
			err := afero.Walk(fsys, base, func(p string, info fs.FileInfo, err error) error {
				if err != nil || info.IsDir() {
					return err
				}
				rel, err := filepath.Rel(root, p)
				if err != nil {
					return err
				}
				name := trimExt(filepath.ToSlash(rel))
				if seen[name] {
					return nil
				}
				body, err := afero.ReadFile(fsys, p)
				if err != nil {
					return err
				}
				seen[name] = true
				out = append(out, source{name: name, body: string(body)})
				return nil
			})
			if err != nil {
				return nil, errors.Join(ErrParse, err)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, nil
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}
