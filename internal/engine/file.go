package engine

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/conneroisu/storybridge/internal/errors"
	"github.com/conneroisu/storybridge/internal/logging"
	"github.com/conneroisu/storybridge/internal/resolver"
)

// DefaultSuffix is the file extension of component templates.
const DefaultSuffix = ".gohtml"

// FileEngine renders html/template files stored under one or more roots.
// Identifier "a.b.c" maps to "<root>/a/b/c.gohtml" in the first root that
// holds a regular file at that location.
type FileEngine struct {
	roots      []string
	suffix     string
	missingKey string
	funcs      template.FuncMap
	logger     logging.Logger

	mu    sync.RWMutex
	cache map[string]*cachedTemplate
}

type cachedTemplate struct {
	tmpl    *template.Template
	modTime time.Time
	size    int64
}

// FileOption configures a FileEngine.
type FileOption func(*FileEngine)

// WithSuffix sets the template file extension.
func WithSuffix(suffix string) FileOption {
	return func(e *FileEngine) {
		if suffix == "" {
			return
		}
		if !strings.HasPrefix(suffix, ".") {
			suffix = "." + suffix
		}
		e.suffix = suffix
	}
}

// WithMissingKey sets the html/template missingkey option: default, zero or error.
func WithMissingKey(mode string) FileOption {
	return func(e *FileEngine) {
		if mode != "" {
			e.missingKey = mode
		}
	}
}

// WithFuncs adds template helpers on top of FuncMap.
func WithFuncs(funcs template.FuncMap) FileOption {
	return func(e *FileEngine) {
		for name, fn := range funcs {
			e.funcs[name] = fn
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger logging.Logger) FileOption {
	return func(e *FileEngine) {
		if logger != nil {
			e.logger = logger.WithComponent("file_engine")
		}
	}
}

// NewFileEngine creates an engine over roots. Relative roots are made
// absolute against the working directory.
func NewFileEngine(roots []string, opts ...FileOption) (*FileEngine, error) {
	if len(roots) == 0 {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "at least one template root is required")
	}

	e := &FileEngine{
		suffix:     DefaultSuffix,
		missingKey: "default",
		funcs:      FuncMap(),
		logger:     logging.NewNopLogger(),
		cache:      make(map[string]*cachedTemplate),
	}

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, fmt.Sprintf("invalid template root %q", root))
		}
		e.roots = append(e.roots, abs)
	}

	for _, opt := range opts {
		opt(e)
	}

	switch e.missingKey {
	case "default", "zero", "error":
	default:
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("missing key mode %q must be one of default, zero, error", e.missingKey))
	}

	return e, nil
}

// Roots returns the absolute template roots in lookup order.
func (e *FileEngine) Roots() []string {
	return append([]string(nil), e.roots...)
}

// Suffix returns the template file extension.
func (e *FileEngine) Suffix() string {
	return e.suffix
}

// Exists implements Engine.
func (e *FileEngine) Exists(id string) bool {
	_, err := e.Find(id)
	return err == nil
}

// Find implements Engine. Identifiers with empty or malformed segments are
// never looked up, and the join is confined to the root.
func (e *FileEngine) Find(id string) (string, error) {
	ident := resolver.Identifier(id)
	if !ident.Valid() {
		return "", errors.NewNotFoundError(id)
	}

	rel := filepath.Join(ident.Segments()...) + e.suffix

	for _, root := range e.roots {
		path, err := securejoin.SecureJoin(root, rel)
		if err != nil {
			continue
		}

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		return path, nil
	}

	return "", errors.NewNotFoundError(id)
}

// Render implements Engine.
func (e *FileEngine) Render(ctx context.Context, id string, data map[string]any) (html string, err error) {
	path, err := e.Find(id)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", errors.NewRenderError(id, err)
	}

	tmpl, err := e.load(ctx, path)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeRender, errors.ErrCodeTemplateParse, "template parse failed").
			WithComponent(id)
	}

	defer recoverRender(id, &err)

	var buf bytes.Buffer
	if execErr := tmpl.Execute(&buf, data); execErr != nil {
		return "", errors.NewRenderError(id, execErr)
	}

	return buf.String(), nil
}

// Invalidate drops every parsed template.
func (e *FileEngine) Invalidate() {
	e.mu.Lock()
	e.cache = make(map[string]*cachedTemplate)
	e.mu.Unlock()
}

// load returns the parsed template for path, re-parsing when the file's
// modification time or size changed since it was cached.
func (e *FileEngine) load(ctx context.Context, path string) (*template.Template, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	cached, ok := e.cache[path]
	e.mu.RUnlock()

	if ok && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		return cached.tmpl, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(filepath.Base(path)).
		Option("missingkey=" + e.missingKey).
		Funcs(e.funcs).
		Parse(string(src))
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[path] = &cachedTemplate{tmpl: tmpl, modTime: info.ModTime(), size: info.Size()}
	e.mu.Unlock()

	e.logger.Debug(ctx, "Parsed template", "path", path)

	return tmpl, nil
}
