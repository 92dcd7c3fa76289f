// Package lister discovers the component identifiers available under the
// configured template roots.
package lister

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conneroisu/storybridge/internal/engine"
	"github.com/conneroisu/storybridge/internal/logging"
	"github.com/conneroisu/storybridge/internal/resolver"
)

// Lister walks <root>/<prefix>/ for every root and allowed prefix.
// Nothing is cached; every call walks the filesystem again.
type Lister struct {
	roots    []string
	prefixes []string
	suffix   string
	extra    []engine.Lister
	logger   logging.Logger
}

// Option configures a Lister.
type Option func(*Lister)

// WithSuffix sets the template file extension.
func WithSuffix(suffix string) Option {
	return func(l *Lister) {
		if suffix != "" {
			if !strings.HasPrefix(suffix, ".") {
				suffix = "." + suffix
			}
			l.suffix = suffix
		}
	}
}

// WithSources adds identifiers known to engines, such as registered templ
// components. They are filtered by the allowed prefixes like files are.
func WithSources(sources ...engine.Lister) Option {
	return func(l *Lister) {
		l.extra = append(l.extra, sources...)
	}
}

// WithLogger sets the lister logger.
func WithLogger(logger logging.Logger) Option {
	return func(l *Lister) {
		if logger != nil {
			l.logger = logger.WithComponent("lister")
		}
	}
}

// New creates a Lister.
func New(roots, prefixes []string, opts ...Option) *Lister {
	l := &Lister{
		roots:    append([]string(nil), roots...),
		prefixes: append([]string(nil), prefixes...),
		suffix:   engine.DefaultSuffix,
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// List returns the sorted, deduplicated identifiers. Missing directories
// are skipped. Files whose path would not form a valid identifier are
// skipped too, since no render call could ever reach them.
func (l *Lister) List(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})

	for _, root := range l.roots {
		for _, prefix := range l.prefixes {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			dir := filepath.Join(root, prefix)
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				continue
			}

			if err := l.walk(ctx, dir, prefix, seen); err != nil {
				return nil, err
			}
		}
	}

	for _, source := range l.extra {
		for _, id := range source.Identifiers() {
			ident := resolver.Identifier(id)
			if ident.Valid() && l.allowed(ident.Prefix()) {
				seen[id] = struct{}{}
			}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}

func (l *Lister) walk(ctx context.Context, dir, prefix string, seen map[string]struct{}) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped rather than failing the listing.
			if d != nil && d.IsDir() && path != dir {
				l.logger.Debug(ctx, "Skipping unreadable directory", "path", path, "error", err.Error())
				return filepath.SkipDir
			}
			if stderrors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}

		if d.IsDir() || !strings.HasSuffix(d.Name(), l.suffix) {
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}

		id, ok := identifierFor(prefix, rel, l.suffix)
		if !ok {
			l.logger.Debug(ctx, "Skipping file with non-identifier name", "path", path)
			return nil
		}

		seen[id] = struct{}{}
		return nil
	})
}

// identifierFor maps "<prefix>/a/b.gohtml" to "<prefix>.a.b". It reports
// false when a path element is not a valid segment; a dotted file name
// would map back to a different path.
func identifierFor(prefix, rel, suffix string) (string, bool) {
	parts := strings.Split(strings.TrimSuffix(filepath.ToSlash(rel), suffix), "/")
	for _, part := range parts {
		if !resolver.IsValidSegment(part) {
			return "", false
		}
	}
	return prefix + resolver.Separator + strings.Join(parts, resolver.Separator), true
}

func (l *Lister) allowed(prefix string) bool {
	for _, p := range l.prefixes {
		if p == prefix {
			return true
		}
	}
	return false
}

// IdentifierForPath maps a template file path back to its component
// identifier. It reports false when the file lies outside every
// <root>/<prefix> directory or does not form a valid identifier.
func (l *Lister) IdentifierForPath(path string) (string, bool) {
	if !strings.HasSuffix(path, l.suffix) {
		return "", false
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}

	for _, root := range l.roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		for _, prefix := range l.prefixes {
			rel, err := filepath.Rel(filepath.Join(absRoot, prefix), abs)
			if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
				continue
			}
			if id, ok := identifierFor(prefix, rel, l.suffix); ok {
				return id, true
			}
		}
	}

	return "", false
}

// Roots returns the configured template roots.
func (l *Lister) Roots() []string {
	return append([]string(nil), l.roots...)
}

// Suffix returns the template file extension.
func (l *Lister) Suffix() string {
	return l.suffix
}
