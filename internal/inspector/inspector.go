// Package inspector answers metadata queries about preview components:
// whether a template exists, where its source lives, and which variables it
// appears to reference.
package inspector

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"

	"github.com/conneroisu/storybridge/internal/engine"
	"github.com/conneroisu/storybridge/internal/errors"
	"github.com/conneroisu/storybridge/internal/logging"
	"github.com/conneroisu/storybridge/internal/resolver"
)

// Metadata describes one component. Path is nil when no source artifact
// could be located.
type Metadata struct {
	Component string   `json:"component" yaml:"component"`
	Exists    bool     `json:"exists" yaml:"exists"`
	Path      *string  `json:"path" yaml:"path"`
	Variables []string `json:"variables" yaml:"variables"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Inspector builds Metadata from a resolver and an engine.
type Inspector struct {
	resolver  *resolver.Resolver
	engine    engine.Engine
	extractor VariableExtractor
	readFile  func(string) ([]byte, error)
	logger    logging.Logger
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithExtractor replaces the regex heuristic.
func WithExtractor(x VariableExtractor) Option {
	return func(i *Inspector) {
		if x != nil {
			i.extractor = x
		}
	}
}

// WithLogger sets the inspector logger.
func WithLogger(logger logging.Logger) Option {
	return func(i *Inspector) {
		if logger != nil {
			i.logger = logger.WithComponent("inspector")
		}
	}
}

// WithReadFile overrides how sources are read.
func WithReadFile(read func(string) ([]byte, error)) Option {
	return func(i *Inspector) {
		if read != nil {
			i.readFile = read
		}
	}
}

// New creates an Inspector.
func New(r *resolver.Resolver, e engine.Engine, opts ...Option) *Inspector {
	i := &Inspector{
		resolver:  r,
		engine:    e,
		extractor: NewRegexExtractor(),
		readFile:  os.ReadFile,
		logger:    logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Describe resolves raw and reports what is known about the component.
// It never returns an error; failures reading the source degrade to
// Exists false with Error set.
func (i *Inspector) Describe(ctx context.Context, raw string) (meta Metadata) {
	id := i.resolver.Resolve(raw).String()
	meta = Metadata{Component: id, Variables: []string{}}

	defer func() {
		if r := recover(); r != nil {
			meta = Metadata{Component: id, Variables: []string{}, Error: "metadata lookup panicked"}
			i.logger.Error(ctx, nil, "Metadata lookup panicked", "component", id, "panic", r)
		}
	}()

	meta.Exists = i.engine.Exists(id)

	path, err := i.engine.Find(id)
	if err != nil || path == "" {
		if err != nil && !errors.IsNotFound(err) {
			i.logger.Debug(ctx, "No source artifact", "component", id, "reason", err.Error())
		}
		return meta
	}
	meta.Path = &path

	src, err := i.readFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return meta
		}
		wrapped := errors.NewMetadataError(errors.ErrCodeSourceUnreadable, id, err)
		i.logger.Warn(ctx, wrapped, "Failed to read component source", "component", id)
		return Metadata{Component: id, Exists: false, Variables: []string{}, Error: wrapped.Detail()}
	}

	meta.Variables = i.extractor.Extract(src)
	if meta.Variables == nil {
		meta.Variables = []string{}
	}

	return meta
}
