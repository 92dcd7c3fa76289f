// Package engine provides the template engines that back component
// previews.
//
// An Engine answers three questions about a dotted identifier: does a
// template exist, where is its source, and what HTML does it produce for a
// data mapping. FileEngine serves html/template files from disk,
// ComponentEngine serves a-h/templ components registered in process, and
// Chain composes several engines with first-match-wins semantics.
//
// Missing templates are reported with an errors.ErrorTypeNotFound error and
// failures while rendering with errors.ErrorTypeRender. Panics raised while
// rendering are recovered and surfaced as render errors. Output is
// deterministic as long as the template itself is.
package engine

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/conneroisu/storybridge/internal/errors"
)

// Engine renders templates addressed by dotted identifiers.
type Engine interface {
	// Exists reports whether id names a renderable template.
	Exists(id string) bool
	// Find returns the path of the backing source artifact.
	Find(id string) (string, error)
	// Render executes the template with data and returns the HTML.
	Render(ctx context.Context, id string, data map[string]any) (string, error)
}

// Invalidator is implemented by engines that cache parsed templates.
type Invalidator interface {
	Invalidate()
}

// Lister is implemented by engines that know their identifiers without
// walking the filesystem.
type Lister interface {
	Identifiers() []string
}

// Chain tries each engine in order; the first one reporting existence
// handles the request.
type Chain []Engine

// NewChain builds a Chain, skipping nil engines.
func NewChain(engines ...Engine) Chain {
	chain := make(Chain, 0, len(engines))
	for _, e := range engines {
		if e != nil {
			chain = append(chain, e)
		}
	}
	return chain
}

func (c Chain) owner(id string) Engine {
	for _, e := range c {
		if e.Exists(id) {
			return e
		}
	}
	return nil
}

// Exists implements Engine.
func (c Chain) Exists(id string) bool {
	return c.owner(id) != nil
}

// Find implements Engine.
func (c Chain) Find(id string) (string, error) {
	e := c.owner(id)
	if e == nil {
		return "", errors.NewNotFoundError(id)
	}
	return e.Find(id)
}

// Render implements Engine.
func (c Chain) Render(ctx context.Context, id string, data map[string]any) (string, error) {
	e := c.owner(id)
	if e == nil {
		return "", errors.NewNotFoundError(id)
	}
	return e.Render(ctx, id, data)
}

// Invalidate forwards to every engine that caches.
func (c Chain) Invalidate() {
	for _, e := range c {
		if inv, ok := e.(Invalidator); ok {
			inv.Invalidate()
		}
	}
}

// Identifiers collects identifiers from engines implementing Lister.
func (c Chain) Identifiers() []string {
	var ids []string
	for _, e := range c {
		if l, ok := e.(Lister); ok {
			ids = append(ids, l.Identifiers()...)
		}
	}
	return ids
}

// recoverRender converts a panic into a render error assigned to err.
func recoverRender(id string, err *error) {
	if r := recover(); r != nil {
		*err = errors.NewRenderError(id, fmt.Errorf("panic: %v", r)).
			WithContext("stack", string(debug.Stack()))
	}
}
