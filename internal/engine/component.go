package engine

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/a-h/templ"

	"github.com/conneroisu/storybridge/internal/errors"
	"github.com/conneroisu/storybridge/internal/resolver"
)

// ComponentFunc builds a templ component from preview data.
type ComponentFunc func(data map[string]any) templ.Component

// ComponentEngine renders templ components registered in process. It lets
// a host application expose its compiled components without template files
// on disk. Registered components have no source path.
type ComponentEngine struct {
	mu         sync.RWMutex
	components map[string]ComponentFunc
}

// NewComponentEngine creates an empty registry.
func NewComponentEngine() *ComponentEngine {
	return &ComponentEngine{components: make(map[string]ComponentFunc)}
}

// Register adds or replaces the component for id.
func (e *ComponentEngine) Register(id string, fn ComponentFunc) error {
	if !resolver.Identifier(id).Valid() {
		return errors.NewValidationError(errors.ErrCodeInvalidIdentifier,
			fmt.Sprintf("invalid component identifier %q", id))
	}
	if fn == nil {
		return errors.NewValidationError(errors.ErrCodeInvalidIdentifier,
			fmt.Sprintf("nil component for %q", id))
	}

	e.mu.Lock()
	e.components[id] = fn
	e.mu.Unlock()

	return nil
}

// Unregister removes id.
func (e *ComponentEngine) Unregister(id string) {
	e.mu.Lock()
	delete(e.components, id)
	e.mu.Unlock()
}

func (e *ComponentEngine) get(id string) (ComponentFunc, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn, ok := e.components[id]
	return fn, ok
}

// Exists implements Engine.
func (e *ComponentEngine) Exists(id string) bool {
	_, ok := e.get(id)
	return ok
}

// Find implements Engine. Registered components are compiled code, so an
// existing component reports ErrCodeNoSource.
func (e *ComponentEngine) Find(id string) (string, error) {
	if !e.Exists(id) {
		return "", errors.NewNotFoundError(id)
	}
	return "", errors.NewMetadataError(errors.ErrCodeNoSource, id, fmt.Errorf("component is compiled and has no template source"))
}

// Render implements Engine.
func (e *ComponentEngine) Render(ctx context.Context, id string, data map[string]any) (html string, err error) {
	fn, ok := e.get(id)
	if !ok {
		return "", errors.NewNotFoundError(id)
	}

	defer recoverRender(id, &err)

	component := fn(data)
	if component == nil {
		return "", errors.NewRenderError(id, fmt.Errorf("component constructor returned nil"))
	}

	var buf bytes.Buffer
	if renderErr := component.Render(ctx, &buf); renderErr != nil {
		return "", errors.NewRenderError(id, renderErr)
	}

	return buf.String(), nil
}

// Identifiers implements Lister.
func (e *ComponentEngine) Identifiers() []string {
	e.mu.RLock()
	ids := make([]string, 0, len(e.components))
	for id := range e.components {
		ids = append(ids, id)
	}
	e.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
