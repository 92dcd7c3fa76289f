package renderer

import "fmt"

// ContextKey is the reserved data key holding the PreviewContext. A caller
// argument with the same name is overwritten.
const ContextKey = "_storybook"

// Defaults applied when the request context omits a value.
const (
	DefaultTheme    = "light"
	DefaultViewport = "story"
)

// PreviewContext is injected into every render under ContextKey and is
// reachable from templates as {{ ._storybook.Theme }}.
type PreviewContext struct {
	Theme     string `json:"theme"`
	Viewport  string `json:"viewport"`
	IsPreview bool   `json:"isPreview"`
}

// NewPreviewContext reads theme and viewport from a schema-less request
// context. Missing keys and JSON nulls fall back to the defaults; strings
// are used as is and other values are formatted with fmt.Sprint.
func NewPreviewContext(raw map[string]any) PreviewContext {
	return PreviewContext{
		Theme:     stringOr(raw, "theme", DefaultTheme),
		Viewport:  stringOr(raw, "viewport", DefaultViewport),
		IsPreview: true,
	}
}

func stringOr(raw map[string]any, key, fallback string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// viewData returns a fresh mapping of args plus the preview context. args
// is never modified.
func viewData(args map[string]any, pc PreviewContext) map[string]any {
	data := make(map[string]any, len(args)+1)
	for k, v := range args {
		data[k] = v
	}
	data[ContextKey] = pc
	return data
}
