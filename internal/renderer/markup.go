package renderer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// Failure titles.
const (
	TitleViewError   = "View Error"
	TitleRenderError = "Render Error"
)

// Marker classes used by clients to tell envelopes from fallback cards.
const (
	EnvelopeClass = "storybook-component"
	ErrorClass    = "storybook-error"
)

// envelope wraps a rendered fragment. The fragment is trusted engine output
// and is not escaped.
func envelope(component, theme, fragment string) string {
	return fmt.Sprintf(`<div class="%s" data-component="%s" data-theme="%s">%s</div>`,
		EnvelopeClass, html.EscapeString(component), html.EscapeString(theme), fragment)
}

// fallbackCard is the self-contained diagnostic shown in place of a
// component that could not be rendered.
func fallbackCard(title, component, message string, args map[string]any) string {
	var b strings.Builder

	b.WriteString(`<div class="` + ErrorClass + `" style="padding: 20px; border: 2px solid #ff6b6b; border-radius: 4px; background: #ffe0e0; color: #d63031; font-family: system-ui, sans-serif;">`)
	fmt.Fprintf(&b, `<h3 style="margin: 0 0 10px 0;">❌ %s</h3>`, html.EscapeString(title))
	fmt.Fprintf(&b, `<p><strong>Component:</strong> %s</p>`, html.EscapeString(component))
	fmt.Fprintf(&b, `<p><strong>Error:</strong> %s</p>`, html.EscapeString(message))
	b.WriteString(`<details style="margin-top: 10px;"><summary>Component arguments:</summary>`)
	fmt.Fprintf(&b, `<pre style="background: #fff; padding: 10px; border-radius: 4px; overflow: auto;">%s</pre>`,
		html.EscapeString(prettyArgs(args)))
	b.WriteString(`</details></div>`)

	return b.String()
}

// prettyArgs renders args as 4-space indented JSON. Map keys are sorted by
// encoding/json so the output is deterministic.
func prettyArgs(args map[string]any) string {
	if args == nil {
		args = map[string]any{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(args); err != nil {
		return fmt.Sprintf("%v", args)
	}

	return strings.TrimRight(buf.String(), "\n")
}
