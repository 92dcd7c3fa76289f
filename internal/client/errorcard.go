package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	stdhtml "html"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/conneroisu/storybridge/internal/renderer"
)

// TitleClientError heads the card shown when the server could not be
// reached.
const TitleClientError = "Component Render Error"

// ClientErrorClass marks cards produced by this package.
const ClientErrorClass = "storybridge-client-error"

// errorCard is the markup returned in place of a component when the
// request itself failed.
func errorCard(component string, err error, args map[string]any) string {
	var b strings.Builder

	b.WriteString(`<div class="` + ClientErrorClass + `" style="padding: 20px; border: 2px solid #ff6b6b; border-radius: 4px; background: #ffe0e0; color: #d63031;">`)
	fmt.Fprintf(&b, `<h3>❌ %s</h3>`, TitleClientError)
	fmt.Fprintf(&b, `<p><strong>Component:</strong> %s</p>`, stdhtml.EscapeString(component))
	fmt.Fprintf(&b, `<p><strong>Error:</strong> %s</p>`, stdhtml.EscapeString(err.Error()))
	b.WriteString(`<details style="margin-top: 10px;"><summary>Arguments passed to component:</summary>`)
	fmt.Fprintf(&b, `<pre style="background: #f8f9fa; padding: 10px; border-radius: 4px; margin-top: 5px; font-size: 12px;">%s</pre>`,
		stdhtml.EscapeString(indentArgs(args)))
	b.WriteString(`</details></div>`)

	return b.String()
}

func indentArgs(args map[string]any) string {
	if args == nil {
		args = map[string]any{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(args); err != nil {
		return fmt.Sprint(args)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// IsErrorCard reports whether markup is a fallback card, either one the
// server produced for a missing or failing component or one this package
// produced for a failed request. Only the top-level elements are checked,
// so a component that merely contains such a card is not mistaken for one.
func IsErrorCard(markup string) bool {
	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return false
	}

	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		return hasClass(n, renderer.ErrorClass) || hasClass(n, ClientErrorClass)
	}

	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}
