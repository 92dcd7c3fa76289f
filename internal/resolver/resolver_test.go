package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	r := New(nil)

	tests := []struct {
		name     string
		raw      string
		expected Identifier
	}{
		{"allowed prefix unchanged", "components.button", "components.button"},
		{"blocks prefix", "blocks.hero", "blocks.hero"},
		{"partials prefix", "partials.nav.item", "partials.nav.item"},
		{"slashes become dots", "blocks/hero", "blocks.hero"},
		{"unprefixed gets default", "button", "components.button"},
		{"nested unprefixed", "forms/input", "components.forms.input"},
		{"prefix without separator is not a prefix", "components", "components.components"},
		{"lookalike prefix", "componentsx.button", "components.componentsx.button"},
		{"strips markup", "components<script>", "components.componentsscript"},
		{"strips markup inside a segment", "components.<b>tn", "components.btn"},
		{"strips spaces and quotes", "components. 'button'", "components.button"},
		{"traversal becomes dotted segments", "../../../etc/passwd", "components..........etc.passwd"},
		{"empty input", "", ""},
		{"fully stripped input", "<>!@#", ""},
		{"hyphen and underscore kept", "components.nav-bar_v2", "components.nav-bar_v2"},
		{"unicode stripped", "components.bütton", "components.btton"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Resolve(tt.raw))
		})
	}
}

func TestResolveCustomPrefixes(t *testing.T) {
	r := New([]string{"components", "custom"}, WithDefaultPrefix("custom"))

	assert.Equal(t, Identifier("custom.card"), r.Resolve("custom.card"))
	assert.Equal(t, Identifier("custom.blocks.hero"), r.Resolve("blocks.hero"))
	assert.Equal(t, Identifier("components.button"), r.Resolve("components/button"))
	assert.Equal(t, "custom", r.DefaultPrefix())
	assert.True(t, r.IsAllowedPrefix("custom"))
	assert.False(t, r.IsAllowedPrefix("blocks"))
}

func TestNewCopiesPrefixes(t *testing.T) {
	prefixes := []string{"components", "blocks"}
	r := New(prefixes)
	prefixes[1] = "mutated"

	assert.Equal(t, []string{"components", "blocks"}, r.AllowedPrefixes())
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		id       Identifier
		valid    bool
		prefix   string
		segments []string
	}{
		{"components.button", true, "components", []string{"components", "button"}},
		{"blocks.hero-banner_2", true, "blocks", []string{"blocks", "hero-banner_2"}},
		{"components..button", false, "components", []string{"components", "", "button"}},
		{"components.", false, "components", []string{"components", ""}},
		{".button", false, "", []string{"", "button"}},
		{"", false, "", nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.id.Valid())
			assert.Equal(t, tt.prefix, tt.id.Prefix())
			assert.Equal(t, tt.segments, tt.id.Segments())
		})
	}

	assert.True(t, Identifier("").IsEmpty())
	assert.Equal(t, "components.a", Identifier("components.a").String())
}

func TestTraversalNeverYieldsValidIdentifier(t *testing.T) {
	r := New(nil)

	inputs := []string{
		"../secret",
		"components/../../etc/passwd",
		"..",
		"components...",
		"/absolute/path",
	}

	for _, raw := range inputs {
		t.Run(raw, func(t *testing.T) {
			assert.False(t, r.Resolve(raw).Valid())
		})
	}
}
