// Package resolver turns caller-supplied component paths into namespaced
// template identifiers.
//
// Resolution is a total function over strings: characters outside
// [A-Za-z0-9._/-] are stripped, slashes become dots, and an identifier that
// does not start with an allowed prefix is rewritten into the default
// namespace. For example "button" becomes "components.button" while
// "blocks/hero" stays "blocks.hero".
//
// The rewrite routes any unprefixed input, including attacker-influenced
// paths, into the default namespace. The resolver does not enforce that the
// identifier maps to a real file; template engines only ever interpret it as
// dotted segments and refuse segments that are empty or malformed, which is
// what neutralizes sequences such as "../".
package resolver

import (
	"regexp"
	"strings"
)

// Separator joins identifier segments.
const Separator = "."

// DefaultPrefix is the namespace used when no allowed prefix is present.
const DefaultPrefix = "components"

// DefaultAllowedPrefixes are the namespaces of general components,
// page-section blocks and reusable partials.
var DefaultAllowedPrefixes = []string{"components", "blocks", "partials"}

var (
	disallowedChars = regexp.MustCompile(`[^A-Za-z0-9._/-]`)
	segmentPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Identifier is a dotted template name such as "components.button".
type Identifier string

// String returns the identifier text.
func (id Identifier) String() string {
	return string(id)
}

// IsEmpty reports whether nothing survived sanitization.
func (id Identifier) IsEmpty() bool {
	return id == ""
}

// Segments splits the identifier on the separator.
func (id Identifier) Segments() []string {
	if id == "" {
		return nil
	}
	return strings.Split(string(id), Separator)
}

// Prefix returns the first segment.
func (id Identifier) Prefix() string {
	prefix, _, _ := strings.Cut(string(id), Separator)
	return prefix
}

// Valid reports whether every segment is non-empty and matches
// [A-Za-z0-9_-]+. Invalid identifiers never resolve to a template.
func (id Identifier) Valid() bool {
	if id == "" {
		return false
	}
	for _, segment := range id.Segments() {
		if !segmentPattern.MatchString(segment) {
			return false
		}
	}
	return true
}

// Resolver normalizes raw paths against a set of allowed prefixes.
// It holds only read-only configuration and is safe for concurrent use.
type Resolver struct {
	allowed       []string
	defaultPrefix string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDefaultPrefix overrides the namespace prepended to unprefixed input.
func WithDefaultPrefix(prefix string) Option {
	return func(r *Resolver) {
		if prefix != "" {
			r.defaultPrefix = prefix
		}
	}
}

// New creates a resolver. An empty allowed list falls back to
// DefaultAllowedPrefixes.
func New(allowed []string, opts ...Option) *Resolver {
	if len(allowed) == 0 {
		allowed = DefaultAllowedPrefixes
	}

	r := &Resolver{
		allowed:       append([]string(nil), allowed...),
		defaultPrefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// AllowedPrefixes returns a copy of the configured namespaces.
func (r *Resolver) AllowedPrefixes() []string {
	return append([]string(nil), r.allowed...)
}

// DefaultPrefix returns the namespace prepended to unprefixed input.
func (r *Resolver) DefaultPrefix() string {
	return r.defaultPrefix
}

// Resolve sanitizes raw and returns the namespaced identifier. It never
// fails; an input with nothing left after sanitization yields the empty
// identifier.
func (r *Resolver) Resolve(raw string) Identifier {
	clean := Sanitize(raw)
	if clean == "" {
		return ""
	}

	if r.HasAllowedPrefix(clean) {
		return Identifier(clean)
	}

	return Identifier(r.defaultPrefix + Separator + clean)
}

// HasAllowedPrefix reports whether s begins with "<prefix>." for one of the
// allowed prefixes.
func (r *Resolver) HasAllowedPrefix(s string) bool {
	for _, prefix := range r.allowed {
		if strings.HasPrefix(s, prefix+Separator) {
			return true
		}
	}
	return false
}

// IsAllowedPrefix reports whether prefix is one of the allowed namespaces.
func (r *Resolver) IsAllowedPrefix(prefix string) bool {
	for _, allowed := range r.allowed {
		if allowed == prefix {
			return true
		}
	}
	return false
}

// Sanitize strips characters outside [A-Za-z0-9._/-] and converts path
// separators to the namespace separator.
func Sanitize(raw string) string {
	clean := disallowedChars.ReplaceAllString(raw, "")
	return strings.ReplaceAll(clean, "/", Separator)
}

// IsValidSegment reports whether s may appear as one identifier segment.
func IsValidSegment(s string) bool {
	return segmentPattern.MatchString(s)
}
