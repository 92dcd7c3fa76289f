//go:build property
// +build property

package resolver

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestResolveProperties checks resolution over generated inputs.
func TestResolveProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	r := New(nil)

	properties.Property("prefixed identifiers are returned unchanged", prop.ForAll(
		func(prefix, name string) bool {
			raw := prefix + "." + name
			return r.Resolve(raw) == Identifier(raw)
		},
		gen.OneConstOf("components", "blocks", "partials"),
		gen.Identifier(),
	))

	properties.Property("unprefixed identifiers get the default prefix", prop.ForAll(
		func(name string) bool {
			if r.HasAllowedPrefix(name) {
				return true
			}
			return r.Resolve(name) == Identifier("components."+name)
		},
		gen.Identifier(),
	))

	properties.Property("output only contains the allowed alphabet", prop.ForAll(
		func(raw string) bool {
			out := string(r.Resolve(raw))
			return !disallowedChars.MatchString(out) && !strings.Contains(out, "/")
		},
		gen.AnyString(),
	))

	properties.Property("output is empty or carries an allowed prefix", prop.ForAll(
		func(raw string) bool {
			out := r.Resolve(raw)
			return out.IsEmpty() || r.HasAllowedPrefix(string(out))
		},
		gen.AnyString(),
	))

	properties.Property("resolution is idempotent", prop.ForAll(
		func(raw string) bool {
			once := r.Resolve(raw)
			return r.Resolve(string(once)) == once
		},
		gen.AnyString(),
	))

	properties.Property("parent references never form a valid identifier", prop.ForAll(
		func(name string) bool {
			return !r.Resolve("../" + name).Valid()
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
