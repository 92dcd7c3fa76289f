package inspector

import (
	"regexp"
)

// VariableExtractor lists the variable names a template source refers to.
type VariableExtractor interface {
	Extract(src []byte) []string
}

var (
	actionPattern = regexp.MustCompile(`(?s)\{\{(.*?)\}\}`)
	// A sigil not preceded by an identifier character or a closing bracket,
	// so chained fields like .user.name only yield "user".
	referencePattern = regexp.MustCompile(`(?:^|[^\w\])])([.$])([A-Za-z_]\w*)`)
)

// RegexExtractor is a lexical heuristic over html/template actions: it
// collects the names after "." and "$" inside {{ ... }}. It reports
// locally declared variables such as range keys and misses names that are
// computed at run time, so its result is a hint rather than a contract.
type RegexExtractor struct {
	// IncludeLocals keeps $name references. Enabled by default.
	IncludeLocals bool
}

// NewRegexExtractor returns an extractor reporting fields and locals.
func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{IncludeLocals: true}
}

// Extract returns unique names in order of first occurrence.
func (x *RegexExtractor) Extract(src []byte) []string {
	seen := make(map[string]struct{})
	names := []string{}

	for _, action := range actionPattern.FindAllSubmatch(src, -1) {
		body := stripStrings(action[1])
		for _, m := range referencePattern.FindAllSubmatch(body, -1) {
			if string(m[1]) == "$" && !x.IncludeLocals {
				continue
			}
			name := string(m[2])
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	return names
}

// stripStrings blanks quoted literals so text such as "$5.00" inside an
// action is not reported.
func stripStrings(body []byte) []byte {
	out := make([]byte, len(body))
	copy(out, body)

	var quote byte
	for i := 0; i < len(out); i++ {
		c := out[i]
		switch {
		case quote == 0 && (c == '"' || c == '`'):
			quote = c
		case quote != 0 && c == '\\' && quote == '"' && i+1 < len(out):
			out[i] = ' '
			i++
			out[i] = ' '
		case quote != 0 && c == quote:
			quote = 0
		case quote != 0:
			out[i] = ' '
		}
	}

	return out
}
