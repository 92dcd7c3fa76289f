package engine

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FuncMap returns the helpers available to every file template.
//
//	{{ .title | default "Untitled" }}
//	{{ json .items }}
//	{{ template "x" (dict "label" .label "size" "sm") }}
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"default":  defaultValue,
		"json":     toJSON,
		"dict":     dict,
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
		"title":    titleCase,
		"trim":     strings.TrimSpace,
		"contains": strings.Contains,
		"join":     join,
	}
}

// defaultValue returns def when val is nil or an empty string. Argument
// order matches pipeline use: {{ .x | default "y" }}.
func defaultValue(def, val any) any {
	if val == nil {
		return def
	}
	if s, ok := val.(string); ok && s == "" {
		return def
	}
	return val
}

// titleCase builds a Caser per call; Casers are not safe for concurrent use.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// dict builds a map from alternating key/value arguments.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments (%d)", len(pairs))
	}

	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is %T, not string", pairs[i], pairs[i])
		}
		m[key] = pairs[i+1]
	}

	return m, nil
}

// join accepts the []any produced by JSON decoding as well as []string.
func join(sep string, items any) string {
	switch v := items.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(v, sep)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, sep)
	default:
		return fmt.Sprint(v)
	}
}
