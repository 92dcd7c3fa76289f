package renderer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DecodeJSON decodes a single JSON value into v without rounding numbers
// through float64. Trailing data after the value is an error.
func DecodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}

// NormalizeArgs converts the json.Number values left by DecodeJSON into
// types templates can compare: int64 for integers that fit, float64 for
// fractions and exponents. Integers beyond int64 stay json.Number so they
// print exactly. m is updated in place and returned.
func NormalizeArgs(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalize(v)
	}
	return m
}

func normalize(v any) any {
	switch val := v.(type) {
	case json.Number:
		return number(val)
	case map[string]any:
		return NormalizeArgs(val)
	case []any:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	default:
		return v
	}
}

func number(n json.Number) any {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return n
}
