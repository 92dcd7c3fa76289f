package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"http localhost", "http://localhost:8080", false},
		{"https with path", "https://app.example.com/storybook", false},
		{"ip address", "http://127.0.0.1:8000", false},
		{"query string", "http://localhost:8080/?a=b&c=d", false},
		{"file scheme", "file:///etc/passwd", true},
		{"javascript scheme", "javascript:alert(1)", true},
		{"no scheme", "localhost:8080", true},
		{"empty", "", true},
		{"missing host", "http://", true},
		{"single quote", "http://localhost:8080/'+alert(1)+'", true},
		{"double quote", `http://localhost:8080/"`, true},
		{"backtick", "http://localhost:8080/`id`", true},
		{"template literal", "http://localhost:8080/${x}", true},
		{"newline", "http://localhost:8080/\nalert(1)", true},
		{"space", "http://localhost:8080/a b", true},
		{"angle bracket", "http://localhost:8080/<script>", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func FuzzValidateURL(f *testing.F) {
	f.Add("http://localhost:8080")
	f.Add("https://example.com/a?b=c")
	f.Add("javascript:alert(1)")
	f.Add("http://x/'\"")

	f.Fuzz(func(t *testing.T, raw string) {
		if ValidateURL(raw) != nil {
			return
		}
		for _, bad := range []string{"'", "\"", "`", "\n", "<"} {
			assert.NotContains(t, raw, bad)
		}
	})
}
