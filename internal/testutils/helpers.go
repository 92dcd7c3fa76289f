// Package testutils holds helpers shared by package tests: temporary view
// trees, a ready-to-serve configuration and filesystem assertions.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/storybridge/internal/config"
)

// Sample templates keyed by their path relative to a template root.
var StandardTemplates = map[string]string{
	"components/button.gohtml": `<button type="{{ or .type "button" }}" class="btn btn-{{ or .variant "primary" }}">{{ .text }}</button>`,
	"components/card.gohtml": `<div class="card {{ .class }}">` +
		`<h2>{{ or .title "Default Title" }}</h2><p>{{ .description }}</p></div>`,
	"components/forms/input.gohtml": `<input name="{{ .name }}" value="{{ .value }}" data-theme="{{ ._storybook.Theme }}">`,
	"blocks/hero.gohtml":            `<section class="hero"><h1>{{ .headline }}</h1></section>`,
	"partials/footer.gohtml":        `<footer>{{ or .copyright "storybridge" }}</footer>`,
	"components/broken.gohtml":      `{{ index .items 10 }}`,
}

// CreateViewTree writes files under a fresh temporary root and returns it.
// A nil map writes StandardTemplates.
func CreateViewTree(t *testing.T, files map[string]string) string {
	t.Helper()

	if files == nil {
		files = StandardTemplates
	}

	root := t.TempDir()
	for rel, content := range files {
		WriteFile(t, root, rel, content)
	}

	return root
}

// WriteFile writes content to root/rel, creating parent directories.
func WriteFile(t *testing.T, root, rel, content string) string {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

// CreateTestConfig returns a valid configuration serving the given roots
// with gating open, metrics on and hot reload off.
func CreateTestConfig(roots ...string) *config.Config {
	cfg := config.Default()
	cfg.Environment = "local"
	cfg.Debug = true
	cfg.Server.Port = 0
	cfg.Components.Roots = roots
	cfg.Development.HotReload = false
	cfg.Metrics.Enabled = true
	return cfg
}

// AssertFilePermissions checks the permission bits of a file
func AssertFilePermissions(t *testing.T, path string, expectedMode os.FileMode) {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err)

	actualMode := info.Mode()
	require.Equal(t, expectedMode, actualMode&os.FileMode(0o777),
		"File %s has incorrect permissions: got %o, want %o",
		path, actualMode&os.FileMode(0o777), expectedMode)
}

// AssertFileContains fails unless path exists and contains substr.
func AssertFileContains(t *testing.T, path, substr string) {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), substr)
}

// WaitForFileChange waits for a file to be modified (useful for testing file watchers)
func WaitForFileChange(
	t *testing.T,
	filePath string,
	originalModTime time.Time,
	timeout time.Duration,
) {
	t.Helper()

	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		info, err := os.Stat(filePath)
		if err == nil && info.ModTime().After(originalModTime) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("File %s was not modified within %v", filePath, timeout)
}
