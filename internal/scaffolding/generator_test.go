package scaffolding

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/storybridge/internal/config"
	"github.com/conneroisu/storybridge/internal/testutils"
)

func install(t *testing.T, cfg *config.Config, opts InstallOptions) (*Report, string) {
	t.Helper()

	var out bytes.Buffer
	report, err := NewInstaller(cfg, &out, nil).Install(context.Background(), opts)
	require.NoError(t, err)
	return report, out.String()
}

func TestInstallCreatesIntegration(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Frontend.APIBaseURL = "https://site.test/"

	report, out := install(t, cfg, InstallOptions{Dir: dir})

	assert.Equal(t, []string{".storybook", "resources/stories", "resources/stories/components"}, report.Directories)
	assert.Equal(t, []string{
		".storybook/main.js",
		".storybook/preview.js",
		"resources/js/storybook/server-loader.js",
		"resources/stories/components/Button.stories.js",
		"views/components/button.gohtml",
		".storybridge.yml",
	}, report.Created)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, PackageJSONMissing, report.PackageJSON)
	assert.Contains(t, out, "package.json not found")

	testutils.AssertFileContains(t, filepath.Join(dir, ".storybook/main.js"), "'../resources/stories/**/*.stories.@(js|jsx|ts|tsx|mdx)'")
	testutils.AssertFileContains(t, filepath.Join(dir, ".storybook/main.js"), "'../resources/js/storybook/server-loader.js'")
	testutils.AssertFileContains(t, filepath.Join(dir, ".storybook/preview.js"), "apiBaseUrl: 'https://site.test',")
	testutils.AssertFileContains(t, filepath.Join(dir, ".storybook/preview.js"), "assetsUrl: null,")
	testutils.AssertFileContains(t, filepath.Join(dir, "resources/stories/components/Button.stories.js"), "https://site.test/storybook/render/components.button")
	testutils.AssertFileContains(t, filepath.Join(dir, "views/components/button.gohtml"), `{{ or .text "Click me" }}`)
	testutils.AssertFilePermissions(t, filepath.Join(dir, ".storybook/main.js"), 0o644)
}

func TestInstalledConfigLoads(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.RoutePrefix = "preview"
	install(t, cfg, InstallOptions{Dir: dir, SkipNPM: true})

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, config.DefaultFileName))
	require.NoError(t, v.ReadInConfig())

	loaded, err := config.LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "preview", loaded.RoutePrefix)
}

func TestInstallSkipsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFile(t, dir, ".storybook/main.js", "// mine")

	report, out := install(t, config.Default(), InstallOptions{Dir: dir, SkipNPM: true})

	assert.Equal(t, []string{".storybook/main.js"}, report.Skipped)
	assert.NotContains(t, report.Directories, ".storybook")
	assert.Contains(t, out, "use --force")
	assert.Equal(t, PackageJSONSkipped, report.PackageJSON)

	content, err := os.ReadFile(filepath.Join(dir, ".storybook/main.js"))
	require.NoError(t, err)
	assert.Equal(t, "// mine", string(content))

	again, _ := install(t, config.Default(), InstallOptions{Dir: dir, SkipNPM: true})
	assert.Empty(t, again.Created)
	assert.Len(t, again.Skipped, 6)
}

func TestInstallForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFile(t, dir, ".storybook/main.js", "// mine")

	report, _ := install(t, config.Default(), InstallOptions{Dir: dir, Force: true, SkipNPM: true})

	assert.Empty(t, report.Skipped)
	testutils.AssertFileContains(t, filepath.Join(dir, ".storybook/main.js"), "@storybook/html-vite")
}

func TestInstallMergesPackageJSON(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFile(t, dir, "package.json", `{
  "name": "site",
  "private": true,
  "scripts": {"build": "vite build", "storybook": "old"},
  "devDependencies": {"vite": "^5.0.0"}
}`)

	report, _ := install(t, config.Default(), InstallOptions{Dir: dir})
	assert.Equal(t, PackageJSONUpdated, report.PackageJSON)

	raw, err := os.ReadFile(filepath.Join(dir, "package.json"))
	require.NoError(t, err)

	var pkg struct {
		Name            string            `json:"name"`
		Private         bool              `json:"private"`
		Scripts         map[string]string `json:"scripts"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	require.NoError(t, json.Unmarshal(raw, &pkg))

	assert.Equal(t, "site", pkg.Name)
	assert.True(t, pkg.Private)
	assert.Equal(t, "vite build", pkg.Scripts["build"])
	assert.Equal(t, "storybook dev -p 6006", pkg.Scripts["storybook"])
	assert.Equal(t, "storybook build", pkg.Scripts["build-storybook"])
	assert.Equal(t, "^5.0.0", pkg.DevDependencies["vite"])
	assert.Contains(t, pkg.DevDependencies, "@storybook/html-vite")
}

func TestInstallRejectsMalformedPackageJSON(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFile(t, dir, "package.json", `{"name":`)

	_, err := NewInstaller(config.Default(), nil, nil).Install(context.Background(), InstallOptions{Dir: dir})
	assert.ErrorContains(t, err, "failed to parse package.json")
}

func TestInstallCustomLayout(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Stories.Path = "./assets/stories/"
	cfg.Components.Roots = []string{"./templates"}
	cfg.Components.Suffix = ".tmpl"

	report, _ := install(t, cfg, InstallOptions{Dir: dir, SkipNPM: true})

	assert.Contains(t, report.Created, "assets/stories/components/Button.stories.js")
	assert.Contains(t, report.Created, "templates/components/button.tmpl")
	testutils.AssertFileContains(t, filepath.Join(dir, ".storybook/main.js"), "'../assets/stories/**/*.stories.@(js|jsx|ts|tsx|mdx)'")
}

func TestRenderStubs(t *testing.T) {
	cfg := config.Default()
	cfg.Frontend.AssetsURL = "http://localhost:5173/app.css"
	ctx := NewTemplateContext(cfg)

	for _, stub := range BuiltinStubs(cfg) {
		t.Run(stub.Name, func(t *testing.T) {
			content, err := RenderStub(stub, ctx)
			require.NoError(t, err)
			assert.NotEmpty(t, content)
		})
	}

	preview, err := RenderStub(Stub{Name: "preview.js.tmpl", Templated: true}, ctx)
	require.NoError(t, err)
	assert.Contains(t, string(preview), "assetsUrl: 'http://localhost:5173/app.css',")
	assert.Contains(t, string(preview), "cacheKeyPrefix: 'storybook',")

	_, err = RenderStub(Stub{Name: "missing.tmpl"}, ctx)
	assert.Error(t, err)
}
