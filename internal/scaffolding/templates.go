package scaffolding

import (
	"embed"
	"path"
	"strings"
	"text/template"

	"github.com/conneroisu/storybridge/internal/config"
)

//go:embed stubs
var stubFS embed.FS

// Stub is one file written by the installer.
type Stub struct {
	// Name of the embedded file under stubs/.
	Name string
	// Destination relative to the project directory.
	Destination string
	Description string
	// Templated stubs are executed with a TemplateContext; the rest are
	// copied as is.
	Templated bool
}

// TemplateContext holds the values substituted into templated stubs.
type TemplateContext struct {
	APIBaseURL     string
	AssetsURL      string
	RoutePrefix    string
	StoriesPath    string
	StoriesPattern string
	LoaderPath     string
	CacheKeyPrefix string
	CacheEnabled   bool
	LiveReload     bool
}

const loaderPath = "resources/js/storybook/server-loader.js"

// NewTemplateContext derives the stub values from cfg.
func NewTemplateContext(cfg *config.Config) TemplateContext {
	return TemplateContext{
		APIBaseURL:     strings.TrimRight(cfg.Frontend.APIBaseURL, "/"),
		AssetsURL:      cfg.Frontend.AssetsURL,
		RoutePrefix:    cfg.RoutePrefix,
		StoriesPath:    strings.Trim(path.Clean(toSlash(cfg.Stories.Path)), "/"),
		StoriesPattern: cfg.Stories.Pattern,
		LoaderPath:     loaderPath,
		CacheKeyPrefix: cfg.Cache.KeyPrefix,
		CacheEnabled:   cfg.Cache.Enabled,
		LiveReload:     cfg.Development.HotReload,
	}
}

// BuiltinStubs returns the Storybook files the installer writes. The
// example story lands in the configured stories directory and the starter
// template in the first template root.
func BuiltinStubs(cfg *config.Config) []Stub {
	stories := toSlash(cfg.Stories.Path)
	root := "views"
	if len(cfg.Components.Roots) > 0 {
		root = toSlash(cfg.Components.Roots[0])
	}

	return []Stub{
		{Name: "main.js.tmpl", Destination: ".storybook/main.js", Description: "Storybook main configuration", Templated: true},
		{Name: "preview.js.tmpl", Destination: ".storybook/preview.js", Description: "Storybook preview configuration", Templated: true},
		{Name: "server-loader.js.tmpl", Destination: loaderPath, Description: "server render loader", Templated: true},
		{Name: "button.stories.js.tmpl", Destination: path.Join(stories, "components", "Button.stories.js"), Description: "example story", Templated: true},
		{Name: "button.gohtml", Destination: path.Join(root, "components", "button"+cfg.Components.Suffix), Description: "starter component"},
	}
}

// RenderStub returns the content of stub for ctx.
func RenderStub(stub Stub, ctx TemplateContext) ([]byte, error) {
	raw, err := stubFS.ReadFile("stubs/" + stub.Name)
	if err != nil {
		return nil, err
	}
	if !stub.Templated {
		return raw, nil
	}

	tmpl, err := template.New(stub.Name).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, ctx); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// packageJSONUpdates returns the devDependencies and scripts merged into
// package.json.
func packageJSONUpdates() ([]byte, error) {
	return stubFS.ReadFile("stubs/package.json")
}

func toSlash(p string) string {
	return strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, "\\", "/")), "./")
}
