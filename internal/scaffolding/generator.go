// Package scaffolding installs the Storybook side of storybridge into a
// project: the Storybook configuration, the server render loader, an
// example story, a starter template and the storybridge configuration file.
package scaffolding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/conneroisu/storybridge/internal/config"
	"github.com/conneroisu/storybridge/internal/logging"
)

// InstallOptions holds options for Install.
type InstallOptions struct {
	// Dir is the project directory. Defaults to the working directory.
	Dir string
	// Force overwrites existing files.
	Force bool
	// SkipNPM leaves package.json alone.
	SkipNPM bool
}

// Report lists what Install did, as paths relative to the project
// directory.
type Report struct {
	Directories []string
	Created     []string
	Skipped     []string
	PackageJSON string
}

// Package.json outcomes.
const (
	PackageJSONUpdated = "updated"
	PackageJSONMissing = "missing"
	PackageJSONSkipped = "skipped"
)

// Installer writes the Storybook integration for a configuration.
type Installer struct {
	config *config.Config
	out    io.Writer
	logger logging.Logger
}

// NewInstaller creates an installer. Progress lines are written to out
// when it is non-nil.
func NewInstaller(cfg *config.Config, out io.Writer, logger logging.Logger) *Installer {
	if cfg == nil {
		cfg = config.Default()
	}
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Installer{config: cfg, out: out, logger: logger.WithComponent("install")}
}

// Install creates the directories and files of the integration. Existing
// files are kept unless opts.Force is set.
func (i *Installer) Install(ctx context.Context, opts InstallOptions) (*Report, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	fmt.Fprintln(i.out, "🚀 Installing Storybook integration...")
	report := &Report{}

	for _, d := range []string{".storybook", i.config.Stories.Path, filepath.Join(i.config.Stories.Path, "components")} {
		created, err := i.mkdir(dir, d)
		if err != nil {
			return report, err
		}
		if created {
			report.Directories = append(report.Directories, filepath.ToSlash(d))
			fmt.Fprintf(i.out, "✓ Created directory: %s\n", filepath.ToSlash(d))
		}
	}

	tctx := NewTemplateContext(i.config)
	for _, stub := range BuiltinStubs(i.config) {
		content, err := RenderStub(stub, tctx)
		if err != nil {
			return report, fmt.Errorf("failed to render %s: %w", stub.Name, err)
		}

		written, err := i.writeFile(dir, stub.Destination, content, opts.Force)
		if err != nil {
			return report, err
		}
		i.record(report, stub.Destination, written)
	}

	cfgPath, err := i.resolve(dir, config.DefaultFileName)
	if err != nil {
		return report, err
	}
	written, err := config.WriteFile(cfgPath, i.config, opts.Force)
	if err != nil {
		return report, err
	}
	i.record(report, config.DefaultFileName, written)

	switch {
	case opts.SkipNPM:
		report.PackageJSON = PackageJSONSkipped
	default:
		outcome, err := i.updatePackageJSON(dir)
		if err != nil {
			return report, err
		}
		report.PackageJSON = outcome
	}

	i.logger.Info(ctx, "Storybook integration installed",
		"dir", dir,
		"created", len(report.Created),
		"skipped", len(report.Skipped),
		"package_json", report.PackageJSON)

	fmt.Fprintln(i.out, "✅ Storybook integration installed successfully!")
	i.nextSteps()

	return report, nil
}

func (i *Installer) record(report *Report, rel string, written bool) {
	rel = filepath.ToSlash(rel)
	if written {
		report.Created = append(report.Created, rel)
		fmt.Fprintf(i.out, "✓ Published: %s\n", rel)
		return
	}
	report.Skipped = append(report.Skipped, rel)
	fmt.Fprintf(i.out, "• Skipped existing file: %s (use --force to overwrite)\n", rel)
}

// resolve joins rel onto dir without letting it escape. Absolute paths,
// such as an absolute template root, are used as is.
func (i *Installer) resolve(dir, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return rel, nil
	}
	p, err := securejoin.SecureJoin(dir, rel)
	if err != nil {
		return "", fmt.Errorf("invalid install path %s: %w", rel, err)
	}
	return p, nil
}

func (i *Installer) mkdir(dir, rel string) (bool, error) {
	p, err := i.resolve(dir, rel)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(p, 0o755); err != nil {
		return false, fmt.Errorf("failed to create directory %s: %w", rel, err)
	}
	return true, nil
}

func (i *Installer) writeFile(dir, rel string, content []byte, force bool) (bool, error) {
	p, err := i.resolve(dir, rel)
	if err != nil {
		return false, err
	}
	if !force {
		if _, err := os.Stat(p); err == nil {
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return false, fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(p, content, 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return true, nil
}

// updatePackageJSON merges the Storybook devDependencies and scripts into
// an existing package.json. Entries already present with another value are
// replaced; every other key is preserved.
func (i *Installer) updatePackageJSON(dir string) (string, error) {
	p := filepath.Join(dir, "package.json")

	raw, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		fmt.Fprintln(i.out, "⚠️  package.json not found. You'll need to add the Storybook dependencies manually.")
		return PackageJSONMissing, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read package.json: %w", err)
	}

	var pkg map[string]any
	if err := json.Unmarshal(raw, &pkg); err != nil {
		return "", fmt.Errorf("failed to parse package.json: %w", err)
	}
	if pkg == nil {
		pkg = map[string]any{}
	}

	updatesRaw, err := packageJSONUpdates()
	if err != nil {
		return "", err
	}
	var updates map[string]map[string]any
	if err := json.Unmarshal(updatesRaw, &updates); err != nil {
		return "", fmt.Errorf("failed to parse package.json updates: %w", err)
	}

	for _, section := range []string{"devDependencies", "scripts"} {
		merged, _ := pkg[section].(map[string]any)
		if merged == nil {
			merged = map[string]any{}
		}
		for k, v := range updates[section] {
			merged[k] = v
		}
		pkg[section] = merged
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pkg); err != nil {
		return "", fmt.Errorf("failed to encode package.json: %w", err)
	}

	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write package.json: %w", err)
	}

	fmt.Fprintln(i.out, "✓ Updated package.json with Storybook dependencies")
	return PackageJSONUpdated, nil
}

func (i *Installer) nextSteps() {
	fmt.Fprintln(i.out)
	fmt.Fprintln(i.out, "🎉 Next steps:")
	fmt.Fprintf(i.out, "1. Check frontend.api_base_url in %s (currently %s)\n", config.DefaultFileName, i.config.Frontend.APIBaseURL)
	fmt.Fprintf(i.out, "2. Add templates under %v\n", i.config.Components.Roots)
	fmt.Fprintln(i.out, "3. Install the npm dependencies: npm install")
	fmt.Fprintln(i.out, "4. Start the preview server: storybridge serve")
	fmt.Fprintln(i.out, "5. Start Storybook: npm run storybook")
}
