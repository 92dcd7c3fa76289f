package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/storybridge/internal/renderer"
)

// Output formats shared by the commands that print structured data.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var outputFormats = []string{FormatTable, FormatJSON, FormatYAML}

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Output flags
	Format string

	// Remote flags
	Server string

	// Render flags
	Args     string
	ArgsFile string
	Theme    string
	Viewport string
}

// AddStandardFlags adds standard flags to a command
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "output":
			addOutputFlags(cmd, flags)
		case "remote":
			addRemoteFlags(cmd, flags)
		case "render":
			addRenderFlags(cmd, flags)
		}
	}

	return flags
}

func addOutputFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.Format, "format", "f", FormatTable, "Output format (table|json|yaml)")
	AddFlagValidation(cmd, "format", ValidateFormat)
}

func addRemoteFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.Server, "server", "s", "", "Query a running server at this base URL instead of the local templates")
}

func addRenderFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.Args, "args", "a", "", "Component arguments (JSON or @file.json)")
	cmd.Flags().StringVar(&flags.ArgsFile, "args-file", "", "Component arguments file (JSON)")
	cmd.Flags().StringVar(&flags.Theme, "theme", "", "Preview theme (default light)")
	cmd.Flags().StringVar(&flags.Viewport, "viewport", "", "Preview viewport (default story)")
}

// ParseArgs parses component arguments with support for file references
func (f *StandardFlags) ParseArgs() (map[string]any, error) {
	if f.Args != "" && f.ArgsFile != "" {
		return nil, fmt.Errorf("cannot specify both --args and --args-file")
	}

	source, data := "args", []byte(f.Args)
	filename := f.ArgsFile
	if strings.HasPrefix(f.Args, "@") {
		filename = strings.TrimPrefix(f.Args, "@")
	}
	if filename != "" {
		raw, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read args file %s: %w", filename, err)
		}
		source, data = "args file "+filename, raw
	}

	args := map[string]any{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return args, nil
	}
	if err := renderer.DecodeJSON(data, &args); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", source, err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return renderer.NormalizeArgs(args), nil
}

// RenderContext returns the preview context given by the flags.
func (f *StandardFlags) RenderContext() map[string]any {
	rc := map[string]any{}
	if f.Theme != "" {
		rc["theme"] = f.Theme
	}
	if f.Viewport != "" {
		rc["viewport"] = f.Viewport
	}
	return rc
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	originalSet := flag.Value.Set

	flag.Value = &validatingValue{
		Value:       flag.Value,
		validator:   validator,
		originalSet: originalSet,
	}
}

type validatingValue struct {
	pflag.Value
	validator   func(string) error
	originalSet func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.originalSet(val)
}

// ValidateFormat accepts the structured output formats.
func ValidateFormat(format string) error {
	for _, f := range outputFormats {
		if strings.EqualFold(format, f) {
			return nil
		}
	}
	return fmt.Errorf("invalid output format %s, must be one of: %s", format, strings.Join(outputFormats, ", "))
}

// ValidatePort is the port flag validator.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", port)
	}

	return nil
}

// writeOutput prints v as JSON or YAML, or calls table for the table
// format.
func writeOutput(w io.Writer, format string, v any, table func(tw *tabwriter.Writer)) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}
