package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the configuration file looked up in the working directory.
const DefaultFileName = ".storybridge.yml"

const fileHeader = "# storybridge configuration\n# Environment variables STORYBRIDGE_<SECTION>_<KEY> override these values.\n\n"

// Marshal renders c as a commented YAML document.
func Marshal(c *Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteFile writes c to filename. An existing file is left untouched unless
// overwrite is set; written reports whether the file was produced.
func WriteFile(filename string, c *Config, overwrite bool) (written bool, err error) {
	if !overwrite {
		if _, statErr := os.Stat(filename); statErr == nil {
			return false, nil
		}
	}

	content, err := Marshal(c)
	if err != nil {
		return false, err
	}

	if err := os.WriteFile(filename, content, 0o644); err != nil {
		return false, fmt.Errorf("failed to write configuration file: %w", err)
	}

	return true, nil
}
