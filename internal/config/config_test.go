package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func()
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults",
			setup: func() {
				viper.Reset()
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Enabled)
				assert.Equal(t, "storybook", cfg.RoutePrefix)
				assert.Equal(t, "1.0.0", cfg.Version)
				assert.Equal(t, []string{"./views"}, cfg.Components.Roots)
				assert.Equal(t, []string{"components", "blocks", "partials"}, cfg.Components.AllowedPrefixes)
				assert.Equal(t, "components", cfg.Components.DefaultPrefix)
				assert.Equal(t, ".gohtml", cfg.Components.Suffix)
				assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
				assert.Equal(t, []string{"GET", "POST", "OPTIONS"}, cfg.CORS.AllowedMethods)
				assert.Equal(t, 86400, cfg.CORS.MaxAge)
				assert.Equal(t, 300, cfg.Cache.TTL)
				assert.True(t, cfg.Development.HotReload)
			},
		},
		{
			name: "custom prefixes and roots",
			setup: func() {
				viper.Reset()
				viper.Set("components.allowed_prefixes", []string{"components", "custom"})
				viper.Set("components.roots", []string{"./templates", "./more"})
				viper.Set("route_prefix", "/dev/preview/")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"components", "custom"}, cfg.Components.AllowedPrefixes)
				assert.Equal(t, []string{"./templates", "./more"}, cfg.Components.Roots)
				assert.Equal(t, "dev/preview", cfg.RoutePrefix)
			},
		},
		{
			name: "suffix without dot",
			setup: func() {
				viper.Reset()
				viper.Set("components.suffix", "tmpl")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ".tmpl", cfg.Components.Suffix)
			},
		},
		{
			name: "invalid port",
			setup: func() {
				viper.Reset()
				viper.Set("server.port", 70000)
			},
			expectError: true,
		},
		{
			name: "invalid prefix segment",
			setup: func() {
				viper.Reset()
				viper.Set("components.allowed_prefixes", []string{"components", "../etc"})
			},
			expectError: true,
		},
		{
			name: "root with traversal",
			setup: func() {
				viper.Reset()
				viper.Set("components.roots", []string{"../outside"})
			},
			expectError: true,
		},
		{
			name: "invalid missing key mode",
			setup: func() {
				viper.Reset()
				viper.Set("components.missing_key", "explode")
			},
			expectError: true,
		},
		{
			name: "invalid log level",
			setup: func() {
				viper.Reset()
				viper.Set("log.level", "loud")
			},
			expectError: true,
		},
		{
			name: "invalid route prefix",
			setup: func() {
				viper.Reset()
				viper.Set("route_prefix", "story book")
			},
			expectError: true,
		},
		{
			name: "api base url that breaks generated stories",
			setup: func() {
				viper.Reset()
				viper.Set("frontend.api_base_url", "http://localhost:8080/'+alert(1)+'")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer viper.Reset()

			cfg, err := Load()
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORYBRIDGE_ENVIRONMENT", "production")
	t.Setenv("STORYBRIDGE_GATING_REQUIRE_DEBUG", "true")
	t.Setenv("STORYBRIDGE_COMPONENTS_ALLOWED_PREFIXES", "components,custom")

	v := viper.New()
	v.SetEnvPrefix("STORYBRIDGE")
	v.SetEnvKeyReplacer(EnvKeyReplacer())
	v.AutomaticEnv()

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.True(t, cfg.Gating.RequireDebug)
	assert.Equal(t, []string{"components", "custom"}, cfg.Components.AllowedPrefixes)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	content := `
enabled: true
environment: staging
route_prefix: preview
components:
  roots: ["./resources/views"]
  allowed_prefixes: [components, sections]
cors:
  allowed_origins: ["http://localhost:6006"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "preview", cfg.RoutePrefix)
	assert.Equal(t, []string{"./resources/views"}, cfg.Components.Roots)
	assert.Equal(t, []string{"components", "sections"}, cfg.Components.AllowedPrefixes)
	assert.Equal(t, []string{"http://localhost:6006"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "components", cfg.Components.DefaultPrefix)
}

func TestGating(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		enabled bool
		reason  string
	}{
		{
			name:    "defaults allow local",
			mutate:  func(c *Config) {},
			enabled: true,
		},
		{
			name:    "disabled flag",
			mutate:  func(c *Config) { c.Enabled = false },
			enabled: false,
			reason:  "disabled",
		},
		{
			name:    "production not allowed",
			mutate:  func(c *Config) { c.Environment = "production" },
			enabled: false,
			reason:  "allowed_environments",
		},
		{
			name: "empty list allows all",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.Gating.AllowedEnvironments = nil
			},
			enabled: true,
		},
		{
			name:    "debug required but off",
			mutate:  func(c *Config) { c.Gating.RequireDebug = true },
			enabled: false,
			reason:  "debug",
		},
		{
			name: "debug required and on",
			mutate: func(c *Config) {
				c.Gating.RequireDebug = true
				c.Debug = true
			},
			enabled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			assert.Equal(t, tt.enabled, cfg.RoutesEnabled())
			if tt.reason != "" {
				assert.Contains(t, cfg.GateReason(), tt.reason)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"./views", false},
		{"resources/views", false},
		{"views..backup", false},
		{"", true},
		{"../views", true},
		{"views/../../etc", true},
		{"views;rm", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := validatePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)

	cfg := Default()
	cfg.Frontend.APIBaseURL = "http://example.test"

	written, err := WriteFile(path, cfg, false)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = WriteFile(path, Default(), false)
	require.NoError(t, err)
	assert.False(t, written, "existing file is kept")

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	loaded, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test", loaded.Frontend.APIBaseURL)
	assert.Equal(t, cfg.Components, loaded.Components)
}

func TestAddr(t *testing.T) {
	cfg := Default()
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 9000

	assert.Equal(t, "0.0.0.0:9000", cfg.Addr())
}
