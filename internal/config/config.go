// Package config provides configuration management for storybridge using
// Viper for loading from files, environment variables and command-line flags.
//
// The configuration system supports YAML files, environment variable
// overrides with the STORYBRIDGE_ prefix, defaults and validation. It covers
// route gating, template roots and namespace prefixes, CORS, the client-side
// cache policy, frontend settings used by the install command, and
// development options such as hot reload.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/conneroisu/storybridge/internal/validation"
)

// Config is the full storybridge configuration.
type Config struct {
	Enabled     bool              `mapstructure:"enabled" yaml:"enabled"`
	Version     string            `mapstructure:"version" yaml:"version"`
	Environment string            `mapstructure:"environment" yaml:"environment"`
	Debug       bool              `mapstructure:"debug" yaml:"debug"`
	RoutePrefix string            `mapstructure:"route_prefix" yaml:"route_prefix"`
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Gating      GatingConfig      `mapstructure:"gating" yaml:"gating"`
	Components  ComponentsConfig  `mapstructure:"components" yaml:"components"`
	CORS        CORSConfig        `mapstructure:"cors" yaml:"cors"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	Frontend    FrontendConfig    `mapstructure:"frontend" yaml:"frontend"`
	Stories     StoriesConfig     `mapstructure:"stories" yaml:"stories"`
	Development DevelopmentConfig `mapstructure:"development" yaml:"development"`
	Metrics     MetricsConfig     `mapstructure:"metrics" yaml:"metrics"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
}

// ServerConfig is the listen address of the preview server.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// GatingConfig restricts where the preview routes are mounted.
// An empty AllowedEnvironments list allows every environment.
type GatingConfig struct {
	AllowedEnvironments []string `mapstructure:"allowed_environments" yaml:"allowed_environments"`
	RequireDebug        bool     `mapstructure:"require_debug" yaml:"require_debug"`
}

// ComponentsConfig locates templates and controls how identifiers resolve.
type ComponentsConfig struct {
	Roots           []string `mapstructure:"roots" yaml:"roots"`
	AllowedPrefixes []string `mapstructure:"allowed_prefixes" yaml:"allowed_prefixes"`
	DefaultPrefix   string   `mapstructure:"default_prefix" yaml:"default_prefix"`
	Suffix          string   `mapstructure:"suffix" yaml:"suffix"`
	MissingKey      string   `mapstructure:"missing_key" yaml:"missing_key"`
}

// CORSConfig is the CORS policy applied to every preview route.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	MaxAge         int      `mapstructure:"max_age" yaml:"max_age"`
}

// CacheConfig is the policy of the client-side render cache. TTL is in seconds.
type CacheConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	TTL       int    `mapstructure:"ttl" yaml:"ttl"`
	Capacity  int    `mapstructure:"capacity" yaml:"capacity"`
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`
}

// FrontendConfig holds the URLs the Storybook side uses to reach the server.
type FrontendConfig struct {
	APIBaseURL string `mapstructure:"api_base_url" yaml:"api_base_url"`
	AssetsURL  string `mapstructure:"assets_url" yaml:"assets_url"`
}

// StoriesConfig is where install writes stories and which files Storybook loads.
type StoriesConfig struct {
	Path    string `mapstructure:"path" yaml:"path"`
	Pattern string `mapstructure:"pattern" yaml:"pattern"`
}

// DevelopmentConfig toggles live reload.
type DevelopmentConfig struct {
	HotReload bool `mapstructure:"hot_reload" yaml:"hot_reload"`
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Enabled:     true,
		Version:     "1.0.0",
		Environment: "local",
		Debug:       false,
		RoutePrefix: "storybook",
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Gating: GatingConfig{
			AllowedEnvironments: []string{"local", "development", "staging"},
			RequireDebug:        false,
		},
		Components: ComponentsConfig{
			Roots:           []string{"./views"},
			AllowedPrefixes: []string{"components", "blocks", "partials"},
			DefaultPrefix:   "components",
			Suffix:          ".gohtml",
			MissingKey:      "default",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Accept", "Authorization"},
			MaxAge:         86400,
		},
		Cache: CacheConfig{
			Enabled:   false,
			TTL:       300,
			Capacity:  256,
			KeyPrefix: "storybook",
		},
		Frontend: FrontendConfig{
			APIBaseURL: "http://localhost:8080",
		},
		Stories: StoriesConfig{
			Path:    "resources/stories",
			Pattern: "**/*.stories.@(js|jsx|ts|tsx|mdx)",
		},
		Development: DevelopmentConfig{
			HotReload: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers every default on v so unset keys unmarshal to
// their default values and env overrides resolve.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("enabled", d.Enabled)
	v.SetDefault("version", d.Version)
	v.SetDefault("environment", d.Environment)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("route_prefix", d.RoutePrefix)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("gating.allowed_environments", d.Gating.AllowedEnvironments)
	v.SetDefault("gating.require_debug", d.Gating.RequireDebug)

	v.SetDefault("components.roots", d.Components.Roots)
	v.SetDefault("components.allowed_prefixes", d.Components.AllowedPrefixes)
	v.SetDefault("components.default_prefix", d.Components.DefaultPrefix)
	v.SetDefault("components.suffix", d.Components.Suffix)
	v.SetDefault("components.missing_key", d.Components.MissingKey)

	v.SetDefault("cors.allowed_origins", d.CORS.AllowedOrigins)
	v.SetDefault("cors.allowed_methods", d.CORS.AllowedMethods)
	v.SetDefault("cors.allowed_headers", d.CORS.AllowedHeaders)
	v.SetDefault("cors.max_age", d.CORS.MaxAge)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.capacity", d.Cache.Capacity)
	v.SetDefault("cache.key_prefix", d.Cache.KeyPrefix)

	v.SetDefault("frontend.api_base_url", d.Frontend.APIBaseURL)
	v.SetDefault("frontend.assets_url", d.Frontend.AssetsURL)

	v.SetDefault("stories.path", d.Stories.Path)
	v.SetDefault("stories.pattern", d.Stories.Pattern)

	v.SetDefault("development.hot_reload", d.Development.HotReload)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "STORYBRIDGE"

// EnvKeyReplacer maps nested keys like server.port to SERVER_PORT.
func EnvKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_", "-", "_")
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads, defaults and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	// Comma separated env values arrive as a single string.
	config.Gating.AllowedEnvironments = splitList(v, "gating.allowed_environments", config.Gating.AllowedEnvironments)
	config.Components.Roots = splitList(v, "components.roots", config.Components.Roots)
	config.Components.AllowedPrefixes = splitList(v, "components.allowed_prefixes", config.Components.AllowedPrefixes)
	config.CORS.AllowedOrigins = splitList(v, "cors.allowed_origins", config.CORS.AllowedOrigins)

	applyFallbacks(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func splitList(v *viper.Viper, key string, current []string) []string {
	if len(current) == 1 && strings.Contains(current[0], ",") {
		return cleanList(strings.Split(current[0], ","))
	}
	if len(current) == 0 {
		if raw := v.GetString(key); strings.Contains(raw, ",") {
			return cleanList(strings.Split(raw, ","))
		}
	}

	return current
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}

// applyFallbacks restores defaults for values that cannot be meaningfully
// empty. AllowedEnvironments and AllowedOrigins are left alone since an
// explicit empty list carries meaning.
func applyFallbacks(config *Config) {
	d := Default()

	if config.RoutePrefix == "" {
		config.RoutePrefix = d.RoutePrefix
	}
	config.RoutePrefix = strings.Trim(config.RoutePrefix, "/")
	if config.Version == "" {
		config.Version = d.Version
	}
	if len(config.Components.Roots) == 0 {
		config.Components.Roots = d.Components.Roots
	}
	if len(config.Components.AllowedPrefixes) == 0 {
		config.Components.AllowedPrefixes = d.Components.AllowedPrefixes
	}
	if config.Components.DefaultPrefix == "" {
		config.Components.DefaultPrefix = d.Components.DefaultPrefix
	}
	if config.Components.Suffix == "" {
		config.Components.Suffix = d.Components.Suffix
	}
	if !strings.HasPrefix(config.Components.Suffix, ".") {
		config.Components.Suffix = "." + config.Components.Suffix
	}
	if config.Components.MissingKey == "" {
		config.Components.MissingKey = d.Components.MissingKey
	}
	if len(config.CORS.AllowedMethods) == 0 {
		config.CORS.AllowedMethods = d.CORS.AllowedMethods
	}
	if len(config.CORS.AllowedHeaders) == 0 {
		config.CORS.AllowedHeaders = d.CORS.AllowedHeaders
	}
	if config.Cache.Capacity == 0 {
		config.Cache.Capacity = d.Cache.Capacity
	}
	if config.Log.Level == "" {
		config.Log.Level = d.Log.Level
	}
	if config.Log.Format == "" {
		config.Log.Format = d.Log.Format
	}
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// segmentPattern is the syntax of one identifier segment.
var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// routePrefixPattern allows nested prefixes such as "dev/storybook".
var routePrefixPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+(/[A-Za-z0-9_-]+)*$`)

// IsValidSegment reports whether s may be used as an identifier segment.
func IsValidSegment(s string) bool {
	return segmentPattern.MatchString(s)
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if !routePrefixPattern.MatchString(config.RoutePrefix) {
		return fmt.Errorf("route_prefix %q must be slash separated [A-Za-z0-9_-] segments", config.RoutePrefix)
	}

	if err := validateComponentsConfig(&config.Components); err != nil {
		return fmt.Errorf("components config: %w", err)
	}

	if config.CORS.MaxAge < 0 {
		return fmt.Errorf("cors config: max_age %d must not be negative", config.CORS.MaxAge)
	}

	if config.Cache.TTL < 0 {
		return fmt.Errorf("cache config: ttl %d must not be negative", config.Cache.TTL)
	}
	if config.Cache.Capacity < 0 {
		return fmt.Errorf("cache config: capacity %d must not be negative", config.Cache.Capacity)
	}

	if config.Frontend.APIBaseURL != "" {
		if err := validation.ValidateURL(config.Frontend.APIBaseURL); err != nil {
			return fmt.Errorf("frontend config: api_base_url: %w", err)
		}
	}

	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	return nil
}

func validateComponentsConfig(config *ComponentsConfig) error {
	for _, root := range config.Roots {
		if err := validatePath(root); err != nil {
			return fmt.Errorf("invalid root '%s': %w", root, err)
		}
	}

	for _, prefix := range config.AllowedPrefixes {
		if !IsValidSegment(prefix) {
			return fmt.Errorf("allowed prefix %q must match [A-Za-z0-9_-]+", prefix)
		}
	}

	if !IsValidSegment(config.DefaultPrefix) {
		return fmt.Errorf("default prefix %q must match [A-Za-z0-9_-]+", config.DefaultPrefix)
	}

	if !IsValidSegment(strings.TrimPrefix(config.Suffix, ".")) {
		return fmt.Errorf("suffix %q must be a plain file extension", config.Suffix)
	}

	switch config.MissingKey {
	case "default", "zero", "error":
	default:
		return fmt.Errorf("missing_key %q must be one of default, zero, error", config.MissingKey)
	}

	return nil
}

func validateLogConfig(config *LogConfig) error {
	switch strings.ToLower(config.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("level %q must be one of debug, info, warn, error", config.Level)
	}

	switch config.Format {
	case "text", "json":
	default:
		return fmt.Errorf("format %q must be text or json", config.Format)
	}

	return nil
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	for _, part := range strings.Split(filepath.ToSlash(cleanPath), "/") {
		if part == ".." {
			return fmt.Errorf("path contains traversal: %s", path)
		}
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

// EnvironmentAllowed reports whether the configured environment passes the
// allow list. An empty list allows everything.
func (c *Config) EnvironmentAllowed() bool {
	if len(c.Gating.AllowedEnvironments) == 0 {
		return true
	}
	for _, env := range c.Gating.AllowedEnvironments {
		if strings.EqualFold(env, c.Environment) {
			return true
		}
	}

	return false
}

// GateReason returns why the preview routes are disabled, or "" when they
// should be mounted.
func (c *Config) GateReason() string {
	switch {
	case !c.Enabled:
		return "storybridge is disabled"
	case !c.EnvironmentAllowed():
		return fmt.Sprintf("environment %q is not in allowed_environments %v", c.Environment, c.Gating.AllowedEnvironments)
	case c.Gating.RequireDebug && !c.Debug:
		return "debug mode is required"
	default:
		return ""
	}
}

// RoutesEnabled reports whether the preview routes should be mounted.
func (c *Config) RoutesEnabled() bool {
	return c.GateReason() == ""
}
