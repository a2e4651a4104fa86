// ABOUTME: Configuration loading and parsing for cms-mcp
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Defaults applied by Load when a field is left empty.
const (
	DefaultMCPPath         = "/mcp"
	DefaultSiteName        = "My Site"
	DefaultShutdownTimeout = 5 * time.Second
	DefaultSessionTimeout  = 30 * time.Minute
	DefaultMaxSessions     = 1000
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// Config represents the complete cms-mcp configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Auth     AuthConfig     `yaml:"auth" toml:"auth"`
	Site     SiteConfig     `yaml:"site" toml:"site"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`

	// SafeMode refuses destructive tools such as delete_content.
	SafeMode bool `yaml:"safe_mode" toml:"safe_mode"`

	// ContentTypes and Taxonomies are registered in addition to the built-in
	// post, page, category, and post_tag.
	ContentTypes []ContentTypeConfig `yaml:"content_types" toml:"content_types"`
	Taxonomies   []TaxonomyConfig    `yaml:"taxonomies" toml:"taxonomies"`
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
	Path     string `yaml:"path" toml:"path"`

	// MaxSessions caps concurrently open MCP sessions.
	MaxSessions int `yaml:"max_sessions" toml:"max_sessions"`

	ShutdownTimeout time.Duration `yaml:"-" toml:"-"`
	SessionTimeout  time.Duration `yaml:"-" toml:"-"`

	// Raw string values for unmarshaling
	ShutdownTimeoutRaw string `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	SessionTimeoutRaw  string `yaml:"session_timeout" toml:"session_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// AuthConfig holds authentication configuration. An empty BearerToken
// disables authentication.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token" toml:"bearer_token"`
}

// SiteConfig describes the site used for permalinks and site://info
type SiteConfig struct {
	Name       string `yaml:"name" toml:"name"`
	URL        string `yaml:"url" toml:"url"`
	AdminEmail string `yaml:"admin_email" toml:"admin_email"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// ContentTypeConfig declares an additional content type
type ContentTypeConfig struct {
	Name          string   `yaml:"name" toml:"name"`
	Label         string   `yaml:"label" toml:"label"`
	SingularLabel string   `yaml:"singular_label" toml:"singular_label"`
	Description   string   `yaml:"description" toml:"description"`
	Public        *bool    `yaml:"public" toml:"public"`
	Hierarchical  bool     `yaml:"hierarchical" toml:"hierarchical"`
	HasArchive    bool     `yaml:"has_archive" toml:"has_archive"`
	RestBase      string   `yaml:"rest_base" toml:"rest_base"`
	MenuIcon      string   `yaml:"menu_icon" toml:"menu_icon"`
	Supports      []string `yaml:"supports" toml:"supports"`
}

// TaxonomyConfig declares an additional taxonomy
type TaxonomyConfig struct {
	Name          string   `yaml:"name" toml:"name"`
	Label         string   `yaml:"label" toml:"label"`
	SingularLabel string   `yaml:"singular_label" toml:"singular_label"`
	Description   string   `yaml:"description" toml:"description"`
	Public        *bool    `yaml:"public" toml:"public"`
	Hierarchical  bool     `yaml:"hierarchical" toml:"hierarchical"`
	ShowTagcloud  bool     `yaml:"show_tagcloud" toml:"show_tagcloud"`
	ObjectTypes   []string `yaml:"object_types" toml:"object_types"`
}

// IsPublic reports whether the content type is public. Unset means public.
func (c ContentTypeConfig) IsPublic() bool {
	return c.Public == nil || *c.Public
}

// IsPublic reports whether the taxonomy is public. Unset means public.
func (c TaxonomyConfig) IsPublic() bool {
	return c.Public == nil || *c.Public
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are parsed as TOML, anything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data, formatFor(path))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Format selects the config file syntax.
type Format string

// Supported formats
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func formatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Parse decodes, defaults, and validates configuration data.
func Parse(data []byte, format Format) (*Config, error) {
	// Expand environment variables in the raw content
	expanded := []byte(expandEnvVars(string(data)))

	var cfg Config
	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(bytes.NewReader(expanded)).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Server.Path == "" {
		c.Server.Path = DefaultMCPPath
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Server.SessionTimeout == 0 {
		c.Server.SessionTimeout = DefaultSessionTimeout
	}
	if c.Server.MaxSessions == 0 {
		c.Server.MaxSessions = DefaultMaxSessions
	}
	if c.Site.Name == "" {
		c.Site.Name = DefaultSiteName
	}
	if c.Site.URL == "" && c.Server.HTTPAddr != "" {
		c.Site.URL = "http://" + c.Server.HTTPAddr
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return errors.New("server.http_addr is required")
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		return fmt.Errorf("server.path must start with /, got %q", c.Server.Path)
	}
	if c.Server.MaxSessions < 0 {
		return fmt.Errorf("server.max_sessions must not be negative, got %d", c.Server.MaxSessions)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	seen := map[string]bool{}
	for i, ct := range c.ContentTypes {
		if ct.Name == "" {
			return fmt.Errorf("content_types[%d].name is required", i)
		}
		if seen[ct.Name] {
			return fmt.Errorf("content type %q is declared twice", ct.Name)
		}
		seen[ct.Name] = true
	}

	seen = map[string]bool{}
	for i, tax := range c.Taxonomies {
		if tax.Name == "" {
			return fmt.Errorf("taxonomies[%d].name is required", i)
		}
		if seen[tax.Name] {
			return fmt.Errorf("taxonomy %q is declared twice", tax.Name)
		}
		seen[tax.Name] = true
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Server.ShutdownTimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.Server.ShutdownTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing shutdown_timeout %q: %w", cfg.Server.ShutdownTimeoutRaw, err)
		}
		if d <= 0 {
			return fmt.Errorf("shutdown_timeout must be positive, got %s", d)
		}
		cfg.Server.ShutdownTimeout = d
	}
	if cfg.Server.SessionTimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.Server.SessionTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing session_timeout %q: %w", cfg.Server.SessionTimeoutRaw, err)
		}
		if d <= 0 {
			return fmt.Errorf("session_timeout must be positive, got %s", d)
		}
		cfg.Server.SessionTimeout = d
	}
	return nil
}
