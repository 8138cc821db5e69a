// Package config holds the startup configuration of the server.
// Values come from CLI flags, the environment, an optional .env file and an
// optional YAML file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/giantswarm/mcp-azure-devops/internal/auth"
	"github.com/giantswarm/mcp-azure-devops/internal/devops"
	"github.com/giantswarm/mcp-azure-devops/internal/domains"
)

// PATEnvVar may hold the personal access token for the pat strategy.
const PATEnvVar = "ADO_MCP_PAT"

// Server transports, matching the server package.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Defaults
const (
	DefaultListenAddr = ":8899"
	DefaultRetryMax   = 3
	DefaultTimeout    = 60 * time.Second
)

// Config is the resolved startup configuration
type Config struct {
	// Organization is the Azure DevOps organization name (required)
	Organization string `yaml:"organization"`

	// ServerURL overrides https://dev.azure.com/<organization>
	ServerURL string `yaml:"server_url"`

	// Authentication is one of interactive, azcli, env, envvar, pat
	Authentication string `yaml:"authentication"`

	// Tenant scopes interactive and azcli logins. Looked up from the
	// organization when empty.
	Tenant string `yaml:"tenant"`

	// Token is the personal access token for the pat strategy. It is never
	// read from the YAML file.
	Token string `yaml:"-"`

	// Domains lists the enabled domains, or "all"
	Domains []string `yaml:"domains"`

	Transport  string `yaml:"transport"`
	ListenAddr string `yaml:"listen_addr"`

	RetryMax int           `yaml:"retry_max"`
	Timeout  time.Duration `yaml:"-"`

	// TimeoutRaw is the YAML form of Timeout, e.g. "90s"
	TimeoutRaw string `yaml:"timeout"`
}

// LoadFile reads a YAML configuration file. Environment variables in the
// file are expanded.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{RetryMax: DefaultRetryMax}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.TimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.TimeoutRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", cfg.TimeoutRaw, err)
		}
		cfg.Timeout = d
	}

	return cfg, nil
}

// LoadEnvFile loads variables from a .env file without overriding variables
// that are already set. An empty path tries ./.env and ignores its absence.
func LoadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// WithDefaults returns a copy of the config with default values applied
func (c Config) WithDefaults() Config {
	if c.Authentication == "" {
		c.Authentication = string(auth.DefaultStrategy())
	}
	if c.Token == "" {
		c.Token = os.Getenv(PATEnvVar)
	}
	if len(c.Domains) == 0 {
		c.Domains = []string{domains.All}
	}
	if c.Transport == "" {
		c.Transport = TransportStdio
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Strategy returns the parsed authentication strategy
func (c Config) Strategy() (auth.Strategy, error) {
	return auth.ParseStrategy(c.Authentication)
}

// OrgURL returns the organization base URL
func (c Config) OrgURL() string {
	if c.ServerURL != "" {
		return c.ServerURL
	}
	return "https://dev.azure.com/" + url.PathEscape(c.Organization)
}

// Validate checks the configuration. Domain names are validated separately
// by domains.Resolve, and a missing PAT by auth.NewTokenProvider.
func (c Config) Validate() error {
	if c.Organization == "" {
		return fmt.Errorf("organization is required")
	}

	if _, err := c.Strategy(); err != nil {
		return err
	}

	if _, err := devops.ParseOrgURL(c.OrgURL()); err != nil {
		return err
	}

	if c.Transport != TransportStdio && c.Transport != TransportStreamableHTTP {
		return fmt.Errorf("unsupported transport '%s' (stdio or streamable-http)", c.Transport)
	}

	if c.RetryMax < 0 {
		return fmt.Errorf("retry max must not be negative, got %d", c.RetryMax)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}

	return nil
}
