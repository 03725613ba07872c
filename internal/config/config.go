package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-qmarimo/internal/fileutil"
	"github.com/alnah/go-qmarimo/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxAddrLength    = 255  // host:port
	MaxURLLength     = 2048 // Browser limit
	MaxPathLength    = 4096 // PATH_MAX on Linux
	MaxVersionLength = 50   // "0.9.14"
)

// Defaults applied by ApplyDefaults for fields left empty.
const (
	DefaultAddr          = "localhost:6000"
	DefaultEndpointURL   = "http://localhost:6000"
	DefaultPythonBin     = "python3"
	DefaultTimeout       = 2 * time.Minute
	DefaultMaxBodyBytes  = 1 << 20
	DefaultMarimoVersion = "0.9.14"
)

// Config holds all configuration for conversion, rendering and the service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Endpoint EndpointConfig `yaml:"endpoint"`
	Python   PythonConfig   `yaml:"python"`
	Notebook NotebookConfig `yaml:"notebook"`
}

// ServerConfig defines the render service options.
type ServerConfig struct {
	Addr          string `yaml:"addr"`          // Listen address (default: localhost:6000)
	DebugEndpoint string `yaml:"debugEndpoint"` // Islands dev server URL for render heads
	MaxBodyBytes  int64  `yaml:"maxBodyBytes"`  // Request body limit (default: 1MB)
	Development   bool   `yaml:"development"`   // Console logs at debug level
}

// EndpointConfig defines where the client reaches the render service.
type EndpointConfig struct {
	URL string `yaml:"url"` // Base URL (default: http://localhost:6000)
}

// PythonConfig defines the cell runner.
type PythonConfig struct {
	Bin     string `yaml:"bin"`     // Interpreter (default: python3)
	Timeout string `yaml:"timeout"` // Go duration per build, e.g. "90s" (default: 2m)
}

// NotebookConfig defines generated notebook metadata.
type NotebookConfig struct {
	MarimoVersion string `yaml:"marimoVersion"` // __generated_with and islands bundle version
}

// Validate checks field lengths and formats.
// Called automatically by LoadConfig, but available for callers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("server.addr", c.Server.Addr, MaxAddrLength); err != nil {
		return err
	}
	if err := validateURL("server.debugEndpoint", c.Server.DebugEndpoint); err != nil {
		return err
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("%w: server.maxBodyBytes must not be negative, got %d", ErrInvalidValue, c.Server.MaxBodyBytes)
	}

	if err := validateURL("endpoint.url", c.Endpoint.URL); err != nil {
		return err
	}

	if err := validateFieldLength("python.bin", c.Python.Bin, MaxPathLength); err != nil {
		return err
	}
	if c.Python.Timeout != "" {
		d, err := time.ParseDuration(c.Python.Timeout)
		if err != nil {
			return fmt.Errorf("%w: python.timeout %q: %v", ErrInvalidValue, c.Python.Timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: python.timeout must be positive, got %s", ErrInvalidValue, c.Python.Timeout)
		}
	}

	if err := validateFieldLength("notebook.marimoVersion", c.Notebook.MarimoVersion, MaxVersionLength); err != nil {
		return err
	}

	return nil
}

// ApplyDefaults fills empty fields with package defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Endpoint.URL == "" {
		c.Endpoint.URL = DefaultEndpointURL
	}
	if c.Python.Bin == "" {
		c.Python.Bin = DefaultPythonBin
	}
	if c.Python.Timeout == "" {
		c.Python.Timeout = DefaultTimeout.String()
	}
	if c.Notebook.MarimoVersion == "" {
		c.Notebook.MarimoVersion = DefaultMarimoVersion
	}
}

// PythonTimeout returns the parsed runner timeout, or DefaultTimeout when
// unset or unparsable. Validate reports unparsable values.
func (c *Config) PythonTimeout() time.Duration {
	d, err := time.ParseDuration(c.Python.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateURL accepts empty values and absolute http(s) URLs.
func validateURL(fieldName, value string) error {
	if value == "" {
		return nil
	}
	if err := validateFieldLength(fieldName, value, MaxURLLength); err != nil {
		return err
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s must be an http(s) URL, got %q", ErrInvalidValue, fieldName, value)
	}
	return nil
}

// DefaultConfig returns a configuration with every field left empty.
// Callers layer env overrides and flags, then call ApplyDefaults.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SearchPaths lists the locations tried for a config name, in order:
// current directory then ~/.config/go-qmarimo/, each with .yaml and .yml.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "go-qmarimo", name+ext))
		}
	}

	return paths
}

// resolveConfigPath returns the first existing SearchPaths entry.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
