package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alnah/go-qmarimo/internal/config"
	"github.com/alnah/go-qmarimo/internal/endpoint"
	"github.com/alnah/go-qmarimo/internal/engine"
)

// Environment variable names.
const (
	envConfigPath    = "QMARIMO_CONFIG"
	envPython        = "QMARIMO_PYTHON"
	envAddr          = "QMARIMO_ADDR"
	envTimeout       = "QMARIMO_TIMEOUT"
	envMarimoVersion = "QMARIMO_MARIMO_VERSION"
	envContainer     = "QMARIMO_CONTAINER"
	envDebugEndpoint = "QUARTO_MARIMO_DEBUG_ENDPOINT"
	envRunner        = engine.EnvRunnerMode // read by the cell driver
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath    string        // QMARIMO_CONFIG: config file path
	Python        string        // QMARIMO_PYTHON: interpreter for the cell runner
	Addr          string        // QMARIMO_ADDR: service listen address
	Timeout       time.Duration // QMARIMO_TIMEOUT: build timeout
	MarimoVersion string        // QMARIMO_MARIMO_VERSION: generated notebook version
	EndpointURL   string        // MARIMO_RUN_ENDPOINT: service base URL
	DebugEndpoint string        // QUARTO_MARIMO_DEBUG_ENDPOINT: islands dev server
}

// knownEnvVars lists valid QMARIMO_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	envConfigPath:    true,
	envPython:        true,
	envAddr:          true,
	envTimeout:       true,
	envMarimoVersion: true,
	envContainer:     true,
	envRunner:        true,
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath:    getenv(envConfigPath),
		Python:        getenv(envPython),
		Addr:          getenv(envAddr),
		MarimoVersion: getenv(envMarimoVersion),
		EndpointURL:   getenv(endpoint.EnvBaseURL),
		DebugEndpoint: getenv(envDebugEndpoint),
	}

	if timeout := getenv(envTimeout); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized QMARIMO_* variables.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, "QMARIMO_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied later by each command)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Python != "" && cfg.Python.Bin == "" {
		cfg.Python.Bin = env.Python
	}
	if env.Timeout > 0 && cfg.Python.Timeout == "" {
		cfg.Python.Timeout = env.Timeout.String()
	}
	if env.Addr != "" && cfg.Server.Addr == "" {
		cfg.Server.Addr = env.Addr
	}
	if env.DebugEndpoint != "" && cfg.Server.DebugEndpoint == "" {
		cfg.Server.DebugEndpoint = env.DebugEndpoint
	}
	if env.EndpointURL != "" && cfg.Endpoint.URL == "" {
		cfg.Endpoint.URL = env.EndpointURL
	}
	if env.MarimoVersion != "" && cfg.Notebook.MarimoVersion == "" {
		cfg.Notebook.MarimoVersion = env.MarimoVersion
	}
}

// resolveConfig loads the config named by flagValue or QMARIMO_CONFIG,
// layers the environment over it and applies defaults. Flags are merged
// by the caller before validation.
func resolveConfig(flagValue string, env *Environment) (*config.Config, error) {
	ec := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, env.Environ())

	name := flagValue
	if name == "" {
		name = ec.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(ec, cfg)
	return cfg, nil
}
