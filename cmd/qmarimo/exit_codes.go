package main

import (
	"errors"

	qmarimo "github.com/alnah/go-qmarimo"
	"github.com/alnah/go-qmarimo/internal/config"
	"github.com/alnah/go-qmarimo/internal/endpoint"
	"github.com/alnah/go-qmarimo/internal/engine"
	"github.com/alnah/go-qmarimo/internal/hints"
)

// Exit codes for the qmarimo CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful command
	ExitGeneral = 1 // General error, including missing or unreadable files
	ExitUsage   = 2 // Invalid arguments, flags or config
	ExitService = 3 // Render service unreachable or rejected the call
	ExitEngine  = 4 // Cell runner failed or timed out
)

// defaultConfigName is suggested in config hints.
const defaultConfigName = "qmarimo"

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Engine errors (exit 4)
	if errors.Is(err, engine.ErrRunnerFailed) ||
		errors.Is(err, engine.ErrRunnerTimeout) ||
		errors.Is(err, engine.ErrOutputMismatch) ||
		errors.Is(err, engine.ErrNoRunner) {
		return ExitEngine
	}

	// Service errors (exit 3)
	if errors.Is(err, endpoint.ErrRequest) ||
		errors.Is(err, endpoint.ErrStatus) {
		return ExitService
	}

	// Usage/config errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, endpoint.ErrOptions) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error, env *Environment) string {
	switch {
	case errors.Is(err, engine.ErrRunnerTimeout):
		return hints.ForTimeout()
	case errors.Is(err, engine.ErrRunnerFailed):
		return hints.ForPythonRunner()
	case errors.Is(err, endpoint.ErrRequest):
		return hints.ForServerUnreachable(endpoint.BaseURLFromEnv(env.Getenv))
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(config.SearchPaths(defaultConfigName))
	case errors.Is(err, qmarimo.ErrNotNotebook):
		return hints.ForNotNotebook()
	}
	return ""
}
