// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"
)

// ForPythonRunner returns hints for a cell runner that could not start or
// crashed. Suggests installing marimo and pointing QMARIMO_PYTHON at the
// right interpreter.
func ForPythonRunner() string {
	var hints []string

	if os.Getenv("QMARIMO_PYTHON") == "" {
		hints = append(hints, "set QMARIMO_PYTHON or --python to choose the interpreter")
	}
	if os.Getenv("VIRTUAL_ENV") == "" {
		hints = append(hints, "activate the virtualenv that has marimo installed")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing the execution timeout.
func ForTimeout() string {
	return format("for slow notebooks, use --timeout or python.timeout in the config")
}

// ForServerUnreachable returns hints when the render service cannot be reached.
func ForServerUnreachable(url string) string {
	hint := "start it with 'qmarimo serve'"
	if os.Getenv("MARIMO_RUN_ENDPOINT") == "" {
		hint += " or set MARIMO_RUN_ENDPOINT (tried " + url + ")"
	}
	return format(hint)
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-qmarimo/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, "go-qmarimo") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForNotNotebook returns a hint for Python files that are not marimo notebooks.
func ForNotNotebook() string {
	return format("expected a marimo notebook with 'app = marimo.App()' and @app.cell functions")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
