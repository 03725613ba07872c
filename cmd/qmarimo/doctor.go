package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/alnah/go-qmarimo/internal/endpoint"
	"github.com/alnah/go-qmarimo/internal/process"
)

// doctorProbeTimeout bounds each external check.
const doctorProbeTimeout = 10 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Python   pythonInfo  `json:"python"`
	Service  serviceInfo `json:"service"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// pythonInfo holds interpreter and marimo detection results.
type pythonInfo struct {
	Found         bool   `json:"found"`
	Path          string `json:"path,omitempty"`
	Version       string `json:"version,omitempty"`
	MarimoVersion string `json:"marimo_version,omitempty"`
}

// serviceInfo holds render service reachability.
type serviceInfo struct {
	URL       string `json:"url"`
	Reachable bool   `json:"reachable"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	flags, err := parseDoctorFlags(args, env.Stderr)
	if err != nil {
		if err = usageError(err); err == nil {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, "error:", err)
		return ExitUsage
	}

	cfg, err := resolveConfig(flags.common.config, env)
	if err != nil {
		fmt.Fprintln(env.Stderr, "error:", err.Error()+hintFor(err, env))
		return exitCodeFor(err)
	}
	mergeRunnerFlags(flags.runner, cfg)
	cfg.ApplyDefaults()

	result := runDoctor(ctx, cfg.Python.Bin, cfg.Endpoint.URL, env)

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, pythonBin, serviceURL string, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
		Service: serviceInfo{URL: serviceURL},
	}

	checkPython(ctx, result, pythonBin)
	checkService(ctx, result)
	checkEnvironment(result, env.Getenv)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkPython locates the interpreter and asks it for its own and
// marimo's version.
func checkPython(ctx context.Context, result *doctorResult, bin string) {
	path, err := exec.LookPath(bin)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Python interpreter %q not found. Install Python 3 or set QMARIMO_PYTHON", bin))
		return
	}
	result.Python.Found = true
	result.Python.Path = path

	if out, err := probe(ctx, path, "--version"); err == nil {
		result.Python.Version = out
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Python version: %v", err))
	}

	out, err := probe(ctx, path, "-c", "import marimo; print(marimo.__version__)")
	if err != nil {
		result.Warnings = append(result.Warnings,
			"marimo is not importable; cells run with plain exec instead of marimo's reactive engine. Run 'pip install marimo'")
		return
	}
	result.Python.MarimoVersion = out
}

// probe runs a short command and returns its trimmed output.
func probe(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, doctorProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- interpreter is user-configured
	process.Configure(cmd)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// checkService checks whether a render service answers at the configured URL.
func checkService(ctx context.Context, result *doctorResult) {
	client := endpoint.NewClient(result.Service.URL,
		endpoint.WithHTTPClient(&http.Client{Timeout: 2 * time.Second}))
	if err := client.Health(ctx); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Render service not reachable at %s. Start it with 'qmarimo serve'", result.Service.URL))
		return
	}
	result.Service.Reachable = true
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, getenv func(string) string) {
	result.Env.Container, result.Env.ContainerHint = isContainer(getenv)

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	if getenv(envContainer) == "1" {
		return true, envContainer + "=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the runner can write its temp scripts.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "qmarimo-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "qmarimo doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Python")
	if r.Python.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Python.Path)
		if r.Python.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Python.Version)
		}
		if r.Python.MarimoVersion != "" {
			fmt.Fprintf(w, "  [OK] marimo: %s\n", r.Python.MarimoVersion)
		} else {
			fmt.Fprintln(w, "  [WARN] marimo: not installed")
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Render service")
	if r.Service.Reachable {
		fmt.Fprintf(w, "  [OK] Reachable at %s\n", r.Service.URL)
	} else {
		fmt.Fprintf(w, "  [WARN] Not reachable at %s\n", r.Service.URL)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to render")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
