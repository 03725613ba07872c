package engine

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/alnah/go-qmarimo/internal/fileutil"
	"github.com/alnah/go-qmarimo/internal/process"
)

//go:embed driver.py
var driverSource string

// maxStderrTail bounds the interpreter stderr quoted in errors.
const maxStderrTail = 2048

// EnvRunnerMode selects the driver's engine. "exec" skips marimo and runs
// cells in dependency order with plain exec.
const EnvRunnerMode = "QMARIMO_RUNNER"

// Engines reported by the driver.
const (
	EngineMarimo = "marimo"
	EngineExec   = "exec"
)

// PythonRunner executes cells with a Python interpreter.
type PythonRunner struct {
	// Bin is the interpreter executable, e.g. "python3".
	Bin string
	// Timeout bounds one Run. Zero means no limit beyond ctx.
	Timeout time.Duration
	// Env is appended to the current environment.
	Env []string
	// ExecOnly runs cells without marimo even when it is importable.
	ExecOnly bool
}

// NewPythonRunner creates a PythonRunner for the given interpreter.
func NewPythonRunner(bin string, timeout time.Duration) *PythonRunner {
	return &PythonRunner{Bin: bin, Timeout: timeout}
}

type driverRequest struct {
	Cells []Source `json:"cells"`
}

type driverResponse struct {
	Engine  string   `json:"engine"`
	Outputs []Output `json:"outputs"`
}

// Run executes cells in one interpreter process. Cells go through marimo's
// island generator when the interpreter can import marimo.
func (r *PythonRunner) Run(ctx context.Context, cells []Source) ([]Output, error) {
	outputs, _, err := r.run(ctx, cells)
	return outputs, err
}

// RunWithEngine is Run that also reports which engine executed the cells.
func (r *PythonRunner) RunWithEngine(ctx context.Context, cells []Source) ([]Output, string, error) {
	return r.run(ctx, cells)
}

func (r *PythonRunner) run(ctx context.Context, cells []Source) ([]Output, string, error) {
	if len(cells) == 0 {
		return nil, "", nil
	}

	script, cleanup, err := fileutil.WriteTempFile(driverSource, "py")
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrRunnerFailed, err)
	}
	defer cleanup()

	payload, err := json.Marshal(driverRequest{Cells: cells})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrRunnerFailed, err)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Bin, script) // #nosec G204 -- interpreter comes from config
	process.Configure(cmd)
	cmd.Env = append(os.Environ(), "MPLBACKEND=Agg", "PYTHONIOENCODING=utf-8")
	if r.ExecOnly {
		cmd.Env = append(cmd.Env, EnvRunnerMode+"="+EngineExec)
	}
	cmd.Env = append(cmd.Env, r.Env...)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, "", fmt.Errorf("%w after %s", ErrRunnerTimeout, r.Timeout)
		}
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, "", fmt.Errorf("%w: %v%s", ErrRunnerFailed, err, stderrTail(stderr.String()))
	}

	var resp driverResponse
	if err := json.Unmarshal(lastLine(stdout.Bytes()), &resp); err != nil {
		return nil, "", fmt.Errorf("%w: decoding output: %v%s", ErrRunnerFailed, err, stderrTail(stderr.String()))
	}
	if len(resp.Outputs) != len(cells) {
		return nil, "", fmt.Errorf("%w: got %d, want %d", ErrOutputMismatch, len(resp.Outputs), len(cells))
	}
	return resp.Outputs, resp.Engine, nil
}

// lastLine returns the final non-empty line of the driver's stdout.
func lastLine(b []byte) []byte {
	b = bytes.TrimRight(b, "\r\n")
	if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
		return b[i+1:]
	}
	return b
}

func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(s) > maxStderrTail {
		s = "..." + s[len(s)-maxStderrTail:]
	}
	return "\n" + s
}
