//go:build integration

package engine

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func requirePython(t *testing.T) string {
	t.Helper()
	bin, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}
	return bin
}

func TestPythonRunner_Run(t *testing.T) {
	t.Parallel()

	r := NewPythonRunner(requirePython(t), 30*time.Second)
	r.ExecOnly = true
	outputs, err := r.Run(context.Background(), []Source{
		{Code: "x = 20"},
		{Code: "x + 22"},
		{Code: "print('hello')"},
		{Code: "undefined_name"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(outputs) != 4 {
		t.Fatalf("got %d outputs, want 4", len(outputs))
	}
	if outputs[1] != (Output{Mimetype: MimePlain, Data: "42"}) {
		t.Errorf("expression output = %+v", outputs[1])
	}
	if outputs[2] != (Output{Mimetype: MimePlain, Data: "hello\n"}) {
		t.Errorf("print output = %+v", outputs[2])
	}
	if !outputs[3].IsError() {
		t.Errorf("NameError output = %+v", outputs[3])
	}
}

func TestPythonRunner_Timeout(t *testing.T) {
	t.Parallel()

	r := NewPythonRunner(requirePython(t), 500*time.Millisecond)
	_, err := r.Run(context.Background(), []Source{{Code: "import time\ntime.sleep(30)"}})
	if !errors.Is(err, ErrRunnerTimeout) {
		t.Errorf("error = %v, want ErrRunnerTimeout", err)
	}
}

func TestPythonRunner_MissingInterpreter(t *testing.T) {
	t.Parallel()

	r := NewPythonRunner("/nonexistent/python", time.Second)
	_, err := r.Run(context.Background(), []Source{{Code: "1"}})
	if !errors.Is(err, ErrRunnerFailed) {
		t.Errorf("error = %v, want ErrRunnerFailed", err)
	}
}

func TestPythonRunner_OutOfOrderCells(t *testing.T) {
	t.Parallel()

	bin := requirePython(t)
	for _, execOnly := range []bool{false, true} {
		r := NewPythonRunner(bin, 60*time.Second)
		r.ExecOnly = execOnly
		outputs, engine, err := r.RunWithEngine(context.Background(), []Source{
			{Code: "y = x + 1\ny"},
			{Code: "x = 1"},
		})
		if err != nil {
			t.Fatalf("execOnly=%v: Run() error = %v", execOnly, err)
		}
		if execOnly && engine != EngineExec {
			t.Errorf("engine = %q, want %q", engine, EngineExec)
		}
		if engine != EngineMarimo && engine != EngineExec {
			t.Errorf("engine = %q", engine)
		}
		if outputs[0].IsError() || !strings.Contains(outputs[0].Data, "2") {
			t.Errorf("execOnly=%v engine=%s: reader output = %+v, want 2", execOnly, engine, outputs[0])
		}
	}
}

func TestPythonRunner_UsesMarimoWhenInstalled(t *testing.T) {
	t.Parallel()

	bin := requirePython(t)
	if err := exec.Command(bin, "-c", "import marimo").Run(); err != nil {
		t.Skip("marimo not installed")
	}
	r := NewPythonRunner(bin, 60*time.Second)
	_, engine, err := r.RunWithEngine(context.Background(), []Source{{Code: "1 + 1"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if engine != EngineMarimo {
		t.Errorf("engine = %q, want %q", engine, EngineMarimo)
	}
}
