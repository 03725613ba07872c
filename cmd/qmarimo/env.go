package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/alnah/go-qmarimo/internal/engine"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, the process environment and the cell runner.
type Environment struct {
	Now       func() time.Time
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	Getenv    func(string) string
	Environ   func() []string
	NewRunner func(bin string, timeout time.Duration) engine.Runner
}

// DefaultEnv returns the production environment. Stdin is empty when it
// is a terminal so that commands falling back to a file never block.
func DefaultEnv() *Environment {
	return &Environment{
		Now:       time.Now,
		Stdin:     stdinReader(),
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Getenv:    os.Getenv,
		Environ:   os.Environ,
		NewRunner: newPythonRunner,
	}
}

func newPythonRunner(bin string, timeout time.Duration) engine.Runner {
	return engine.NewPythonRunner(bin, timeout)
}

func stdinReader() io.Reader {
	fi, err := os.Stdin.Stat()
	if err != nil || fi.Mode()&os.ModeCharDevice != 0 {
		return strings.NewReader("")
	}
	return os.Stdin
}
