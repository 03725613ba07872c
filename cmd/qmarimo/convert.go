package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	qmarimo "github.com/alnah/go-qmarimo"
	"github.com/alnah/go-qmarimo/internal/fileutil"
)

// Accepted input extensions.
var (
	notebookExtensions = []string{".py"}
	markdownExtensions = []string{".md", ".qmd", ".markdown"}
)

// convertFunc turns one input file's content into output text.
type convertFunc func(src []byte) (string, error)

// runToMarkdownCmd converts a marimo notebook to Quarto markdown.
func runToMarkdownCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags("to-md", args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	input, err := singleInput(positional, "notebook")
	if err != nil {
		return err
	}

	convert := func(src []byte) (string, error) {
		return qmarimo.ToMarkdown(src)
	}
	return runConversion(ctx, input, notebookExtensions, flags, convert, env)
}

// runToNotebookCmd converts Quarto markdown to a marimo notebook.
func runToNotebookCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags("to-notebook", args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	input, err := singleInput(positional, "markdown document")
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(flags.common.config, env)
	if err != nil {
		return err
	}
	if flags.marimoVersion != "" {
		cfg.Notebook.MarimoVersion = flags.marimoVersion
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	version := cfg.Notebook.MarimoVersion
	convert := func(src []byte) (string, error) {
		return qmarimo.ToNotebook(string(src), qmarimo.WithMarimoVersion(version))
	}
	return runConversion(ctx, input, markdownExtensions, flags, convert, env)
}

// singleInput checks that exactly one input path was given.
func singleInput(positional []string, what string) (string, error) {
	switch len(positional) {
	case 0:
		return "", fmt.Errorf("%w: expected a %s path", ErrNoInput, what)
	case 1:
		return positional[0], nil
	default:
		return "", fmt.Errorf("%w: expected one %s path, got %d arguments", ErrUsage, what, len(positional))
	}
}

// runConversion converts input once, then again on every change when
// watching. Conversion errors while watching are reported and skipped.
func runConversion(ctx context.Context, input string, exts []string, flags *convertFlags,
	convert convertFunc, env *Environment) error {
	if err := convertFile(input, exts, flags, convert, env); err != nil {
		if !flags.watch {
			return err
		}
		fmt.Fprintln(env.Stderr, "error:", err)
	}
	if !flags.watch {
		return nil
	}

	if !flags.common.quiet {
		fmt.Fprintf(env.Stderr, "Watching %s (Ctrl+C to stop)\n", input)
	}
	return watchFile(ctx, input, func() {
		if err := convertFile(input, exts, flags, convert, env); err != nil {
			fmt.Fprintln(env.Stderr, "error:", err)
		}
	}, env.Stderr)
}

// convertFile reads input, converts it and writes the result to the
// output file or stdout.
func convertFile(input string, exts []string, flags *convertFlags, convert convertFunc, env *Environment) error {
	start := env.Now()

	src, err := fileutil.ReadSource(input, exts...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadInput, err)
	}

	out, err := convert(src)
	if err != nil {
		return fmt.Errorf("converting %s: %w", input, err)
	}

	if err := writeOutput(flags.output, out, env.Stdout); err != nil {
		return err
	}

	if flags.common.verbose {
		dest := flags.output
		if dest == "" {
			dest = "stdout"
		}
		fmt.Fprintf(env.Stderr, "%s -> %s (%s)\n", input, dest, env.Now().Sub(start).Round(time.Millisecond))
	}
	return nil
}

// writeOutput writes content to path, or to stdout when path is empty.
func writeOutput(path, content string, stdout io.Writer) error {
	if path == "" {
		if _, err := io.WriteString(stdout, content); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), filePermissions); err != nil { // #nosec G306 -- output is meant to be shared
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}
