package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/alnah/go-qmarimo/internal/config"
	"github.com/alnah/go-qmarimo/internal/engine"
	"github.com/alnah/go-qmarimo/internal/fileutil"
	"github.com/alnah/go-qmarimo/internal/quarto"
)

// runExtractCmd renders every code cell of a document in one pass and
// prints the result as JSON. The document is read from stdin, or from the
// reference file when stdin is empty.
func runExtractCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseExtractFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(positional) != 2 {
		return fmt.Errorf("%w: extract takes <reference-file> <yes|no>, got %d arguments", ErrUsage, len(positional))
	}
	mimeSensitive, err := parseYesNo(positional[1])
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(flags.common.config, env)
	if err != nil {
		return err
	}
	mergeRunnerFlags(flags.runner, cfg)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	doc, err := readDocument(env.Stdin, positional[0])
	if err != nil {
		return err
	}

	exporter := &quarto.Exporter{
		NewGenerator: generatorFactory(cfg, env),
		Head:         headOptions(cfg),
		Warn:         env.Stderr,
	}
	export, err := exporter.Export(ctx, doc, mimeSensitive)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", positional[0], err)
	}

	enc := json.NewEncoder(env.Stdout)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

// readDocument returns stdin if it has content, else the reference file.
func readDocument(stdin io.Reader, reference string) (string, error) {
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("%w: stdin: %v", ErrReadInput, err)
	}
	if len(data) > 0 {
		return string(data), nil
	}

	data, err = fileutil.ReadSource(reference)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadInput, err)
	}
	return string(data), nil
}

// mergeRunnerFlags merges runner flags into config. CLI values win.
func mergeRunnerFlags(f runnerFlags, cfg *config.Config) {
	if f.python != "" {
		cfg.Python.Bin = f.python
	}
	if f.timeout != "" {
		cfg.Python.Timeout = f.timeout
	}
}

// generatorFactory returns a constructor for generators backed by the
// configured runner.
func generatorFactory(cfg *config.Config, env *Environment) func() *engine.Generator {
	bin, timeout := cfg.Python.Bin, cfg.PythonTimeout()
	return func() *engine.Generator {
		return engine.NewGenerator(env.NewRunner(bin, timeout))
	}
}

func headOptions(cfg *config.Config) engine.HeadOptions {
	return engine.HeadOptions{
		Version:        cfg.Notebook.MarimoVersion,
		DevelopmentURL: cfg.Server.DebugEndpoint,
	}
}
