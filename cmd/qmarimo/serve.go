package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alnah/go-qmarimo/internal/server"
)

// runServeCmd runs the render service until ctx is canceled.
func runServeCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(positional) != 0 {
		return fmt.Errorf("%w: serve takes no arguments", ErrUsage)
	}

	cfg, err := resolveConfig(flags.common.config, env)
	if err != nil {
		return err
	}
	mergeRunnerFlags(flags.runner, cfg)
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.debugEndpoint != "" {
		cfg.Server.DebugEndpoint = flags.debugEndpoint
	}
	if flags.debug {
		cfg.Server.Development = true
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(env.Stderr, cfg.Server.Development, flags.common.verbose, flags.common.quiet)
	defer func() { _ = logger.Sync() }()

	srv, err := server.New(server.Config{
		Addr:         cfg.Server.Addr,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Head:         headOptions(cfg),
		NewGenerator: generatorFactory(cfg, env),
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	logger.Debug("configuration",
		zap.String("python", cfg.Python.Bin),
		zap.Duration("timeout", cfg.PythonTimeout()),
		zap.String("marimo_version", cfg.Notebook.MarimoVersion))

	return srv.ListenAndServe(ctx)
}

// newLogger builds the service logger: JSON in production, console in
// development. verbose lowers the level to debug, quiet raises it to warn.
func newLogger(w io.Writer, development, verbose, quiet bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}

	level := cfg.Level.Level()
	switch {
	case verbose:
		level = zapcore.DebugLevel
	case quiet:
		level = zapcore.WarnLevel
	}

	var enc zapcore.Encoder
	opts := []zap.Option{zap.AddCaller()}
	if development {
		enc = zapcore.NewConsoleEncoder(cfg.EncoderConfig)
		opts = append(opts, zap.Development())
	} else {
		enc = zapcore.NewJSONEncoder(cfg.EncoderConfig)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	return zap.New(core, opts...)
}
