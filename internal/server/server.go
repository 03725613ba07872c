package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/alnah/go-qmarimo/internal/engine"
)

// Server limits.
const (
	DefaultMaxBodyBytes = 1 << 20
	readHeaderTimeout   = 10 * time.Second
	shutdownTimeout     = 5 * time.Second
)

// ErrNoGenerator indicates a Config without a generator factory.
var ErrNoGenerator = errors.New("server: NewGenerator is required")

// Config configures a Server.
type Config struct {
	// Addr is the listen address, e.g. "localhost:6000".
	Addr string
	// MaxBodyBytes limits request bodies. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// Head selects where rendered pages load the islands frontend from.
	Head engine.HeadOptions
	// NewGenerator creates the generator for a new app.
	NewGenerator func() *engine.Generator
	// Logger receives request logs. Nil disables logging.
	Logger *zap.Logger
}

// Server is the render service.
type Server struct {
	cfg    Config
	log    *zap.Logger
	warn   io.Writer
	store  *store
	builds singleflight.Group
}

// New creates a Server.
func New(cfg Config) (*Server, error) {
	if cfg.NewGenerator == nil {
		return nil, ErrNoGenerator
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	warn, err := zap.NewStdLogAt(log.Named("cells"), zap.WarnLevel)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	return &Server{
		cfg:   cfg,
		log:   log,
		warn:  warn.Writer(),
		store: newStore(cfg.NewGenerator),
	}, nil
}

// Handler returns the service's HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /run", s.handleRun)
	mux.HandleFunc("POST /lookup", s.handleLookup)
	mux.HandleFunc("POST /execute", s.handleExecute)
	mux.HandleFunc("POST /assets-and-flush", s.handleAssets)
	mux.HandleFunc("POST /assets", s.handleAssets)
	mux.HandleFunc("POST /flush", s.handleFlush)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.withRequestLog(mux)
}

// ListenAndServe listens on cfg.Addr and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          zap.NewStdLog(s.log.Named("http")),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info("render service listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	<-errCh
	s.log.Info("render service stopped")
	return nil
}
