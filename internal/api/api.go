// Package api provides the HTTP server for the InnoviaHub receptionist.
//
// It exposes the buffered and streaming chat endpoints and the assistant
// profile endpoints, wiring together the store, fact aggregator, prompt
// composer, upstream provider client and streaming relay.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Controlfox/InnoviaHub/internal/facts"
	"github.com/Controlfox/InnoviaHub/internal/genai"
	"github.com/Controlfox/InnoviaHub/internal/store"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// shutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

// Opts holds configuration applied by Option functions.
type Opts struct {
	Addr string
}

// Option configures the API server during construction.
type Option func(*Opts)

// WithAddr sets the server listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Upstream is the minimal provider interface the handlers need.
type Upstream interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	OpenStream(ctx context.Context, systemPrompt, userPrompt string) (genai.Stream, error)
}

// Server handles receptionist API requests.
type Server struct {
	addr  string
	st    store.Store
	ai    Upstream
	facts *facts.Aggregator
}

// NewServer creates a Server over the given store and provider client.
func NewServer(st store.Store, ai Upstream, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{
		addr:  cfg.Addr,
		st:    st,
		ai:    ai,
		facts: facts.NewAggregator(st),
	}
}

// Handler returns the route table for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/ping", s.pingHandler)
	mux.HandleFunc("/api/chat/stream", s.chatStreamHandler)
	mux.HandleFunc("/api/chat", s.chatHandler)
	mux.HandleFunc("/api/aiprofile/", s.profileHandler)
	return mux
}

// Run builds the configured modules and serves until SIGINT/SIGTERM.
func Run(storeOpts []store.Option, genaiOpts []genai.Option, apiOpts []Option) error {
	st, err := buildStore(storeOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	ai, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize provider client: %w", err)
	}

	s := NewServer(st, ai, apiOpts...)
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// buildStore picks the store implementation from the configured DSN:
// Postgres for connection strings, SQLite for file paths, in-memory when no
// DSN is set.
func buildStore(opts []store.Option) (store.Store, error) {
	var cfg store.Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Info("No database DSN configured, using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(cfg.DSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return store.NewPostgresStore(opts...)
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", cfg.DSN)
	return store.NewSQLiteStore(opts...)
}
