// Package server exposes the extraction pipeline and the asset proxy over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"clipharvest/internal/config"
	"clipharvest/internal/history"
	"clipharvest/internal/httputil"
	"clipharvest/internal/media"
	"clipharvest/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// Extractor runs the extraction pipeline over a document.
type Extractor interface {
	Extract(doc string) (*media.ResultSet, error)
}

// Recorder stores a summary of each extraction.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) (history.Entry, error)
}

// Options configures a Server. Only Extractor is required.
type Options struct {
	Config      config.Server
	HostTokens  []string
	Extractor   Extractor
	History     Recorder
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	ProxyClient *http.Client
}

// Server serves the extraction API, the asset proxy and static files.
type Server struct {
	cfg         config.Server
	hostTokens  []string
	extractor   Extractor
	history     Recorder
	metrics     *metrics.Metrics
	logger      *zap.Logger
	proxyClient *http.Client
	limiter     *ipLimiter
}

// New creates a server from opts.
func New(opts Options) (*Server, error) {
	if opts.Extractor == nil {
		return nil, errors.New("server needs an extractor")
	}
	if len(opts.HostTokens) == 0 {
		return nil, errors.New("server needs at least one proxy host token")
	}
	if opts.Config.RatePerMinute <= 0 || opts.Config.RateBurst <= 0 {
		return nil, fmt.Errorf("invalid rate limit %d/min burst %d", opts.Config.RatePerMinute, opts.Config.RateBurst)
	}

	s := &Server{
		cfg:         opts.Config,
		hostTokens:  opts.HostTokens,
		extractor:   opts.Extractor,
		history:     opts.History,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		proxyClient: opts.ProxyClient,
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.proxyClient == nil {
		s.proxyClient = httputil.NewStreamingClient(30 * time.Second)
	}
	s.limiter = newIPLimiter(opts.Config.RatePerMinute, opts.Config.RateBurst)
	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestLogger)

	r.Handle("/extract-videos", s.rateLimit(http.HandlerFunc(s.handleExtract))).Methods(http.MethodPost)
	r.HandleFunc("/proxy-video", s.handleProxy).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	if s.cfg.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.cfg.StaticDir))).Methods(http.MethodGet, http.MethodHead)
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
