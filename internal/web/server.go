package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/flock"

	"dharma/internal/config"
	"dharma/internal/deps"
	"dharma/internal/logging"
	"dharma/internal/pipeline"
	"dharma/internal/preflight"
	"dharma/internal/transcripts"
)

//go:embed templates/*.html
var templateFS embed.FS

// Processor runs one transcription pipeline for a URL.
type Processor interface {
	Process(ctx context.Context, sourceURL string) pipeline.Result
}

// Repository reads persisted transcripts.
type Repository interface {
	List(ctx context.Context) ([]transcripts.Summary, error)
	GetByID(ctx context.Context, id int64) (*transcripts.Record, error)
	Ping(ctx context.Context) error
}

// Option customizes a Server.
type Option func(*Server)

// WithDependencyCheck overrides the dependency check used by /healthz.
func WithDependencyCheck(fn func() []deps.Status) Option {
	return func(s *Server) {
		if fn != nil {
			s.checkDeps = fn
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for open requests before
// closing their connections.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// Server hosts the HTTP interface and enforces single-instance execution.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	processor Processor
	repo      Repository
	checkDeps func() []deps.Status

	engine *gin.Engine

	lockPath string
	lock     *flock.Flock

	shutdownTimeout time.Duration
	stopMu          sync.Mutex
	inflight        sync.WaitGroup

	running  atomic.Bool
	listener net.Listener
	server   *http.Server
}

// New constructs a server with its routes registered.
func New(cfg *config.Config, processor Processor, repo Repository, logger *slog.Logger, opts ...Option) (*Server, error) {
	if cfg == nil || processor == nil || repo == nil {
		return nil, errors.New("web server requires config, processor, and repository")
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.SetHTMLTemplate(tmpl)

	lockPath := cfg.LockPath()
	s := &Server{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "web"),
		processor: processor,
		repo:      repo,
		checkDeps: func() []deps.Status { return preflight.CheckSystemDeps(cfg) },
		engine:    engine,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),

		shutdownTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	engine.Use(trackInflight(&s.inflight), requestID(), recovery(s.logger), requestLogger(s.logger))
	s.registerRoutes()

	s.server = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/repository", s.handleRepository)
	s.engine.GET("/transcription/:id", s.handleTranscription)
	s.engine.POST("/process", s.handleProcess)
	s.engine.GET("/download/:kind/:title", s.handleDownload)
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
	})
}

// Handler exposes the routed engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start acquires the instance lock and begins serving on the configured bind
// address. The server shuts down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.New("server already running")
	}

	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another dharma server instance is already running")
	}

	bind := strings.TrimSpace(s.cfg.Paths.APIBind)
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = listener
	s.running.Store(true)

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("http server listening",
		logging.String(logging.FieldEventType, "server_start"),
		logging.String("address", listener.Addr().String()),
		logging.String("lock_path", s.lockPath),
	)
	return nil
}

// Addr returns the bound listener address, or "" when not running.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down and releases the instance lock. Requests still
// running after the shutdown timeout have their connections closed, and Stop
// returns only once their handlers finish. Concurrent callers block until the
// first one is done.
func (s *Server) Stop() {
	s.stopMu.Lock()
	defer s.stopMu.Unlock()
	if !s.running.Load() {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http server shutdown incomplete; closing open connections",
			logging.String(logging.FieldEventType, "server_shutdown_timeout"),
			logging.Error(err),
		)
		if err := s.server.Close(); err != nil {
			s.logger.Warn("http server close failed", logging.Error(err))
		}
	}
	s.inflight.Wait()
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release instance lock", logging.Error(err))
	}
	s.running.Store(false)
	s.logger.Info("http server stopped", logging.String(logging.FieldEventType, "server_stop"))
}
