package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"

	"github.com/qumplus/simuserver/pkg/chaos"
	"github.com/qumplus/simuserver/pkg/config"
	"github.com/qumplus/simuserver/pkg/logging"
	"github.com/qumplus/simuserver/pkg/metrics"
	"github.com/qumplus/simuserver/pkg/perf"
	"github.com/qumplus/simuserver/pkg/requestlog"
	"github.com/qumplus/simuserver/pkg/routes"
	"github.com/qumplus/simuserver/pkg/websocket"
)

// DefaultVersion is reported by GET / unless WithVersion is used.
const DefaultVersion = "1.0.0"

// Server is the simulation server engine.
type Server struct {
	cfg      *config.ServerConfiguration
	baseLog  *slog.Logger
	log      *slog.Logger
	observer func(string)
	sampler  perf.Sampler
	version  string

	registry    *routes.Registry
	requests    *requestlog.Store
	monitor     *perf.Monitor
	injector    *chaos.Injector
	broadcaster *websocket.Broadcaster
	metrics     *metrics.Metrics

	builtinRoutes map[string]builtin
	handler       http.Handler

	// lifecycle serialises Start and Stop; mu guards the fields below and
	// is never held while waiting on the listener.
	lifecycle  sync.Mutex
	mu         sync.RWMutex
	running    bool
	startTime  time.Time
	httpServer *http.Server
	listener   net.Listener
	serveDone  chan struct{}
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// WithLogger sets the operational logger for the server.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithObserver registers fn to receive one line per handled request, in the
// form "GET /path - 200 (0.012s)". fn runs on the request goroutine.
func WithObserver(fn func(line string)) ServerOption {
	return func(s *Server) {
		s.observer = fn
	}
}

// WithSampler replaces the host counter source of the performance monitor.
func WithSampler(sampler perf.Sampler) ServerOption {
	return func(s *Server) {
		s.sampler = sampler
	}
}

// WithVersion sets the version reported by GET /.
func WithVersion(version string) ServerOption {
	return func(s *Server) {
		if version != "" {
			s.version = version
		}
	}
}

// NewServer creates a stopped Server. The configuration is validated by Start.
func NewServer(cfg *config.ServerConfiguration, opts ...ServerOption) *Server {
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{
		cfg:      cfg,
		log:      logging.Nop(),
		version:  DefaultVersion,
		registry: routes.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.baseLog = s.log
	s.log = s.log.With("component", "engine")

	s.metrics = metrics.New(s.Uptime)
	s.requests = requestlog.NewStore(cfg.Logging.MaxEntries)
	s.injector = chaos.NewInjector(chaos.Config{
		Delay:     cfg.Simulation.Delay(),
		ErrorRate: cfg.Simulation.ErrorRate,
	},
		chaos.WithFaultHook(s.metrics.IncInjectedErrors),
		chaos.WithWriteTimeout(time.Duration(cfg.Server.WriteTimeout)*time.Second),
	)
	s.monitor = perf.NewMonitor(perf.Options{
		Interval:    cfg.Performance.Interval(),
		HistorySize: cfg.Performance.HistorySize,
		DiskPath:    cfg.Performance.DiskPath,
		Sampler:     s.sampler,
		Logger:      s.baseLog,
		OnSample: func(sample perf.Sample) {
			s.metrics.SetHost(sample.CPUPercent, sample.MemoryPercent, s.monitor.RequestsPerSecond())
		},
	})
	s.broadcaster = websocket.NewBroadcaster(websocket.WithSizeHook(s.metrics.SetWebSocketConnections))

	s.builtinRoutes = s.builtins()
	s.handler = s.buildHandler()
	return s
}

// buildHandler assembles the pipeline and mounts the WebSocket channels next
// to it.
func (s *Server) buildHandler() http.Handler {
	var pipeline http.Handler = http.HandlerFunc(s.dispatch)
	pipeline = s.recoverer(pipeline)
	pipeline = s.injector.Middleware(pipeline)
	pipeline = s.observe(pipeline)

	mux := http.NewServeMux()
	if s.cfg.Server.EnableWebSockets {
		ws := websocket.NewHandler(s.broadcaster,
			websocket.WithLogger(s.baseLog),
			websocket.WithMessageHook(s.metrics.IncWebSocketMessages),
		)
		mux.Handle("/ws", clearDeadlines(ws.Echo()))
		mux.Handle("/ws/chat", clearDeadlines(ws.Chat()))
	}
	mux.Handle("/", pipeline)

	if s.cfg.Simulation.EnableCORS {
		return cors.AllowAll().Handler(mux)
	}
	return mux
}

// clearDeadlines lifts the listener's read and write timeouts for long-lived
// WebSocket sessions.
func clearDeadlines(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)
		_ = rc.SetReadDeadline(time.Time{})
		_ = rc.SetWriteDeadline(time.Time{})
		next.ServeHTTP(w, r)
	})
}

// Handler returns the complete HTTP handler. It can be served without Start,
// e.g. by httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start validates the configuration, binds the listener, and starts serving
// and sampling.
func (s *Server) Start() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.IsRunning() {
		return ErrAlreadyRunning
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	addr := s.cfg.Server.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", "error", err)
		}
	}()

	s.broadcaster.Open()
	s.monitor.Start()

	s.mu.Lock()
	s.httpServer = srv
	s.listener = ln
	s.serveDone = done
	s.startTime = time.Now()
	s.running = true
	s.mu.Unlock()

	s.log.Info("server started", "addr", ln.Addr().String(), "websockets", s.cfg.Server.EnableWebSockets)
	return nil
}

// Stop closes every WebSocket session, stops the monitor and shuts the
// listener down, waiting at most server.shutdown_timeout for in-flight
// requests.
func (s *Server) Stop(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.RLock()
	running, srv, done := s.running, s.httpServer, s.serveDone
	s.mu.RUnlock()
	if !running {
		return ErrNotRunning
	}

	closed := s.broadcaster.Shutdown(websocket.CloseGoingAway, "server shutting down")
	s.monitor.Stop()

	timeout := time.Duration(s.cfg.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
		_ = srv.Close()
	}
	<-done

	s.mu.Lock()
	s.running = false
	s.httpServer = nil
	s.listener = nil
	s.serveDone = nil
	s.mu.Unlock()

	s.log.Info("server stopped", "websockets_closed", closed)
	return errors.Join(errs...)
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the bound listener address, or "" when stopped.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Uptime returns the time since Start, or zero when stopped.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startTime)
}

// Config returns the server configuration.
func (s *Server) Config() *config.ServerConfiguration {
	return s.cfg
}

// Registry returns the route registry.
func (s *Server) Registry() *routes.Registry {
	return s.registry
}

// Requests returns the request log.
func (s *Server) Requests() *requestlog.Store {
	return s.requests
}

// Monitor returns the performance monitor.
func (s *Server) Monitor() *perf.Monitor {
	return s.monitor
}

// Broadcaster returns the WebSocket broadcaster.
func (s *Server) Broadcaster() *websocket.Broadcaster {
	return s.broadcaster
}

// Metrics returns the Prometheus collectors.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// SetDelay changes the injected delay for subsequent requests.
func (s *Server) SetDelay(d time.Duration) {
	s.injector.SetDelay(d)
}

// SetErrorRate changes the fault probability for subsequent requests.
func (s *Server) SetErrorRate(p float64) {
	s.injector.SetErrorRate(p)
}

// ChaosStats returns the delay and fault counters.
func (s *Server) ChaosStats() chaos.Stats {
	return s.injector.Stats()
}
