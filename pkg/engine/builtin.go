package engine

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/qumplus/simuserver/pkg/httputil"
	"github.com/qumplus/simuserver/pkg/perf"
	"github.com/qumplus/simuserver/pkg/requestlog"
)

// RootResponse is the body of GET /.
type RootResponse struct {
	Message         string   `json:"message"`
	Version         string   `json:"version"`
	UptimeSeconds   float64  `json:"uptime_seconds"`
	ActiveTemplates []string `json:"active_templates"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	UptimeSeconds float64   `json:"uptime_seconds"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Status              string        `json:"status"`
	UptimeSeconds       float64       `json:"uptime_seconds"`
	Performance         perf.Snapshot `json:"performance"`
	ActiveTemplates     []string      `json:"active_templates"`
	TotalRequests       int64         `json:"total_requests"`
	ConnectedWebSockets int           `json:"connected_websockets"`
}

// builtin is an endpoint served when no registered route matches.
type builtin struct {
	method  string
	handler http.HandlerFunc
}

func (s *Server) builtins() map[string]builtin {
	b := map[string]builtin{
		"/":                   {http.MethodGet, s.handleRoot},
		"/health":             {http.MethodGet, s.handleHealth},
		"/api/status":         {http.MethodGet, s.handleStatus},
		"/api/requests":       {http.MethodGet, s.handleRequests},
		"/api/simulate/error": {http.MethodPost, s.handleSimulateError},
	}
	if s.cfg.Metrics.Enabled {
		b[s.metricsPath()] = builtin{http.MethodGet, s.metrics.Handler().ServeHTTP}
	}
	return b
}

func (s *Server) metricsPath() string {
	if s.cfg.Metrics.Path == "" {
		return "/metrics"
	}
	return s.cfg.Metrics.Path
}

// serveBuiltin reports whether r was answered by a built-in endpoint. A known
// path with the wrong method is answered with 405.
func (s *Server) serveBuiltin(w http.ResponseWriter, r *http.Request) bool {
	path := r.URL.Path
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	b, ok := s.builtinRoutes[path]
	if !ok {
		return false
	}
	if r.Method != b.method && !(b.method == http.MethodGet && r.Method == http.MethodHead) {
		w.Header().Set("Allow", b.method)
		httputil.WriteDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return true
	}
	b.handler(w, r)
	return true
}

func (s *Server) uptimeSeconds() float64 {
	return float64(s.Uptime().Milliseconds()) / 1000
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteOK(w, RootResponse{
		Message:         "SimuServer is running!",
		Version:         s.version,
		UptimeSeconds:   s.uptimeSeconds(),
		ActiveTemplates: s.registry.ListActive(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteOK(w, HealthResponse{
		Status:        "healthy",
		Timestamp:     time.Now(),
		UptimeSeconds: s.uptimeSeconds(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, StatusResponse{
		Status:              "running",
		UptimeSeconds:       s.uptimeSeconds(),
		Performance:         s.monitor.CurrentSnapshot(r.Context()),
		ActiveTemplates:     s.registry.ListActive(),
		TotalRequests:       s.requests.TotalCount(),
		ConnectedWebSockets: s.broadcaster.Size(),
	})
}

// handleRequests lists recorded requests, most recent last. The method and
// status filters are applied before limit.
func (s *Server) handleRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.WriteDetail(w, http.StatusUnprocessableEntity, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	var records []requestlog.Record
	switch {
	case q.Get("method") != "" && q.Get("status") != "":
		code, ok := parseStatus(w, q.Get("status"))
		if !ok {
			return
		}
		for _, rec := range s.requests.ByMethod(q.Get("method")) {
			if rec.StatusCode == code {
				records = append(records, rec)
			}
		}
	case q.Get("method") != "":
		records = s.requests.ByMethod(q.Get("method"))
	case q.Get("status") != "":
		code, ok := parseStatus(w, q.Get("status"))
		if !ok {
			return
		}
		records = s.requests.ByStatus(code)
	default:
		records = s.requests.Recent(limit)
		limit = 0
	}

	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	if records == nil {
		records = []requestlog.Record{}
	}
	httputil.WriteOK(w, records)
}

func parseStatus(w http.ResponseWriter, v string) (int, bool) {
	code, err := strconv.Atoi(v)
	if err != nil {
		httputil.WriteDetail(w, http.StatusUnprocessableEntity, "status must be an integer")
		return 0, false
	}
	return code, true
}

// handleSimulateError answers with the status given in error_code (default
// 500).
func (s *Server) handleSimulateError(w http.ResponseWriter, r *http.Request) {
	code := http.StatusInternalServerError
	if v := r.URL.Query().Get("error_code"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 100 || n > 599 {
			httputil.WriteDetail(w, http.StatusUnprocessableEntity, "error_code must be an integer between 100 and 599")
			return
		}
		code = n
	}
	httputil.WriteDetail(w, code, "Simulated "+strconv.Itoa(code)+" error")
}
