package engine

import (
	"context"
	"errors"
	"time"

	"github.com/qumplus/simuserver/pkg/perf"
	"github.com/qumplus/simuserver/pkg/requestlog"
	"github.com/qumplus/simuserver/pkg/routes"
)

// Controller is the control surface used by front ends. Calls are safe from
// any goroutine.
type Controller interface {
	StartServer() bool
	StopServer() bool
	LoadTemplate(name string, tpl *routes.RouteTemplate) []error
	PerformanceSnapshot() perf.Snapshot
	RequestHistory() []requestlog.Record
	IsRunning() bool
	ActiveTemplates() []string
	ConnectedCount() int

	PerformanceHistory() perf.History
	ClearRequestHistory()
	ClearPerformanceHistory()
	TotalRequests() int64
	Uptime() time.Duration
}

var _ Controller = (*Server)(nil)

// StartServer starts the server and reports whether it was started by this
// call.
func (s *Server) StartServer() bool {
	if err := s.Start(); err != nil {
		if !errors.Is(err, ErrAlreadyRunning) {
			s.log.Error("failed to start server", "error", err)
		}
		return false
	}
	return true
}

// StopServer stops the server and reports whether it was stopped by this call.
func (s *Server) StopServer() bool {
	if err := s.Stop(context.Background()); err != nil {
		if errors.Is(err, ErrNotRunning) {
			return false
		}
		s.log.Warn("server stopped with errors", "error", err)
	}
	return true
}

// LoadTemplate registers the routes of tpl. Routes that cannot be registered
// are logged and returned; the others stay registered.
func (s *Server) LoadTemplate(name string, tpl *routes.RouteTemplate) []error {
	errs := s.registry.LoadTemplate(name, tpl)
	for _, err := range errs {
		s.log.Warn("skipped route", "template", name, "error", err)
	}
	s.metrics.SetRoutesRegistered(s.registry.Len())
	s.log.Info("loaded template", "template", name, "routes", s.registry.Len(), "skipped", len(errs))
	return errs
}

// RegisterRoute adds or replaces a single route.
func (s *Server) RegisterRoute(method, path string, response any, statusCode int) error {
	if err := s.registry.Register(method, path, response, statusCode); err != nil {
		return err
	}
	s.metrics.SetRoutesRegistered(s.registry.Len())
	return nil
}

// PerformanceSnapshot reads the host counters now.
func (s *Server) PerformanceSnapshot() perf.Snapshot {
	return s.monitor.CurrentSnapshot(context.Background())
}

// RequestHistory returns every retained request, most recent last.
func (s *Server) RequestHistory() []requestlog.Record {
	return s.requests.Recent(0)
}

// ActiveTemplates returns the loaded template names in load order.
func (s *Server) ActiveTemplates() []string {
	return s.registry.ListActive()
}

// ConnectedCount returns the number of open WebSocket sessions.
func (s *Server) ConnectedCount() int {
	return s.broadcaster.Size()
}

// PerformanceHistory returns the sampled histories.
func (s *Server) PerformanceHistory() perf.History {
	return s.monitor.History()
}

// ClearRequestHistory empties the request log and resets its counter.
func (s *Server) ClearRequestHistory() {
	s.requests.Clear()
}

// ClearPerformanceHistory empties the sampled histories.
func (s *Server) ClearPerformanceHistory() {
	s.monitor.ClearHistory()
}

// TotalRequests returns the number of requests logged since the last clear.
func (s *Server) TotalRequests() int64 {
	return s.requests.TotalCount()
}
