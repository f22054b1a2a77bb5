package engine

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/qumplus/simuserver/pkg/config"
	"github.com/qumplus/simuserver/pkg/perf"
	"github.com/qumplus/simuserver/pkg/routes"
)

// staticSampler reports fixed host counters.
type staticSampler struct{}

func (staticSampler) CPUPercent(context.Context) (float64, error) { return 12.5, nil }
func (staticSampler) CPUCount(context.Context) (int, error)       { return 4, nil }

func (staticSampler) Memory(context.Context) (perf.MemoryStat, error) {
	return perf.MemoryStat{Total: 8 << 30, Available: 6 << 30, Used: 2 << 30, UsedPercent: 25}, nil
}

func (staticSampler) Disk(context.Context, string) (perf.DiskStat, error) {
	return perf.DiskStat{Total: 100 << 30, Free: 50 << 30, Used: 50 << 30, UsedPercent: 50}, nil
}

func (staticSampler) Network(context.Context) (perf.NetCounters, error) {
	return perf.NetCounters{BytesSent: 1000, BytesRecv: 2000}, nil
}

func testConfig() *config.ServerConfiguration {
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Performance.UpdateInterval = 0.02
	return cfg
}

func newTestServer(cfg *config.ServerConfiguration, opts ...ServerOption) *Server {
	if cfg == nil {
		cfg = testConfig()
	}
	opts = append([]ServerOption{WithSampler(staticSampler{})}, opts...)
	return NewServer(cfg, opts...)
}

// do runs one request through the handler synchronously.
func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func usersTemplate() *routes.RouteTemplate {
	return &routes.RouteTemplate{
		Name:    "Users",
		Version: "1.0",
		Routes: []routes.RouteDefinition{
			{Method: routes.MethodGet, Path: "/api/users", Response: []any{map[string]any{"id": 1}}},
			{Method: routes.MethodGet, Path: "/api/users/{id}", Response: map[string]any{"id": 1, "name": "Ada"}},
			{Method: routes.MethodPost, Path: "/api/users", Response: map[string]any{"created": true}, StatusCode: http.StatusCreated},
		},
	}
}
