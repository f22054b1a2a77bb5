package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/qumplus/simuserver/pkg/httputil"
	"github.com/qumplus/simuserver/pkg/requestlog"
)

// observe is the outermost pipeline stage. It measures the full request,
// including injected delay, and records the exchange once the inner stages
// have answered.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqBody := captureBody(r)

		rec := newResponseRecorder(w)
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		s.requests.Log(requestlog.Record{
			Method:         r.Method,
			URL:            requestURL(r),
			Headers:        requestlog.FlattenHeaders(r.Header),
			StatusCode:     rec.statusCode,
			ResponseTimeMs: requestlog.Milliseconds(elapsed),
			Timestamp:      time.Now(),
			RequestBody:    requestlog.Body(reqBody),
			ResponseBody:   requestlog.Body(rec.body),
		})
		s.monitor.RecordRequest()
		s.metrics.ObserveRequest(r.Method, rec.statusCode, elapsed)

		if s.observer != nil {
			s.observer(fmt.Sprintf("%s %s - %d (%.3fs)", r.Method, r.URL.Path, rec.statusCode, elapsed.Seconds()))
		}
		s.log.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.statusCode,
			"duration", elapsed,
		)
	})
}

// captureBody reads at most requestlog.MaxBodySize bytes of the request
// body and puts a reader back that replays them ahead of the unread rest,
// so the inner stages still see the whole body.
func captureBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	prefix, err := io.ReadAll(io.LimitReader(r.Body, requestlog.MaxBodySize))
	r.Body = replayBody{
		Reader: io.MultiReader(bytes.NewReader(prefix), r.Body),
		Closer: r.Body,
	}
	if err != nil {
		return nil
	}
	return prefix
}

type replayBody struct {
	io.Reader
	io.Closer
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// recoverer turns a panic in next into a 500 so one faulty handler never
// takes the listener down.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.log.Error("panic while handling request",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", v,
				)
				httputil.WriteInternalError(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// dispatch answers from the registry first, then from the built-in
// endpoints, and finally with 404.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	if def, ok := s.registry.Match(r.Method, r.URL.Path); ok {
		body, err := json.Marshal(def.Response)
		if err != nil {
			s.log.Error("failed to encode route response", "method", def.Method, "path", def.Path, "error", err)
			httputil.WriteInternalError(w)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(def.Status())
		_, _ = w.Write(body)
		return
	}
	if s.serveBuiltin(w, r) {
		return
	}
	httputil.WriteNotFound(w)
}
