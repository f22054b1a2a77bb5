package routes

import (
	"fmt"
	"strings"
	"sync"
)

type routeKey struct {
	method Method
	path   string
}

type entry struct {
	def     RouteDefinition
	pattern pattern
}

// Registry is the concurrent route table.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
	index   map[routeKey]int
	active  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[routeKey]int)}
}

// Register inserts a route or replaces the response and status of an existing
// (method, path) pair.
func (r *Registry) Register(method, path string, response any, statusCode int) error {
	def, err := validate(method, path, response, statusCode)
	if err != nil {
		return err
	}
	r.add(def)
	return nil
}

func validate(method, path string, response any, statusCode int) (RouteDefinition, error) {
	if strings.TrimSpace(method) == "" {
		return RouteDefinition{}, ErrMissingMethod
	}
	m, err := ParseMethod(method)
	if err != nil {
		return RouteDefinition{}, err
	}
	if strings.TrimSpace(path) == "" {
		return RouteDefinition{}, ErrMissingPath
	}
	if !strings.HasPrefix(path, "/") {
		return RouteDefinition{}, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	if response == nil {
		return RouteDefinition{}, ErrMissingResponse
	}
	if statusCode != 0 && (statusCode < 100 || statusCode > 599) {
		return RouteDefinition{}, fmt.Errorf("%w: %d", ErrInvalidStatus, statusCode)
	}
	return RouteDefinition{Method: m, Path: path, Response: response, StatusCode: statusCode}, nil
}

func (r *Registry) add(def RouteDefinition) {
	key := routeKey{method: def.Method, path: def.Path}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.index[key]; ok {
		r.entries[i].def = def
		return
	}
	r.index[key] = len(r.entries)
	r.entries = append(r.entries, entry{def: def, pattern: compilePattern(def.Path)})
}

// Match returns the first route, in registration order, whose method equals
// method and whose pattern matches path.
func (r *Registry) Match(method, path string) (RouteDefinition, bool) {
	m := Method(strings.ToUpper(method))

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.def.Method == m && e.pattern.match(path) {
			return e.def, true
		}
	}
	return RouteDefinition{}, false
}

// LoadTemplate registers every well-formed route of tpl and records name in
// the active list. The returned slice holds one *TemplateLoadError per
// skipped route and is nil when every route was registered.
func (r *Registry) LoadTemplate(name string, tpl *RouteTemplate) []error {
	var errs []error
	if tpl != nil {
		for i, rd := range tpl.Routes {
			def, err := validate(string(rd.Method), rd.Path, rd.Response, rd.StatusCode)
			if err != nil {
				errs = append(errs, &TemplateLoadError{
					Template: name,
					Index:    i,
					Method:   string(rd.Method),
					Path:     rd.Path,
					Err:      err,
				})
				continue
			}
			r.add(def)
		}
	}

	r.mu.Lock()
	r.active = append(r.active, name)
	r.mu.Unlock()

	return errs
}

// ListActive returns the names passed to LoadTemplate, in load order.
// Names loaded more than once appear more than once.
func (r *Registry) ListActive() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.active...)
}

// Routes returns a snapshot of the registered routes in match order.
func (r *Registry) Routes() []RouteDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RouteDefinition, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.def
	}
	return out
}

// Len returns the number of registered routes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
