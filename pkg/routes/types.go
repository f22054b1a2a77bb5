package routes

import (
	"fmt"
	"net/http"
	"strings"
)

// Method is an HTTP method accepted in route definitions.
type Method string

// Supported methods.
const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
	MethodPatch  Method = http.MethodPatch
)

// Methods lists the supported methods in display order.
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch}

// ParseMethod normalises s and checks that it is supported.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

// DefaultStatusCode is used when a definition leaves status_code unset.
const DefaultStatusCode = http.StatusOK

// Null is a response that is explicitly JSON null. A nil Response means the
// response is missing.
var Null any = nullResponse{}

type nullResponse struct{}

func (nullResponse) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

func (nullResponse) MarshalYAML() (any, error) { return nil, nil }

// IsZero keeps yaml omitempty from dropping an explicit null.
func (nullResponse) IsZero() bool { return false }

// RouteDefinition is a single method + path + response + status tuple.
type RouteDefinition struct {
	Method     Method `json:"method" yaml:"method"`
	Path       string `json:"path" yaml:"path"`
	Response   any    `json:"response,omitempty" yaml:"response,omitempty"`
	StatusCode int    `json:"status_code,omitempty" yaml:"status_code,omitempty"`
}

// Status returns the configured status code or DefaultStatusCode.
func (d RouteDefinition) Status() int {
	if d.StatusCode == 0 {
		return DefaultStatusCode
	}
	return d.StatusCode
}

// RouteTemplate is a named, versioned bundle of route definitions.
type RouteTemplate struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Version     string            `json:"version" yaml:"version"`
	Routes      []RouteDefinition `json:"routes" yaml:"routes"`
}
