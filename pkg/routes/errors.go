package routes

import (
	"errors"
	"fmt"
)

// Validation errors for route definitions.
var (
	ErrMissingMethod   = errors.New("route method is required")
	ErrMissingPath     = errors.New("route path is required")
	ErrMissingResponse = errors.New("route response is required")
	ErrInvalidMethod   = errors.New("unsupported HTTP method")
	ErrInvalidPath     = errors.New("route path must start with /")
	ErrInvalidStatus   = errors.New("status code must be between 100 and 599")
)

// TemplateLoadError reports a route that was skipped while loading a template.
type TemplateLoadError struct {
	Template string
	Index    int
	Method   string
	Path     string
	Err      error
}

func (e *TemplateLoadError) Error() string {
	return fmt.Sprintf("template %q route %d (%s %s): %v", e.Template, e.Index, e.Method, e.Path, e.Err)
}

func (e *TemplateLoadError) Unwrap() error {
	return e.Err
}
