package templatestore

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/qumplus/simuserver/pkg/routes"
)

// Format is a template file format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat parses a format name. Unknown names are an error.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported template format %q", s)
	}
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// ErrInvalidTemplate is wrapped by every ValidationError.
var ErrInvalidTemplate = errors.New("invalid template document")

// ValidationError lists the schema violations of a template document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidTemplate, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidTemplate
}

//go:embed schema.json
var schemaDocument string

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource("template.schema.json", strings.NewReader(schemaDocument)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile("template.schema.json")
}

var envelope = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	schema, err := compileSchema()
	if err != nil {
		panic(fmt.Sprintf("templatestore: embedded schema: %v", err))
	}
	return schema
}

// document mirrors routes.RouteTemplate but accepts a numeric version.
type document struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Version     any                      `json:"version"`
	Routes      []routes.RouteDefinition `json:"routes"`
}

// Decode parses a template document and validates it against the envelope.
func Decode(data []byte, format Format) (*routes.RouteTemplate, error) {
	raw := data
	if format == FormatYAML {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		var err error
		if raw, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate(doc); err != nil {
		return nil, err
	}

	var d document
	dec = json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	markNullResponses(raw, d.Routes)

	tpl := &routes.RouteTemplate{
		Name:        d.Name,
		Description: d.Description,
		Routes:      d.Routes,
	}
	if d.Version != nil {
		tpl.Version = fmt.Sprint(d.Version)
	}
	return tpl, nil
}

// markNullResponses tells an explicit "response": null apart from a missing
// response, which decode both to nil.
func markNullResponses(raw []byte, defs []routes.RouteDefinition) {
	var doc struct {
		Routes []map[string]json.RawMessage `json:"routes"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return
	}
	for i, fields := range doc.Routes {
		if i >= len(defs) || defs[i].Response != nil {
			continue
		}
		if v, ok := fields["response"]; ok && string(bytes.TrimSpace(v)) == "null" {
			defs[i].Response = routes.Null
		}
	}
}

func validate(doc any) error {
	err := envelope.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	out := &ValidationError{}
	collectProblems(verr, out)
	return out
}

func collectProblems(err *jsonschema.ValidationError, out *ValidationError) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		out.Problems = append(out.Problems, loc+": "+err.Message)
		return
	}
	for _, cause := range err.Causes {
		collectProblems(cause, out)
	}
}

// Encode renders tpl in the given format. Route order is preserved.
func Encode(tpl *routes.RouteTemplate, format Format) ([]byte, error) {
	if tpl == nil {
		return nil, errors.New("template cannot be nil")
	}
	if format == FormatYAML {
		return yaml.Marshal(tpl)
	}
	data, err := json.MarshalIndent(tpl, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
