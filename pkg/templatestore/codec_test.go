package templatestore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qumplus/simuserver/pkg/routes"
)

func TestDecode_JSON(t *testing.T) {
	t.Parallel()

	tpl, err := Decode([]byte(`{
		"name": "Pets",
		"version": 2,
		"routes": [
			{"method": "GET", "path": "/pets", "response": [{"id": 1}]},
			{"method": "POST", "path": "/pets", "response": {"ok": true}, "status_code": 201}
		]
	}`), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, "Pets", tpl.Name)
	assert.Equal(t, "2", tpl.Version)
	require.Len(t, tpl.Routes, 2)
	assert.Equal(t, routes.MethodGet, tpl.Routes[0].Method)
	assert.Equal(t, 201, tpl.Routes[1].StatusCode)
	assert.Equal(t, 200, tpl.Routes[0].Status())
}

func TestDecode_YAML(t *testing.T) {
	t.Parallel()

	tpl, err := Decode([]byte(`
name: Pets
description: pet store
version: "1.0"
routes:
  - method: get
    path: /pets/{id}
    response:
      id: 7
      name: Rex
`), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "pet store", tpl.Description)
	assert.Equal(t, "1.0", tpl.Version)
	require.Len(t, tpl.Routes, 1)
	assert.Equal(t, routes.Method("get"), tpl.Routes[0].Method)

	body, err := json.Marshal(tpl.Routes[0].Response)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"name":"Rex"}`, string(body))
}

func TestDecode_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"missing name", `{"routes": []}`},
		{"empty name", `{"name": "", "routes": []}`},
		{"missing routes", `{"name": "x"}`},
		{"routes not array", `{"name": "x", "routes": {}}`},
		{"status out of range", `{"name": "x", "routes": [{"method": "GET", "path": "/", "response": 1, "status_code": 700}]}`},
		{"not an object", `[1, 2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode([]byte(tt.doc), FormatJSON)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTemplate)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.NotEmpty(t, verr.Problems)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`{"name":`), FormatJSON)
	assert.Error(t, err)

	_, err = Decode([]byte("name: [unclosed"), FormatYAML)
	assert.Error(t, err)
}

func TestDecode_IncompleteRoutesPassSchema(t *testing.T) {
	t.Parallel()

	// Route-level problems are reported by the registry, not the codec.
	tpl, err := Decode([]byte(`{"name": "x", "routes": [{"path": "/a"}]}`), FormatJSON)
	require.NoError(t, err)
	require.Len(t, tpl.Routes, 1)

	errs := routes.NewRegistry().LoadTemplate("x", tpl)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], routes.ErrMissingMethod)
}

func TestDecode_NullResponseIsNotMissing(t *testing.T) {
	t.Parallel()

	docs := map[Format]string{
		FormatJSON: `{"name": "N", "routes": [
			{"method": "GET", "path": "/a", "response": null},
			{"method": "GET", "path": "/b"}
		]}`,
		FormatYAML: "name: N\nroutes:\n  - method: GET\n    path: /a\n    response: null\n  - method: GET\n    path: /b\n",
	}
	for format, doc := range docs {
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()

			tpl, err := Decode([]byte(doc), format)
			require.NoError(t, err)
			require.Len(t, tpl.Routes, 2)
			assert.Equal(t, routes.Null, tpl.Routes[0].Response)
			assert.Nil(t, tpl.Routes[1].Response)

			// the explicit null survives a save
			data, err := Encode(tpl, format)
			require.NoError(t, err)
			again, err := Decode(data, format)
			require.NoError(t, err)
			assert.Equal(t, routes.Null, again.Routes[0].Response)
			assert.Nil(t, again.Routes[1].Response)

			reg := routes.NewRegistry()
			errs := reg.LoadTemplate(tpl.Name, tpl)
			require.Len(t, errs, 1)
			assert.ErrorIs(t, errs[0], routes.ErrMissingResponse)
			_, ok := reg.Match("GET", "/a")
			assert.True(t, ok)
		})
	}
}

func TestEncodeDecode_PreservesRouteOrder(t *testing.T) {
	t.Parallel()

	tpl := &routes.RouteTemplate{
		Name:        "Ordered",
		Description: "order matters",
		Version:     "3.1",
		Routes: []routes.RouteDefinition{
			{Method: routes.MethodGet, Path: "/z", Response: "last"},
			{Method: routes.MethodPost, Path: "/a", Response: map[string]any{"n": "1"}, StatusCode: 201},
			{Method: routes.MethodDelete, Path: "/m/{id}", Response: []any{"x"}},
		},
	}

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()

			data, err := Encode(tpl, format)
			require.NoError(t, err)

			got, err := Decode(data, format)
			require.NoError(t, err)

			assert.Equal(t, tpl.Name, got.Name)
			assert.Equal(t, tpl.Description, got.Description)
			assert.Equal(t, tpl.Version, got.Version)
			require.Len(t, got.Routes, len(tpl.Routes))
			for i := range tpl.Routes {
				assert.Equal(t, tpl.Routes[i].Method, got.Routes[i].Method)
				assert.Equal(t, tpl.Routes[i].Path, got.Routes[i].Path)
				assert.Equal(t, tpl.Routes[i].StatusCode, got.Routes[i].StatusCode)
				assert.Equal(t, tpl.Routes[i].Response, got.Routes[i].Response)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FormatYAML, FormatFromPath("a/b.YML"))
	assert.Equal(t, FormatYAML, FormatFromPath("b.yaml"))
	assert.Equal(t, FormatJSON, FormatFromPath("b.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("b"))

	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, ".yaml", f.Ext())

	_, err = ParseFormat("toml")
	assert.Error(t, err)
}
