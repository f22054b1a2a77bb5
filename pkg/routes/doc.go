// Package routes holds the dynamic route table of the simulation server.
//
// A RouteTemplate is a named bundle of RouteDefinitions. Loading a template
// registers each of its routes in a Registry; a route whose method, path or
// response is missing is reported as a *TemplateLoadError and skipped while
// its siblings are still registered.
//
// Paths may contain {name} segments. They match any single segment and the
// value is not extracted. Routes are matched in registration order and the
// first match wins; re-registering an existing (method, path) pair replaces
// the response in place and keeps the original position.
package routes
