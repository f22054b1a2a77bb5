// Package templatestore persists route templates as files in a directory.
//
// Each file holds one template in JSON (.json) or YAML (.yaml, .yml):
//
//	name: Demo API
//	description: A couple of demo endpoints
//	version: "1.0"
//	routes:
//	  - method: GET
//	    path: /api/demo/items/{id}
//	    response: {id: 1, name: widget}
//	    status_code: 200
//
// Documents are checked against a JSON Schema envelope before decoding. The
// envelope only constrains types; routes missing a method, path or response
// pass it so the route registry can report them one by one.
//
// Open writes the built-in presets (Instagram, Messenger, Twitter, E-commerce
// and Authentication) into the directory when they are missing.
package templatestore
