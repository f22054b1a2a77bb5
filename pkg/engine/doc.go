// Package engine is the simulation server.
//
// A Server owns the route registry, the request log, the performance monitor,
// the WebSocket broadcaster and the fault injector, and serves them over one
// HTTP listener. Every plain HTTP request runs through the same pipeline:
//
//	observe (request log, RPS counter, Prometheus, observer callback)
//	  -> delay
//	  -> fault injection
//	  -> dispatch (registry, then built-in endpoints, then 404)
//
// The WebSocket channels /ws and /ws/chat bypass the pipeline. Server also
// implements Controller, the narrow interface used by front ends to drive it.
package engine
