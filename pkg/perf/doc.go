// Package perf samples host performance counters in the background.
//
// A Monitor runs one sampling loop per Start/Stop cycle. Each tick reads CPU,
// memory and network counters through a Sampler, recomputes requests per
// second from the counter fed by RecordRequest, and appends the values to
// three bounded histories. A failed read is logged and the loop keeps going.
//
// CurrentSnapshot performs an immediate read that does not depend on the
// loop, and adds disk usage for the configured path.
package perf
