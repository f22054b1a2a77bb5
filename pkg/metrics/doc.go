// Package metrics exposes simuserver counters in the Prometheus text format.
//
// Each Metrics value owns a private prometheus.Registry so that several
// servers in one process (as in tests) never collide on registration.
//
// # Metrics
//
//   - simuserver_requests_total{method,status}
//   - simuserver_request_duration_seconds{method}
//   - simuserver_injected_errors_total
//   - simuserver_websocket_connections
//   - simuserver_websocket_messages_total{channel}
//   - simuserver_routes_registered
//   - simuserver_host_cpu_percent
//   - simuserver_host_memory_percent
//   - simuserver_requests_per_second
//   - simuserver_uptime_seconds
//
// Go runtime and process collectors are registered as well.
package metrics
