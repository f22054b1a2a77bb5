// Package chaos provides the latency and fault injection stages of the
// request pipeline.
//
// An Injector holds two knobs that can be changed while the server runs:
//
//   - Delay: every request waits this long before it is dispatched. The wait
//     is a per-request timer, so concurrent requests are never serialised,
//     and it ends early when the request context is cancelled.
//   - Error rate: a probability in [0, 1]. Each request draws independently;
//     on a hit the request is answered with a 500 and never reaches the
//     route handlers.
//
// # Usage
//
//	inj := chaos.NewInjector(chaos.Config{Delay: 50 * time.Millisecond, ErrorRate: 0.1})
//	handler := inj.Middleware(routes)
package chaos
