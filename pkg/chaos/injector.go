package chaos

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Config is the injector configuration.
type Config struct {
	// Delay is added before every request is dispatched. Zero disables it.
	Delay time.Duration
	// ErrorRate is the probability that a request is answered with a
	// synthetic 500. Values are clamped to [0, 1].
	ErrorRate float64
}

// Stats counts what the injector did.
type Stats struct {
	TotalRequests   int64 `json:"total_requests"`
	DelayedRequests int64 `json:"delayed_requests"`
	ErrorsInjected  int64 `json:"errors_injected"`
	Cancelled       int64 `json:"cancelled"`
}

// Injector applies delay and fault injection. It is safe for concurrent use.
type Injector struct {
	mu        sync.Mutex
	rng       *rand.Rand
	delay     time.Duration
	errorRate float64
	stats     Stats
	onFault   func()
	// writeTimeout is re-armed on the response after a delay.
	writeTimeout time.Duration
}

// Option configures an Injector.
type Option func(*Injector)

// WithSource replaces the random source used for fault draws.
func WithSource(src rand.Source) Option {
	return func(i *Injector) {
		i.rng = rand.New(src)
	}
}

// WithFaultHook registers fn to be called after every injected fault.
func WithFaultHook(fn func()) Option {
	return func(i *Injector) {
		i.onFault = fn
	}
}

// WithWriteTimeout makes Middleware push the connection's write deadline to
// d after a delay, so a delay at or beyond the server's WriteTimeout still
// produces a response.
func WithWriteTimeout(d time.Duration) Option {
	return func(i *Injector) {
		i.writeTimeout = d
	}
}

// NewInjector creates an injector from configuration.
func NewInjector(cfg Config, opts ...Option) *Injector {
	i := &Injector{
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		delay:     clampDelay(cfg.Delay),
		errorRate: clampRate(cfg.ErrorRate),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func clampRate(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

func clampDelay(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

// Config returns the current settings.
func (i *Injector) Config() Config {
	i.mu.Lock()
	defer i.mu.Unlock()
	return Config{Delay: i.delay, ErrorRate: i.errorRate}
}

// SetDelay changes the per-request delay.
func (i *Injector) SetDelay(d time.Duration) {
	i.mu.Lock()
	i.delay = clampDelay(d)
	i.mu.Unlock()
}

// SetErrorRate changes the fault probability.
func (i *Injector) SetErrorRate(p float64) {
	i.mu.Lock()
	i.errorRate = clampRate(p)
	i.mu.Unlock()
}

// Wait blocks for the configured delay or until ctx is done, whichever comes
// first. It returns ctx.Err() when the wait was cut short.
func (i *Injector) Wait(ctx context.Context) error {
	_, err := i.wait(ctx)
	return err
}

// wait reports whether a delay was applied.
func (i *Injector) wait(ctx context.Context) (bool, error) {
	i.mu.Lock()
	d := i.delay
	if d > 0 {
		i.stats.DelayedRequests++
	}
	i.mu.Unlock()

	if d <= 0 {
		return false, nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		i.mu.Lock()
		i.stats.Cancelled++
		i.mu.Unlock()
		return true, ctx.Err()
	case <-timer.C:
		return true, nil
	}
}

// ShouldFail draws once and reports whether this request gets a synthetic
// error. A rate of 0 never fails and a rate of 1 always fails.
func (i *Injector) ShouldFail() bool {
	i.mu.Lock()
	fail := i.draw()
	i.mu.Unlock()

	if fail && i.onFault != nil {
		i.onFault()
	}
	return fail
}

func (i *Injector) draw() bool {
	i.stats.TotalRequests++
	if i.errorRate <= 0 {
		return false
	}
	if i.errorRate < 1 && i.rng.Float64() >= i.errorRate {
		return false
	}
	i.stats.ErrorsInjected++
	return true
}

// Stats returns a copy of the counters.
func (i *Injector) Stats() Stats {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stats
}

// ResetStats zeroes the counters.
func (i *Injector) ResetStats() {
	i.mu.Lock()
	i.stats = Stats{}
	i.mu.Unlock()
}
