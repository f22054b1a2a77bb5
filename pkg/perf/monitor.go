package perf

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/qumplus/simuserver/internal/ring"
	"github.com/qumplus/simuserver/pkg/logging"
)

// Defaults.
const (
	DefaultInterval    = time.Second
	DefaultHistorySize = 100
	DefaultDiskPath    = "/"

	// stopTimeout bounds how long Stop waits for the loop to exit.
	stopTimeout = time.Second
)

// Options configures a Monitor.
type Options struct {
	Interval    time.Duration
	HistorySize int
	DiskPath    string
	Sampler     Sampler
	Logger      *slog.Logger

	// OnSample, if set, is called from the sampling goroutine after every
	// successful tick.
	OnSample func(Sample)

	// now overrides the clock in tests.
	now func() time.Time
}

// Monitor is the background performance sampler.
type Monitor struct {
	interval time.Duration
	diskPath string
	sampler  Sampler
	log      *slog.Logger
	onSample func(Sample)
	now      func() time.Time
	rps      *rpsCounter

	mu       sync.Mutex
	running  bool
	run      *run
	baseline NetCounters

	dataMu  sync.Mutex
	cpu     *ring.Buffer[CPUPoint]
	memory  *ring.Buffer[MemoryPoint]
	network *ring.Buffer[NetworkPoint]
}

// run is the state of one sampling loop.
type run struct {
	stop chan struct{}
	done chan struct{}
}

// NewMonitor creates a stopped Monitor and captures the initial network
// baseline.
func NewMonitor(opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = DefaultHistorySize
	}
	if opts.DiskPath == "" {
		opts.DiskPath = DefaultDiskPath
	}
	if opts.Sampler == nil {
		opts.Sampler = NewHostSampler()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.now == nil {
		opts.now = time.Now
	}

	m := &Monitor{
		interval: opts.Interval,
		diskPath: opts.DiskPath,
		sampler:  opts.Sampler,
		log:      opts.Logger.With("component", "perf"),
		onSample: opts.OnSample,
		now:      opts.now,
		rps:      newRPSCounter(opts.now),
		cpu:      ring.New[CPUPoint](opts.HistorySize),
		memory:   ring.New[MemoryPoint](opts.HistorySize),
		network:  ring.New[NetworkPoint](opts.HistorySize),
	}

	if nc, err := m.sampler.Network(context.Background()); err == nil {
		m.baseline = nc
	} else {
		m.log.Warn("failed to read initial network counters", "error", err)
	}
	return m
}

// Start launches the sampling loop. It returns false if the loop is already
// running.
func (m *Monitor) Start() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return false
	}

	baseline := m.baseline
	if nc, err := m.sampler.Network(context.Background()); err == nil {
		baseline = nc
	} else {
		m.log.Warn("failed to refresh network baseline", "error", err)
	}

	r := &run{stop: make(chan struct{}), done: make(chan struct{})}
	m.run = r
	m.running = true
	go m.loop(r, baseline)

	m.log.Debug("performance monitor started", "interval", m.interval)
	return true
}

// Stop signals the loop and waits up to one second for it to exit. It returns
// false if the monitor was not running. A tick already in progress may still
// append its sample after Stop returns.
func (m *Monitor) Stop() bool {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return false
	}
	r := m.run
	m.running = false
	m.run = nil
	m.mu.Unlock()

	close(r.stop)

	timer := time.NewTimer(stopTimeout)
	defer timer.Stop()
	select {
	case <-r.done:
	case <-timer.C:
		m.log.Warn("performance monitor did not stop in time")
	}

	m.log.Debug("performance monitor stopped")
	return true
}

// IsRunning reports whether the loop is running.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) loop(r *run, baseline NetCounters) {
	defer close(r.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	last := baseline
	for {
		last = m.tick(r, last)

		select {
		case <-r.stop:
			return
		case <-ticker.C:
		}
	}
}

// tick takes one sample and returns the network counters to diff against
// next time.
func (m *Monitor) tick(r *run, last NetCounters) NetCounters {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-r.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	m.rps.tick()

	cpuPct, err := m.sampler.CPUPercent(ctx)
	if err != nil {
		m.log.Warn("sampling failed", "error", err)
		return last
	}
	vm, err := m.sampler.Memory(ctx)
	if err != nil {
		m.log.Warn("sampling failed", "error", err)
		return last
	}
	nc, err := m.sampler.Network(ctx)
	if err != nil {
		m.log.Warn("sampling failed", "error", err)
		return last
	}

	s := Sample{
		Timestamp:         m.now(),
		CPUPercent:        cpuPct,
		MemoryPercent:     vm.UsedPercent,
		MemoryUsedMB:      float64(vm.Used) / bytesPerMB,
		MemoryAvailableMB: float64(vm.Available) / bytesPerMB,
		NetSentDelta:      int64(nc.BytesSent) - int64(last.BytesSent),
		NetRecvDelta:      int64(nc.BytesRecv) - int64(last.BytesRecv),
	}
	m.append(s)

	if m.onSample != nil {
		m.onSample(s)
	}
	return nc
}

func (m *Monitor) append(s Sample) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()

	m.cpu.Push(CPUPoint{Timestamp: s.Timestamp, Value: s.CPUPercent})
	m.memory.Push(MemoryPoint{
		Timestamp:   s.Timestamp,
		Percent:     s.MemoryPercent,
		UsedMB:      s.MemoryUsedMB,
		AvailableMB: s.MemoryAvailableMB,
	})
	m.network.Push(NetworkPoint{
		Timestamp:      s.Timestamp,
		SentBytesDelta: s.NetSentDelta,
		RecvBytesDelta: s.NetRecvDelta,
	})
}

// RecordRequest counts one handled request towards requests per second.
func (m *Monitor) RecordRequest() {
	m.rps.inc()
}

// RequestsPerSecond returns the rate computed at the last window reset.
func (m *Monitor) RequestsPerSecond() float64 {
	return m.rps.value()
}

// History returns copies of the bounded histories.
func (m *Monitor) History() History {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()

	return History{
		CPU:     m.cpu.Snapshot(),
		Memory:  m.memory.Snapshot(),
		Network: m.network.Snapshot(),
	}
}

// ClearHistory empties the histories.
func (m *Monitor) ClearHistory() {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()

	m.cpu.Clear()
	m.memory.Clear()
	m.network.Clear()
}

// CurrentSnapshot reads the counters now, independent of the loop.
func (m *Monitor) CurrentSnapshot(ctx context.Context) Snapshot {
	snap := Snapshot{Timestamp: m.now()}
	fail := func(err error) Snapshot {
		m.log.Warn("snapshot failed", "error", err)
		return Snapshot{Timestamp: snap.Timestamp, Error: err.Error()}
	}

	cpuPct, err := m.sampler.CPUPercent(ctx)
	if err != nil {
		return fail(err)
	}
	count, err := m.sampler.CPUCount(ctx)
	if err != nil {
		return fail(err)
	}
	vm, err := m.sampler.Memory(ctx)
	if err != nil {
		return fail(err)
	}
	du, err := m.sampler.Disk(ctx, m.diskPath)
	if err != nil {
		return fail(err)
	}

	snap.CPU = &CPUSnapshot{Percent: cpuPct, Count: count}
	snap.Memory = &MemorySnapshot{
		Percent:     vm.UsedPercent,
		UsedMB:      round2(float64(vm.Used) / bytesPerMB),
		AvailableMB: round2(float64(vm.Available) / bytesPerMB),
		TotalMB:     round2(float64(vm.Total) / bytesPerMB),
	}
	snap.Disk = &DiskSnapshot{
		Percent: du.UsedPercent,
		UsedGB:  round2(float64(du.Used) / bytesPerGB),
		FreeGB:  round2(float64(du.Free) / bytesPerGB),
	}
	snap.Network = &NetworkSnapshot{RequestsPerSecond: round2(m.rps.value())}
	return snap
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
