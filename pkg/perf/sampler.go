package perf

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
)

// MemoryStat is a virtual memory reading in bytes.
type MemoryStat struct {
	Total       uint64
	Available   uint64
	Used        uint64
	UsedPercent float64
}

// DiskStat is a filesystem usage reading in bytes.
type DiskStat struct {
	Total       uint64
	Free        uint64
	Used        uint64
	UsedPercent float64
}

// NetCounters are cumulative byte counters across all interfaces.
type NetCounters struct {
	BytesSent uint64
	BytesRecv uint64
}

// Sampler reads host counters.
type Sampler interface {
	CPUPercent(ctx context.Context) (float64, error)
	CPUCount(ctx context.Context) (int, error)
	Memory(ctx context.Context) (MemoryStat, error)
	Disk(ctx context.Context, path string) (DiskStat, error)
	Network(ctx context.Context) (NetCounters, error)
}

// HostSampler reads counters from the local machine with gopsutil.
type HostSampler struct{}

// NewHostSampler returns a Sampler backed by gopsutil.
func NewHostSampler() *HostSampler {
	return &HostSampler{}
}

// CPUPercent returns system-wide utilisation since the previous call.
func (HostSampler) CPUPercent(ctx context.Context) (float64, error) {
	pct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("cpu percent: %w", err)
	}
	if len(pct) == 0 {
		return 0, fmt.Errorf("cpu percent: no data")
	}
	return pct[0], nil
}

func (HostSampler) CPUCount(ctx context.Context) (int, error) {
	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("cpu count: %w", err)
	}
	return n, nil
}

func (HostSampler) Memory(ctx context.Context) (MemoryStat, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryStat{}, fmt.Errorf("virtual memory: %w", err)
	}
	return MemoryStat{
		Total:       vm.Total,
		Available:   vm.Available,
		Used:        vm.Used,
		UsedPercent: vm.UsedPercent,
	}, nil
}

func (HostSampler) Disk(ctx context.Context, path string) (DiskStat, error) {
	u, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return DiskStat{}, fmt.Errorf("disk usage %s: %w", path, err)
	}
	return DiskStat{
		Total:       u.Total,
		Free:        u.Free,
		Used:        u.Used,
		UsedPercent: u.UsedPercent,
	}, nil
}

func (HostSampler) Network(ctx context.Context) (NetCounters, error) {
	counters, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return NetCounters{}, fmt.Errorf("network counters: %w", err)
	}
	if len(counters) == 0 {
		return NetCounters{}, fmt.Errorf("network counters: no data")
	}
	return NetCounters{BytesSent: counters[0].BytesSent, BytesRecv: counters[0].BytesRecv}, nil
}
