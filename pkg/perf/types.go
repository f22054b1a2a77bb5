package perf

import "time"

const (
	bytesPerMB = 1024 * 1024
	bytesPerGB = 1024 * 1024 * 1024
)

// Sample is one tick of the sampling loop.
type Sample struct {
	Timestamp         time.Time
	CPUPercent        float64
	MemoryPercent     float64
	MemoryUsedMB      float64
	MemoryAvailableMB float64
	NetSentDelta      int64
	NetRecvDelta      int64
}

// CPUPoint is an entry of the CPU history.
type CPUPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// MemoryPoint is an entry of the memory history.
type MemoryPoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Percent     float64   `json:"percent"`
	UsedMB      float64   `json:"used_mb"`
	AvailableMB float64   `json:"available_mb"`
}

// NetworkPoint is an entry of the network history.
type NetworkPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	SentBytesDelta int64     `json:"sent_bytes_delta"`
	RecvBytesDelta int64     `json:"recv_bytes_delta"`
}

// History holds copies of the three bounded histories, oldest first.
type History struct {
	CPU     []CPUPoint     `json:"cpu"`
	Memory  []MemoryPoint  `json:"memory"`
	Network []NetworkPoint `json:"network"`
}

// Snapshot is an on-demand reading. When a read fails only Error and
// Timestamp are set.
type Snapshot struct {
	CPU       *CPUSnapshot     `json:"cpu,omitempty"`
	Memory    *MemorySnapshot  `json:"memory,omitempty"`
	Disk      *DiskSnapshot    `json:"disk,omitempty"`
	Network   *NetworkSnapshot `json:"network,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Error     string           `json:"error,omitempty"`
}

type CPUSnapshot struct {
	Percent float64 `json:"percent"`
	Count   int     `json:"count"`
}

type MemorySnapshot struct {
	Percent     float64 `json:"percent"`
	UsedMB      float64 `json:"used_mb"`
	AvailableMB float64 `json:"available_mb"`
	TotalMB     float64 `json:"total_mb"`
}

type DiskSnapshot struct {
	Percent float64 `json:"percent"`
	UsedGB  float64 `json:"used_gb"`
	FreeGB  float64 `json:"free_gb"`
}

type NetworkSnapshot struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
}
