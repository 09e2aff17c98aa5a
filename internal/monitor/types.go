package monitor

import "time"

// Process is one polled entity: a process, or a member of a user's process list.
// PID is only unique within a single snapshot; aggregation keys on Name.
type Process struct {
	PID               int32   `json:"pid" yaml:"pid"`
	Name              string  `json:"name" yaml:"name"`
	Username          string  `json:"username,omitempty" yaml:"username,omitempty"`
	CPUPercent        float64 `json:"cpu_percent" yaml:"cpu_percent"`
	MemoryBytes       uint64  `json:"memory_bytes" yaml:"memory_bytes"`
	DiskBytesPerSec   uint64  `json:"disk_bytes_per_sec" yaml:"disk_bytes_per_sec"`
	NetworkBitsPerSec uint64  `json:"network_bits_per_sec" yaml:"network_bits_per_sec"`
	GPUPercent        float64 `json:"gpu_percent" yaml:"gpu_percent"`
	Threads           int32   `json:"threads,omitempty" yaml:"threads,omitempty"`
	IsApp             bool    `json:"is_app" yaml:"is_app"`
	Icon              string  `json:"icon,omitempty" yaml:"icon,omitempty"`
	// Status is the scheduler state ("running", "sleep", ...). Only the
	// details source fills it.
	Status string `json:"status,omitempty" yaml:"status,omitempty"`
}

// Snapshot is everything returned by one Source.Poll call. A source only fills
// the parts its page needs; the rest stay nil.
type Snapshot struct {
	Timestamp time.Time
	Processes []Process
	Stats     *SystemStats
	Users     []UserSession
	Services  []Service
	Startup   []StartupItem
}

// SystemStats contains machine-wide counters for one poll.
type SystemStats struct {
	TotalMemory       uint64        `json:"total_memory" yaml:"total_memory"`
	UsedMemory        uint64        `json:"used_memory" yaml:"used_memory"`
	CachedMemory      uint64        `json:"cached_memory" yaml:"cached_memory"`
	TotalCPUPercent   float64       `json:"total_cpu_percent" yaml:"total_cpu_percent"`
	PerCorePercent    []float64     `json:"per_core_percent" yaml:"per_core_percent"`
	ProcessCount      int           `json:"process_count" yaml:"process_count"`
	ThreadCount       int64         `json:"thread_count" yaml:"thread_count"`
	Uptime            time.Duration `json:"uptime" yaml:"uptime"`
	DiskBytesPerSec   uint64        `json:"disk_bytes_per_sec" yaml:"disk_bytes_per_sec"`
	NetworkBitsPerSec uint64        `json:"network_bits_per_sec" yaml:"network_bits_per_sec"`
	GPUPercent        float64       `json:"gpu_percent" yaml:"gpu_percent"`
	Disks             []DiskInfo    `json:"disks" yaml:"disks"`
	Hardware          HardwareInfo  `json:"hardware" yaml:"hardware"`
}

// MemoryPercent returns used memory as a percentage of total, or 0 when the
// total is unknown.
func (s *SystemStats) MemoryPercent() float64 {
	if s == nil || s.TotalMemory == 0 {
		return 0
	}
	return float64(s.UsedMemory) / float64(s.TotalMemory) * 100
}

// DiskInfo describes one mounted filesystem.
type DiskInfo struct {
	Name         string  `json:"name" yaml:"name"`
	MountPoint   string  `json:"mount_point" yaml:"mount_point"`
	FSType       string  `json:"fs_type" yaml:"fs_type"`
	TotalBytes   uint64  `json:"total_bytes" yaml:"total_bytes"`
	FreeBytes    uint64  `json:"free_bytes" yaml:"free_bytes"`
	UsagePercent float64 `json:"usage_percent" yaml:"usage_percent"`
}

// HardwareInfo is static machine information, filled once per collector.
type HardwareInfo struct {
	CPUName           string `json:"cpu_name" yaml:"cpu_name"`
	PhysicalCores     int    `json:"physical_cores" yaml:"physical_cores"`
	LogicalProcessors int    `json:"logical_processors" yaml:"logical_processors"`
}

// UserSession is a logged-in (or process-owning) user and the processes they own.
type UserSession struct {
	Username  string    `json:"username" yaml:"username"`
	Terminal  string    `json:"terminal,omitempty" yaml:"terminal,omitempty"`
	Host      string    `json:"host,omitempty" yaml:"host,omitempty"`
	Status    string    `json:"status" yaml:"status"`
	Processes []Process `json:"processes" yaml:"processes"`
}

// Session status values.
const (
	SessionActive       = "Active"
	SessionDisconnected = "Disconnected"
)

// Service is one system service as reported by the service manager.
type Service struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Status      string `json:"status" yaml:"status"`
	SubState    string `json:"sub_state" yaml:"sub_state"`
	PID         int32  `json:"pid,omitempty" yaml:"pid,omitempty"`
}

// Running reports whether the service is currently active.
func (s Service) Running() bool {
	return s.Status == "active"
}
