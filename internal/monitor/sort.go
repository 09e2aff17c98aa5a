package monitor

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the field groups are ordered by.
type SortKey string

const (
	SortByName    SortKey = "name"
	SortByCPU     SortKey = "cpu"
	SortByMemory  SortKey = "memory"
	SortByDisk    SortKey = "disk"
	SortByNetwork SortKey = "network"
	SortByGPU     SortKey = "gpu"
	// SortByPID orders groups by their leader's PID.
	SortByPID SortKey = "pid"
)

// SortKeys lists every key in column order.
var SortKeys = []SortKey{SortByName, SortByCPU, SortByMemory, SortByDisk, SortByNetwork, SortByGPU, SortByPID}

// String returns a human-readable label for the sort key.
func (k SortKey) String() string {
	switch k {
	case SortByName:
		return "name"
	case SortByCPU:
		return "CPU"
	case SortByMemory:
		return "memory"
	case SortByDisk:
		return "disk"
	case SortByNetwork:
		return "network"
	case SortByGPU:
		return "GPU"
	case SortByPID:
		return "PID"
	default:
		return string(k)
	}
}

// ParseSortKey converts a config or flag value into a SortKey.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortKeys, k) {
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// SortDirection is ascending or descending.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// ParseSortDirection converts a config or flag value into a SortDirection.
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// SortConfig is the active sort column and direction.
type SortConfig struct {
	Key       SortKey       `json:"key" yaml:"key"`
	Direction SortDirection `json:"direction" yaml:"direction"`
}

// DefaultSort orders groups by name, ascending.
var DefaultSort = SortConfig{Key: SortByName, Direction: Ascending}

// Toggle returns the config after the user picks key: picking the active key
// while descending flips to ascending, anything else sorts descending.
func (c SortConfig) Toggle(key SortKey) SortConfig {
	if c.Key == key && c.Direction == Descending {
		return SortConfig{Key: key, Direction: Ascending}
	}
	return SortConfig{Key: key, Direction: Descending}
}

// String renders the config as "cpu desc".
func (c SortConfig) String() string {
	return string(c.Key) + " " + string(c.Direction)
}

// collators are pooled because a collate.Collator is not safe for concurrent use.
var collators = sync.Pool{
	New: func() any {
		return collate.New(language.English)
	},
}

// CompareNames orders two names the way a user would expect from a
// locale-aware list: case and accents are secondary to the base letters.
func CompareNames(a, b string) int {
	c := collators.Get().(*collate.Collator)
	defer collators.Put(c)
	return c.CompareString(a, b)
}

// SortGroups returns groups ordered by cfg. The sort is stable, so groups with
// equal keys keep their input (discovery) order in either direction. The input
// slice is not modified.
func SortGroups(groups []Group, cfg SortConfig) []Group {
	out := slices.Clone(groups)
	if out == nil {
		out = []Group{}
	}

	var compare func(a, b *Group) int
	if cfg.Key == SortByName || cfg.Key == "" {
		c := collators.Get().(*collate.Collator)
		defer collators.Put(c)
		compare = func(a, b *Group) int {
			return c.CompareString(a.Name, b.Name)
		}
	} else {
		field := groupField(cfg.Key)
		compare = func(a, b *Group) int {
			return cmp.Compare(field(a), field(b))
		}
	}

	desc := cfg.Direction == Descending
	slices.SortStableFunc(out, func(a, b Group) int {
		r := compare(&a, &b)
		if desc {
			return -r
		}
		return r
	})
	return out
}

// groupField returns the accessor for a numeric sort key.
func groupField(key SortKey) func(*Group) float64 {
	switch key {
	case SortByCPU:
		return func(g *Group) float64 { return g.TotalCPU }
	case SortByMemory:
		return func(g *Group) float64 { return g.TotalMemory }
	case SortByDisk:
		return func(g *Group) float64 { return g.TotalDisk }
	case SortByNetwork:
		return func(g *Group) float64 { return g.TotalNetwork }
	case SortByGPU:
		return func(g *Group) float64 { return g.TotalGPU }
	case SortByPID:
		return func(g *Group) float64 {
			if g.Len() == 0 {
				return 0
			}
			return float64(g.Leader().PID)
		}
	default:
		return func(*Group) float64 { return 0 }
	}
}

// SortProcesses returns a flat process list ordered by cfg, with the same
// stability and collation rules as SortGroups. The input is not modified.
func SortProcesses(procs []Process, cfg SortConfig) []Process {
	out := slices.Clone(procs)
	if out == nil {
		out = []Process{}
	}

	var compare func(a, b *Process) int
	if cfg.Key == SortByName || cfg.Key == "" {
		c := collators.Get().(*collate.Collator)
		defer collators.Put(c)
		compare = func(a, b *Process) int {
			return c.CompareString(a.Name, b.Name)
		}
	} else {
		field := processField(cfg.Key)
		compare = func(a, b *Process) int {
			return cmp.Compare(field(a), field(b))
		}
	}

	desc := cfg.Direction == Descending
	slices.SortStableFunc(out, func(a, b Process) int {
		r := compare(&a, &b)
		if desc {
			return -r
		}
		return r
	})
	return out
}

func processField(key SortKey) func(*Process) float64 {
	switch key {
	case SortByCPU:
		return func(p *Process) float64 { return p.CPUPercent }
	case SortByMemory:
		return func(p *Process) float64 { return float64(p.MemoryBytes) }
	case SortByDisk:
		return func(p *Process) float64 { return float64(p.DiskBytesPerSec) }
	case SortByNetwork:
		return func(p *Process) float64 { return float64(p.NetworkBitsPerSec) }
	case SortByGPU:
		return func(p *Process) float64 { return p.GPUPercent }
	case SortByPID:
		return func(p *Process) float64 { return float64(p.PID) }
	default:
		return func(*Process) float64 { return 0 }
	}
}

// Partition splits sorted groups into apps and background processes. It is a
// filter, not a re-sort: each side keeps the relative order of its input.
func Partition(sorted []Group) (apps, background []Group) {
	apps = make([]Group, 0, len(sorted))
	background = make([]Group, 0, len(sorted))
	for _, g := range sorted {
		if g.IsApp {
			apps = append(apps, g)
		} else {
			background = append(background, g)
		}
	}
	return apps, background
}
