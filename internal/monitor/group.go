package monitor

// Group is the name-keyed aggregate of every same-named process in one
// snapshot. Groups are rebuilt from scratch on every poll; anything that has
// to survive a poll (expansion, selection) lives outside this struct.
type Group struct {
	Name         string    `json:"name" yaml:"name"`
	Members      []Process `json:"members" yaml:"members"`
	TotalCPU     float64   `json:"total_cpu" yaml:"total_cpu"`
	TotalMemory  float64   `json:"total_memory" yaml:"total_memory"`
	TotalDisk    float64   `json:"total_disk" yaml:"total_disk"`
	TotalNetwork float64   `json:"total_network" yaml:"total_network"`
	TotalGPU     float64   `json:"total_gpu" yaml:"total_gpu"`
	IsApp        bool      `json:"is_app" yaml:"is_app"`
	Icon         string    `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// Len returns the number of member processes.
func (g Group) Len() int {
	return len(g.Members)
}

// Leader returns the first-discovered member, the one a group row selects.
func (g Group) Leader() Process {
	return g.Members[0]
}

// Contains reports whether pid is one of the group's members.
func (g Group) Contains(pid int32) bool {
	for _, p := range g.Members {
		if p.PID == pid {
			return true
		}
	}
	return false
}

// Aggregate folds processes into one group per distinct name. Groups come
// back in order of first discovery. Every channel is summed, the group is an
// app if any member is, and the icon prefers an app member's icon over a
// helper's. An empty name is a valid key.
func Aggregate(procs []Process) []Group {
	index := make(map[string]int, len(procs))
	groups := make([]Group, 0, len(procs))

	for _, p := range procs {
		i, ok := index[p.Name]
		if !ok {
			index[p.Name] = len(groups)
			groups = append(groups, Group{
				Name:         p.Name,
				Members:      []Process{p},
				TotalCPU:     p.CPUPercent,
				TotalMemory:  float64(p.MemoryBytes),
				TotalDisk:    float64(p.DiskBytesPerSec),
				TotalNetwork: float64(p.NetworkBitsPerSec),
				TotalGPU:     p.GPUPercent,
				IsApp:        p.IsApp,
				Icon:         p.Icon,
			})
			continue
		}

		g := &groups[i]
		g.Members = append(g.Members, p)
		g.TotalCPU += p.CPUPercent
		g.TotalMemory += float64(p.MemoryBytes)
		g.TotalDisk += float64(p.DiskBytesPerSec)
		g.TotalNetwork += float64(p.NetworkBitsPerSec)
		g.TotalGPU += p.GPUPercent
		if p.IsApp {
			g.IsApp = true
		}
		// First non-empty icon wins, except that an app member's icon
		// replaces whatever a non-app member set.
		if g.Icon == "" && p.Icon != "" {
			g.Icon = p.Icon
		} else if p.IsApp && p.Icon != "" {
			g.Icon = p.Icon
		}
	}

	return groups
}
