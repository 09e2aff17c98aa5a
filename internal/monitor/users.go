package monitor

import "slices"

// UserView is the derived row for one user: their totals plus their processes
// grouped by name, busiest first.
type UserView struct {
	Username     string  `json:"username" yaml:"username"`
	Terminal     string  `json:"terminal,omitempty" yaml:"terminal,omitempty"`
	Host         string  `json:"host,omitempty" yaml:"host,omitempty"`
	Status       string  `json:"status" yaml:"status"`
	ProcessCount int     `json:"process_count" yaml:"process_count"`
	TotalCPU     float64 `json:"total_cpu" yaml:"total_cpu"`
	TotalMemory  float64 `json:"total_memory" yaml:"total_memory"`
	Groups       []Group `json:"groups" yaml:"groups"`
}

// BuildUserViews aggregates each session's processes and orders users by name.
func BuildUserViews(sessions []UserSession) []UserView {
	views := make([]UserView, 0, len(sessions))
	for _, s := range sessions {
		v := UserView{
			Username:     s.Username,
			Terminal:     s.Terminal,
			Host:         s.Host,
			Status:       s.Status,
			ProcessCount: len(s.Processes),
			Groups:       SortGroups(Aggregate(s.Processes), SortConfig{Key: SortByCPU, Direction: Descending}),
		}
		for _, p := range s.Processes {
			v.TotalCPU += p.CPUPercent
			v.TotalMemory += float64(p.MemoryBytes)
		}
		views = append(views, v)
	}

	slices.SortStableFunc(views, func(a, b UserView) int {
		return CompareNames(a.Username, b.Username)
	})
	return views
}
