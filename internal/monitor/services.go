package monitor

import "slices"

// SortServices returns services ordered by name using the same collation as
// group names. The input is not modified.
func SortServices(services []Service) []Service {
	out := slices.Clone(services)
	if out == nil {
		out = []Service{}
	}
	slices.SortStableFunc(out, func(a, b Service) int {
		return CompareNames(a.Name, b.Name)
	})
	return out
}

// CountRunning returns how many services are active.
func CountRunning(services []Service) int {
	n := 0
	for _, s := range services {
		if s.Running() {
			n++
		}
	}
	return n
}
