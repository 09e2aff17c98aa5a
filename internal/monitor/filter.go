package monitor

import (
	"strconv"
	"strings"
)

// FilterProcesses keeps processes whose name contains query (case-insensitive)
// or whose PID contains it as a decimal substring. An empty query keeps everything.
func FilterProcesses(procs []Process, query string) []Process {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return procs
	}

	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		if strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strconv.FormatInt(int64(p.PID), 10), query) {
			out = append(out, p)
		}
	}
	return out
}

// FilterServices keeps services whose name or description contains query.
func FilterServices(services []Service, query string) []Service {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return services
	}

	out := make([]Service, 0, len(services))
	for _, s := range services {
		if strings.Contains(strings.ToLower(s.Name), query) ||
			strings.Contains(strings.ToLower(s.Description), query) {
			out = append(out, s)
		}
	}
	return out
}

// FilterUsage keeps app-history entries whose name contains query.
func FilterUsage(entries []AppUsage, query string) []AppUsage {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return entries
	}

	out := make([]AppUsage, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Name), query) {
			out = append(out, e)
		}
	}
	return out
}
