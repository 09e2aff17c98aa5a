package monitor

import "sort"

// ExpandSet records which rows are expanded, keyed by group name (or username
// on the users page). It is deliberately separate from Group: groups are
// regenerated every poll, the set is not, so an expanded row stays expanded.
type ExpandSet struct {
	names map[string]struct{}
}

// NewExpandSet returns an empty set.
func NewExpandSet() *ExpandSet {
	return &ExpandSet{names: make(map[string]struct{})}
}

// Toggle flips name and reports whether it is now expanded.
func (e *ExpandSet) Toggle(name string) bool {
	if _, ok := e.names[name]; ok {
		delete(e.names, name)
		return false
	}
	e.names[name] = struct{}{}
	return true
}

// Set forces name expanded or collapsed.
func (e *ExpandSet) Set(name string, expanded bool) {
	if expanded {
		e.names[name] = struct{}{}
	} else {
		delete(e.names, name)
	}
}

// IsExpanded reports whether name is expanded.
func (e *ExpandSet) IsExpanded(name string) bool {
	_, ok := e.names[name]
	return ok
}

// Len returns how many names are expanded.
func (e *ExpandSet) Len() int {
	return len(e.names)
}

// Names returns the expanded names, sorted.
func (e *ExpandSet) Names() []string {
	out := make([]string, 0, len(e.names))
	for n := range e.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Clear collapses everything.
func (e *ExpandSet) Clear() {
	e.names = make(map[string]struct{})
}

// Selection identifies the selected row across polls. PID is what the user
// clicked; Name is the group it belonged to, used when that PID disappears
// (process exited, PID recycled) so the cursor stays on the same application.
type Selection struct {
	PID  int32
	Name string
	set  bool
}

// Select records a selection.
func (s *Selection) Select(pid int32, name string) {
	s.PID = pid
	s.Name = name
	s.set = true
}

// SelectGroup selects a group through its leader.
func (s *Selection) SelectGroup(g Group) {
	s.Select(g.Leader().PID, g.Name)
}

// Clear drops the selection.
func (s *Selection) Clear() {
	*s = Selection{}
}

// Active reports whether anything is selected.
func (s Selection) Active() bool {
	return s.set
}

// Resolve finds the selected row in groups: the group containing the PID,
// falling back to the group with the remembered name. Returns -1 if neither
// exists or nothing is selected.
func (s Selection) Resolve(groups []Group) int {
	if !s.set {
		return -1
	}
	for i, g := range groups {
		if g.Contains(s.PID) {
			return i
		}
	}
	for i, g := range groups {
		if g.Name == s.Name {
			return i
		}
	}
	return -1
}
