package monitor

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	tverrors "github.com/rileyhilliard/taskview/internal/errors"
	"github.com/rileyhilliard/taskview/internal/monitor/parsers"
)

// Startup scopes.
const (
	ScopeUser   = "user"
	ScopeSystem = "system"
)

// StartupItem is one XDG autostart entry. The list is read-only; enabling or
// disabling entries is left to the desktop's own settings.
type StartupItem struct {
	Name        string `json:"name" yaml:"name"`
	Exec        string `json:"exec" yaml:"exec"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Scope       string `json:"scope" yaml:"scope"`
	Path        string `json:"path" yaml:"path"`
}

// AutostartDir is one directory searched for .desktop files.
type AutostartDir struct {
	Path  string
	Scope string
}

// DefaultAutostartDirs returns the XDG autostart search path, highest
// precedence first: $XDG_CONFIG_HOME/autostart, then each entry of
// $XDG_CONFIG_DIRS (default /etc/xdg) with /autostart appended.
func DefaultAutostartDirs() []AutostartDir {
	var dirs []AutostartDir
	if home, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, AutostartDir{Path: filepath.Join(home, "autostart"), Scope: ScopeUser})
	}

	system := os.Getenv("XDG_CONFIG_DIRS")
	if system == "" {
		system = "/etc/xdg"
	}
	for _, d := range filepath.SplitList(system) {
		if d == "" {
			continue
		}
		dirs = append(dirs, AutostartDir{Path: filepath.Join(d, "autostart"), Scope: ScopeSystem})
	}
	return dirs
}

// ScanAutostart reads every .desktop file in dirs. A file name seen in an
// earlier directory shadows the same name later on, so a user entry
// overrides the system one. Hidden entries are dropped after shadowing,
// which is how a user hides a system entry. Missing directories are skipped
// and unparsable files are reported through skip, if set.
func ScanAutostart(dirs []AutostartDir, skip func(path string, err error)) ([]StartupItem, error) {
	seen := make(map[string]bool)
	var items []StartupItem

	for _, dir := range dirs {
		files, err := os.ReadDir(dir.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, tverrors.WrapWithCode(err, tverrors.ErrSource,
				"Couldn't read autostart directory "+dir.Path,
				"Check the directory's permissions.")
		}

		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".desktop") || seen[f.Name()] {
				continue
			}
			seen[f.Name()] = true

			path := filepath.Join(dir.Path, f.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				if skip != nil {
					skip(path, err)
				}
				continue
			}
			entry, err := parsers.ParseDesktopEntry(data)
			if err != nil {
				if skip != nil {
					skip(path, err)
				}
				continue
			}
			if entry.Hidden {
				continue
			}

			name := entry.Name
			if name == "" {
				name = strings.TrimSuffix(f.Name(), ".desktop")
			}
			items = append(items, StartupItem{
				Name:        name,
				Exec:        entry.Exec,
				Description: entry.Comment,
				Enabled:     entry.Enabled,
				Scope:       dir.Scope,
				Path:        path,
			})
		}
	}
	return items, nil
}

// FilterStartup keeps entries whose name or description contains query.
func FilterStartup(items []StartupItem, query string) []StartupItem {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}

	out := make([]StartupItem, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), query) ||
			strings.Contains(strings.ToLower(it.Description), query) {
			out = append(out, it)
		}
	}
	return out
}

// SortStartup returns entries ordered by name. The input is not modified.
func SortStartup(items []StartupItem) []StartupItem {
	out := slices.Clone(items)
	if out == nil {
		out = []StartupItem{}
	}
	slices.SortStableFunc(out, func(a, b StartupItem) int {
		return CompareNames(a.Name, b.Name)
	})
	return out
}

// CountEnabled returns how many entries run at login.
func CountEnabled(items []StartupItem) int {
	n := 0
	for _, it := range items {
		if it.Enabled {
			n++
		}
	}
	return n
}

func (c *Collector) collectStartup(ctx context.Context) ([]StartupItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ScanAutostart(c.autostart, func(path string, err error) {
		c.log.Debug("skipping autostart entry %s: %v", path, err)
	})
}
