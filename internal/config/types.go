package config

import (
	"fmt"
	"strings"
	"time"
)

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// History size bounds.
const (
	DefaultHistorySize = 60
	MaxHistorySize     = 3600
)

// Config represents the complete taskview configuration file.
type Config struct {
	Version      int          `yaml:"version" mapstructure:"version"`
	StartPage    Page         `yaml:"start_page" mapstructure:"start_page"`
	RefreshSpeed Speed        `yaml:"refresh_speed" mapstructure:"refresh_speed"`
	HistorySize  int          `yaml:"history_size" mapstructure:"history_size"`
	Sort         SortConfig   `yaml:"sort" mapstructure:"sort"`
	Output       OutputConfig `yaml:"output" mapstructure:"output"`
	Thresholds   Thresholds   `yaml:"thresholds" mapstructure:"thresholds"`

	// LogFile receives debug logs while the dashboard owns the terminal.
	// Supports ~ and ${HOME}/${USER}.
	LogFile string `yaml:"log_file,omitempty" mapstructure:"log_file"`
}

// SortConfig is the initial sort for process lists.
type SortConfig struct {
	// Key is one of name, pid, cpu, memory, disk, network, gpu.
	Key string `yaml:"key" mapstructure:"key"`

	// Direction is asc or desc.
	Direction string `yaml:"direction" mapstructure:"direction"`
}

// OutputConfig controls terminal output formatting.
type OutputConfig struct {
	// Color mode: "auto", "always", or "never".
	// "auto" disables color when output is piped.
	Color string `yaml:"color" mapstructure:"color"`
}

// Thresholds set the percentages where meters turn yellow and red.
type Thresholds struct {
	CPU    ThresholdValues `yaml:"cpu" mapstructure:"cpu"`
	Memory ThresholdValues `yaml:"memory" mapstructure:"memory"`
	GPU    ThresholdValues `yaml:"gpu" mapstructure:"gpu"`
}

// ThresholdValues are warning and critical percentages (0-100).
type ThresholdValues struct {
	Warning  int `yaml:"warning" mapstructure:"warning"`
	Critical int `yaml:"critical" mapstructure:"critical"`
}

// Page is one of the dashboard's views.
type Page string

const (
	PageProcesses   Page = "processes"
	PagePerformance Page = "performance"
	PageUsers       Page = "users"
	PageServices    Page = "services"
	PageAppHistory  Page = "app-history"
	PageDetails     Page = "details"
	PageStartup     Page = "startup"
)

// Pages lists every page in tab order. New pages go at the end so the
// number keys of existing ones don't move.
var Pages = []Page{PageProcesses, PagePerformance, PageUsers, PageServices, PageAppHistory, PageDetails, PageStartup}

// ParsePage converts a page name to a Page.
func ParsePage(s string) (Page, error) {
	p := Page(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Pages {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown page %q", s)
}

// BaseInterval is how often the page refreshes at normal speed.
func (p Page) BaseInterval() time.Duration {
	switch p {
	case PageUsers, PageDetails:
		return 2 * time.Second
	case PageStartup:
		return 30 * time.Second
	case PageAppHistory:
		return 5 * time.Second
	case PageServices:
		return 10 * time.Second
	default:
		return time.Second
	}
}

// Title is the page's display name.
func (p Page) Title() string {
	switch p {
	case PageProcesses:
		return "Processes"
	case PagePerformance:
		return "Performance"
	case PageUsers:
		return "Users"
	case PageServices:
		return "Services"
	case PageAppHistory:
		return "App history"
	case PageDetails:
		return "Details"
	case PageStartup:
		return "Startup"
	default:
		return string(p)
	}
}

// Speed scales every page's refresh interval.
type Speed string

const (
	SpeedHigh   Speed = "high"
	SpeedNormal Speed = "normal"
	SpeedLow    Speed = "low"
	SpeedPaused Speed = "paused"
)

// Speeds lists every speed in the order the dashboard cycles through them.
var Speeds = []Speed{SpeedHigh, SpeedNormal, SpeedLow, SpeedPaused}

// ParseSpeed converts a speed name to a Speed.
func ParseSpeed(s string) (Speed, error) {
	sp := Speed(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Speeds {
		if sp == known {
			return sp, nil
		}
	}
	return "", fmt.Errorf("unknown refresh speed %q", s)
}

// Multiplier scales a base interval. Paused returns 0.
func (s Speed) Multiplier() float64 {
	switch s {
	case SpeedHigh:
		return 0.5
	case SpeedLow:
		return 2
	case SpeedPaused:
		return 0
	default:
		return 1
	}
}

// Interval scales base by the speed. Zero means no automatic refresh.
func (s Speed) Interval(base time.Duration) time.Duration {
	return time.Duration(float64(base) * s.Multiplier())
}

// Next returns the speed after s in the cycle high → normal → low → paused.
func (s Speed) Next() Speed {
	for i, known := range Speeds {
		if s == known {
			return Speeds[(i+1)%len(Speeds)]
		}
	}
	return SpeedNormal
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:      CurrentConfigVersion,
		StartPage:    PageProcesses,
		RefreshSpeed: SpeedNormal,
		HistorySize:  DefaultHistorySize,
		Sort: SortConfig{
			Key:       "name",
			Direction: "asc",
		},
		Output: OutputConfig{
			Color: "auto",
		},
		Thresholds: Thresholds{
			CPU:    ThresholdValues{Warning: 70, Critical: 90},
			Memory: ThresholdValues{Warning: 70, Critical: 90},
			GPU:    ThresholdValues{Warning: 70, Critical: 90},
		},
	}
}
