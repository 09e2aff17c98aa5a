package config

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/taskview/internal/errors"
	"github.com/rileyhilliard/taskview/internal/monitor"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	// Check version
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but taskview only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade taskview, or regenerate the file with 'taskview init'.")
	}

	if _, err := ParsePage(string(cfg.StartPage)); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("start_page '%s' isn't a page", cfg.StartPage),
			"Use one of: "+joinPages())
	}

	if _, err := ParseSpeed(string(cfg.RefreshSpeed)); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("refresh_speed '%s' isn't valid", cfg.RefreshSpeed),
			"Use 'high', 'normal', 'low', or 'paused'.")
	}

	if cfg.HistorySize < 1 || cfg.HistorySize > MaxHistorySize {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("history_size needs to be 1-%d (got %d)", MaxHistorySize, cfg.HistorySize),
			"60 keeps a minute of samples at normal speed.")
	}

	if err := validateSort(cfg.Sort); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'sort' section in your config.")
	}

	if err := validateOutput(cfg.Output); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'output' section in your config.")
	}

	for _, th := range []struct {
		name string
		v    ThresholdValues
	}{
		{"cpu", cfg.Thresholds.CPU},
		{"memory", cfg.Thresholds.Memory},
		{"gpu", cfg.Thresholds.GPU},
	} {
		if err := validateThresholds(th.name, th.v); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'thresholds' section in your config.")
		}
	}

	return nil
}

// SortSetting converts the configured sort into the engine's form.
// Call Validate first; invalid values fall back to the default sort.
func (c *Config) SortSetting() monitor.SortConfig {
	key, err := monitor.ParseSortKey(c.Sort.Key)
	if err != nil {
		return monitor.DefaultSort
	}
	dir, err := monitor.ParseSortDirection(c.Sort.Direction)
	if err != nil {
		return monitor.DefaultSort
	}
	return monitor.SortConfig{Key: key, Direction: dir}
}

func validateSort(s SortConfig) error {
	if _, err := monitor.ParseSortKey(s.Key); err != nil {
		return fmt.Errorf("sort.key '%s' isn't valid - use name, pid, cpu, memory, disk, network, or gpu", s.Key)
	}
	if _, err := monitor.ParseSortDirection(s.Direction); err != nil {
		return fmt.Errorf("sort.direction '%s' isn't valid - use 'asc' or 'desc'", s.Direction)
	}
	return nil
}

// validateOutput checks output configuration.
func validateOutput(out OutputConfig) error {
	validColors := map[string]bool{"auto": true, "always": true, "never": true, "": true}
	if !validColors[out.Color] {
		return fmt.Errorf("output.color '%s' isn't valid - use 'auto', 'always', or 'never'", out.Color)
	}
	return nil
}

// validateThresholds checks a threshold configuration for a single metric type.
func validateThresholds(name string, thresh ThresholdValues) error {
	if thresh.Warning < 0 || thresh.Warning > 100 {
		return fmt.Errorf("thresholds.%s.warning needs to be 0-100 (got %d)", name, thresh.Warning)
	}
	if thresh.Critical < 0 || thresh.Critical > 100 {
		return fmt.Errorf("thresholds.%s.critical needs to be 0-100 (got %d)", name, thresh.Critical)
	}
	// Warning should be less than critical (if both are non-zero)
	if thresh.Warning > 0 && thresh.Critical > 0 && thresh.Warning >= thresh.Critical {
		return fmt.Errorf("thresholds.%s.warning (%d%%) is higher than critical (%d%%) - should be the other way around", name, thresh.Warning, thresh.Critical)
	}
	return nil
}

func joinPages() string {
	names := make([]string, len(Pages))
	for i, p := range Pages {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
