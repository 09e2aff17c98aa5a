package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/taskview/internal/config"
	"github.com/rileyhilliard/taskview/internal/errors"
	"github.com/rileyhilliard/taskview/internal/monitor"
)

// DashboardFlags override config values for one run. Zero values leave the
// config alone.
type DashboardFlags struct {
	Page    string
	Speed   string
	History int
	Sort    string
}

// AddDashboardFlags registers --page, --speed, --history and --sort on a command.
func AddDashboardFlags(cmd *cobra.Command, flags *DashboardFlags) {
	cmd.Flags().StringVarP(&flags.Page, "page", "p", "", "start page ("+strings.Join(pageNames(), ", ")+")")
	cmd.Flags().StringVarP(&flags.Speed, "speed", "s", "", "refresh speed (high, normal, low, paused)")
	cmd.Flags().IntVar(&flags.History, "history", 0, "samples kept per graph")
	cmd.Flags().StringVar(&flags.Sort, "sort", "", "initial sort as key[:direction], e.g. cpu:desc")

	_ = cmd.RegisterFlagCompletionFunc("page", completePages)
	_ = cmd.RegisterFlagCompletionFunc("speed", completeSpeeds)
	_ = cmd.RegisterFlagCompletionFunc("sort", completeSortKeys)
}

// Apply writes the set flags into cfg.
func (f DashboardFlags) Apply(cfg *config.Config) error {
	if f.Page != "" {
		page, err := config.ParsePage(f.Page)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("'%s' isn't a page", f.Page),
				"Use one of: "+strings.Join(pageNames(), ", ")+".")
		}
		cfg.StartPage = page
	}

	if f.Speed != "" {
		speed, err := config.ParseSpeed(f.Speed)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("'%s' isn't a refresh speed", f.Speed),
				"Use high, normal, low, or paused.")
		}
		cfg.RefreshSpeed = speed
	}

	if f.History != 0 {
		if f.History < 1 || f.History > config.MaxHistorySize {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("--history %d is out of range", f.History),
				fmt.Sprintf("Pick a value between 1 and %d.", config.MaxHistorySize))
		}
		cfg.HistorySize = f.History
	}

	if f.Sort != "" {
		sortCfg, err := ParseSortFlag(f.Sort)
		if err != nil {
			return err
		}
		cfg.Sort = config.SortConfig{Key: string(sortCfg.Key), Direction: string(sortCfg.Direction)}
	}

	return nil
}

// ParseSortFlag parses "key" or "key:direction". A bare key sorts by name
// ascending and by everything else descending, which is what clicking a
// column header does.
func ParseSortFlag(s string) (monitor.SortConfig, error) {
	keyPart, dirPart, hasDir := strings.Cut(s, ":")

	key, err := monitor.ParseSortKey(keyPart)
	if err != nil {
		return monitor.SortConfig{}, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' isn't a sort key", keyPart),
			"Use name, pid, cpu, memory, disk, network, or gpu.")
	}

	if !hasDir {
		if key == monitor.SortByName || key == monitor.SortByPID {
			return monitor.SortConfig{Key: key, Direction: monitor.Ascending}, nil
		}
		return monitor.SortConfig{Key: key, Direction: monitor.Descending}, nil
	}

	dir, err := monitor.ParseSortDirection(dirPart)
	if err != nil {
		return monitor.SortConfig{}, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' isn't a sort direction", dirPart),
			"Use asc or desc, e.g. --sort cpu:desc.")
	}
	return monitor.SortConfig{Key: key, Direction: dir}, nil
}
