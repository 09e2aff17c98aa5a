package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/taskview/internal/config"
	"github.com/rileyhilliard/taskview/internal/errors"
	"github.com/rileyhilliard/taskview/internal/ui"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Path      string // Where to write; defaults to ~/.config/taskview/config.yaml
	Overwrite bool   // Overwrite existing config without asking
	Defaults  bool   // Skip prompts, write the default config
}

// initAnswers is what the form collects. Everything is a string so huh
// inputs can bind to it directly.
type initAnswers struct {
	StartPage string
	Speed     string
	SortKey   string
	SortDir   string
	Color     string
	History   string
}

func defaultAnswers() initAnswers {
	d := config.DefaultConfig()
	return initAnswers{
		StartPage: string(d.StartPage),
		Speed:     string(d.RefreshSpeed),
		SortKey:   d.Sort.Key,
		SortDir:   d.Sort.Direction,
		Color:     d.Output.Color,
		History:   strconv.Itoa(d.HistorySize),
	}
}

// toConfig turns answers into a validated config.
func (a initAnswers) toConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.StartPage = config.Page(a.StartPage)
	cfg.RefreshSpeed = config.Speed(a.Speed)
	cfg.Sort = config.SortConfig{Key: a.SortKey, Direction: a.SortDir}
	cfg.Output.Color = a.Color

	n, err := strconv.Atoi(strings.TrimSpace(a.History))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("History size '%s' isn't a number", a.History),
			fmt.Sprintf("Enter a whole number between 1 and %d.", config.MaxHistorySize))
	}
	cfg.HistorySize = n

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes a new config file.
func Init(out io.Writer, opts InitOptions) error {
	path := opts.Path
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	path = config.ExpandTilde(path)

	if _, err := os.Stat(path); err == nil && !opts.Overwrite {
		if opts.Defaults {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", path),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("'%s' already exists. Overwrite?", path)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	answers := defaultAnswers()
	if !opts.Defaults {
		if err := initForm(&answers).Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Check terminal compatibility or use --defaults")
		}
	}

	cfg, err := answers.toConfig()
	if err != nil {
		return err
	}

	if err := writeConfigFile(cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Created %s\n\n", ui.SymbolSuccess, path)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  taskview                  - Open the dashboard")
	fmt.Fprintln(out, "  taskview snapshot         - Print grouped processes once")
	fmt.Fprintln(out, "  taskview config set <k> <v> - Change a setting")
	return nil
}

func initForm(a *initAnswers) *huh.Form {
	pageOpts := make([]huh.Option[string], len(config.Pages))
	for i, p := range config.Pages {
		pageOpts[i] = huh.NewOption(p.Title(), string(p))
	}
	speedOpts := make([]huh.Option[string], len(config.Speeds))
	for i, s := range config.Speeds {
		speedOpts[i] = huh.NewOption(string(s), string(s))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Start page").
				Description("The page the dashboard opens on").
				Options(pageOpts...).
				Value(&a.StartPage),
			huh.NewSelect[string]().
				Title("Refresh speed").
				Description("Scales every page's refresh interval").
				Options(speedOpts...).
				Value(&a.Speed),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Sort processes by").
				Options(huh.NewOptions("name", "cpu", "memory", "disk", "network", "gpu")...).
				Value(&a.SortKey),
			huh.NewSelect[string]().
				Title("Sort direction").
				Options(
					huh.NewOption("Ascending", "asc"),
					huh.NewOption("Descending", "desc"),
				).
				Value(&a.SortDir),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color").
				Options(
					huh.NewOption("Auto (off when piped)", "auto"),
					huh.NewOption("Always", "always"),
					huh.NewOption("Never", "never"),
				).
				Value(&a.Color),
			huh.NewInput().
				Title("Graph history").
				Description("Samples kept per graph").
				Value(&a.History).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil {
						return fmt.Errorf("enter a whole number")
					}
					if n < 1 || n > config.MaxHistorySize {
						return fmt.Errorf("must be between 1 and %d", config.MaxHistorySize)
					}
					return nil
				}),
		),
	)
}

// writeConfigFile saves cfg with a short header comment.
func writeConfigFile(cfg *config.Config, path string) error {
	if err := config.Save(cfg, path); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to write config file: %s", path),
			"Check directory permissions")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to read back config file: %s", path), "")
	}

	header := `# taskview configuration
# Change a value with 'taskview config set <key> <value>'

`
	if err := os.WriteFile(path, []byte(header+string(data)), 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to write config file: %s", path),
			"Check directory permissions")
	}
	return nil
}

var (
	initForce    bool
	initDefaults bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file",
	Long: `Create ~/.config/taskview/config.yaml (or the --config path) by answering
a few questions. Use --defaults to write the default config without prompts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Init(cmd.OutOrStdout(), InitOptions{
			Path:      cfgFile,
			Overwrite: initForce,
			Defaults:  initDefaults || !stdinIsTerminal(),
		})
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config")
	initCmd.Flags().BoolVar(&initDefaults, "defaults", false, "write defaults without prompting")
	rootCmd.AddCommand(initCmd)
}

// configYAML renders cfg the way it is written to disk.
func configYAML(cfg *config.Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig, "Failed to encode config", "")
	}
	return string(data), nil
}
