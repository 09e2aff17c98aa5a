package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/taskview/internal/config"
	"github.com/rileyhilliard/taskview/internal/errors"
	"github.com/rileyhilliard/taskview/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the config file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configPathCommand(cmd.OutOrStdout())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config, including defaults and TASKVIEW_* overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowCommand(cmd.OutOrStdout())
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long: `Set one value in the config file, keeping the rest of the file as is.
Keys use dots for sections.

Examples:
  taskview config set refresh_speed high
  taskview config set sort.key cpu
  taskview config set thresholds.cpu.warning 60`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return configSetCommand(cmd.OutOrStdout(), args[0], args[1])
	},
}

func init() {
	configCmd.AddCommand(configPathCmd, configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// configFilePath is the file config commands act on: the --config path, or
// the default location whether or not it exists yet.
func configFilePath() (string, error) {
	if cfgFile != "" {
		return config.ExpandTilde(cfgFile), nil
	}
	return config.DefaultPath()
}

func configPathCommand(out io.Writer) error {
	path, err := configFilePath()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, path)
	return nil
}

func configShowCommand(out io.Writer) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Fprintln(out, ui.MutedStyle().Render("# no config file, showing defaults"))
	} else {
		fmt.Fprintln(out, ui.MutedStyle().Render("# "+path))
	}
	text, err := configYAML(cfg)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, text)
	return err
}

// configSetCommand edits one key and re-validates the whole file. An edit
// that leaves the config invalid is rolled back.
func configSetCommand(out io.Writer, key, value string) error {
	path, err := configFilePath()
	if err != nil {
		return err
	}

	original, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file: "+path, "Check file permissions")
		}
		if err := writeConfigFile(config.DefaultConfig(), path); err != nil {
			return err
		}
	}

	if err := config.SetValue(path, key, value); err != nil {
		restoreConfig(path, original)
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't set '%s'", key),
			"Run 'taskview config show' to see valid keys.")
	}

	cfg, err := config.Load(path)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		restoreConfig(path, original)
		return err
	}

	fmt.Fprintf(out, "%s %s = %s\n", ui.SymbolSuccess, key, value)
	return nil
}

// restoreConfig puts back the bytes a failed edit started from. A nil
// original means the file didn't exist before.
func restoreConfig(path string, original []byte) {
	if original == nil {
		_ = os.Remove(path)
		return
	}
	_ = os.WriteFile(path, original, 0644)
}
