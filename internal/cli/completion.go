package cli

import (
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/taskview/internal/config"
	"github.com/rileyhilliard/taskview/internal/monitor"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate a completion script for your shell.

  bash:       source <(taskview completion bash)
  zsh:        taskview completion zsh > "${fpath[1]}/_taskview"
  fish:       taskview completion fish | source
  powershell: taskview completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletionV2(out, true)
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		default:
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func completePages(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return pageNames(), cobra.ShellCompDirectiveNoFileComp
}

func completeSpeeds(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"high", "normal", "low", "paused"}, cobra.ShellCompDirectiveNoFileComp
}

func completeSortKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, k := range monitor.SortKeys {
		out = append(out, string(k), string(k)+":asc", string(k)+":desc")
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func pageNames() []string {
	names := make([]string, len(config.Pages))
	for i, p := range config.Pages {
		names[i] = string(p)
	}
	return names
}
