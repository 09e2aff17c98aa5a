package cli

import (
	stderrors "errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func newBareCommand() *cobra.Command {
	return &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"snapshot", "init", "config", "completion", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestRootCommandFlags(t *testing.T) {
	for _, name := range []string{"config", "no-color", "verbose"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "missing persistent flag %q", name)
	}
	for _, name := range []string{"page", "speed", "history", "sort"} {
		assert.NotNil(t, rootCmd.Flags().Lookup(name), "missing dashboard flag %q", name)
	}
}

func TestIsUnknownCommandError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{`unknown command "snap" for "taskview"`, true},
		{"unknown flag: --pgae", true},
		{"unknown shorthand flag: 'x' in -x", true},
		{"config file not found", false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, isUnknownCommandError(stderrors.New(tt.msg)))
		})
	}
}

func TestExtractUnknownCommand(t *testing.T) {
	assert.Equal(t, "snap", extractUnknownCommand(stderrors.New(`unknown command "snap" for "taskview"`)))
	assert.Equal(t, "", extractUnknownCommand(stderrors.New("unknown flag: --pgae")))
	assert.Equal(t, "", extractUnknownCommand(stderrors.New(`unknown command "snap`)))
}

func TestUnknownCommandSuggestion(t *testing.T) {
	assert.Contains(t, rootCmd.SuggestionsFor("snapshto"), "snapshot")
}
