package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	t.Setenv("USER", "ada")
	home, _ := os.UserHomeDir()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty string", input: "", expected: ""},
		{name: "USER expands", input: "/tmp/${USER}.log", expected: "/tmp/ada.log"},
		{name: "HOME expands", input: "${HOME}/taskview.log", expected: home + "/taskview.log"},
		{name: "tilde unchanged", input: "~/taskview.log", expected: "~/taskview.log"},
		{name: "absolute path unchanged", input: "/var/log/taskview.log", expected: "/var/log/taskview.log"},
		{name: "multiple variables", input: "${HOME}/logs/${USER}", expected: home + "/logs/ada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Expand(tt.input))
		})
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"~", home},
		{"~/logs/taskview.log", filepath.Join(home, "logs/taskview.log")},
		{"~other/file", "~other/file"},
		{"/abs/path", "/abs/path"},
		{"relative/~/path", "relative/~/path"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandTilde(tt.input))
		})
	}
}

func TestGetUser_Fallbacks(t *testing.T) {
	t.Setenv("USER", "")
	t.Setenv("LOGNAME", "fromlogname")
	assert.Equal(t, "fromlogname", getUser())

	t.Setenv("LOGNAME", "")
	t.Setenv("USERNAME", "fromwindows")
	assert.Equal(t, "fromwindows", getUser())
}
