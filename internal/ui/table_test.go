package ui

import (
	"testing"

	"github.com/charmbracelet/bubbles/table"
	"github.com/stretchr/testify/assert"
)

func TestDefaultTableStyle(t *testing.T) {
	style := DefaultTableStyle()

	assert.NotPanics(t, func() {
		_ = style.Header.Render("test")
		_ = style.Cell.Render("test")
		_ = style.Selected.Render("test")
		_ = style.Border.Render("test")
	})
}

func TestNewTable(t *testing.T) {
	columns := []TableColumn{
		{Title: "Name", Width: 20},
		{Title: "CPU", Width: 8},
	}
	rows := []table.Row{
		{"chrome", "12.0%"},
		{"notes", "0.4%"},
	}

	view := NewTable(columns, rows).View()
	assert.Contains(t, view, "Name")
	assert.Contains(t, view, "CPU")
	assert.Contains(t, view, "chrome")
	assert.Contains(t, view, "notes")
}

func TestRenderSimpleTable(t *testing.T) {
	assert.Empty(t, RenderSimpleTable([]TableColumn{{Title: "Name", Width: 10}}, nil))

	out := RenderSimpleTable(
		[]TableColumn{{Title: "Name", Width: 10}, {Title: "Count", Width: 6}},
		[][]string{{"sshd", "3"}},
	)
	assert.Contains(t, out, "sshd")
	assert.Contains(t, out, "Count")
}
