package parsers

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// DesktopEntry is the part of an XDG .desktop file the startup page shows.
type DesktopEntry struct {
	Name    string
	Exec    string
	Comment string
	// Hidden and Enabled are kept apart: Hidden deletes the entry for this
	// user, X-GNOME-Autostart-enabled=false only switches it off.
	Hidden  bool
	Enabled bool
}

const desktopGroup = "Desktop Entry"

// ParseDesktopEntry parses the [Desktop Entry] group of a .desktop file.
// Localized keys ("Name[de]") are ignored in favor of the plain ones. A file
// without the group, or whose Type is set to something other than
// Application, is an error.
func ParseDesktopEntry(data []byte) (DesktopEntry, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		IgnoreContinuation:      true,
		SkipUnrecognizableLines: true,
		KeyValueDelimiters:      "=",
	}, data)
	if err != nil {
		return DesktopEntry{}, fmt.Errorf("invalid desktop file: %w", err)
	}

	sec, err := f.GetSection(desktopGroup)
	if err != nil {
		return DesktopEntry{}, fmt.Errorf("missing [%s] group", desktopGroup)
	}

	if t := sec.Key("Type").String(); t != "" && t != "Application" {
		return DesktopEntry{}, fmt.Errorf("unsupported desktop entry type %q", t)
	}

	entry := DesktopEntry{
		Name:    strings.TrimSpace(sec.Key("Name").String()),
		Exec:    strings.TrimSpace(sec.Key("Exec").String()),
		Comment: strings.TrimSpace(sec.Key("Comment").String()),
		Hidden:  desktopBool(sec.Key("Hidden").String(), false),
		Enabled: desktopBool(sec.Key("X-GNOME-Autostart-enabled").String(), true),
	}
	return entry, nil
}

// desktopBool reads a desktop-entry boolean. The format only allows "true"
// and "false"; anything else keeps the default.
func desktopBool(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true":
		return true
	case "false":
		return false
	}
	return def
}
