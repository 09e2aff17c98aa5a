package parsers

import (
	"bufio"
	"fmt"
	"strings"
)

// Unit is one row of systemctl list-units output.
type Unit struct {
	Name        string
	Load        string
	Active      string
	Sub         string
	Description string
}

// SystemctlArgs are the arguments that produce output ParseSystemctlUnits understands.
var SystemctlArgs = []string{"list-units", "--type=service", "--all", "--no-legend", "--plain", "--no-pager"}

// ParseSystemctlUnits parses the output of systemctl invoked with SystemctlArgs.
// Each line is "NAME LOAD ACTIVE SUB DESCRIPTION...". The ".service" suffix is
// trimmed from names. Blank lines are skipped; a line with fewer than four
// fields is an error.
func ParseSystemctlUnits(output string) ([]Unit, error) {
	var units []Unit
	scanner := bufio.NewScanner(strings.NewReader(output))

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Older systemd prints a status bullet even with --plain
		line = strings.TrimSpace(strings.TrimPrefix(line, "●"))
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, fmt.Errorf("invalid systemctl line %d: %q", lineNum, line)
		}

		units = append(units, Unit{
			Name:        strings.TrimSuffix(fields[0], ".service"),
			Load:        fields[1],
			Active:      fields[2],
			Sub:         fields[3],
			Description: strings.Join(fields[4:], " "),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning systemctl output: %w", err)
	}

	return units, nil
}
