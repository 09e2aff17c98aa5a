package parsers

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// GPU holds the utilization of one device as reported by nvidia-smi.
type GPU struct {
	Name        string
	Percent     float64
	MemoryUsed  int64
	MemoryTotal int64
}

// NvidiaSMIArgs are the arguments that produce output ParseNvidiaSMI understands.
var NvidiaSMIArgs = []string{"--query-gpu=name,utilization.gpu,memory.used,memory.total", "--format=csv,noheader,nounits"}

// ParseNvidiaSMI parses nvidia-smi CSV output, one device per line.
//
// Returns nil, nil if no GPU is available (empty output or an error banner).
func ParseNvidiaSMI(output string) ([]GPU, error) {
	output = strings.TrimSpace(output)

	// Handle missing GPU gracefully
	if output == "" {
		return nil, nil
	}

	lowerOutput := strings.ToLower(output)
	if strings.Contains(lowerOutput, "no devices") ||
		strings.Contains(lowerOutput, "not found") ||
		strings.Contains(lowerOutput, "failed") ||
		strings.Contains(lowerOutput, "error") {
		return nil, nil
	}

	var gpus []GPU
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// Example: "NVIDIA GeForce RTX 3080, 45, 2048, 10240"
		fields := strings.Split(line, ",")
		if len(fields) < 4 {
			return nil, fmt.Errorf("nvidia-smi output has insufficient fields: expected 4, got %d", len(fields))
		}

		gpu := GPU{Name: strings.TrimSpace(fields[0])}

		utilStr := strings.TrimSpace(fields[1])
		if available(utilStr) {
			util, err := strconv.ParseFloat(utilStr, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse GPU utilization '%s': %w", utilStr, err)
			}
			gpu.Percent = util
		}

		// Memory fields are MiB
		used, err := parseMiB(fields[2])
		if err != nil {
			return nil, fmt.Errorf("failed to parse GPU memory used: %w", err)
		}
		gpu.MemoryUsed = used

		total, err := parseMiB(fields[3])
		if err != nil {
			return nil, fmt.Errorf("failed to parse GPU memory total: %w", err)
		}
		gpu.MemoryTotal = total

		gpus = append(gpus, gpu)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning nvidia-smi output: %w", err)
	}

	return gpus, nil
}

// AveragePercent returns the mean utilization across gpus, or 0 for none.
func AveragePercent(gpus []GPU) float64 {
	if len(gpus) == 0 {
		return 0
	}
	var sum float64
	for _, g := range gpus {
		sum += g.Percent
	}
	return sum / float64(len(gpus))
}

func available(s string) bool {
	return s != "" && s != "[N/A]"
}

func parseMiB(field string) (int64, error) {
	s := strings.TrimSpace(field)
	if !available(s) {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("'%s': %w", s, err)
	}
	return v * 1024 * 1024, nil
}
