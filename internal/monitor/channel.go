package monitor

import (
	"strconv"
	"strings"
)

// Fixed channel keys.
const (
	ChannelCPU     = "cpu"
	ChannelMemory  = "memory"
	ChannelDisk    = "disk"
	ChannelNetwork = "network"
	ChannelGPU     = "gpu"
)

const (
	corePrefix = "core-"
	diskPrefix = "disk-"
)

// CoreChannel returns the channel key for logical processor i.
func CoreChannel(i int) string {
	return corePrefix + strconv.Itoa(i)
}

// DiskChannel returns the channel key for the disk mounted at mountPoint.
// Writers and readers must both go through this function, or samples and
// lookups land in different series.
func DiskChannel(mountPoint string) string {
	return diskPrefix + SanitizeMountPoint(mountPoint)
}

// SanitizeMountPoint strips everything except ASCII letters and digits,
// turning "C:\" into "C" and "/var/lib" into "varlib".
func SanitizeMountPoint(mountPoint string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return -1
	}, mountPoint)
}

// IsCoreChannel reports whether key is a per-core channel and returns its index.
func IsCoreChannel(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, corePrefix)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// FindDisk returns the disk whose sanitized mount point matches the token in
// a disk channel key.
func FindDisk(disks []DiskInfo, key string) (DiskInfo, bool) {
	token, ok := strings.CutPrefix(key, diskPrefix)
	if !ok {
		return DiskInfo{}, false
	}
	for _, d := range disks {
		if SanitizeMountPoint(d.MountPoint) == token {
			return d, true
		}
	}
	return DiskInfo{}, false
}
