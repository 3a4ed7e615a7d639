// Package formatters provides human-readable formatting for byte counts and
// transfer rates shown in progress output and summaries.
package formatters

import (
	"fmt"
	"time"
)

// Exported constants.
const (
	// BytesPerUnit is the multiplier between successive byte units (KiB, MiB, ...)
	BytesPerUnit = 1024
)

// FormatBytes formats a byte count as a human-readable string (e.g. "1.5 GB").
// Counts below one kilobyte are shown as plain bytes.
func FormatBytes(bytes int64) string {
	if bytes < BytesPerUnit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(BytesPerUnit), 0
	for n := bytes / BytesPerUnit; n >= BytesPerUnit; n /= BytesPerUnit {
		div *= BytesPerUnit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatRate formats a transfer rate in bytes per second (e.g. "12.3 MB/s").
func FormatRate(bytesPerSecond float64) string {
	if bytesPerSecond < 0 {
		bytesPerSecond = 0
	}

	return FormatBytes(int64(bytesPerSecond)) + "/s"
}

// FormatDuration formats a duration with second precision for display.
// Sub-second durations are reported as "<1s".
func FormatDuration(d time.Duration) string {
	if d < time.Second && d > 0 {
		return "<1s"
	}

	return d.Round(time.Second).String()
}
