package bootstatus

import (
	"fmt"
	"time"
)

// FormatDays renders a duration as days.hours:minutes:seconds with two-digit
// fields, e.g. 1d2h3m4s -> "01.02:03:04". Negative durations keep a leading
// minus sign.
func FormatDays(d time.Duration) string {
	neg := d < 0
	if neg {
		d = -d
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	s := fmt.Sprintf("%02d.%02d:%02d:%02d", days, hours, minutes, seconds)
	if neg {
		return "-" + s
	}
	return s
}
