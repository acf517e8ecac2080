// Package collectors provides the two queries the boot-status resolver
// depends on: operating system timing facts and System-log shutdown events.
// The Windows implementation goes over WMI and supports remote targets; the
// cross-platform fallback only knows about the local machine.
package collectors

import (
	"os"
	"strings"
)

// isLocalTarget reports whether a target name refers to the machine we are
// running on, in which case the WMI connection stays local and no
// credentials are passed.
func isLocalTarget(target string) bool {
	switch strings.ToLower(target) {
	case "", ".", "localhost", "127.0.0.1", "::1":
		return true
	}
	hn, err := os.Hostname()
	if err != nil {
		return false
	}
	return strings.EqualFold(target, hn)
}
