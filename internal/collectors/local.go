//go:build !windows
// +build !windows

package collectors

import (
	"fmt"
	"time"

	"github.com/gysosin/Bootstatus_exporter/internal/bootstatus"
	"github.com/shirou/gopsutil/v3/host"
)

// LocalQuerier is the cross-platform fallback. It can only answer for the
// machine it runs on: gopsutil supplies the boot time, and there is no
// Windows System log to consult, so event queries always fail and leave the
// shutdown outcome to the resolver's policy.
type LocalQuerier struct{}

// NewDefaultQueriers returns the platform's system and event-log queriers.
func NewDefaultQueriers() (bootstatus.SystemQuerier, bootstatus.EventLogQuerier) {
	q := &LocalQuerier{}
	return q, q
}

// QueryTimingFacts returns timing facts for the local machine. Remote
// targets are unreachable without WMI.
func (q *LocalQuerier) QueryTimingFacts(target string, _ *bootstatus.Credential) (bootstatus.TimingFacts, error) {
	if !isLocalTarget(target) {
		return bootstatus.TimingFacts{}, fmt.Errorf("remote target %s not supported on this platform", target)
	}

	info, err := host.Info()
	if err != nil {
		return bootstatus.TimingFacts{}, fmt.Errorf("host info: %w", err)
	}
	bootSec, err := host.BootTime()
	if err != nil {
		return bootstatus.TimingFacts{}, fmt.Errorf("boot time: %w", err)
	}

	// No install date is available here; the zero value is carried through.
	return bootstatus.TimingFacts{
		ComputerName:   info.Hostname,
		LastBootUpTime: time.Unix(int64(bootSec), 0),
		LocalDateTime:  time.Now(),
	}, nil
}

// QueryEvents always fails: there is no System event log on this platform.
func (q *LocalQuerier) QueryEvents(target string, _ []uint16, _ int, _ *bootstatus.Credential) ([]bootstatus.LogEvent, error) {
	return nil, fmt.Errorf("event log query on %s: not supported on this platform", target)
}
