//go:build windows
// +build windows

package collectors

import (
	"fmt"
	"sort"
	"time"

	"github.com/gysosin/Bootstatus_exporter/internal/bootstatus"
	"github.com/yusufpapurcu/wmi"
)

// win32OperatingSystem mirrors the Win32_OperatingSystem fields we select.
// CIM_DATETIME values are decoded into time.Time by the wmi package.
type win32OperatingSystem struct {
	CSName         string
	LastBootUpTime time.Time
	LocalDateTime  time.Time
	InstallDate    time.Time
}

// win32NTLogEvent mirrors the Win32_NTLogEvent fields we select.
type win32NTLogEvent struct {
	EventCode     uint16
	TimeGenerated time.Time
}

// WMIQuerier answers both resolver queries via WMI. For remote targets the
// connection goes through SWbemLocator.ConnectServer, optionally with
// credentials.
type WMIQuerier struct {
	Namespace string // defaults to root\cimv2
}

// NewDefaultQueriers returns the platform's system and event-log queriers.
func NewDefaultQueriers() (bootstatus.SystemQuerier, bootstatus.EventLogQuerier) {
	q := &WMIQuerier{}
	return q, q
}

func (q *WMIQuerier) namespace() string {
	if q.Namespace != "" {
		return q.Namespace
	}
	return `root\cimv2`
}

// connectArgs builds the ConnectServer passthrough arguments. Local targets
// get none so the query runs against the local service.
func (q *WMIQuerier) connectArgs(target string, cred *bootstatus.Credential) []interface{} {
	if isLocalTarget(target) {
		return nil
	}
	args := []interface{}{target, q.namespace()}
	if cred != nil && cred.Username != "" {
		args = append(args, cred.QualifiedUser(), cred.Password)
	}
	return args
}

// QueryTimingFacts selects boot, clock and install timestamps from
// Win32_OperatingSystem.
func (q *WMIQuerier) QueryTimingFacts(target string, cred *bootstatus.Credential) (bootstatus.TimingFacts, error) {
	var dst []win32OperatingSystem
	query := "SELECT CSName, LastBootUpTime, LocalDateTime, InstallDate FROM Win32_OperatingSystem"
	if err := wmi.Query(query, &dst, q.connectArgs(target, cred)...); err != nil {
		return bootstatus.TimingFacts{}, fmt.Errorf("Win32_OperatingSystem query on %s: %w", target, err)
	}
	if len(dst) == 0 {
		return bootstatus.TimingFacts{}, fmt.Errorf("Win32_OperatingSystem query on %s returned no rows", target)
	}
	row := dst[0]
	return bootstatus.TimingFacts{
		ComputerName:   row.CSName,
		LastBootUpTime: row.LastBootUpTime,
		LocalDateTime:  row.LocalDateTime,
		InstallDate:    row.InstallDate,
	}, nil
}

// QueryEvents fetches the most recent maxPerID System-log entries for each
// requested event ID. WQL has no ORDER BY, so recency is applied here. An
// event ID with no matches contributes nothing; that is not an error.
func (q *WMIQuerier) QueryEvents(target string, eventIDs []uint16, maxPerID int, cred *bootstatus.Credential) ([]bootstatus.LogEvent, error) {
	var out []bootstatus.LogEvent
	for _, id := range eventIDs {
		var dst []win32NTLogEvent
		query := fmt.Sprintf("SELECT EventCode, TimeGenerated FROM Win32_NTLogEvent WHERE Logfile='System' AND EventCode=%d", id)
		if err := wmi.Query(query, &dst, q.connectArgs(target, cred)...); err != nil {
			return nil, fmt.Errorf("Win32_NTLogEvent query on %s for event %d: %w", target, id, err)
		}
		sort.Slice(dst, func(i, j int) bool {
			return dst[i].TimeGenerated.After(dst[j].TimeGenerated)
		})
		if len(dst) > maxPerID {
			dst = dst[:maxPerID]
		}
		for _, ev := range dst {
			out = append(out, bootstatus.LogEvent{EventID: ev.EventCode, TimeCreated: ev.TimeGenerated})
		}
	}
	return out, nil
}
