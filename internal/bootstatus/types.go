package bootstatus

import (
	"encoding/json"
	"time"
)

// TimingFacts holds the operating system timing data returned by the
// system query for one target.
type TimingFacts struct {
	ComputerName   string
	LastBootUpTime time.Time
	LocalDateTime  time.Time
	InstallDate    time.Time
}

// LogEvent is one shutdown-related entry from the target's System event log.
type LogEvent struct {
	EventID     uint16
	TimeCreated time.Time
}

// ShutdownType classifies how the last shutdown happened.
type ShutdownType int

const (
	ShutdownUnknown ShutdownType = iota
	ShutdownNormal
	ShutdownUnexpected
)

func (t ShutdownType) String() string {
	switch t {
	case ShutdownNormal:
		return "Normal"
	case ShutdownUnexpected:
		return "Unexpected"
	default:
		return "Unknown"
	}
}

// MarshalJSON emits the type as its name so pushed payloads stay readable.
func (t ShutdownType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Record is the derived boot-status output for one target.
type Record struct {
	ComputerName     string        `json:"computer_name"`
	LastShutdownTime time.Time     `json:"last_shutdown_time"`
	LastShutdownType ShutdownType  `json:"last_shutdown_type"`
	Downtime         time.Duration `json:"downtime_ns"`
	DowntimeDays     string        `json:"downtime"`
	LastBootUpTime   time.Time     `json:"last_bootup_time"`
	Uptime           time.Duration `json:"uptime_ns"`
	UptimeDays       string        `json:"uptime"`
	InstallDate      time.Time     `json:"install_date"`
}

// Credential is optional authentication material passed through to both
// collaborator queries.
type Credential struct {
	Username string
	Password string
	Domain   string
}

// QualifiedUser returns DOMAIN\user when a domain is set.
func (c *Credential) QualifiedUser() string {
	if c.Domain != "" {
		return c.Domain + `\` + c.Username
	}
	return c.Username
}
