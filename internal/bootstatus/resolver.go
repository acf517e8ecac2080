package bootstatus

import (
	"fmt"
	"time"
)

// ShutdownEventIDs are the System log event IDs consulted for shutdown
// detection: 41 = unclean reboot, 6008 = previous shutdown unexpected,
// 1074 = operator-initiated restart.
var ShutdownEventIDs = []uint16{41, 6008, 1074}

// UnknownShutdownTime is the sentinel used when no shutdown event could be
// found for a target.
var UnknownShutdownTime = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// SystemQuerier returns operating system timing facts for one target.
type SystemQuerier interface {
	QueryTimingFacts(target string, cred *Credential) (TimingFacts, error)
}

// EventLogQuerier returns at most maxPerID matches for each requested event
// ID from the target's System log. "No matching events" is an empty result,
// not an error.
type EventLogQuerier interface {
	QueryEvents(target string, eventIDs []uint16, maxPerID int, cred *Credential) ([]LogEvent, error)
}

// EventLogPolicy decides what an event-log query failure means for a target.
type EventLogPolicy int

const (
	// PolicyStrict treats an event-log failure as fatal for the target.
	PolicyStrict EventLogPolicy = iota
	// PolicyLenient absorbs an event-log failure into the "no events
	// found" outcome (shutdown type Unknown).
	PolicyLenient
)

// ResolutionError reports which stage of a target's resolution failed.
type ResolutionError struct {
	Target string
	Stage  string // "system" or "eventlog"
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %s query: %v", e.Target, e.Stage, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Resolver derives boot-status records from the two collaborator queries.
type Resolver struct {
	System   SystemQuerier
	EventLog EventLogQuerier
	Policy   EventLogPolicy
}

// Result pairs one target with its record or its per-target error.
type Result struct {
	Target string  `json:"target"`
	Record *Record `json:"record,omitempty"`
	Err    error   `json:"-"`
}

// Resolve builds the boot-status record for one target. A system-query
// failure is always fatal; an event-log failure is fatal only under
// PolicyStrict.
func (r *Resolver) Resolve(target string, cred *Credential) (Record, error) {
	if target == "" {
		return Record{}, &ResolutionError{Target: target, Stage: "system", Err: fmt.Errorf("empty target name")}
	}

	facts, err := r.System.QueryTimingFacts(target, cred)
	if err != nil {
		return Record{}, &ResolutionError{Target: target, Stage: "system", Err: err}
	}

	events, err := r.EventLog.QueryEvents(target, ShutdownEventIDs, 1, cred)
	if err != nil {
		if r.Policy == PolicyStrict {
			return Record{}, &ResolutionError{Target: target, Stage: "eventlog", Err: err}
		}
		events = nil
	}

	rec := Record{
		ComputerName:     facts.ComputerName,
		LastBootUpTime:   facts.LastBootUpTime,
		InstallDate:      facts.InstallDate,
		Uptime:           facts.LocalDateTime.Sub(facts.LastBootUpTime),
		LastShutdownTime: UnknownShutdownTime,
		LastShutdownType: ShutdownUnknown,
	}

	if ev, ok := latestEvent(events); ok {
		rec.LastShutdownTime = ev.TimeCreated
		rec.LastShutdownType = classify(ev.EventID)
	}

	// Downtime only means something when the prior shutdown was a
	// deliberate restart bounded by a known timestamp. An unexpected
	// event's timestamp is the detection time, not an outage start.
	if rec.LastShutdownType == ShutdownNormal {
		rec.Downtime = rec.LastBootUpTime.Sub(rec.LastShutdownTime)
	}

	rec.UptimeDays = FormatDays(rec.Uptime)
	rec.DowntimeDays = FormatDays(rec.Downtime)
	return rec, nil
}

// ResolveAll resolves each target in order. Targets are fully independent:
// a failure is recorded in that target's Result and the batch continues.
func (r *Resolver) ResolveAll(targets []string, cred *Credential) []Result {
	results := make([]Result, 0, len(targets))
	for _, target := range targets {
		rec, err := r.Resolve(target, cred)
		res := Result{Target: target, Err: err}
		if err == nil {
			res.Record = &rec
		}
		results = append(results, res)
	}
	return results
}

// tiePriority orders event IDs for exact-timestamp ties: an operator
// restart record wins over the unexpected-shutdown markers.
var tiePriority = map[uint16]int{41: 0, 6008: 1, 1074: 2}

// latestEvent picks the event with the greatest TimeCreated. Exact ties
// resolve by tiePriority so selection is deterministic.
func latestEvent(events []LogEvent) (LogEvent, bool) {
	if len(events) == 0 {
		return LogEvent{}, false
	}
	best := events[0]
	for _, ev := range events[1:] {
		if ev.TimeCreated.After(best.TimeCreated) {
			best = ev
			continue
		}
		if ev.TimeCreated.Equal(best.TimeCreated) && tiePriority[ev.EventID] > tiePriority[best.EventID] {
			best = ev
		}
	}
	return best, true
}

func classify(eventID uint16) ShutdownType {
	switch eventID {
	case 41, 6008:
		return ShutdownUnexpected
	case 1074:
		return ShutdownNormal
	default:
		// Should not occur with the fixed query set.
		return ShutdownUnknown
	}
}
