package bootstatus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSystem struct {
	facts map[string]TimingFacts
	errs  map[string]error
}

func (f *fakeSystem) QueryTimingFacts(target string, _ *Credential) (TimingFacts, error) {
	if err := f.errs[target]; err != nil {
		return TimingFacts{}, err
	}
	return f.facts[target], nil
}

type fakeEventLog struct {
	events map[string][]LogEvent
	errs   map[string]error

	gotIDs []uint16
	gotMax int
}

func (f *fakeEventLog) QueryEvents(target string, eventIDs []uint16, maxPerID int, _ *Credential) ([]LogEvent, error) {
	f.gotIDs = eventIDs
	f.gotMax = maxPerID
	if err := f.errs[target]; err != nil {
		return nil, err
	}
	return f.events[target], nil
}

func host1Facts() TimingFacts {
	return TimingFacts{
		ComputerName:   "HOST1",
		LastBootUpTime: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC),
		LocalDateTime:  time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		InstallDate:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newResolver(events []LogEvent) (*Resolver, *fakeEventLog) {
	el := &fakeEventLog{events: map[string][]LogEvent{"HOST1": events}}
	r := &Resolver{
		System:   &fakeSystem{facts: map[string]TimingFacts{"HOST1": host1Facts()}},
		EventLog: el,
	}
	return r, el
}

func TestResolveNormalShutdown(t *testing.T) {
	r, el := newResolver([]LogEvent{
		{EventID: 1074, TimeCreated: time.Date(2024, 1, 10, 7, 50, 0, 0, time.UTC)},
	})

	rec, err := r.Resolve("HOST1", nil)
	require.NoError(t, err)

	assert.Equal(t, "HOST1", rec.ComputerName)
	assert.Equal(t, ShutdownNormal, rec.LastShutdownType)
	assert.Equal(t, 10*time.Minute, rec.Downtime)
	assert.Equal(t, time.Hour, rec.Uptime)
	assert.Equal(t, time.Date(2024, 1, 10, 7, 50, 0, 0, time.UTC), rec.LastShutdownTime)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), rec.InstallDate)
	assert.Equal(t, "00.00:10:00", rec.DowntimeDays)
	assert.Equal(t, "00.01:00:00", rec.UptimeDays)

	assert.Equal(t, []uint16{41, 6008, 1074}, el.gotIDs)
	assert.Equal(t, 1, el.gotMax)
}

func TestResolveNoEvents(t *testing.T) {
	r, _ := newResolver(nil)

	rec, err := r.Resolve("HOST1", nil)
	require.NoError(t, err)

	assert.Equal(t, ShutdownUnknown, rec.LastShutdownType)
	assert.Equal(t, UnknownShutdownTime, rec.LastShutdownTime)
	assert.Equal(t, time.Duration(0), rec.Downtime)
	assert.Equal(t, time.Hour, rec.Uptime)
	assert.Equal(t, "00.00:00:00", rec.DowntimeDays)
}

func TestResolveUnexpectedShutdown(t *testing.T) {
	for _, id := range []uint16{41, 6008} {
		r, _ := newResolver([]LogEvent{
			{EventID: id, TimeCreated: time.Date(2024, 1, 10, 7, 50, 0, 0, time.UTC)},
		})
		rec, err := r.Resolve("HOST1", nil)
		require.NoError(t, err)

		assert.Equal(t, ShutdownUnexpected, rec.LastShutdownType, "event %d", id)
		assert.Equal(t, time.Duration(0), rec.Downtime, "event %d", id)
	}
}

func TestResolveLatestEventWins(t *testing.T) {
	r, _ := newResolver([]LogEvent{
		{EventID: 1074, TimeCreated: time.Unix(10, 0)},
		{EventID: 41, TimeCreated: time.Unix(20, 0)},
	})

	rec, err := r.Resolve("HOST1", nil)
	require.NoError(t, err)

	assert.Equal(t, ShutdownUnexpected, rec.LastShutdownType)
	assert.Equal(t, time.Unix(20, 0), rec.LastShutdownTime)
	assert.Equal(t, time.Duration(0), rec.Downtime)
}

func TestResolveUnknownEventID(t *testing.T) {
	r, _ := newResolver([]LogEvent{
		{EventID: 9999, TimeCreated: time.Date(2024, 1, 10, 7, 50, 0, 0, time.UTC)},
	})

	rec, err := r.Resolve("HOST1", nil)
	require.NoError(t, err)

	assert.Equal(t, ShutdownUnknown, rec.LastShutdownType)
	assert.Equal(t, time.Duration(0), rec.Downtime)
}

func TestResolveNegativeDowntimePassesThrough(t *testing.T) {
	// Inconsistent logs: restart event recorded after the boot time. The
	// subtraction is reported as-is, without clamping.
	r, _ := newResolver([]LogEvent{
		{EventID: 1074, TimeCreated: time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC)},
	})

	rec, err := r.Resolve("HOST1", nil)
	require.NoError(t, err)

	assert.Equal(t, ShutdownNormal, rec.LastShutdownType)
	assert.Equal(t, -30*time.Minute, rec.Downtime)
	assert.Equal(t, "-00.00:30:00", rec.DowntimeDays)
}

func TestLatestEventTieBreak(t *testing.T) {
	ts := time.Date(2024, 1, 10, 7, 50, 0, 0, time.UTC)
	tests := []struct {
		name   string
		events []LogEvent
		wantID uint16
	}{
		{"1074 beats 41", []LogEvent{{41, ts}, {1074, ts}}, 1074},
		{"order independent", []LogEvent{{1074, ts}, {41, ts}}, 1074},
		{"1074 beats 6008", []LogEvent{{6008, ts}, {1074, ts}}, 1074},
		{"6008 beats 41", []LogEvent{{41, ts}, {6008, ts}}, 6008},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := latestEvent(tt.events)
			require.True(t, ok)
			assert.Equal(t, tt.wantID, ev.EventID)
		})
	}
}

func TestResolveSystemQueryFailure(t *testing.T) {
	boom := errors.New("rpc server unavailable")
	r := &Resolver{
		System:   &fakeSystem{errs: map[string]error{"HOST1": boom}},
		EventLog: &fakeEventLog{},
	}

	_, err := r.Resolve("HOST1", nil)
	require.Error(t, err)

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "HOST1", resErr.Target)
	assert.Equal(t, "system", resErr.Stage)
	assert.ErrorIs(t, err, boom)
}

func TestResolveEventLogFailurePolicies(t *testing.T) {
	boom := errors.New("access denied")
	newPolicyResolver := func(p EventLogPolicy) *Resolver {
		return &Resolver{
			System:   &fakeSystem{facts: map[string]TimingFacts{"HOST1": host1Facts()}},
			EventLog: &fakeEventLog{errs: map[string]error{"HOST1": boom}},
			Policy:   p,
		}
	}

	t.Run("strict propagates", func(t *testing.T) {
		_, err := newPolicyResolver(PolicyStrict).Resolve("HOST1", nil)
		require.Error(t, err)

		var resErr *ResolutionError
		require.ErrorAs(t, err, &resErr)
		assert.Equal(t, "eventlog", resErr.Stage)
	})

	t.Run("lenient absorbs into unknown", func(t *testing.T) {
		rec, err := newPolicyResolver(PolicyLenient).Resolve("HOST1", nil)
		require.NoError(t, err)

		assert.Equal(t, ShutdownUnknown, rec.LastShutdownType)
		assert.Equal(t, UnknownShutdownTime, rec.LastShutdownTime)
		assert.Equal(t, time.Duration(0), rec.Downtime)
	})
}

func TestResolveEmptyTarget(t *testing.T) {
	r, _ := newResolver(nil)
	_, err := r.Resolve("", nil)
	assert.Error(t, err)
}

func TestResolveAllIsolatesFailures(t *testing.T) {
	facts := map[string]TimingFacts{"HOST1": host1Facts()}
	good := host1Facts()
	good.ComputerName = "HOST3"
	facts["HOST3"] = good

	r := &Resolver{
		System: &fakeSystem{
			facts: facts,
			errs:  map[string]error{"HOST2": errors.New("unreachable")},
		},
		EventLog: &fakeEventLog{events: map[string][]LogEvent{}},
	}

	results := r.ResolveAll([]string{"HOST1", "HOST2", "HOST3"}, nil)
	require.Len(t, results, 3)

	// Input order preserved, failure in the middle does not stop the batch.
	assert.Equal(t, "HOST1", results[0].Target)
	require.NotNil(t, results[0].Record)
	assert.NoError(t, results[0].Err)

	assert.Equal(t, "HOST2", results[1].Target)
	assert.Nil(t, results[1].Record)
	assert.Error(t, results[1].Err)

	assert.Equal(t, "HOST3", results[2].Target)
	require.NotNil(t, results[2].Record)
	assert.Equal(t, "HOST3", results[2].Record.ComputerName)
}

func TestShutdownTypeString(t *testing.T) {
	assert.Equal(t, "Normal", ShutdownNormal.String())
	assert.Equal(t, "Unexpected", ShutdownUnexpected.String())
	assert.Equal(t, "Unknown", ShutdownUnknown.String())
	assert.Equal(t, "Unknown", ShutdownType(42).String())
}
