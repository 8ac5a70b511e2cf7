package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"thermostat_relay/internal/models"
)

// fakeEventRepo keeps events in memory and filters them like the SQLite repo.
type fakeEventRepo struct {
	events []models.HeaterEvent
	err    error

	gotFrom time.Time
	gotTo   time.Time
	gotType string
	calls   int
}

func (f *fakeEventRepo) List(_ context.Context, from, to time.Time, typ string) ([]models.HeaterEvent, error) {
	f.calls++
	f.gotFrom, f.gotTo, f.gotType = from, to, typ
	if f.err != nil {
		return nil, f.err
	}
	var out []models.HeaterEvent
	for _, e := range f.events {
		if !from.IsZero() && e.OccurredAt.Before(from) {
			continue
		}
		if !to.IsZero() && e.OccurredAt.After(to) {
			continue
		}
		if typ != "" && e.Type != typ {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventRepo) Append(_ context.Context, e models.HeaterEvent) error {
	f.events = append(f.events, e)
	return nil
}

// heaterDay is what the controller writes over one evening: a normal on/off
// pair, a failed cycle, an operator force-off and a resume.
func heaterDay() []models.HeaterEvent {
	t0 := time.Date(2029, 9, 14, 17, 0, 0, 0, time.UTC)
	return []models.HeaterEvent{
		{EventID: "1", OccurredAt: t0, Type: models.EventConfig, Description: "Thermostat initialized"},
		{EventID: "2", OccurredAt: t0.Add(19 * time.Minute), Type: models.EventHeaterOn, Description: "Heater turned on"},
		{EventID: "3", OccurredAt: t0.Add(40 * time.Minute), Type: models.EventHeaterOff, Description: "Heater turned off"},
		{EventID: "4", OccurredAt: t0.Add(45 * time.Minute), Type: models.EventError, Description: "schedule cycle failed"},
		{EventID: "5", OccurredAt: t0.Add(60 * time.Minute), Type: models.EventForceOff, Description: "Heater forced off"},
		{EventID: "6", OccurredAt: t0.Add(90 * time.Minute), Type: models.EventConfig, Description: "Schedule resumed"},
	}
}

func TestEventLogService_List(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2029, 9, 14, 17, 0, 0, 0, time.UTC)
	pdt := time.FixedZone("PDT", -7*3600)

	tests := []struct {
		name    string
		filter  LogFilter
		wantIDs []string
		wantErr error
	}{
		{name: "everything", filter: LogFilter{}, wantIDs: []string{"1", "2", "3", "4", "5", "6"}},
		{name: "force off only", filter: LogFilter{Type: " force_off "}, wantIDs: []string{"5"}},
		{name: "errors only", filter: LogFilter{Type: "ERROR"}, wantIDs: []string{"4"}},
		{name: "stops", filter: LogFilter{Type: "stops"}, wantIDs: []string{"4", "5"}},
		{
			name:    "stops within range",
			filter:  LogFilter{From: t0.Add(50 * time.Minute), To: t0.Add(2 * time.Hour), Type: EventStops},
			wantIDs: []string{"5"},
		},
		{
			name: "local bounds",
			// 10:30..11:00 PDT is 17:30..18:00 UTC
			filter:  LogFilter{From: time.Date(2029, 9, 14, 10, 30, 0, 0, pdt), To: time.Date(2029, 9, 14, 11, 0, 0, 0, pdt)},
			wantIDs: []string{"3", "4", "5"},
		},
		{name: "unknown type", filter: LogFilter{Type: "boiler_fire"}, wantErr: ErrUnknownEventType},
		{
			name:    "inverted range",
			filter:  LogFilter{From: t0.Add(time.Hour), To: t0},
			wantErr: errInvalidTimeRange,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			repo := &fakeEventRepo{events: heaterDay()}
			got, err := NewEventLogService(repo).List(context.Background(), tc.filter)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if tc.wantErr != nil {
				if repo.calls != 0 {
					t.Fatalf("repo called %d times on a rejected filter", repo.calls)
				}
				return
			}
			if len(got) != len(tc.wantIDs) {
				t.Fatalf("got %d events %+v, want ids %v", len(got), got, tc.wantIDs)
			}
			for i, id := range tc.wantIDs {
				if got[i].EventID != id {
					t.Fatalf("event %d = %q, want %q", i, got[i].EventID, id)
				}
			}
		})
	}
}

func TestEventLogService_StopsQueriesAllTypes(t *testing.T) {
	t.Parallel()

	repo := &fakeEventRepo{events: heaterDay()}
	from := time.Date(2029, 9, 14, 10, 0, 0, 0, time.FixedZone("PDT", -7*3600))
	if _, err := NewEventLogService(repo).List(context.Background(), LogFilter{From: from, Type: EventStops}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if repo.gotType != "" {
		t.Fatalf("repo type = %q, want all types", repo.gotType)
	}
	if repo.gotFrom.Location() != time.UTC || !repo.gotFrom.Equal(from) {
		t.Fatalf("repo from = %v, want %v in UTC", repo.gotFrom, from)
	}
}

func TestEventLogService_RepoErrorPropagation(t *testing.T) {
	t.Parallel()

	for _, typ := range []string{"", EventStops} {
		repo := &fakeEventRepo{err: errors.New("db down")}
		_, err := NewEventLogService(repo).List(context.Background(), LogFilter{Type: typ})
		if !errors.Is(err, repo.err) {
			t.Fatalf("type %q: expected repo error, got %v", typ, err)
		}
	}
}

func TestKnownEventType(t *testing.T) {
	t.Parallel()

	for _, typ := range []string{"", "heater_on", "HEATER_OFF", "force_off", "config", "error", " stops "} {
		if !KnownEventType(typ) {
			t.Errorf("KnownEventType(%q) = false", typ)
		}
	}
	for _, typ := range []string{"HEATER", "on", "FORCE OFF"} {
		if KnownEventType(typ) {
			t.Errorf("KnownEventType(%q) = true", typ)
		}
	}
}
