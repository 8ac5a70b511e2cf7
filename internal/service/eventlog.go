package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"thermostat_relay/internal/models"
	"thermostat_relay/internal/repository"
)

// EventStops selects every event where the heater was cut outside the
// schedule: operator or shutdown force-offs and failed cycles.
const EventStops = "STOPS"

// LogFilter selects heater events by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", one of the models.Event* types, or EventStops
}

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	// ErrUnknownEventType is returned for a type the controller never writes.
	ErrUnknownEventType = errors.New("unknown heater event type")
)

var stopTypes = map[string]bool{
	models.EventForceOff: true,
	models.EventError:    true,
}

// KnownEventType reports whether typ (case-insensitive) can be used as a filter.
func KnownEventType(typ string) bool {
	switch normalizeEventType(typ) {
	case "", EventStops, models.EventHeaterOn, models.EventHeaterOff,
		models.EventForceOff, models.EventConfig, models.EventError:
		return true
	}
	return false
}

func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}
	typ := normalizeEventType(f.Type)
	if !KnownEventType(typ) {
		return time.Time{}, time.Time{}, "", ErrUnknownEventType
	}
	return from, to, typ, nil
}

// List returns events in occurrence order. EventStops is answered from the
// unfiltered range since the repository matches a single type.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.HeaterEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	if typ != EventStops {
		return s.eventRepo.List(ctx, from, to, typ)
	}

	all, err := s.eventRepo.List(ctx, from, to, "")
	if err != nil {
		return nil, err
	}
	stops := make([]models.HeaterEvent, 0, len(all))
	for _, e := range all {
		if stopTypes[e.Type] {
			stops = append(stops, e)
		}
	}
	return stops, nil
}
