package service

import (
	"context"
	"time"

	"thermostat_relay/internal/models"
	"thermostat_relay/internal/repository"
	"thermostat_relay/internal/thermostat"
)

// StatusSource yields the live status document.
type StatusSource interface {
	Status() (thermostat.Status, bool)
}

type MonitoringService struct {
	stateRepo repository.StateRepo
	live      StatusSource
}

func NewMonitoringService(stateRepo repository.StateRepo, live StatusSource) *MonitoringService {
	return &MonitoringService{stateRepo: stateRepo, live: live}
}

// GetState returns the latest persisted snapshot.
// Before the first cycle has been saved it returns a baseline with the heater off.
func (s *MonitoringService) GetState(ctx context.Context) (models.ThermostatState, error) {
	state, err := s.stateRepo.Load(ctx)
	if err != nil {
		return models.ThermostatState{}, err
	}
	if state.ID == 0 {
		return s.baselineState(), nil
	}
	state.UpdatedAt = toUTC(state.UpdatedAt)
	if state.LastOnTime != nil {
		last := toUTC(*state.LastOnTime)
		state.LastOnTime = &last
	}
	return state, nil
}

// Status returns the status document of the latest cycle; ok is false until one has run.
func (s *MonitoringService) Status() (thermostat.Status, bool) {
	if s.live == nil {
		return thermostat.Status{}, false
	}
	return s.live.Status()
}

func (s *MonitoringService) baselineState() models.ThermostatState {
	return models.ThermostatState{
		ID:        stateRowID,
		HeaterOn:  false,
		UpdatedAt: time.Now().UTC(),
	}
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
