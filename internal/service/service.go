package service

import (
	"context"

	"thermostat_relay/internal/config"
	"thermostat_relay/internal/models"
	"thermostat_relay/internal/repository"
	"thermostat_relay/internal/thermostat"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Control exposes the operator's emergency off and the matching resume.
type Control interface {
	ForceOff(ctx context.Context, reason string) error
	Resume(ctx context.Context) error
}

// Monitoring exposes the persisted snapshot and the live status document.
type Monitoring interface {
	GetState(ctx context.Context) (models.ThermostatState, error)
	Status() (thermostat.Status, bool)
}

// EventLog exposes append-only heater events with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.HeaterEvent, error)
}

// Controller runs the schedule loop until ctx is canceled.
type Controller interface {
	Run(ctx context.Context)
}

type Service struct {
	Control
	Monitoring
	EventLog
	Controller
	Authorization
}

// NewService wires the repository layer and the controller into the API services.
func NewService(repos *repository.Repository, ctl *ControllerService, auth config.AuthSettings) *Service {
	return &Service{
		Control:       ctl,
		Monitoring:    NewMonitoringService(repos.StateRepo, ctl),
		EventLog:      NewEventLogService(repos.EventRepo),
		Controller:    ctl,
		Authorization: NewAuthService(repos.Auth, auth),
	}
}
