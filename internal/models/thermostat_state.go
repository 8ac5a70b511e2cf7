package models

import "time"

// ThermostatState is the persisted copy of the latest cycle.
type ThermostatState struct {
	ID           int        `json:"id"`
	HeaterName   string     `json:"heater_name"`
	Mode         string     `json:"mode"`                  // daily_schedule | immediate | off
	CurrentTempF float64    `json:"current_temp_f"`        // °F
	GoalTempF    *float64   `json:"goal_temp_f,omitempty"` // °F, nil in a schedule gap or off mode
	HeaterOn     bool       `json:"heater_on"`
	LastOnTime   *time.Time `json:"heater_last_on_time,omitempty"`
	SafetyFlags  []string   `json:"safety_flags,omitempty"` // e.g. ["TOO_HOT", "IN_HYSTERESIS"]
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Safety flags stored in ThermostatState.SafetyFlags.
const (
	FlagTooHot       = "TOO_HOT"
	FlagOnTooLong    = "ON_TOO_LONG"
	FlagInHysteresis = "IN_HYSTERESIS"
)
