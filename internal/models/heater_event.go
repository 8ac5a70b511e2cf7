package models

import "time"

// HeaterEvent is a single log entry.
type HeaterEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // HEATER_ON | HEATER_OFF | FORCE_OFF | CONFIG | ERROR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// Event types.
const (
	EventHeaterOn  = "HEATER_ON"
	EventHeaterOff = "HEATER_OFF"
	EventForceOff  = "FORCE_OFF"
	EventConfig    = "CONFIG"
	EventError     = "ERROR"
)
