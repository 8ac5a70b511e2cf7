package thermostat

import (
	"time"

	"thermostat_relay/internal/hardware"
)

// Epoch is the last-user-input time when no user input applies.
var Epoch = time.Unix(0, 0)

// State is the engine's view of the heater. It is only changed by the Thermostat.
type State struct {
	HeaterOn bool
	// LastOnTime is stamped when the heater turns on and again when it turns off.
	// Zero means the heater has not run since start-up.
	LastOnTime time.Time
	GoalTempF  *float64
	// LastUserInputTime is the immediate or temp_override timestamp that applied
	// this cycle, or Epoch.
	LastUserInputTime time.Time
	// CurrentTime and CurrentTempF are sampled once per cycle.
	CurrentTime  time.Time
	CurrentTempF float64
}

// CommandRecord is one hardware command issued during a cycle.
type CommandRecord struct {
	At      time.Time
	Command hardware.Command
}

func newState() State {
	return State{LastUserInputTime: Epoch}
}

func floatPtr(v float64) *float64 { return &v }
