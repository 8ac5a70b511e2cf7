package thermostat

import (
	"time"

	"thermostat_relay/internal/config"
)

// TooHotToOperate reports whether the room is at or above the cutoff temperature.
func TooHotToOperate(currentTempF float64, maxTempF int) bool {
	return currentTempF >= float64(maxTempF)
}

// HeaterRunningTimeMinutes returns how long the heater has been on. ok is false when
// the heater is off or LastOnTime lies in the future.
func HeaterRunningTimeMinutes(s State) (minutes float64, ok bool) {
	if !s.HeaterOn || s.LastOnTime.After(s.CurrentTime) {
		return 0, false
	}
	return s.CurrentTime.Sub(s.LastOnTime).Minutes(), true
}

// HeaterOnTooLong reports whether a running heater has reached maxMinutes.
// A running heater whose run time cannot be computed counts as too long.
func HeaterOnTooLong(s State, maxMinutes int) bool {
	if !s.HeaterOn {
		return false
	}
	if m, ok := HeaterRunningTimeMinutes(s); ok && m < float64(maxMinutes) {
		return false
	}
	return true
}

// InHysteresis reports whether the heater is inside its anti-cycling window.
//
// The window normally runs for d after LastOnTime. User input newer than LastOnTime
// (and not in the future) opens a grace period of d during which the heater may come
// back on; once the grace period is over the LastOnTime window governs again.
// The grace period includes its end instant; the LastOnTime window does not.
func InHysteresis(s State, d time.Duration) bool {
	if s.LastOnTime.IsZero() {
		return false
	}
	ui := s.LastUserInputTime
	if ui.After(s.LastOnTime) && !ui.After(s.CurrentTime) && !s.CurrentTime.After(ui.Add(d)) {
		return false
	}
	return s.CurrentTime.Before(s.LastOnTime.Add(d))
}

// SafeExceptHysteresis reports whether neither the runtime nor the temperature cutoff applies.
func SafeExceptHysteresis(s State, boot config.BootConfig) bool {
	return !HeaterOnTooLong(s, boot.MaxHeaterOnTimeMinutes) && !TooHotToOperate(s.CurrentTempF, boot.MaxTempF)
}

// SafeToTurnOn reports whether every interlock allows the heater on.
func SafeToTurnOn(s State, boot config.BootConfig) bool {
	return !InHysteresis(s, boot.Hysteresis) && SafeExceptHysteresis(s, boot)
}
