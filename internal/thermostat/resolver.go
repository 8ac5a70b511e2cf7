package thermostat

import (
	"fmt"
	"time"

	"thermostat_relay/internal/config"
	"thermostat_relay/internal/timeparse"
)

// Decision is what the operating config asks of the heater for one instant and temperature.
type Decision struct {
	Mode      config.Mode
	WantOn    bool
	GoalTempF *float64
	// LastUserInput is the timestamp of the immediate hold or the active temp
	// override, or Epoch when neither applies.
	LastUserInput time.Time

	// Window is the schedule window that matched, if any.
	Window *ActiveWindow
	// Immediate and Override are set when those setpoints governed the decision.
	Immediate *ActiveSetpoint
	Override  *ActiveSetpoint
}

// ActiveWindow is a schedule window resolved to instants.
type ActiveWindow struct {
	Start time.Time
	Stop  time.Time
	TempF float64
}

// ActiveSetpoint is an immediate hold or temp override resolved to an instant.
type ActiveSetpoint struct {
	TempF     float64
	TimeStamp time.Time
}

// Resolve computes the heater intent. It does not consult the interlocks.
func Resolve(cfg config.OperatingConfig, now time.Time, currentTempF float64) (Decision, error) {
	switch s := cfg.Schedule.(type) {
	case config.DailySchedule:
		return resolveDaily(s, cfg.TempOverride, now, currentTempF)
	case config.ImmediateSchedule:
		return resolveImmediate(s, now, currentTempF), nil
	case config.OffSchedule, nil:
		return Decision{Mode: config.ModeOff, LastUserInput: Epoch}, nil
	default:
		return Decision{}, fmt.Errorf("%w: %T", config.ErrUnknownSchedule, cfg.Schedule)
	}
}

func resolveImmediate(s config.ImmediateSchedule, now time.Time, currentTempF float64) Decision {
	d := Decision{
		Mode:          config.ModeImmediate,
		GoalTempF:     floatPtr(s.TempF),
		LastUserInput: Epoch,
	}
	if s.TimeStamp != "" {
		if ts, err := timeparse.Parse(s.TimeStamp, now); err == nil {
			d.LastUserInput = ts
		}
	}
	d.Immediate = &ActiveSetpoint{TempF: s.TempF, TimeStamp: d.LastUserInput}
	d.WantOn = s.TempF > currentTempF
	return d
}

// resolveDaily scans windows in document order and stops at the first one that wants heat.
// A window whose stop is 12:00 am runs until midnight at the end of today.
func resolveDaily(s config.DailySchedule, override *config.Setpoint, now time.Time, currentTempF float64) (Decision, error) {
	d := Decision{Mode: config.ModeDailySchedule, LastUserInput: Epoch}

	midnight, err := timeparse.Parse("12:00 am", now)
	if err != nil {
		return Decision{}, err
	}
	nextMidnight, err := timeparse.Parse("tomorrow at 12:00 am", now)
	if err != nil {
		return Decision{}, err
	}

	var overrideStart time.Time
	hasOverride := false
	if override != nil && override.TimeStamp != "" {
		if ts, err := timeparse.Parse(override.TimeStamp, now); err == nil {
			overrideStart, hasOverride = ts, true
		}
	}

	for i, w := range s.Windows {
		start, err := timeparse.Parse(w.Start, now)
		if err != nil {
			return Decision{}, fmt.Errorf("window %d start: %w", i, err)
		}
		stop, err := timeparse.Parse(w.Stop, now)
		if err != nil {
			return Decision{}, fmt.Errorf("window %d stop: %w", i, err)
		}
		if stop.Equal(midnight) {
			stop = nextMidnight
		}

		if hasOverride && overrideActive(now, start, stop, overrideStart) {
			d.GoalTempF = floatPtr(override.TempF)
			d.LastUserInput = overrideStart
			d.Override = &ActiveSetpoint{TempF: override.TempF, TimeStamp: overrideStart}
			if currentTempF < override.TempF {
				d.WantOn = true
				return d, nil
			}
		}

		if !now.Before(start) && !now.After(stop) {
			if d.GoalTempF == nil {
				d.GoalTempF = floatPtr(w.TempF)
			}
			d.Window = &ActiveWindow{Start: start, Stop: stop, TempF: *d.GoalTempF}
			if currentTempF < *d.GoalTempF {
				d.WantOn = true
				return d, nil
			}
		}
	}
	return d, nil
}

// overrideActive reports whether an override entered at overrideStart governs the
// window [start, stop] at now: both now and overrideStart must fall inside the
// window, and now must not precede overrideStart.
func overrideActive(now, start, stop, overrideStart time.Time) bool {
	return !now.Before(start) && !now.Before(overrideStart) && !now.After(stop) &&
		!overrideStart.Before(start) && !overrideStart.After(stop)
}
