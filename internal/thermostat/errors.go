package thermostat

import (
	"errors"

	"thermostat_relay/internal/config"
)

var (
	// ErrInitializeFailed is returned by New. The heater has been forced off before it is returned.
	ErrInitializeFailed = errors.New("thermostat initialize failed")
	// ErrInvalidTemperature is returned when asked to turn on without a goal temperature.
	ErrInvalidTemperature = errors.New("goal temperature required to turn heater on")
)

// IsCritical reports whether err means the thermostat could not be set up at all,
// as opposed to a failed cycle.
func IsCritical(err error) bool {
	return errors.Is(err, ErrInitializeFailed) || errors.Is(err, config.ErrConfigFileNotFound)
}
