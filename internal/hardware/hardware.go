// Package hardware abstracts the heater relay and the room thermometer.
// The real relay drives a GPIO line through the Linux character device,
// the real thermometer reads a DS18B20 through the 1-wire sysfs tree,
// and fakes stand in for both in tests and in testing run mode.
package hardware

import "errors"

// ErrHWTempRead is returned when the thermometer is absent or its reading is malformed.
var ErrHWTempRead = errors.New("hardware temperature read failed")

// Command is one instruction sent to the heater hardware.
type Command string

const (
	CmdInitialize Command = "initialize"
	CmdHeaterOn   Command = "heater_on"
	CmdHeaterOff  Command = "heater_off"
)

// RelayDriver switches the heater.
type RelayDriver interface {
	// Initialize prepares the output line. It may be called again after a failure.
	Initialize() error

	// Set closes (true) or opens (false) the relay.
	Set(on bool) error

	// Get reports the relay position. determinate is false when the
	// position cannot be read; callers then keep their own record.
	Get() (on bool, determinate bool)

	// Close releases the line, leaving the relay open.
	Close() error
}

// TemperatureSensor reads the room temperature.
type TemperatureSensor interface {
	ReadFahrenheit() (float64, error)
}

// CelsiusToFahrenheit converts a sensor reading.
func CelsiusToFahrenheit(c float64) float64 {
	return c*1.8 + 32
}
