//go:build linux

package hardware

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// GPIORelay drives the heater relay from one output line.
type GPIORelay struct {
	chipName string
	pin      int

	mu   sync.Mutex
	line *gpiocdev.Line
}

// NewGPIORelay returns a relay on the given chip ("gpiochip0") and line offset.
func NewGPIORelay(chipName string, pin int) *GPIORelay {
	return &GPIORelay{chipName: chipName, pin: pin}
}

// Initialize requests the line as an output driven low, which keeps the heater off.
func (r *GPIORelay) Initialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.line != nil {
		return r.line.SetValue(0)
	}
	return r.request(0)
}

// Set drives the line. The line is requested on first use so the start-up
// force off reaches the hardware before Initialize runs.
func (r *GPIORelay) Set(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := 0
	if on {
		v = 1
	}
	if r.line == nil {
		return r.request(v)
	}
	if err := r.line.SetValue(v); err != nil {
		return fmt.Errorf("write relay line: %w", err)
	}
	return nil
}

func (r *GPIORelay) Get() (bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.line == nil {
		return false, false
	}
	v, err := r.line.Value()
	if err != nil {
		return false, false
	}
	return v == 1, true
}

func (r *GPIORelay) request(v int) error {
	line, err := gpiocdev.RequestLine(r.chipName, r.pin, gpiocdev.AsOutput(v), gpiocdev.WithConsumer("thermostat-relay"))
	if err != nil {
		return fmt.Errorf("request relay line %s:%d: %w", r.chipName, r.pin, err)
	}
	r.line = line
	return nil
}

// Close drives the line low before releasing it.
func (r *GPIORelay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.line == nil {
		return nil
	}
	var errs []error
	if err := r.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("open relay: %w", err))
	}
	if err := r.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close relay line: %w", err))
	}
	r.line = nil
	return errors.Join(errs...)
}
