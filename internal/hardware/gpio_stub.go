//go:build !linux

package hardware

import "errors"

var errGPIOUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// GPIORelay is not available on non-Linux platforms.
type GPIORelay struct{}

// NewGPIORelay returns a relay whose every operation fails.
func NewGPIORelay(chipName string, pin int) *GPIORelay {
	return &GPIORelay{}
}

func (r *GPIORelay) Initialize() error { return errGPIOUnsupported }

func (r *GPIORelay) Set(on bool) error { return errGPIOUnsupported }

func (r *GPIORelay) Get() (bool, bool) { return false, false }

func (r *GPIORelay) Close() error { return nil }
