package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"thermostat_relay/internal/models"
)

const defaultForceOffReason = "operator request"

// ErrNotHeld is returned by Resume when no force off is in effect.
var ErrNotHeld = errors.New("heater is not forced off")

// ForceOff drives the relay off through the thermostat and holds it off until
// Resume. Cycles run while held do nothing.
func (c *ControllerService) ForceOff(ctx context.Context, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultForceOffReason
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.th == nil {
		// Building forces the relay off on the way in.
		if err := c.rebuild(ctx); err != nil {
			return fmt.Errorf("force off: %w", err)
		}
	}
	if err := c.th.ForceOff(reason); err != nil {
		c.discard()
		return fmt.Errorf("force off: %w", err)
	}
	c.held = true
	c.persist(ctx)
	c.refreshStatus()
	c.appendEvent(ctx, time.Now(), models.EventForceOff, "Heater forced off", map[string]any{"reason": reason})
	c.log.Infow("heater_forced_off", "reason", reason)
	return nil
}

// Resume lets the schedule drive the heater again.
func (c *ControllerService) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.held {
		return ErrNotHeld
	}
	c.held = false
	c.appendEvent(ctx, time.Now(), models.EventConfig, "Schedule resumed", nil)
	c.log.Infow("schedule_resumed")
	return nil
}

// Held reports whether an operator force off is in effect.
func (c *ControllerService) Held() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.held
}
