// Package publisher delivers status snapshots to the outside world. Delivery is
// best effort: a failed publish is reported to the caller and never touches the relay.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"thermostat_relay/internal/thermostat"
)

// StatusSink receives one status snapshot.
type StatusSink interface {
	Publish(ctx context.Context, st thermostat.Status) error
}

// Multi fans a snapshot out to every sink. All sinks are tried; their errors are joined.
type Multi []StatusSink

func (m Multi) Publish(ctx context.Context, st thermostat.Status) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, st); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that can be closed.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Encode renders a snapshot as the JSON status document.
func Encode(st thermostat.Status) ([]byte, error) {
	b, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode status: %w", err)
	}
	return b, nil
}
