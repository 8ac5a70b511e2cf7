package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"thermostat_relay/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

const (
	thermostatStateRowID = 1

	upsertStateSQL = `
		INSERT INTO thermostat_state (id, heater_name, mode, temp_f, goal_f, heater_on, last_on, flags, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			heater_name=excluded.heater_name,
			mode=excluded.mode,
			temp_f=excluded.temp_f,
			goal_f=excluded.goal_f,
			heater_on=excluded.heater_on,
			last_on=excluded.last_on,
			flags=excluded.flags,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT id, heater_name, mode, temp_f, goal_f, heater_on, last_on, flags, updated_at
		FROM thermostat_state WHERE id=?
	`
)

func marshalFlags(flags []string) (string, error) {
	if flags == nil {
		flags = []string{}
	}
	b, err := json.Marshal(flags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalFlags(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var flags []string
	if err := json.Unmarshal([]byte(s), &flags); err != nil {
		return nil, err
	}
	if len(flags) == 0 {
		return nil, nil
	}
	return flags, nil
}

// Save upserts the single thermostat_state row. Times are stored in UTC.
func (r *StateSQLite) Save(ctx context.Context, state models.ThermostatState) error {
	flags, err := marshalFlags(state.SafetyFlags)
	if err != nil {
		return err
	}

	updated := state.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	} else {
		updated = updated.UTC()
	}

	var goal sql.NullFloat64
	if state.GoalTempF != nil {
		goal = sql.NullFloat64{Float64: *state.GoalTempF, Valid: true}
	}
	var lastOn sql.NullTime
	if state.LastOnTime != nil {
		lastOn = sql.NullTime{Time: state.LastOnTime.UTC(), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, upsertStateSQL,
		thermostatStateRowID,
		state.HeaterName,
		state.Mode,
		state.CurrentTempF,
		goal,
		state.HeaterOn,
		lastOn,
		flags,
		updated,
	)
	return err
}

// Load returns the stored row, or a zero state (ID 0) when nothing was saved yet.
func (r *StateSQLite) Load(ctx context.Context) (models.ThermostatState, error) {
	row := r.db.QueryRowContext(ctx, selectStateSQL, thermostatStateRowID)

	var (
		s      models.ThermostatState
		goal   sql.NullFloat64
		lastOn sql.NullTime
		flags  string
	)
	if err := row.Scan(
		&s.ID,
		&s.HeaterName,
		&s.Mode,
		&s.CurrentTempF,
		&goal,
		&s.HeaterOn,
		&lastOn,
		&flags,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ThermostatState{}, nil
		}
		return models.ThermostatState{}, err
	}

	parsed, err := unmarshalFlags(flags)
	if err != nil {
		return models.ThermostatState{}, err
	}
	s.SafetyFlags = parsed
	if goal.Valid {
		g := goal.Float64
		s.GoalTempF = &g
	}
	if lastOn.Valid {
		t := lastOn.Time.UTC()
		s.LastOnTime = &t
	}
	s.UpdatedAt = s.UpdatedAt.UTC()

	return s, nil
}
