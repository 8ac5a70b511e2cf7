package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"thermostat_relay/internal/models"
	"thermostat_relay/internal/repository"
)

const stateColumns = "SELECT id, heater_name, mode, temp_f, goal_f, heater_on, last_on, flags, updated_at"

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestStateSQLite_Save_SetsUTCAndMarshalsFlags_WhenTimeZero(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewStateSQLite(db)

	goal := 68.0
	state := models.ThermostatState{
		HeaterName:   "Back bedroom Heater",
		Mode:         "daily_schedule",
		CurrentTempF: 61.5,
		GoalTempF:    &goal,
		HeaterOn:     true,
		SafetyFlags:  []string{models.FlagInHysteresis},
	}

	isUTCRecent := sqlmockArgumentFunc(func(v driver.Value) bool {
		tm, ok := v.(time.Time)
		if !ok || tm.Location() != time.UTC {
			return false
		}
		now := time.Now().UTC()
		return !tm.Before(now.Add(-5*time.Second)) && !tm.After(now.Add(5*time.Second))
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO thermostat_state")).
		WithArgs(
			1,
			state.HeaterName,
			state.Mode,
			state.CurrentTempF,
			goal,
			true,
			nil, // never ran
			`["IN_HYSTERESIS"]`,
			isUTCRecent,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Save(context.Background(), state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateSQLite_Save_ConvertsTimesToUTCAndNilGoal(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewStateSQLite(db)

	locTokyo, _ := time.LoadLocation("Asia/Tokyo")
	updated := time.Date(2029, 9, 14, 12, 34, 56, 0, locTokyo)
	lastOn := updated.Add(-10 * time.Minute)

	state := models.ThermostatState{
		HeaterName:   "Attic",
		Mode:         "off",
		CurrentTempF: 70,
		LastOnTime:   &lastOn,
		UpdatedAt:    updated,
	}

	exactUTC := func(want time.Time) sqlmockArgumentFunc {
		return func(v driver.Value) bool {
			tm, ok := v.(time.Time)
			return ok && tm.Equal(want) && tm.Location() == time.UTC
		}
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO thermostat_state")).
		WithArgs(
			1,
			"Attic",
			"off",
			70.0,
			nil, // no goal
			false,
			exactUTC(lastOn),
			"[]",
			exactUTC(updated),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Save(context.Background(), state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateSQLite_Save_ExecErrorIsPropagated(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewStateSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO thermostat_state")).
		WillReturnError(errors.New("db down"))

	if err := repo.Save(context.Background(), models.ThermostatState{Mode: "off"}); err == nil {
		t.Fatalf("Save() expected error, got nil")
	}
}

func TestStateSQLite_Load_NoRowsReturnsZeroValue(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewStateSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta(stateColumns)).
		WithArgs(1).
		WillReturnError(sql.ErrNoRows)

	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, models.ThermostatState{}) {
		t.Fatalf("Load() expected zero state, got: %+v", got)
	}
}

func TestStateSQLite_Load_HappyPath(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewStateSQLite(db)

	locNY, _ := time.LoadLocation("America/New_York")
	updated := time.Date(2029, 2, 1, 8, 30, 0, 0, locNY)
	lastOn := updated.Add(-15 * time.Minute)

	cols := []string{"id", "heater_name", "mode", "temp_f", "goal_f", "heater_on", "last_on", "flags", "updated_at"}
	rows := sqlmock.NewRows(cols).
		AddRow(1, "Back bedroom Heater", "daily_schedule", 60.0, 62.0, true, lastOn, `["ON_TOO_LONG","TOO_HOT"]`, updated)

	mock.ExpectQuery(regexp.QuoteMeta(stateColumns)).
		WithArgs(1).
		WillReturnRows(rows)

	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if got.ID != 1 || got.Mode != "daily_schedule" || got.CurrentTempF != 60 || !got.HeaterOn {
		t.Fatalf("Load() unexpected fields: %+v", got)
	}
	if got.GoalTempF == nil || *got.GoalTempF != 62 {
		t.Fatalf("Load() goal = %v", got.GoalTempF)
	}
	if got.LastOnTime == nil || !got.LastOnTime.Equal(lastOn) || got.LastOnTime.Location() != time.UTC {
		t.Fatalf("Load() last on = %v", got.LastOnTime)
	}
	if got.UpdatedAt.Location() != time.UTC {
		t.Fatalf("Load() UpdatedAt not UTC: %v", got.UpdatedAt)
	}
	if want := []string{models.FlagOnTooLong, models.FlagTooHot}; !reflect.DeepEqual(got.SafetyFlags, want) {
		t.Fatalf("Load() flags = %v, want %v", got.SafetyFlags, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateSQLite_Load_NullColumns(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewStateSQLite(db)

	cols := []string{"id", "heater_name", "mode", "temp_f", "goal_f", "heater_on", "last_on", "flags", "updated_at"}
	rows := sqlmock.NewRows(cols).
		AddRow(1, "Attic", "off", 55.0, nil, false, nil, "[]", time.Now())

	mock.ExpectQuery(regexp.QuoteMeta(stateColumns)).
		WithArgs(1).
		WillReturnRows(rows)

	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if got.GoalTempF != nil || got.LastOnTime != nil || got.SafetyFlags != nil {
		t.Fatalf("Load() expected nil optionals, got %+v", got)
	}
}

func TestStateSQLite_Load_InvalidFlagsJSON_ReturnsError(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewStateSQLite(db)

	cols := []string{"id", "heater_name", "mode", "temp_f", "goal_f", "heater_on", "last_on", "flags", "updated_at"}
	rows := sqlmock.NewRows(cols).
		AddRow(1, "Attic", "off", 55.0, nil, false, nil, `{not: "an array"}`, time.Now())

	mock.ExpectQuery(regexp.QuoteMeta(stateColumns)).
		WithArgs(1).
		WillReturnRows(rows)

	if _, err := repo.Load(context.Background()); err == nil {
		t.Fatalf("Load() expected error due to invalid flags JSON, got nil")
	}
}

// Helpers

type sqlmockArgumentFunc func(v driver.Value) bool

func (f sqlmockArgumentFunc) Match(v driver.Value) bool {
	return f(v)
}
