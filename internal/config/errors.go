package config

import "errors"

var (
	// ErrConfigFileNotFound is returned when a boot or operating document cannot be read.
	ErrConfigFileNotFound = errors.New("config file not found")
	// ErrInvalidBoot is returned when boot.json is malformed or lacks operating_parameters.
	ErrInvalidBoot = errors.New("invalid boot config")
	// ErrInvalidOperating is returned when the operating document fails validation.
	ErrInvalidOperating = errors.New("invalid operating config")
	// ErrUnknownSchedule is returned when operation_mode does not reference a usable schedule.
	ErrUnknownSchedule = errors.New("unknown schedule")
	// ErrUnknownRunMode is returned for a run_mode other than production or testing.
	ErrUnknownRunMode = errors.New("unknown run mode")
)
