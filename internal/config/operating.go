package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Mode names the schedule governing a cycle.
type Mode string

const (
	ModeDailySchedule Mode = "daily_schedule"
	ModeImmediate     Mode = "immediate"
	ModeOff           Mode = "off"
)

// DefaultHeaterName is reported when the operating document does not name its heater.
const DefaultHeaterName = "Unnamed heater (set name in config file)"

// Window is one entry of daily_schedule.times_of_operation.
type Window struct {
	Start string
	Stop  string
	TempF float64
}

// Setpoint is a user-entered goal temperature and the moment it was entered.
// TimeStamp is empty when the document did not carry one.
type Setpoint struct {
	TempF     float64
	TimeStamp string
}

// Schedule is the variant of the operating document selected by operation_mode.
type Schedule interface {
	Mode() Mode
}

// DailySchedule scans its windows in document order.
type DailySchedule struct {
	Windows []Window
}

// ImmediateSchedule holds the room at a fixed goal until cancelled.
type ImmediateSchedule struct {
	Setpoint
}

// OffSchedule keeps the heater off.
type OffSchedule struct{}

func (DailySchedule) Mode() Mode     { return ModeDailySchedule }
func (ImmediateSchedule) Mode() Mode { return ModeImmediate }
func (OffSchedule) Mode() Mode       { return ModeOff }

// OperatingConfig is a validated operating document.
type OperatingConfig struct {
	HeaterName  string
	DefaultMode Mode
	Schedule    Schedule
	// TempOverride is only honoured while Schedule is a DailySchedule.
	TempOverride *Setpoint
}

// Mode returns the governing mode.
func (c OperatingConfig) Mode() Mode {
	if c.Schedule == nil {
		return ModeOff
	}
	return c.Schedule.Mode()
}

// DecodeOperating parses and validates an operating document. Malformed documents
// never produce a partially filled config.
func DecodeOperating(data []byte) (OperatingConfig, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return OperatingConfig{}, fmt.Errorf("%w: %v", ErrInvalidOperating, err)
	}

	mode, _ := doc["operation_mode"].(string)
	if mode == "" {
		mode = "Undefined"
	}
	if _, ok := doc[mode]; !ok {
		return OperatingConfig{}, fmt.Errorf("%w: operation_mode %q does not reference an existing configuration", ErrUnknownSchedule, mode)
	}
	switch Mode(mode) {
	case ModeDailySchedule, ModeImmediate, ModeOff:
	default:
		return OperatingConfig{}, fmt.Errorf("%w: %q", ErrUnknownSchedule, mode)
	}

	if res := ValidateConfig(doc); !res.Valid() {
		return OperatingConfig{}, fmt.Errorf("%w: %s", ErrInvalidOperating, strings.Join(res.Fields, "; "))
	}

	cfg := OperatingConfig{
		HeaterName:  DefaultHeaterName,
		DefaultMode: Mode(cast.ToString(doc["default_mode"])),
	}
	if name := cast.ToString(doc["heater_name"]); name != "" {
		cfg.HeaterName = name
	}

	switch Mode(mode) {
	case ModeDailySchedule:
		daily, _ := doc["daily_schedule"].(map[string]any)
		raw, _ := daily["times_of_operation"].([]any)
		windows := make([]Window, 0, len(raw))
		for _, w := range raw {
			m, _ := w.(map[string]any)
			windows = append(windows, Window{
				Start: cast.ToString(m["start"]),
				Stop:  cast.ToString(m["stop"]),
				TempF: cast.ToFloat64(m["temp_f"]),
			})
		}
		cfg.Schedule = DailySchedule{Windows: windows}
	case ModeImmediate:
		cfg.Schedule = ImmediateSchedule{Setpoint: setpoint(doc["immediate"])}
	case ModeOff:
		cfg.Schedule = OffSchedule{}
	}

	if _, ok := doc["temp_override"]; ok {
		sp := setpoint(doc["temp_override"])
		cfg.TempOverride = &sp
	}
	return cfg, nil
}

func setpoint(raw any) Setpoint {
	m, _ := raw.(map[string]any)
	return Setpoint{
		TempF:     cast.ToFloat64(m["temp_f"]),
		TimeStamp: cast.ToString(m["time_stamp"]),
	}
}
