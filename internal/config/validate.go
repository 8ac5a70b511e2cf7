package config

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"

	"thermostat_relay/internal/timeparse"
)

const (
	jsonValid   = "valid"
	jsonInvalid = "invalid"
)

// ValidationResult is the self-test answer for an operating document.
type ValidationResult struct {
	JSON   string   `json:"json"`
	Fields []string `json:"fields"`
}

// Valid reports whether no field failed.
func (r ValidationResult) Valid() bool { return r.JSON == jsonValid }

func (r *ValidationResult) fail(field string) {
	r.JSON = jsonInvalid
	r.Fields = append(r.Fields, field)
}

// ValidateJSON validates a raw operating document.
func ValidateJSON(data []byte) ValidationResult {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return ValidationResult{JSON: jsonInvalid, Fields: []string{"json"}}
	}
	return ValidateConfig(doc)
}

// ValidateConfig checks a decoded operating document and lists every offending field path.
func ValidateConfig(doc map[string]any) ValidationResult {
	res := ValidationResult{JSON: jsonValid, Fields: []string{}}

	requireOneOf(doc["operation_mode"], "operation_mode", &res,
		string(ModeDailySchedule), string(ModeOff), string(ModeImmediate))
	requireOneOf(doc["default_mode"], "default_mode", &res,
		string(ModeDailySchedule), string(ModeOff))

	if raw, ok := doc["daily_schedule"]; ok {
		daily, _ := raw.(map[string]any)
		windows, ok := daily["times_of_operation"].([]any)
		if !ok {
			res.fail("daily_schedule => times_of_operation")
		}
		for i, w := range windows {
			window, _ := w.(map[string]any)
			if !parseable(window["start"]) {
				res.fail(fmt.Sprintf("daily_schedule => times_of_operation => start, array count %d", i))
			}
			if !parseable(window["stop"]) {
				res.fail(fmt.Sprintf("daily_schedule => times_of_operation => stop, array count %d", i))
			}
			if !numeric(window["temp_f"]) {
				res.fail(fmt.Sprintf("daily_schedule => times_of_operation => temp_f, array count %d", i))
			}
		}
	}

	if raw, ok := doc["immediate"]; ok {
		immediate, _ := raw.(map[string]any)
		if !numeric(immediate["temp_f"]) {
			res.fail("immediate => temp_f")
		}
		if ts, present := immediate["time_stamp"]; present && !parseable(ts) {
			res.fail("immediate => time_stamp")
		}
	}

	if raw, ok := doc["temp_override"]; ok {
		override, _ := raw.(map[string]any)
		if !numeric(override["temp_f"]) {
			res.fail("temp_override => temp_f")
		}
		if !parseable(override["time_stamp"]) {
			res.fail("temp_override => time_stamp")
		}
	}

	if raw, ok := doc["off"]; ok && raw != "off" {
		res.fail("off")
	}

	return res
}

func requireOneOf(value any, field string, res *ValidationResult, allowed ...string) {
	s, _ := value.(string)
	for _, a := range allowed {
		if s == a {
			return
		}
	}
	res.fail(field)
}

func parseable(value any) bool {
	s, ok := value.(string)
	return ok && timeparse.Valid(s)
}

func numeric(value any) bool {
	if value == nil {
		return false
	}
	if _, isBool := value.(bool); isBool {
		return false
	}
	_, err := cast.ToFloat64E(value)
	return err == nil
}
