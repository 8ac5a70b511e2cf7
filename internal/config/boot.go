package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"thermostat_relay/internal/timeparse"
)

// Defaults substituted field by field when boot.json omits a value or it does not parse.
const (
	DefaultMaxHeaterOnTimeMinutes  = 60
	DefaultHysteresisDuration      = "5 minutes"
	DefaultMaxTempF                = 80
	DefaultUploadStatusMaxInterval = "60 minutes"
)

// BootConfig holds the safety limits and config source read once per thermostat instance.
type BootConfig struct {
	MaxHeaterOnTimeMinutes int
	HysteresisDuration     string
	Hysteresis             time.Duration
	MaxTempF               int
	Source                 SourceConfig
}

// SourceConfig is the config_source block of boot.json.
type SourceConfig struct {
	ConfigURL               string
	ConfigFile              string
	UploadStatusURL         string
	UploadStatusMaxInterval string
	UploadInterval          time.Duration
}

// LoadBoot reads and parses the boot document at path.
func LoadBoot(path string) (BootConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return BootConfig{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		return BootConfig{}, fmt.Errorf("read boot file %s: %w", path, err)
	}
	return ParseBoot(data)
}

// ParseBoot decodes a boot document. The operating_parameters block must exist;
// each field inside it defaults independently.
func ParseBoot(data []byte) (BootConfig, error) {
	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return BootConfig{}, fmt.Errorf("%w: %v", ErrInvalidBoot, err)
	}
	if !v.IsSet("operating_parameters") {
		return BootConfig{}, fmt.Errorf("%w: operating_parameters missing", ErrInvalidBoot)
	}

	boot := BootConfig{
		MaxHeaterOnTimeMinutes: DefaultMaxHeaterOnTimeMinutes,
		HysteresisDuration:     DefaultHysteresisDuration,
		MaxTempF:               DefaultMaxTempF,
	}

	if n, err := cast.ToIntE(v.Get("operating_parameters.max_operating_time_minutes")); err == nil && n > 0 {
		boot.MaxHeaterOnTimeMinutes = n
	}

	boot.Hysteresis, _ = timeparse.ParseDuration(DefaultHysteresisDuration)
	if phrase := v.GetString("operating_parameters.hysteresis_duration"); phrase != "" {
		if d, err := timeparse.ParseDuration(phrase); err == nil {
			boot.HysteresisDuration = phrase
			boot.Hysteresis = d
		}
	}

	if n, ok := wholeNumber(v.Get("operating_parameters.max_temp_f")); ok {
		boot.MaxTempF = n
	}

	boot.Source = SourceConfig{
		ConfigURL:               v.GetString("config_source.config_url"),
		ConfigFile:              v.GetString("config_source.config_file"),
		UploadStatusURL:         v.GetString("config_source.upload_status_url"),
		UploadStatusMaxInterval: DefaultUploadStatusMaxInterval,
	}
	boot.Source.UploadInterval, _ = timeparse.ParseDuration(DefaultUploadStatusMaxInterval)
	if phrase := v.GetString("config_source.upload_status_max_interval"); phrase != "" {
		if d, err := timeparse.ParseDuration(phrase); err == nil {
			boot.Source.UploadStatusMaxInterval = phrase
			boot.Source.UploadInterval = d
		}
	}

	return boot, nil
}

// wholeNumber accepts only JSON integers for max_temp_f; strings and fractions fall back to the default.
func wholeNumber(raw any) (int, bool) {
	switch n := raw.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case int, int32, int64:
		return cast.ToInt(n), true
	default:
		return 0, false
	}
}
