package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// RunMode selects real hardware (production) or in-memory fakes (testing).
type RunMode string

const (
	RunModeProduction RunMode = "production"
	RunModeTesting    RunMode = "testing"
)

// Settings is the application configuration read from configs/config.yml.
type Settings struct {
	Port         string
	DBPath       string
	LogLevel     string
	RunMode      RunMode
	BootFile     string
	PollInterval time.Duration
	Auth         AuthSettings
	GPIO         GPIOSettings
	W1Root       string
	MQTT         MQTTSettings
	Kafka        KafkaSettings
}

type AuthSettings struct {
	SigningKey string
	TokenTTL   time.Duration
}

type GPIOSettings struct {
	Chip     string
	RelayPin int
}

type MQTTSettings struct {
	Broker   string
	Topic    string
	ClientID string
}

type KafkaSettings struct {
	Brokers []string
	Topic   string
}

// SetDefaults registers the fallback value of every settings key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "thermostat.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("run_mode", string(RunModeProduction))
	v.SetDefault("boot_file", "boot.json")
	v.SetDefault("poll_interval", 15*time.Second)
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("gpio.chip", "gpiochip0")
	v.SetDefault("gpio.relay_pin", 17)
	v.SetDefault("w1.root", "/")
	v.SetDefault("mqtt.topic", "thermostat/status")
	v.SetDefault("mqtt.client_id", "thermostat-relay")
	v.SetDefault("kafka.topic", "thermostat.status")
}

// SettingsFrom reads Settings out of v.
func SettingsFrom(v *viper.Viper) (Settings, error) {
	s := Settings{
		Port:         v.GetString("port"),
		DBPath:       v.GetString("db.path"),
		LogLevel:     v.GetString("log.level"),
		RunMode:      RunMode(v.GetString("run_mode")),
		BootFile:     v.GetString("boot_file"),
		PollInterval: v.GetDuration("poll_interval"),
		Auth: AuthSettings{
			SigningKey: v.GetString("auth.signing_key"),
			TokenTTL:   v.GetDuration("auth.token_ttl"),
		},
		GPIO: GPIOSettings{
			Chip:     v.GetString("gpio.chip"),
			RelayPin: v.GetInt("gpio.relay_pin"),
		},
		W1Root: v.GetString("w1.root"),
		MQTT: MQTTSettings{
			Broker:   v.GetString("mqtt.broker"),
			Topic:    v.GetString("mqtt.topic"),
			ClientID: v.GetString("mqtt.client_id"),
		},
		Kafka: KafkaSettings{
			Brokers: v.GetStringSlice("kafka.brokers"),
			Topic:   v.GetString("kafka.topic"),
		},
	}

	switch s.RunMode {
	case RunModeProduction, RunModeTesting:
	default:
		return Settings{}, fmt.Errorf("%w: %q", ErrUnknownRunMode, s.RunMode)
	}
	if s.PollInterval <= 0 {
		return Settings{}, fmt.Errorf("poll_interval must be positive, got %s", s.PollInterval)
	}
	return s, nil
}
