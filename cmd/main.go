package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thermostat_relay/internal/config"
	"thermostat_relay/internal/handlers"
	"thermostat_relay/internal/hardware"
	"thermostat_relay/internal/logger"
	"thermostat_relay/internal/metrics"
	"thermostat_relay/internal/publisher"
	"thermostat_relay/internal/repository"
	"thermostat_relay/internal/repository/db"
	"thermostat_relay/internal/server"
	"thermostat_relay/internal/service"
	"thermostat_relay/internal/thermostat"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	shutdownTimeout = 10 * time.Second
	fetchTimeout    = 10 * time.Second
	// fakeTempF is what the fake sensor reads in testing run mode.
	fakeTempF = 65.0
)

var (
	configFilename string
	rootCmd        = &cobra.Command{
		Use:           "thermostat",
		Short:         "Relay thermostat driven by a fetched schedule",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the control loop and the HTTP API",
		RunE:  runE,
	}
	validateCmd = &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate an operating document",
		Args:  cobra.ExactArgs(1),
		RunE:  validateE,
	}
	offCmd = &cobra.Command{
		Use:   "off",
		Short: "Force the heater relay off and exit",
		RunE:  offE,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configFilename, "config", "", "Configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	rootCmd.AddCommand(runCmd, validateCmd, offCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig() {
	if configFilename != "" {
		viper.SetConfigFile(configFilename)
	} else {
		viper.AddConfigPath("configs") // configs/config.yml
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
	}
	config.SetDefaults(viper.GetViper())
	viper.SetEnvPrefix("THERMOSTAT")
	viper.AutomaticEnv()

	// A missing file leaves the defaults in place; a broken one is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "error reading config:", err)
			os.Exit(1)
		}
	}
}

func loadSettings() (config.Settings, *logger.Logger, error) {
	settings, err := config.SettingsFrom(viper.GetViper())
	if err != nil {
		return config.Settings{}, nil, err
	}
	if !logger.ValidLevel(settings.LogLevel) {
		return config.Settings{}, nil, fmt.Errorf("unknown log level %q", settings.LogLevel)
	}
	return settings, logger.Get(settings.LogLevel), nil
}

// newHardware picks real devices in production and fakes in testing run mode.
func newHardware(settings config.Settings) (hardware.RelayDriver, hardware.TemperatureSensor) {
	if settings.RunMode == config.RunModeTesting {
		return hardware.NewFakeRelay(), hardware.NewFakeSensor(fakeTempF)
	}
	return hardware.NewGPIORelay(settings.GPIO.Chip, settings.GPIO.RelayPin), hardware.NewW1Sensor(settings.W1Root)
}

// newSinks builds every configured status sink. The HTTP upload target comes
// from boot.json, the brokers from the settings file.
func newSinks(settings config.Settings, client *http.Client, log *logger.Logger) publisher.Multi {
	var sinks publisher.Multi
	if settings.MQTT.Broker != "" {
		s, err := publisher.NewMQTTSink(settings.MQTT.Broker, settings.MQTT.ClientID, settings.MQTT.Topic)
		if err != nil {
			log.Warnw("mqtt sink disabled", "broker", settings.MQTT.Broker, "err", err)
		} else {
			sinks = append(sinks, s)
		}
	}
	if len(settings.Kafka.Brokers) > 0 {
		sinks = append(sinks, publisher.NewKafkaSink(settings.Kafka.Brokers, settings.Kafka.Topic))
	}
	boot, err := config.LoadBoot(settings.BootFile)
	if err != nil {
		log.Warnw("boot file unreadable, status upload disabled", "path", settings.BootFile, "err", err)
	} else if boot.Source.UploadStatusURL != "" {
		sinks = append(sinks, publisher.NewHTTPUploadSink(boot.Source.UploadStatusURL, client))
	}
	return sinks
}

func runE(cmd *cobra.Command, _ []string) error {
	settings, log, err := loadSettings()
	if err != nil {
		return err
	}
	log.Infow("thermostat starting", "run_mode", settings.RunMode, "boot_file", settings.BootFile)

	sqlDB, err := db.InitDB(settings.DBPath)
	if err != nil {
		return fmt.Errorf("init sqlite: %w", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	client := m.InstrumentClient(&http.Client{Timeout: fetchTimeout})

	relay, sensor := newHardware(settings)
	defer func() {
		if cerr := relay.Close(); cerr != nil {
			log.Errorw("failed to release relay", "err", cerr)
		}
	}()
	loader := config.NewLoader(settings.BootFile, client)
	sinks := newSinks(settings, client, log)
	defer func() {
		if cerr := sinks.Close(); cerr != nil {
			log.Warnw("failed to close status sinks", "err", cerr)
		}
	}()

	build := func(ctx context.Context, opts ...thermostat.Option) (*thermostat.Thermostat, error) {
		opts = append([]thermostat.Option{thermostat.WithLogger(log.Named("engine"))}, opts...)
		return thermostat.New(ctx, relay, sensor, loader, opts...)
	}
	repos := repository.NewRepository(sqlDB)
	ctl := service.NewControllerService(build, settings.PollInterval, repos.StateRepo, repos.EventRepo,
		service.WithSink(sinks),
		service.WithMetrics(m),
		service.WithLogger(log.Named("controller")),
	)
	services := service.NewService(repos, ctl, settings.Auth)
	if settings.Auth.SigningKey == "" {
		log.Warnw("auth.signing_key is empty; the operator API will reject every token")
	}
	apiHandler := handlers.NewHandler(services, log.Named("http"), metrics.Handler(reg))

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		services.Controller.Run(ctx)
	}()

	srv := &server.Server{}
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Run(settings.Port, apiHandler.InitRoutes()) }()
	log.Infow("http server listening", "port", settings.Port)

	select {
	case <-ctx.Done():
		log.Infow("shutting down")
	case err = <-srvErr:
		log.Errorw("http server stopped", "err", err)
		cancel()
	}

	// The control loop forces the heater off on its way out.
	<-loopDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		log.Errorw("server forced to shutdown", "err", serr)
	}
	return err
}

func validateE(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	res := config.ValidateJSON(data)
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	if !res.Valid() {
		return fmt.Errorf("%s: %w", args[0], config.ErrInvalidOperating)
	}
	return nil
}

func offE(cmd *cobra.Command, _ []string) error {
	settings, log, err := loadSettings()
	if err != nil {
		return err
	}
	relay, sensor := newHardware(settings)
	defer func() { _ = relay.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), shutdownTimeout)
	defer cancel()

	// New drives the relay off before it reads any config, so a config error
	// still leaves the heater off.
	_, err = thermostat.New(ctx, relay, sensor, config.NewLoader(settings.BootFile, nil), thermostat.WithLogger(log))
	if err != nil {
		log.Warnw("thermostat did not initialize after forcing off", "err", err)
	}
	if on, ok := relay.Get(); ok && on {
		return errors.New("relay still reads on after force off")
	}
	fmt.Fprintln(cmd.OutOrStdout(), "heater forced off")
	return nil
}
