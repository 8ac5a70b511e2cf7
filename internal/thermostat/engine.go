// Package thermostat decides, once per cycle, whether the heater relay should be
// closed. It resolves the operating schedule into an intent, runs that intent past
// the safety interlocks and is the only code that writes to the relay.
package thermostat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"thermostat_relay/internal/config"
	"thermostat_relay/internal/hardware"
	"thermostat_relay/internal/logger"
)

// Thermostat owns the heater state. It is not safe for concurrent use; callers
// serialize cycles.
type Thermostat struct {
	relay  hardware.RelayDriver
	sensor hardware.TemperatureSensor
	source config.Source
	clock  func() time.Time
	log    *logger.Logger

	boot      config.BootConfig
	operating config.OperatingConfig
	state     State
	decision  Decision
	processed bool
	changed   bool
	history   []CommandRecord
	prior     *State
}

// Option configures a Thermostat.
type Option func(*Thermostat)

// WithClock replaces time.Now. Tests use it to replay fixed instants.
func WithClock(clock func() time.Time) Option {
	return func(t *Thermostat) { t.clock = clock }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(log *logger.Logger) Option {
	return func(t *Thermostat) { t.log = log }
}

// WithPriorState carries the relay history of a discarded thermostat into the
// new one, so a rebuild does not reset the anti-cycling window. A heater that
// was on is stamped as stopping when the new instance forces it off.
func WithPriorState(prev State) Option {
	return func(t *Thermostat) { t.prior = &prev }
}

// New forces the heater off, then loads boot.json, loads the operating document,
// applies the safety limits and initializes the relay, in that order. Any failure
// forces the heater off again and is returned wrapped in ErrInitializeFailed.
func New(ctx context.Context, relay hardware.RelayDriver, sensor hardware.TemperatureSensor, source config.Source, opts ...Option) (*Thermostat, error) {
	t := &Thermostat{
		relay:  relay,
		sensor: sensor,
		source: source,
		clock:  time.Now,
		log:    logger.Nop(),
		state:  newState(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.state.CurrentTime = t.clock()
	if t.prior != nil {
		t.state.LastOnTime = t.prior.LastOnTime
		t.state.HeaterOn = t.prior.HeaterOn
	}

	if err := t.initialize(ctx); err != nil {
		if offErr := t.ForceOff("initialize failed"); offErr != nil {
			t.log.Errorw("force off after failed initialize", "err", offErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrInitializeFailed, err)
	}
	return t, nil
}

func (t *Thermostat) initialize(ctx context.Context) error {
	if err := t.ForceOff("starting"); err != nil {
		return err
	}

	boot, err := t.source.LoadBoot(ctx)
	if err != nil {
		return fmt.Errorf("load boot config: %w", err)
	}
	t.boot = boot

	op, err := t.source.LoadOperating(ctx, boot.Source)
	if err != nil {
		return fmt.Errorf("load operating config: %w", err)
	}
	t.operating = op

	t.log.Infow("safety limits",
		"max_heater_on_time_minutes", boot.MaxHeaterOnTimeMinutes,
		"hysteresis_duration", boot.HysteresisDuration,
		"max_temp_f", boot.MaxTempF,
	)

	if err := t.relay.Initialize(); err != nil {
		return fmt.Errorf("initialize relay: %w", err)
	}
	t.record(hardware.CmdInitialize)
	t.log.Infow("thermostat initialized", "heater_name", op.HeaterName, "mode", op.Mode())
	return nil
}

// ProcessSchedule runs one cycle: it samples the clock, reloads the operating
// document, reads the thermometer and applies the result.
func (t *Thermostat) ProcessSchedule(ctx context.Context) error {
	now := t.clock()

	op, err := t.source.LoadOperating(ctx, t.boot.Source)
	if err != nil {
		return fmt.Errorf("load operating config: %w", err)
	}
	tempF, err := t.sensor.ReadFahrenheit()
	if err != nil {
		return fmt.Errorf("read temperature: %w", err)
	}
	return t.Process(now, tempF, op)
}

// Process runs one cycle against the given instant, temperature and operating config.
func (t *Thermostat) Process(now time.Time, tempF float64, op config.OperatingConfig) error {
	t.history = nil
	t.changed = false
	t.state.CurrentTime = now
	t.state.CurrentTempF = tempF
	t.operating = op

	d, err := Resolve(op, now, tempF)
	if err != nil {
		return err
	}
	t.decision = d
	t.processed = true
	t.state.LastUserInputTime = d.LastUserInput

	t.log.Debugw("cycle",
		"mode", d.Mode,
		"temp_f", tempF,
		"want_on", d.WantOn,
		"goal_f", d.GoalTempF,
		"window", d.Window,
	)
	return t.SetHeaterState(d.WantOn, d.GoalTempF)
}

// Observe pins the instant and temperature the interlocks are evaluated against,
// without running a cycle.
func (t *Thermostat) Observe(now time.Time, tempF float64) {
	t.state.CurrentTime = now
	t.state.CurrentTempF = tempF
}

// SetHeaterState is the only path that turns the heater on.
//
//   - wantOn false: the heater goes off; LastOnTime is stamped if it was on.
//   - wantOn true and every interlock passes: the heater goes on; goal is required.
//   - wantOn true but only hysteresis blocks: a running heater keeps running,
//     a stopped heater stays stopped.
//   - anything else is unsafe: the heater is forced off.
//
// The goal temperature is recorded in every case.
func (t *Thermostat) SetHeaterState(wantOn bool, goal *float64) error {
	t.syncRelay()
	s := &t.state

	switch {
	case !wantOn:
		if s.HeaterOn {
			s.LastOnTime = s.CurrentTime
		}
		s.GoalTempF = goal
		return t.switchRelay(false)

	case SafeToTurnOn(*s, t.boot):
		if goal == nil {
			return ErrInvalidTemperature
		}
		s.GoalTempF = goal
		if !s.HeaterOn {
			s.LastOnTime = s.CurrentTime
		}
		return t.switchRelay(true)

	case InHysteresis(*s, t.boot.Hysteresis) && SafeExceptHysteresis(*s, t.boot):
		s.GoalTempF = goal
		if !s.HeaterOn {
			t.log.Infow("heater wants on but is held off by hysteresis", "goal_f", goal, "last_on", s.LastOnTime)
		}
		return nil

	default:
		t.log.Warnw("unsafe to run heater, forcing off",
			"goal_f", goal,
			"temp_f", s.CurrentTempF,
			"too_hot", TooHotToOperate(s.CurrentTempF, t.boot.MaxTempF),
			"on_too_long", HeaterOnTooLong(*s, t.boot.MaxHeaterOnTimeMinutes),
		)
		if s.HeaterOn {
			s.LastOnTime = s.CurrentTime
		}
		s.GoalTempF = goal
		return t.driveOff()
	}
}

// ForceOff opens the relay unconditionally.
func (t *Thermostat) ForceOff(reason string) error {
	t.syncRelay()
	if t.state.HeaterOn {
		t.state.LastOnTime = t.state.CurrentTime
	}
	t.log.Infow("forcing heater off", "reason", reason)
	return t.driveOff()
}

// switchRelay writes the relay only when the position changes.
func (t *Thermostat) switchRelay(on bool) error {
	if t.state.HeaterOn == on {
		return nil
	}
	if !on {
		return t.driveOff()
	}
	if err := t.relay.Set(true); err != nil {
		if offErr := t.driveOff(); offErr != nil {
			err = errors.Join(err, offErr)
		}
		return fmt.Errorf("turn heater on: %w", err)
	}
	t.record(hardware.CmdHeaterOn)
	t.state.HeaterOn = true
	t.changed = true
	t.log.Infow("heater on", "goal_f", t.state.GoalTempF, "temp_f", t.state.CurrentTempF)
	return nil
}

func (t *Thermostat) driveOff() error {
	wasOn := t.state.HeaterOn
	t.record(hardware.CmdHeaterOff)
	if err := t.relay.Set(false); err != nil {
		return fmt.Errorf("turn heater off: %w", err)
	}
	t.state.HeaterOn = false
	if wasOn {
		t.changed = true
		t.log.Infow("heater off", "goal_f", t.state.GoalTempF, "temp_f", t.state.CurrentTempF)
	}
	return nil
}

// syncRelay trusts a determinate relay read over the software record.
func (t *Thermostat) syncRelay() {
	if on, ok := t.relay.Get(); ok {
		t.state.HeaterOn = on
	}
}

func (t *Thermostat) record(cmd hardware.Command) {
	t.history = append(t.history, CommandRecord{At: t.state.CurrentTime, Command: cmd})
}

// State returns a copy of the current state.
func (t *Thermostat) State() State {
	s := t.state
	if s.GoalTempF != nil {
		s.GoalTempF = floatPtr(*s.GoalTempF)
	}
	return s
}

// Boot returns the safety limits in force.
func (t *Thermostat) Boot() config.BootConfig { return t.boot }

// Operating returns the operating document used by the latest cycle.
func (t *Thermostat) Operating() config.OperatingConfig { return t.operating }

// HeaterStateChanged reports whether the latest cycle moved the relay.
func (t *Thermostat) HeaterStateChanged() bool { return t.changed }

// CommandHistory returns the commands issued since the latest cycle began.
func (t *Thermostat) CommandHistory() []CommandRecord {
	return append([]CommandRecord(nil), t.history...)
}

// CommandsAt returns the commands issued at instant at.
func (t *Thermostat) CommandsAt(at time.Time) []hardware.Command {
	var out []hardware.Command
	for _, r := range t.history {
		if r.At.Equal(at) {
			out = append(out, r.Command)
		}
	}
	return out
}

// InHysteresis evaluates the hysteresis interlock against the current state.
func (t *Thermostat) InHysteresis() bool { return InHysteresis(t.state, t.boot.Hysteresis) }

// HeaterOnTooLong evaluates the runtime interlock against the current state.
func (t *Thermostat) HeaterOnTooLong() bool {
	return HeaterOnTooLong(t.state, t.boot.MaxHeaterOnTimeMinutes)
}

// TooHotToOperate evaluates the temperature cutoff against the current reading.
func (t *Thermostat) TooHotToOperate() bool {
	return TooHotToOperate(t.state.CurrentTempF, t.boot.MaxTempF)
}

// SafeToTurnOn evaluates every interlock against the current state.
func (t *Thermostat) SafeToTurnOn() bool { return SafeToTurnOn(t.state, t.boot) }
