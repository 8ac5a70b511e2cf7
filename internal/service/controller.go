package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"thermostat_relay/internal/logger"
	"thermostat_relay/internal/metrics"
	"thermostat_relay/internal/models"
	"thermostat_relay/internal/publisher"
	"thermostat_relay/internal/repository"
	"thermostat_relay/internal/thermostat"

	"github.com/google/uuid"
)

const (
	// shutdownTimeout bounds the final forced off after the run context is gone.
	shutdownTimeout = 10 * time.Second
	// publishTimeout bounds one sink's delivery of one snapshot.
	publishTimeout = 10 * time.Second
)

// stateRowID is the id of the single persisted snapshot row.
const stateRowID = 1

// Builder constructs a fresh thermostat with the given extra options.
// thermostat.New drives the relay off before it loads anything, so every build
// is also a safety shutdown.
type Builder func(ctx context.Context, opts ...thermostat.Option) (*thermostat.Thermostat, error)

// sinkGate applies the upload policy to one sink, so a sink that keeps failing
// does not make the healthy ones publish every cycle.
type sinkGate struct {
	sink        publisher.StatusSink
	published   bool
	lastPublish time.Time
}

func (g *sinkGate) due(now time.Time, changed bool, every time.Duration) bool {
	if !g.published || changed {
		return true
	}
	return now.After(g.lastPublish.Add(every))
}

// snapshot is what a cycle hands to the publishers once the engine lock is released.
type snapshot struct {
	status  thermostat.Status
	now     time.Time
	changed bool
	every   time.Duration
}

// ControllerService owns the thermostat and serializes every access to it.
// Publishing runs outside that lock so a slow sink never delays a force off.
type ControllerService struct {
	mu        sync.Mutex
	build     Builder
	th        *thermostat.Thermostat
	interval  time.Duration
	stateRepo repository.StateRepo
	eventRepo repository.EventRepo
	metrics   *metrics.Metrics
	log       *logger.Logger

	held      bool
	status    thermostat.Status
	hasStatus bool
	// prior is the state of the last discarded thermostat, handed to the next build.
	prior *thermostat.State

	pubMu          sync.Mutex
	sinks          []*sinkGate
	publishTimeout time.Duration
}

// ControllerOption configures a ControllerService.
type ControllerOption func(*ControllerService)

// WithSink adds a destination for status snapshots. The members of a
// publisher.Multi are gated one by one.
func WithSink(sink publisher.StatusSink) ControllerOption {
	return func(c *ControllerService) {
		if m, ok := sink.(publisher.Multi); ok {
			for _, s := range m {
				c.sinks = append(c.sinks, &sinkGate{sink: s})
			}
			return
		}
		if sink != nil {
			c.sinks = append(c.sinks, &sinkGate{sink: sink})
		}
	}
}

func WithMetrics(m *metrics.Metrics) ControllerOption {
	return func(c *ControllerService) { c.metrics = m }
}

func WithLogger(log *logger.Logger) ControllerOption {
	return func(c *ControllerService) { c.log = log }
}

// NewControllerService returns a controller that cycles every interval.
func NewControllerService(build Builder, interval time.Duration, stateRepo repository.StateRepo, eventRepo repository.EventRepo, opts ...ControllerOption) *ControllerService {
	c := &ControllerService{
		build:          build,
		interval:       interval,
		stateRepo:      stateRepo,
		eventRepo:      eventRepo,
		log:            logger.Nop(),
		publishTimeout: publishTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run cycles at the configured interval until ctx is canceled, then forces the
// heater off.
func (c *ControllerService) Run(ctx context.Context) {
	defer c.shutdown()

	t := time.NewTicker(c.interval)
	defer t.Stop()

	c.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.runCycle(ctx)
		}
	}
}

func (c *ControllerService) runCycle(ctx context.Context) {
	if err := c.Cycle(ctx); err != nil {
		c.log.Errorw("cycle_failed", "err", err, "critical", thermostat.IsCritical(err))
	}
}

// Cycle runs one schedule cycle and then publishes the snapshot to every sink
// that is due. A failed cycle discards the thermostat and builds a new one
// straight away, which forces the heater off.
func (c *ControllerService) Cycle(ctx context.Context) error {
	snap, err := c.step(ctx)
	if err != nil || snap == nil {
		return err
	}
	c.publish(ctx, *snap)
	return nil
}

// step runs the engine under the lock. It returns nil when nothing ran.
func (c *ControllerService) step(ctx context.Context) (*snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.held {
		c.log.Debugw("cycle_skipped", "reason", "forced off by operator")
		return nil, nil
	}
	if c.th == nil {
		if err := c.rebuild(ctx); err != nil {
			return nil, err
		}
	}

	if err := c.th.ProcessSchedule(ctx); err != nil {
		c.countError("process")
		c.appendEvent(ctx, time.Now(), models.EventError, "schedule cycle failed", map[string]any{"err": err.Error()})
		c.discard()
		if rerr := c.rebuild(ctx); rerr != nil {
			return nil, errors.Join(err, rerr)
		}
		return nil, err
	}

	st := c.th.State()
	changed := c.th.HeaterStateChanged()
	if changed {
		typ, desc := models.EventHeaterOff, "Heater turned off"
		if st.HeaterOn {
			typ, desc = models.EventHeaterOn, "Heater turned on"
		}
		c.appendEvent(ctx, st.CurrentTime, typ, desc, map[string]any{
			"temp_f": st.CurrentTempF,
			"goal_f": st.GoalTempF,
		})
	}
	if c.metrics != nil {
		c.metrics.ObserveCycle(st.HeaterOn, changed, st.CurrentTempF, st.GoalTempF)
	}
	c.persist(ctx)
	c.refreshStatus()

	return &snapshot{
		status:  c.status,
		now:     st.CurrentTime,
		changed: changed,
		every:   c.th.Boot().Source.UploadInterval,
	}, nil
}

// discard drops the thermostat and keeps its relay history for the next build.
func (c *ControllerService) discard() {
	if c.th == nil {
		return
	}
	st := c.th.State()
	c.prior = &st
	c.th = nil
}

func (c *ControllerService) buildOptions() []thermostat.Option {
	if c.prior == nil {
		return nil
	}
	return []thermostat.Option{thermostat.WithPriorState(*c.prior)}
}

// rebuild replaces the thermostat. On failure the heater has already been
// forced off and the next cycle tries again.
func (c *ControllerService) rebuild(ctx context.Context) error {
	th, err := c.build(ctx, c.buildOptions()...)
	if err != nil {
		c.countError("build")
		c.appendEvent(ctx, time.Now(), models.EventError, "thermostat initialize failed", map[string]any{"err": err.Error()})
		return err
	}
	c.th = th
	c.prior = nil
	op := th.Operating()
	c.appendEvent(ctx, th.State().CurrentTime, models.EventConfig, "Thermostat initialized", map[string]any{
		"heater_name": op.HeaterName,
		"mode":        string(op.Mode()),
	})
	c.log.Infow("thermostat_ready", "heater_name", op.HeaterName, "mode", op.Mode())
	return nil
}

// publish uploads to each sink on its first delivery, on every relay transition
// and once the boot upload interval has passed since that sink's last good
// publish. A failed sink is retried next cycle without holding back the others.
func (c *ControllerService) publish(ctx context.Context, snap snapshot) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	for _, g := range c.sinks {
		if !g.due(snap.now, snap.changed, snap.every) {
			continue
		}
		pctx, cancel := context.WithTimeout(ctx, c.publishTimeout)
		err := g.sink.Publish(pctx, snap.status)
		cancel()
		if err != nil {
			c.log.Warnw("status_publish_failed", "sink", fmt.Sprintf("%T", g.sink), "err", err)
			c.countPublish("error")
			continue
		}
		c.countPublish("ok")
		g.published = true
		g.lastPublish = snap.now
	}
}

func (c *ControllerService) refreshStatus() {
	if st, ok := c.th.Status(); ok {
		c.status, c.hasStatus = st, true
	}
}

// persist saves the engine state as the snapshot row. Failures are logged only.
func (c *ControllerService) persist(ctx context.Context) {
	st := c.th.State()
	row := models.ThermostatState{
		ID:           stateRowID,
		HeaterName:   c.th.Operating().HeaterName,
		Mode:         string(c.th.Operating().Mode()),
		CurrentTempF: st.CurrentTempF,
		GoalTempF:    st.GoalTempF,
		HeaterOn:     st.HeaterOn,
		SafetyFlags:  safetyFlags(c.th),
		UpdatedAt:    st.CurrentTime,
	}
	if !st.LastOnTime.IsZero() {
		last := st.LastOnTime
		row.LastOnTime = &last
	}
	if err := c.stateRepo.Save(ctx, row); err != nil {
		c.countError("persist")
		c.log.Warnw("state_save_failed", "err", err)
	}
}

func safetyFlags(th *thermostat.Thermostat) []string {
	var flags []string
	if th.TooHotToOperate() {
		flags = append(flags, models.FlagTooHot)
	}
	if th.HeaterOnTooLong() {
		flags = append(flags, models.FlagOnTooLong)
	}
	if th.InHysteresis() {
		flags = append(flags, models.FlagInHysteresis)
	}
	return flags
}

func (c *ControllerService) appendEvent(ctx context.Context, at time.Time, typ, desc string, meta map[string]any) {
	err := c.eventRepo.Append(ctx, models.HeaterEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  at.UTC(),
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	})
	if err != nil {
		c.log.Warnw("event_append_failed", "type", typ, "err", err)
	}
}

func (c *ControllerService) countError(stage string) {
	if c.metrics != nil {
		c.metrics.CycleErrors.WithLabelValues(stage).Inc()
	}
}

func (c *ControllerService) countPublish(result string) {
	if c.metrics != nil {
		c.metrics.Publishes.WithLabelValues(result).Inc()
	}
}

// Status returns the status document of the latest cycle.
func (c *ControllerService) Status() (thermostat.Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.hasStatus
}

// shutdown forces the heater off once Run is done. It uses the live thermostat
// when there is one and a rescue instance otherwise.
func (c *ControllerService) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.th != nil {
		err := c.th.ForceOff("controller stopped")
		if err == nil {
			c.persist(ctx)
			c.appendEvent(ctx, time.Now(), models.EventForceOff, "Controller stopped", nil)
			c.log.Infow("heater_forced_off", "reason", "controller stopped")
			return
		}
		c.log.Errorw("force_off_failed", "err", err)
	}
	c.discard()
	// A rescue instance drives the relay off before it loads any config, so
	// the error only matters for the log.
	if _, err := c.build(ctx, c.buildOptions()...); err != nil {
		c.log.Errorw("rescue_initialize_failed", "err", err)
	}
	c.appendEvent(ctx, time.Now(), models.EventForceOff, "Controller stopped", map[string]any{"rescue": true})
}
