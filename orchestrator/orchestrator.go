package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"tender-scraper/metrics"
	"tender-scraper/models"
	"tender-scraper/scraper"
	"tender-scraper/services"
	"tender-scraper/storage"
	"tender-scraper/utils"
)

// State is the scheduler state exposed on the health endpoint.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateSleeping State = "sleeping"
	StateStopped  State = "stopped"
)

// SessionFactory starts a browser session for one sweep.
type SessionFactory func() (scraper.Session, error)

// Config controls the sweep schedule.
type Config struct {
	// Interval is the pause between the end of one sweep and the next.
	Interval time.Duration
	// CooldownAfter consecutive failed passes park a source for CooldownFor.
	// Zero disables cooldowns.
	CooldownAfter int
	CooldownFor   time.Duration
}

// Deps are the optional collaborators of an Orchestrator.
type Deps struct {
	Cooldown storage.Cooldown
	Reports  *services.ReportService
	Metrics  *metrics.Metrics
	Logger   *utils.Logger
}

// Orchestrator runs the adapters one after another over a single browser
// session, then sleeps, until its context is cancelled.
type Orchestrator struct {
	cfg        Config
	adapters   []scraper.Adapter
	newSession SessionFactory
	cooldown   storage.Cooldown
	reports    *services.ReportService
	metrics    *metrics.Metrics
	logger     *utils.Logger

	mu       sync.RWMutex
	state    State
	sweeps   int
	last     *models.SweepReport
	failures map[models.Source]int
}

// New creates an Orchestrator. Adapters run in the given order.
func New(cfg Config, adapters []scraper.Adapter, newSession SessionFactory, deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = utils.NopLogger()
	}
	return &Orchestrator{
		cfg:        cfg,
		adapters:   adapters,
		newSession: newSession,
		cooldown:   deps.Cooldown,
		reports:    deps.Reports,
		metrics:    deps.Metrics,
		logger:     deps.Logger.Component("orchestrator"),
		state:      StateIdle,
		failures:   make(map[models.Source]int),
	}
}

// State returns the current scheduler state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// LastReport returns the most recent finished sweep, or nil.
func (o *Orchestrator) LastReport() *models.SweepReport {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.last
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Run sweeps forever. Cancellation is observed between sources and during
// the sleep; it returns once the current source has finished.
func (o *Orchestrator) Run(ctx context.Context) {
	defer o.setState(StateStopped)
	o.logger.Info("starting: %d sources, every %v", len(o.adapters), o.cfg.Interval)

	for {
		if ctx.Err() != nil {
			o.logger.Info("stopping")
			return
		}

		o.setState(StateRunning)
		o.Sweep(ctx)

		o.setState(StateSleeping)
		o.logger.Info("sleeping for %v", o.cfg.Interval)
		if err := utils.Sleep(ctx, o.cfg.Interval); err != nil {
			o.logger.Info("stopping")
			return
		}
	}
}

// Sweep runs every adapter once and returns the report.
func (o *Orchestrator) Sweep(ctx context.Context) *models.SweepReport {
	o.mu.Lock()
	o.sweeps++
	report := &models.SweepReport{Number: o.sweeps, StartedAt: time.Now()}
	o.mu.Unlock()

	defer func() {
		report.FinishedAt = time.Now()
		o.metrics.ObserveSweep(report.FinishedAt.Sub(report.StartedAt))
		if o.reports != nil {
			o.reports.Log(report)
			o.reports.Print(report)
		}
		o.mu.Lock()
		o.last = report
		o.mu.Unlock()
	}()

	session, err := o.newSession()
	if err != nil {
		o.logger.Error("browser unavailable, skipping sweep #%d: %v", report.Number, err)
		o.metrics.IncNavigationError("browser")
		return report
	}
	defer session.Close()

	for _, a := range o.adapters {
		if ctx.Err() != nil {
			break
		}
		source := a.Source()
		if o.parked(source) {
			o.logger.Info("%s is cooling down, skipped", source)
			continue
		}

		rep := a.Run(ctx, session)
		report.Sources = append(report.Sources, rep)
		o.track(ctx, source, rep)
	}
	return report
}

func (o *Orchestrator) parked(source models.Source) bool {
	if o.cooldown == nil {
		return false
	}
	blocked, err := o.cooldown.Blocked(source)
	if err != nil {
		o.logger.Debug("cooldown lookup for %s failed: %v", source, err)
		return false
	}
	return blocked
}

// track counts consecutive failed passes and parks a source that keeps
// failing.
func (o *Orchestrator) track(ctx context.Context, source models.Source, rep *models.SourceReport) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if rep.Err == nil || errors.Is(rep.Err, context.Canceled) || ctx.Err() != nil {
		if rep.Err == nil {
			o.failures[source] = 0
		}
		return
	}

	o.failures[source]++
	if o.cooldown == nil || o.cfg.CooldownAfter <= 0 || o.failures[source] < o.cfg.CooldownAfter {
		return
	}
	if err := o.cooldown.Block(source, o.cfg.CooldownFor); err != nil {
		o.logger.Warn("could not park %s: %v", source, err)
		return
	}
	o.failures[source] = 0
	o.metrics.IncCooldown(source)
	o.logger.Warn("%s failed %d passes in a row, parked for %v", source, o.cfg.CooldownAfter, o.cfg.CooldownFor)
}
