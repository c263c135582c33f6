package guard

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mt5-guard/internal/errors"
	"mt5-guard/internal/logging"
	"mt5-guard/internal/marketdata"
	"mt5-guard/internal/models"
	"mt5-guard/internal/orders"
	"mt5-guard/internal/store"
	"mt5-guard/internal/venue"
)

// SchedulerConfig holds scheduler tuning.
type SchedulerConfig struct {
	// Interval between guard cycles.
	Interval time.Duration
	// CallTimeout bounds every venue call made within a cycle. A timed-out
	// call is a transient failure for that ticket only.
	CallTimeout time.Duration
}

// DefaultSchedulerConfig returns the default scheduler tuning.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:    2 * time.Second,
		CallTimeout: 5 * time.Second,
	}
}

// Scheduler drives the trailing-stop engine across all registered tickets
// on a fixed interval. One background goroutine runs cycles; per-ticket
// failures are isolated so an error on one ticket never aborts the rest of
// the cycle.
type Scheduler struct {
	registry *Registry
	pipeline *orders.Pipeline
	gateway  venue.Gateway
	cache    *marketdata.Cache
	journal  store.GuardStore // optional
	logger   zerolog.Logger
	clock    Clock
	cfg      SchedulerConfig

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewScheduler creates a scheduler. journal may be nil.
func NewScheduler(reg *Registry, pipe *orders.Pipeline, gw venue.Gateway, cache *marketdata.Cache, journal store.GuardStore, logger zerolog.Logger, clock Clock, cfg SchedulerConfig) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSchedulerConfig().Interval
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultSchedulerConfig().CallTimeout
	}
	return &Scheduler{
		registry: reg,
		pipeline: pipe,
		gateway:  gw,
		cache:    cache,
		journal:  journal,
		logger:   logger,
		clock:    clock,
		cfg:      cfg,
	}
}

// Start loads persisted registrations and begins cycling. It is an error
// to start a running scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.Wrap(errors.ErrConfigInvalid, "scheduler already running")
	}
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	s.mu.Unlock()

	if err := s.registry.Load(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load persisted trail configs")
	}

	go s.loop(loopCtx)
	s.logger.Info().
		Dur("interval", s.cfg.Interval).
		Int("tickets", s.registry.Len()).
		Msg("Position guard started")
	return nil
}

// Stop requests a clean shutdown: the in-flight cycle completes, then the
// loop exits. Stop blocks until the loop has exited.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info().Msg("Position guard stopped")
}

// Running reports whether the scheduler loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// loop checks for cancellation only at the sleep boundary, so an in-flight
// cycle always runs to completion before shutdown.
func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := s.clock.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			s.RunCycle(context.WithoutCancel(ctx))
		}
	}
}

// RunCycle processes every registered ticket once. Exported so callers can
// drive a cycle manually (tests, one-shot CLI use).
func (s *Scheduler) RunCycle(ctx context.Context) {
	for _, cfg := range s.registry.Snapshot() {
		entry := cfg
		outcome := s.processTicket(ctx, &entry)
		if !outcome.Success && outcome.Reason != models.ReasonNotFound {
			ticketLogger := logging.WithTicket(s.logger, entry.Ticket)
			ticketLogger.Warn().
				Str("reason", string(outcome.Reason)).
				Msg(outcome.Message)
		}
	}
}

// processTicket runs one guard step for a single ticket: refetch the
// position, compute the trailing decision, and apply any update through
// the pipeline's stop/target modify path.
func (s *Scheduler) processTicket(ctx context.Context, cfg *models.TrailConfig) models.Outcome {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	pos, err := s.gateway.GetPosition(callCtx, cfg.Ticket)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) || errors.Is(err, errors.ErrPositionGone) {
			return s.deregisterGone(ctx, cfg)
		}
		// Transient for this ticket only; the entry stays registered.
		return models.Fail(models.ReasonTransient, err.Error())
	}

	quote, err := s.cache.Quote(callCtx, pos.Symbol)
	if err != nil {
		return models.Fail(models.ReasonTransient, err.Error())
	}
	inst, err := s.cache.Instrument(callCtx, pos.Symbol)
	if err != nil {
		return models.Fail(models.ReasonTransient, err.Error())
	}

	decision := ComputeUpdate(pos, quote, cfg, inst.Digits)
	if decision.Kind != Update {
		return models.OK(decision.Kind.String())
	}

	outcome, err := s.pipeline.ModifyStopTarget(callCtx, cfg.Ticket, decision.NewStop, pos.TakeProfit)
	if err != nil {
		return outcome
	}

	if err := s.registry.UpdateLastStop(ctx, cfg.Ticket, decision.NewStop); err != nil {
		s.logger.Warn().Err(err).Uint64("ticket", cfg.Ticket).Msg("Failed to record applied stop")
	}
	logging.LogTrailUpdate(s.logger, cfg.Ticket, pos.Symbol, pos.StopLoss, decision.NewStop)
	s.journalEvent(ctx, store.EventTrailMove, cfg.Ticket, pos.Symbol, outcome)
	return outcome
}

// deregisterGone removes a ticket whose position no longer exists.
func (s *Scheduler) deregisterGone(ctx context.Context, cfg *models.TrailConfig) models.Outcome {
	if err := s.registry.Deregister(ctx, cfg.Ticket); err != nil {
		s.logger.Warn().Err(err).Uint64("ticket", cfg.Ticket).Msg("Failed to deregister closed position")
	}
	ticketLogger := logging.WithTicket(s.logger, cfg.Ticket)
	ticketLogger.Info().Msg("Position closed, trailing stop removed")
	outcome := models.Fail(models.ReasonNotFound, "position gone, deregistered")
	s.journalEvent(ctx, store.EventDeregister, cfg.Ticket, cfg.Symbol, outcome)
	return outcome
}

func (s *Scheduler) journalEvent(ctx context.Context, kind store.EventKind, ticket uint64, symbol string, outcome models.Outcome) {
	if s.journal == nil {
		return
	}
	event := &store.Event{
		Time:    s.clock.Now(),
		Kind:    kind,
		Ticket:  ticket,
		Symbol:  symbol,
		Success: outcome.Success,
		Reason:  string(outcome.Reason),
		Message: outcome.Message,
	}
	if err := s.journal.LogEvent(ctx, event); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to journal guard event")
	}
}
