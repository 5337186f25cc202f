package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/th3rrry/minees/internal/model"
)

// Generator produces one signal per instrument and never fails.
type Generator interface {
	Generate(ctx context.Context, id string) model.Signal
}

// Store keeps the latest signal per instrument.
type Store interface {
	Put(sig model.Signal)
}

// Publisher pushes a signal to subscribers.
type Publisher interface {
	Publish(ctx context.Context, sig model.Signal) error
}

// Observer is told about every generated signal and every finished cycle.
type Observer interface {
	ObserveSignal(group string, sig model.Signal)
	ObserveCycle(group string, took time.Duration)
}

// Group is a set of instruments regenerated on one interval.
type Group struct {
	Name        string
	Interval    time.Duration
	Instruments []string
}

// Scheduler runs generation cycles per group on cron intervals.
type Scheduler struct {
	Cron      *cron.Cron
	gen       Generator
	store     Store
	pub       Publisher
	groups    []Group
	locks     map[string]*sync.Mutex
	observers []Observer
	log       zerolog.Logger
	ctx       context.Context
}

// NewScheduler creates a Scheduler. Groups run in the given order on RunAllNow.
func NewScheduler(ctx context.Context, gen Generator, store Store, pub Publisher, groups []Group, log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: log}
	s := &Scheduler{
		Cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		gen:    gen,
		store:  store,
		pub:    pub,
		groups: groups,
		locks:  make(map[string]*sync.Mutex, len(groups)),
		log:    log,
		ctx:    ctx,
	}
	for _, g := range groups {
		s.locks[g.Name] = &sync.Mutex{}
	}
	return s
}

// Observe registers cycle observers.
func (s *Scheduler) Observe(obs ...Observer) { s.observers = append(s.observers, obs...) }

// Groups returns the configured groups.
func (s *Scheduler) Groups() []Group { return s.groups }

// RegisterAll adds one @every job per group.
func (s *Scheduler) RegisterAll() error {
	for _, g := range s.groups {
		if g.Interval <= 0 {
			return fmt.Errorf("register %s group: interval must be positive", g.Name)
		}
		g := g
		if _, err := s.Cron.AddFunc(fmt.Sprintf("@every %s", g.Interval), func() { s.runGroup(g) }); err != nil {
			return fmt.Errorf("register %s group: %w", g.Name, err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("groups", len(s.groups)).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunAllNow runs every group once, in order.
func (s *Scheduler) RunAllNow() {
	for _, g := range s.groups {
		s.runGroup(g)
	}
}

// RunGroupNow runs one group immediately (manual trigger).
func (s *Scheduler) RunGroupNow(name string) error {
	for _, g := range s.groups {
		if g.Name == name {
			s.runGroup(g)
			return nil
		}
	}
	return fmt.Errorf("unknown group %q", name)
}

// runGroup processes the group's instruments sequentially. A cycle already in
// progress for the same group makes this call a no-op.
func (s *Scheduler) runGroup(g Group) {
	mu := s.locks[g.Name]
	if !mu.TryLock() {
		s.log.Warn().Str("group", g.Name).Msg("cycle still running, skipped")
		return
	}
	defer mu.Unlock()

	start := time.Now()
	s.log.Info().Str("group", g.Name).Int("instruments", len(g.Instruments)).Msg("cycle started")
	for _, id := range g.Instruments {
		if s.ctx.Err() != nil {
			s.log.Info().Str("group", g.Name).Msg("cycle cancelled")
			return
		}
		s.runInstrument(g.Name, id)
	}
	took := time.Since(start)
	for _, o := range s.observers {
		o.ObserveCycle(g.Name, took)
	}
	s.log.Info().Str("group", g.Name).Dur("took", took).Msg("cycle finished")
}

// runInstrument stores then publishes one signal. Failures stay local to the instrument.
func (s *Scheduler) runInstrument(group, id string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("group", group).Str("instrument", id).Interface("panic", r).Msg("instrument cycle panicked")
		}
	}()

	sig := s.gen.Generate(s.ctx, id)
	s.store.Put(sig)
	for _, o := range s.observers {
		o.ObserveSignal(group, sig)
	}
	if err := s.pub.Publish(s.ctx, sig); err != nil {
		s.log.Error().Err(err).Str("instrument", id).Msg("publish signal")
	}
	s.log.Debug().Str("instrument", id).Str("signal", string(sig.Direction)).
		Int("confidence", sig.Confidence).Str("path", string(sig.Path)).Msg("signal generated")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
