// Package recorder journals provider attempts and generation cycles so
// provider health can be inspected after the fact.
package recorder

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/th3rrry/minees/internal/collector"
	"github.com/th3rrry/minees/internal/model"
)

// Cycle is one completed generation cycle of a group.
type Cycle struct {
	Group   string
	Started time.Time
	Took    time.Duration
}

// ProviderStat aggregates attempts of one provider and kind.
type ProviderStat struct {
	Provider  string    `json:"provider"`
	Kind      string    `json:"kind"`
	Attempts  int       `json:"attempts"`
	Failures  int       `json:"failures"`
	AvgMillis float64   `json:"avgMillis"`
	LastError string    `json:"lastError,omitempty"`
	LastAt    time.Time `json:"lastAt"`
}

// Recorder persists provider attempts and cycles.
type Recorder interface {
	RecordAttempt(ctx context.Context, a collector.Attempt) error
	RecordCycle(ctx context.Context, c Cycle) error
	ProviderStats(ctx context.Context, since time.Time) ([]ProviderStat, error)
	Close() error
}

// Journal feeds a Recorder from the collector and scheduler observer hooks.
// Write failures are logged and never reach the caller.
type Journal struct {
	rec     Recorder
	log     zerolog.Logger
	now     func() time.Time
	timeout time.Duration
}

func NewJournal(rec Recorder, log zerolog.Logger) *Journal {
	return &Journal{
		rec:     rec,
		log:     log.With().Str("component", "journal").Logger(),
		now:     time.Now,
		timeout: 2 * time.Second,
	}
}

func (j *Journal) ObserveAttempt(a collector.Attempt) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	if err := j.rec.RecordAttempt(ctx, a); err != nil {
		j.log.Error().Err(err).Str("tier", a.Provider).Msg("record attempt")
	}
}

func (j *Journal) ObserveSignal(string, model.Signal) {}

func (j *Journal) ObserveCycle(group string, took time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	c := Cycle{Group: group, Started: j.now().Add(-took), Took: took}
	if err := j.rec.RecordCycle(ctx, c); err != nil {
		j.log.Error().Err(err).Str("group", group).Msg("record cycle")
	}
}

// Stats returns per-provider aggregates since the given time.
func (j *Journal) Stats(ctx context.Context, since time.Time) ([]ProviderStat, error) {
	return j.rec.ProviderStats(ctx, since)
}
