package recorder

import (
	"context"
	"time"

	"github.com/th3rrry/minees/internal/collector"
)

// NoopRecorder is used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (NoopRecorder) RecordAttempt(context.Context, collector.Attempt) error { return nil }
func (NoopRecorder) RecordCycle(context.Context, Cycle) error               { return nil }
func (NoopRecorder) Close() error                                           { return nil }

func (NoopRecorder) ProviderStats(context.Context, time.Time) ([]ProviderStat, error) {
	return []ProviderStat{}, nil
}
