// Package broadcast delivers signals to subscribers: WebSocket clients,
// Kafka and any other Publisher.
package broadcast

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/th3rrry/minees/internal/model"
)

// Publisher pushes one signal to its subscribers.
type Publisher interface {
	Publish(ctx context.Context, sig model.Signal) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, sig model.Signal) error

func (f PublisherFunc) Publish(ctx context.Context, sig model.Signal) error { return f(ctx, sig) }

type sink struct {
	name string
	pub  Publisher
}

// Fanout publishes every signal to all sinks. A failing sink does not stop the others.
type Fanout struct {
	sinks []sink
	log   zerolog.Logger
}

func NewFanout(log zerolog.Logger) *Fanout {
	return &Fanout{log: log.With().Str("component", "fanout").Logger()}
}

// Add registers a named sink. Nil publishers are ignored.
func (f *Fanout) Add(name string, p Publisher) *Fanout {
	if p != nil {
		f.sinks = append(f.sinks, sink{name: name, pub: p})
	}
	return f
}

// Sinks returns the registered sink names in order.
func (f *Fanout) Sinks() []string {
	names := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		names[i] = s.name
	}
	return names
}

func (f *Fanout) Publish(ctx context.Context, sig model.Signal) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.pub.Publish(ctx, sig); err != nil {
			f.log.Warn().Err(err).Str("sink", s.name).Str("instrument", sig.Pair).Msg("sink publish failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}
