package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/th3rrry/minees/internal/generator"
	"github.com/th3rrry/minees/internal/model"
)

type fakeGen struct {
	mu    sync.Mutex
	calls []string
	panic map[string]bool
}

func (f *fakeGen) Generate(_ context.Context, id string) model.Signal {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()
	if f.panic[id] {
		panic("generator bug")
	}
	return model.Signal{ID: id + "-1", Pair: id, Direction: model.DirectionNeutral, Confidence: 50}
}

type fakePub struct {
	mu        sync.Mutex
	published []string
	failFor   string
}

func (p *fakePub) Publish(_ context.Context, sig model.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, sig.Pair)
	if sig.Pair == p.failFor {
		return errors.New("sink down")
	}
	return nil
}

type countingObserver struct {
	signals map[string]int
	cycles  []string
}

func (c *countingObserver) ObserveSignal(group string, _ model.Signal) { c.signals[group]++ }
func (c *countingObserver) ObserveCycle(group string, _ time.Duration) {
	c.cycles = append(c.cycles, group)
}

func groups() []Group {
	return []Group{
		{Name: "crypto", Interval: 5 * time.Minute, Instruments: []string{"BTCUSDT", "ETHUSDT"}},
		{Name: "forex", Interval: 15 * time.Minute, Instruments: []string{"EURUSD"}},
		{Name: "otc", Interval: 15 * time.Minute, Instruments: []string{"OTC_EURUSD"}},
	}
}

func TestRunAllNow_OrderAndStore(t *testing.T) {
	gen := &fakeGen{}
	pub := &fakePub{}
	store := generator.NewStore()
	obs := &countingObserver{signals: map[string]int{}}
	s := NewScheduler(context.Background(), gen, store, pub, groups(), zerolog.Nop())
	s.Observe(obs)

	s.RunAllNow()

	want := []string{"BTCUSDT", "ETHUSDT", "EURUSD", "OTC_EURUSD"}
	assert.Equal(t, want, gen.calls)
	assert.Equal(t, want, pub.published)
	assert.Equal(t, 4, store.Len())
	assert.Equal(t, []string{"crypto", "forex", "otc"}, obs.cycles)
	assert.Equal(t, 2, obs.signals["crypto"])
}

func TestRunGroup_InstrumentFailuresAreIsolated(t *testing.T) {
	gen := &fakeGen{panic: map[string]bool{"BTCUSDT": true}}
	pub := &fakePub{failFor: "ETHUSDT"}
	store := generator.NewStore()
	g := []Group{{Name: "crypto", Interval: time.Minute, Instruments: []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}}}
	s := NewScheduler(context.Background(), gen, store, pub, g, zerolog.Nop())

	require.NoError(t, s.RunGroupNow("crypto"))

	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}, gen.calls)
	assert.Equal(t, []string{"ETHUSDT", "SOLUSDT"}, pub.published)
	_, ok := store.Get("SOLUSDT")
	assert.True(t, ok)
	_, ok = store.Get("BTCUSDT")
	assert.False(t, ok)
}

func TestRunGroupNow_Unknown(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeGen{}, generator.NewStore(), &fakePub{}, groups(), zerolog.Nop())
	assert.Error(t, s.RunGroupNow("stocks"))
}

func TestRunGroup_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := &fakeGen{}
	s := NewScheduler(ctx, gen, generator.NewStore(), &fakePub{}, groups(), zerolog.Nop())
	s.RunAllNow()
	assert.Empty(t, gen.calls)
}

func TestRegisterAll(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeGen{}, generator.NewStore(), &fakePub{}, groups(), zerolog.Nop())
	require.NoError(t, s.RegisterAll())
	assert.Len(t, s.Cron.Entries(), 3)

	bad := NewScheduler(context.Background(), &fakeGen{}, generator.NewStore(), &fakePub{},
		[]Group{{Name: "crypto"}}, zerolog.Nop())
	assert.Error(t, bad.RegisterAll())
}

func TestRunGroup_SkipsOverlappingCycle(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeGen{}, generator.NewStore(), &fakePub{}, groups(), zerolog.Nop())
	s.locks["crypto"].Lock()
	defer s.locks["crypto"].Unlock()

	gen := s.gen.(*fakeGen)
	require.NoError(t, s.RunGroupNow("crypto"))
	assert.Empty(t, gen.calls)
}
