package broadcast

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/th3rrry/minees/internal/model"
)

func TestFanoutPublishesToEverySink(t *testing.T) {
	var got []string
	ok := func(name string) Publisher {
		return PublisherFunc(func(_ context.Context, sig model.Signal) error {
			got = append(got, name+":"+sig.Pair)
			return nil
		})
	}
	boom := errors.New("boom")
	failing := PublisherFunc(func(context.Context, model.Signal) error { return boom })

	f := NewFanout(zerolog.Nop()).Add("a", ok("a")).Add("bad", failing).Add("b", ok("b")).Add("nil", nil)

	err := f.Publish(context.Background(), model.Signal{Pair: "EURUSD"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "bad")
	assert.Equal(t, []string{"a:EURUSD", "b:EURUSD"}, got)
	assert.Equal(t, []string{"a", "bad", "b"}, f.Sinks())
}

func TestFanoutEmpty(t *testing.T) {
	assert.NoError(t, NewFanout(zerolog.Nop()).Publish(context.Background(), model.Signal{}))
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisherKeysByPair(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "signals")

	sig := model.Signal{ID: "BTCUSDT-1", Pair: "BTCUSDT", Direction: model.DirectionBuy, Confidence: 83, Path: model.PathTechnical}
	require.NoError(t, p.Publish(context.Background(), sig))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "BTCUSDT", string(msg.Key))
	assert.Equal(t, "technical", string(msg.Headers[0].Value))

	var decoded model.Signal
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, sig.ID, decoded.ID)
	assert.Equal(t, 83, decoded.Confidence)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	err := newKafkaPublisher(w, "signals").Publish(context.Background(), model.Signal{Pair: "EURUSD"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka write signals")
}

func TestNewKafkaPublisherValidates(t *testing.T) {
	_, err := NewKafkaPublisher(KafkaConfig{Topic: "x"})
	assert.Error(t, err)
	_, err = NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)

	p, err := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "signals", Compression: "snappy"})
	require.NoError(t, err)
	assert.Equal(t, "signals", p.Topic())
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Gzip, parseCompression("GZIP"))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Compression(0), parseCompression("none"))
}
