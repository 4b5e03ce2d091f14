package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DollarNoob/Pay/config"
	"github.com/DollarNoob/Pay/pkg/types"
)

type fakeChannel struct {
	exchange, key string
	msgs          []amqp.Publishing
	err           error
	closed        bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.exchange, f.key = exchange, key
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func sampleProjection() types.StatusProjection {
	return types.StatusProjection{
		SwapID:    "swap-1",
		OrderID:   "ABC123",
		Stage:     types.StageDone,
		Title:     "✅ Sent Litecoin",
		Color:     types.ColorGreen,
		Actions:   []types.Action{{Kind: types.ActionCopy, Label: "Copy Transaction ID", Value: "tx"}},
		Timestamp: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAMQPSink_Publish(t *testing.T) {
	ch := &fakeChannel{}
	sink := newAMQPSink(ch, "swap.projections", zerolog.Nop())

	require.NoError(t, sink.Publish(context.Background(), sampleProjection()))
	require.Len(t, ch.msgs, 1)
	assert.Equal(t, "", ch.exchange)
	assert.Equal(t, "swap.projections", ch.key)

	msg := ch.msgs[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "swap-1", msg.CorrelationId)
	assert.Equal(t, "DONE", msg.Type)

	var got types.StatusProjection
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, sampleProjection(), got)

	require.NoError(t, sink.Close())
	assert.True(t, ch.closed)
}

func TestAMQPSink_PublishError(t *testing.T) {
	sink := newAMQPSink(&fakeChannel{err: amqp.ErrClosed}, "q", zerolog.Nop())
	err := sink.Publish(context.Background(), sampleProjection())
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func TestNewAMQPSink_RequiresURL(t *testing.T) {
	_, err := NewAMQPSink(config.AMQPConfig{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestChanSink(t *testing.T) {
	sink := NewChanSink(1)
	require.NoError(t, sink.Publish(context.Background(), sampleProjection()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sink.Publish(ctx, sampleProjection()), context.Canceled)

	got := <-sink.C()
	assert.Equal(t, "ABC123", got.OrderID)
	sink.Close()
	_, ok := <-sink.C()
	assert.False(t, ok)
}

func TestMulti(t *testing.T) {
	var a, b []types.StatusProjection
	failing := SinkFunc(func(context.Context, types.StatusProjection) error { return errors.New("down") })
	sink := Multi(
		SinkFunc(func(_ context.Context, p types.StatusProjection) error { a = append(a, p); return nil }),
		nil,
		failing,
		SinkFunc(func(_ context.Context, p types.StatusProjection) error { b = append(b, p); return nil }),
	)

	err := sink.Publish(context.Background(), sampleProjection())
	assert.ErrorContains(t, err, "down")
	assert.Len(t, a, 1)
	assert.Len(t, b, 1)
}
