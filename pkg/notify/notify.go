// Package notify delivers status projections to whatever renders them.
package notify

import (
	"context"
	"errors"

	"github.com/DollarNoob/Pay/pkg/types"
)

// Sink receives projections in the order they were produced.
type Sink interface {
	Publish(ctx context.Context, p types.StatusProjection) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, p types.StatusProjection) error

func (f SinkFunc) Publish(ctx context.Context, p types.StatusProjection) error {
	return f(ctx, p)
}

// ChanSink hands projections to an in-process consumer.
type ChanSink struct {
	ch chan types.StatusProjection
}

// NewChanSink creates a ChanSink buffering up to size projections.
func NewChanSink(size int) *ChanSink {
	return &ChanSink{ch: make(chan types.StatusProjection, size)}
}

// C returns the receive side.
func (s *ChanSink) C() <-chan types.StatusProjection { return s.ch }

// Publish blocks until the projection is buffered or ctx is done.
func (s *ChanSink) Publish(ctx context.Context, p types.StatusProjection) error {
	select {
	case s.ch <- p:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the stream. Publish must not be called afterwards.
func (s *ChanSink) Close() { close(s.ch) }

type multi []Sink

// Multi fans projections out to every sink, reporting all failures.
func Multi(sinks ...Sink) Sink {
	var out multi
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multi) Publish(ctx context.Context, p types.StatusProjection) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
