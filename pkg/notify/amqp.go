package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/DollarNoob/Pay/config"
	"github.com/DollarNoob/Pay/pkg/types"
)

// publisher is the subset of *amqp.Channel used to publish.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes projections as JSON to a durable RabbitMQ queue, where
// the chat gateway consumes them.
type AMQPSink struct {
	conn   *amqp.Connection
	ch     publisher
	queue  string
	logger zerolog.Logger
}

// NewAMQPSink dials RabbitMQ and declares the projection queue.
func NewAMQPSink(cfg config.AMQPConfig, logger zerolog.Logger) (*AMQPSink, error) {
	if cfg.URL == "" {
		return nil, errors.New("amqp url is empty")
	}
	queue := cfg.Queue
	if queue == "" {
		queue = "swap.projections"
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring queue %s: %w", queue, err)
	}
	logger.Info().Str("queue", queue).Msg("RabbitMQ projection sink ready")
	return newAMQPSink(ch, queue, logger).withConn(conn), nil
}

func newAMQPSink(ch publisher, queue string, logger zerolog.Logger) *AMQPSink {
	return &AMQPSink{
		ch:     ch,
		queue:  queue,
		logger: logger.With().Str("component", "amqp_sink").Logger(),
	}
}

func (s *AMQPSink) withConn(conn *amqp.Connection) *AMQPSink {
	s.conn = conn
	return s
}

// Publish sends p as a persistent message.
func (s *AMQPSink) Publish(ctx context.Context, p types.StatusProjection) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal projection: %w", err)
	}
	err = s.ch.PublishWithContext(ctx, "", s.queue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: p.SwapID,
		Type:          string(p.Stage),
		Timestamp:     p.Timestamp,
		Body:          body,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("swap_id", p.SwapID).Str("stage", string(p.Stage)).Msg("failed to publish projection")
		return fmt.Errorf("publish projection: %w", err)
	}
	return nil
}

// Close closes the channel and connection.
func (s *AMQPSink) Close() error {
	if c, ok := s.ch.(interface{ Close() error }); ok {
		_ = c.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
