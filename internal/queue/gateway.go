package queue

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"notifyrelay/internal/config"
	"notifyrelay/internal/types"
)

// connectionName is reported to the broker so the worker is identifiable in
// the management UI.
const connectionName = "notifyrelay worker"

// Delivery is one consumed message plus its acknowledgment handle.
type Delivery struct {
	Body []byte
	// Ack confirms processing completion; the broker redelivers messages
	// that are never acknowledged.
	Ack func() error
}

// Gateway abstracts the three broker operations the pipeline needs. The
// production implementation is AMQPGateway; tests use fakes.
type Gateway interface {
	// Declare creates the queue if it does not exist. Redeclaring with
	// identical parameters is a no-op; a parameter mismatch is an error.
	Declare(ctx context.Context, d Descriptor) error

	// Publish sends body to the queue as a persistent JSON message via the
	// default exchange.
	Publish(ctx context.Context, queue string, body []byte) error

	// Consume opens a manual-ack subscription on the queue with a prefetch
	// of one. The returned channel closes when the subscription ends.
	Consume(ctx context.Context, queue string) (<-chan Delivery, error)
}

// AMQPGateway implements Gateway on a single RabbitMQ connection and
// channel. The channel is owned by the relay worker for its entire lifetime
// and must not be shared across goroutines.
type AMQPGateway struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger types.Logger
}

// Dial connects to the broker and opens the worker's channel with a
// prefetch of one unacknowledged message. There is no retry loop: a broker
// that is unreachable at startup is fatal by design.
func Dial(cfg config.RabbitMQConfig, logger types.Logger) (*AMQPGateway, error) {
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(connectionName)

	conn, err := amqp.DialConfig(cfg.URL(), amqp.Config{Properties: props})
	if err != nil {
		return nil, fmt.Errorf("queue: failed to connect to broker at %s: %w", cfg.Host, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("queue: failed to open channel: %w", err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue: failed to set prefetch: %w", err)
	}

	logger.Info("connected to broker", "host", cfg.Host, "vhost", cfg.VHost)

	return &AMQPGateway{
		conn:   conn,
		ch:     ch,
		logger: logger.With("component", "amqp"),
	}, nil
}

// Declare creates the queue described by d. Descriptors with a TTL carry
// the x-message-ttl and dead-letter arguments; the empty dead-letter
// exchange routes expired messages through the default exchange to the
// DeadLetterTo queue.
func (g *AMQPGateway) Declare(_ context.Context, d Descriptor) error {
	var args amqp.Table
	if d.TTLMillis > 0 {
		args = amqp.Table{
			"x-message-ttl":             d.TTLMillis,
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": d.DeadLetterTo,
		}
	}

	_, err := g.ch.QueueDeclare(d.Name, d.Durable, false, false, false, args)
	if err != nil {
		return fmt.Errorf("queue: declare %s: %w", d.Name, err)
	}
	return nil
}

// Publish sends body to queue as a persistent message so it survives a
// broker restart.
func (g *AMQPGateway) Publish(ctx context.Context, queue string, body []byte) error {
	err := g.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("queue: publish to %s: %w", queue, err)
	}
	return nil
}

// Consume subscribes to queue in manual-ack mode and bridges deliveries
// onto a Delivery channel. The bridge goroutine exits when the broker
// closes the subscription or ctx is done.
func (g *AMQPGateway) Consume(ctx context.Context, queue string) (<-chan Delivery, error) {
	tag := fmt.Sprintf("notifyrelay-%s", uuid.NewString()[:8])

	msgs, err := g.ch.Consume(queue, tag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("queue: consume %s: %w", queue, err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				d := Delivery{
					Body: m.Body,
					Ack:  func() error { return m.Ack(false) },
				}
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close releases the channel and connection.
func (g *AMQPGateway) Close() error {
	if err := g.ch.Close(); err != nil {
		_ = g.conn.Close()
		return err
	}
	return g.conn.Close()
}
