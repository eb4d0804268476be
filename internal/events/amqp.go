package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"budgetwise/internal/logger"
)

const publishTimeout = 5 * time.Second

// consumeChannel is the part of *amqp091.Channel that Forward uses.
type consumeChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Close() error
}

// AMQPClient publishes events to a fanout exchange and forwards everything
// the exchange carries into a local Bus. Publishing and consuming use
// separate channels.
type AMQPClient struct {
	conn        *amqp091.Connection
	channel     *amqp091.Channel
	exchange    string
	openConsume func() (consumeChannel, error)
}

// DialAMQP connects to the broker and declares the exchange.
func DialAMQP(url, exchange string) (*AMQPClient, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := &AMQPClient{conn: conn, channel: channel, exchange: exchange}
	c.openConsume = func() (consumeChannel, error) { return conn.Channel() }

	err = channel.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return c, nil
}

// Publish implements Publisher.
func (c *AMQPClient) Publish(ctx context.Context, e Event) error {
	body, err := Encode(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchange, // exchange
		"",         // routing key, ignored by fanout
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Type:        string(e.Kind),
			Timestamp:   e.OccurredAt,
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Forward opens its own channel, binds a private queue to the exchange and
// republishes every delivery on bus until ctx is cancelled.
func (c *AMQPClient) Forward(ctx context.Context, bus *Bus) error {
	log := logger.Named("amqp")

	ch, err := c.openConsume()
	if err != nil {
		return fmt.Errorf("open consume channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name, // queue
		"",     // consumer
		true,   // auto-ack
		true,   // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	log.Infow("forwarding events", "exchange", c.exchange, "queue", q.Name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			e, err := Decode(delivery.Body)
			if err != nil {
				log.Warnw("dropping malformed event", "error", err)
				continue
			}
			_ = bus.Publish(ctx, e)
		}
	}
}

// Close shuts down the channel and connection.
func (c *AMQPClient) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
