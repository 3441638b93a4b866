package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/taskboard/internal/logging"
)

// ErrBufferFull is returned by Publish when the outbox is saturated, for
// instance while the broker is unreachable.
var ErrBufferFull = errors.New("event buffer full")

// Publisher buffers events in memory and ships them to RabbitMQ from a
// single background goroutine, so request handlers never wait on the
// broker. Failed sends are logged and dropped.
type Publisher struct {
	url  string
	log  logging.Logger
	out  chan TaskEvent
	send func(ctx context.Context, url string, ev TaskEvent) error
	once sync.Once
	stop chan struct{}
	done chan struct{}
}

// NewPublisher creates a publisher for the broker at url with room for
// buffer pending events. Call Run to start delivery.
func NewPublisher(url string, buffer int, log logging.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		url:  url,
		log:  log,
		out:  make(chan TaskEvent, buffer),
		send: publishOnce,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Publish enqueues ev without blocking.
func (p *Publisher) Publish(_ context.Context, ev TaskEvent) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	select {
	case p.out <- ev:
		return nil
	default:
		p.log.Warn(context.Background(), "rabbitmq: dropping event, buffer full", "type", ev.Type, "user_id", ev.UserID)
		return ErrBufferFull
	}
}

// Run delivers buffered events until ctx is cancelled or Close is called,
// then drains what is left with a short deadline.
func (p *Publisher) Run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case ev := <-p.out:
			p.deliver(ctx, ev)
		case <-ctx.Done():
			p.drain()
			return
		case <-p.stop:
			p.drain()
			return
		}
	}
}

// Close stops Run and waits for it to return.
func (p *Publisher) Close() {
	p.once.Do(func() { close(p.stop) })
	<-p.done
}

func (p *Publisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-p.out:
			p.deliver(ctx, ev)
		default:
			return
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, ev TaskEvent) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.send(ctx, p.url, ev); err != nil {
		p.log.Error(ctx, "rabbitmq: publish failed", "type", ev.Type, "err", err)
	}
}

// publishOnce dials, declares the durable queue and publishes one
// persistent JSON message.
func publishOnce(ctx context.Context, url string, ev TaskEvent) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		TaskQueueName, // name
		true,          // durable
		false,         // autoDelete
		false,         // exclusive
		false,         // noWait
		nil,           // args
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return ch.PublishWithContext(ctx,
		"",            // default exchange
		TaskQueueName, // routing key = queue name
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    ev.OccurredAt,
			Type:         string(ev.Type),
			Body:         body,
		})
}
