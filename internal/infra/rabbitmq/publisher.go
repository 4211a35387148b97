package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"media-job-intake/internal/config"
	"media-job-intake/internal/domain/ports/adapter"
)

var _ adapter.EventPublisher = (*Publisher)(nil)

// ErrNotConfirmed is returned when the broker nacks a message.
var ErrNotConfirmed = errors.New("broker did not confirm message")

// Publisher sends persistent JSON messages to a durable topic exchange and
// waits for the broker's publisher confirm. A closed connection is redialed
// on the next Publish.
type Publisher struct {
	url            string
	exchange       string
	confirmTimeout time.Duration

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *zerolog.Logger
}

func NewPublisher(cfg config.RabbitMQConfig, logger *zerolog.Logger) (*Publisher, error) {
	l := logger.With().Str("component", "RabbitPublisher").Str("exchange", cfg.Exchange).Logger()
	p := &Publisher{
		url:            cfg.URL,
		exchange:       cfg.Exchange,
		confirmTimeout: cfg.ConfirmTimeout,
		log:            &l,
	}
	if p.confirmTimeout <= 0 {
		p.confirmTimeout = 5 * time.Second
	}
	if err := p.dial(); err != nil {
		return nil, err
	}
	return p, nil
}

// dial must be called with mu held or before the publisher is shared.
func (p *Publisher) dial() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		p.exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return fmt.Errorf("enable confirms: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

// confirmation is the part of *amqp.DeferredConfirmation Publish waits on.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// Publish holds the lock only while the frame is written, so concurrent
// callers wait for their confirms in parallel. A channel that closes before
// the ack nacks every outstanding confirm.
func (p *Publisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	dc, err := p.send(ctx, routingKey, body)
	if err != nil {
		return err
	}
	return p.awaitConfirm(ctx, routingKey, dc)
}

func (p *Publisher) send(ctx context.Context, routingKey string, body []byte) (confirmation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() || p.ch == nil || p.ch.IsClosed() {
		p.log.Warn().Msg("rabbitmq connection lost, redialing")
		p.closeLocked()
		if err := p.dial(); err != nil {
			return nil, err
		}
	}

	dc, err := p.ch.PublishWithDeferredConfirmWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return dc, nil
}

func (p *Publisher) awaitConfirm(ctx context.Context, routingKey string, dc confirmation) error {
	waitCtx, cancel := context.WithTimeout(ctx, p.confirmTimeout)
	defer cancel()
	acked, err := dc.WaitContext(waitCtx)
	if err != nil {
		return fmt.Errorf("await confirm for %s: %w", routingKey, err)
	}
	if !acked {
		return ErrNotConfirmed
	}
	return nil
}

func (p *Publisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}
