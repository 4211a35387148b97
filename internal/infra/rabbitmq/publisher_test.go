//go:build integration

package rabbitmq

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"media-job-intake/internal/config"
)

func TestPublisher_Integration(t *testing.T) {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		t.Skip("RABBITMQ_URL not set")
	}
	log := zerolog.Nop()
	cfg := config.RabbitMQConfig{URL: url, Exchange: "process-test", ConfirmTimeout: 5 * time.Second}
	pub, err := NewPublisher(cfg, &log)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	defer pub.Close()

	// bind a throwaway queue to observe the message
	conn, err := amqp.Dial(url)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	ch, err := conn.Channel()
	if err != nil {
		t.Fatalf("channel: %v", err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if err := ch.QueueBind(q.Name, "job-created", cfg.Exchange, false, nil); err != nil {
		t.Fatalf("bind: %v", err)
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	if err := pub.Publish(context.Background(), "job-created", []byte(`{"id":"j1"}`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case d := <-deliveries:
		if string(d.Body) != `{"id":"j1"}` || d.ContentType != "application/json" || d.DeliveryMode != amqp.Persistent {
			t.Errorf("unexpected delivery: %+v", d)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}

	// a dropped connection is redialed on the next publish
	_ = pub.conn.Close()
	if err := pub.Publish(context.Background(), "job-created", []byte(`{"id":"j2"}`)); err != nil {
		t.Fatalf("Publish after reconnect: %v", err)
	}
}

func TestPublisher_ConcurrentConfirms(t *testing.T) {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		t.Skip("RABBITMQ_URL not set")
	}
	log := zerolog.Nop()
	cfg := config.RabbitMQConfig{URL: url, Exchange: "process-test", ConfirmTimeout: 5 * time.Second}
	pub, err := NewPublisher(cfg, &log)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	defer pub.Close()

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- pub.Publish(context.Background(), "job-created", []byte(fmt.Sprintf(`{"id":"c%d"}`, i)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Publish: %v", err)
		}
	}
}
