/**
 * @description
 * This package provides the task-queue transport for the payout-service on top
 * of RabbitMQ. The producer side publishes task messages to a durable topic
 * exchange; the task name doubles as the routing key.
 *
 * @dependencies
 * - context, encoding/json, time: Standard Go libraries.
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// TaskProducer holds the RabbitMQ connection and channel for enqueuing tasks.
type TaskProducer struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// Enqueuer is the interface implemented by types that can enqueue tasks.
type Enqueuer interface {
	EnqueueTask(ctx context.Context, taskName string, payload any) error
	Close()
}

// TaskProducerFallback is a minimal no-op enqueuer used when RabbitMQ is
// unavailable at startup.
type TaskProducerFallback struct{}

func (p *TaskProducerFallback) EnqueueTask(ctx context.Context, taskName string, payload any) error {
	log.Printf("level=warn component=task_producer mode=fallback msg=\"enqueue skipped\" task=%s", taskName)
	return nil
}

func (p *TaskProducerFallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	// If any stray characters precede the scheme, slice from first occurrence of amqp
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewTaskProducer creates and returns a new TaskProducer bound to the given
// exchange.
func NewTaskProducer(amqpURL, exchange string) (*TaskProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Use a bounded dial timeout so startup does not hang indefinitely
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &TaskProducer{conn: conn, channel: ch, exchange: exchange}, nil
}

// EnqueueTask publishes a task message under the task name as routing key.
func (p *TaskProducer) EnqueueTask(ctx context.Context, taskName string, payload any) error {
	// Ensure the exchange exists (durable topic)
	if err := p.channel.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // autoDelete
		false,      // internal
		false,      // noWait
		nil,        // args
	); err != nil {
		log.Printf("level=warn component=task_producer msg=\"exchange declare failed; reopening channel\" exchange=%s err=%v", p.exchange, err)
		// Attempt simple channel reopen once
		if p.conn == nil {
			return err
		}
		ch, chErr := p.conn.Channel()
		if chErr != nil {
			return chErr
		}
		p.channel = ch
		if err2 := p.channel.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err2 != nil {
			return err2
		}
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		log.Printf("level=error component=task_producer msg=\"json marshal failed\" task=%s err=%v", taskName, err)
		return err
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		taskName,   // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         jsonBody,
		},
	)
	if err != nil {
		log.Printf("level=warn component=task_producer msg=\"publish failed; reopening channel\" task=%s err=%v", taskName, err)
		// One-shot retry: reopen channel and try again
		if p.conn != nil {
			if ch, chErr := p.conn.Channel(); chErr == nil {
				p.channel = ch
				if exErr := p.channel.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); exErr == nil {
					err = p.channel.PublishWithContext(ctx, p.exchange, taskName, false, false, amqp091.Publishing{
						ContentType:  "application/json",
						DeliveryMode: amqp091.Persistent,
						Timestamp:    time.Now(),
						Body:         jsonBody,
					})
					if err == nil {
						return nil
					}
				}
			}
		}
		return err
	}
	return nil
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *TaskProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
