/**
 * @description
 * Consumer side of the task-queue transport. A handler is bound per routing
 * key; returning false engages the retry policy: the message is re-published
 * with an incremented x-retry-count header after an exponential backoff with
 * jitter, until a small bounded retry count is exhausted and the message is
 * dropped with a log line.
 */

package rabbitmq

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const retryCountHeader = "x-retry-count"

// DefaultMaxRetries bounds re-attempts per task message.
const DefaultMaxRetries = 5

const retryBackoffBase = 500 * time.Millisecond

// messagePublisher is the slice of *amqp.Channel the retry path uses;
// amqp091 channels serialize publishes internally, so the re-publish
// goroutines can share it.
type messagePublisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Consumer struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	pub        messagePublisher
	maxRetries int
}

func NewConsumer(amqpURL string, maxRetries int) (*Consumer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.Dial(cleanURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	return &Consumer{conn: conn, ch: ch, pub: ch, maxRetries: maxRetries}, nil
}

func (c *Consumer) ConsumeWithBindings(exchange, queueName string, bindings map[string]func([]byte) bool) error {
	if len(bindings) == 0 {
		return fmt.Errorf("no bindings provided")
	}

	if err := c.ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}

	q, err := c.ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return err
	}

	handlers := make(map[string]func([]byte) bool)
	for routingKey, handler := range bindings {
		if handler == nil {
			continue
		}
		handlers[routingKey] = handler
		if err := c.ch.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
			return err
		}
	}

	msgs, err := c.ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for d := range msgs {
			handler, ok := handlers[d.RoutingKey]
			if !ok {
				log.Printf("level=warn component=task_consumer msg=\"no handler for routing key; dropping\" routing_key=%s", d.RoutingKey)
				d.Ack(false)
				continue
			}
			if handler(d.Body) {
				d.Ack(false)
				continue
			}
			c.retry(exchange, d)
		}
	}()

	return nil
}

// retry re-publishes a failed message with backoff, or drops it once the retry
// budget is spent. The original delivery is acknowledged either way so the
// broker does not redeliver it immediately in a tight loop. The backoff sleep
// and re-publish run on their own goroutine: one failing message must not
// head-of-line block the other routing keys sharing the queue.
func (c *Consumer) retry(exchange string, d amqp.Delivery) {
	attempt := retryCount(d.Headers)
	if attempt >= c.maxRetries {
		log.Printf("level=error component=task_consumer msg=\"retries exhausted; dropping\" routing_key=%s attempts=%d", d.RoutingKey, attempt)
		d.Ack(false)
		return
	}

	go func() {
		time.Sleep(backoffWithJitter(attempt))

		headers := amqp.Table{}
		for k, v := range d.Headers {
			headers[k] = v
		}
		headers[retryCountHeader] = int32(attempt + 1)

		err := c.pub.Publish(exchange, d.RoutingKey, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Headers:      headers,
			Body:         d.Body,
		})
		if err != nil {
			// Could not re-publish; nack with requeue so the message survives.
			log.Printf("level=error component=task_consumer msg=\"retry publish failed; requeueing\" routing_key=%s err=%v", d.RoutingKey, err)
			d.Nack(false, true)
			return
		}
		d.Ack(false)
	}()
}

func retryCount(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	switch v := headers[retryCountHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// backoffWithJitter grows the delay exponentially per attempt and adds up to
// 50% random jitter so concurrent retries spread out.
func backoffWithJitter(attempt int) time.Duration {
	delay := retryBackoffBase << attempt
	jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
	return delay + jitter
}

func (c *Consumer) Close() {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
