package queue

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
)

// AMQPPublisher publishes JSON payloads to durable RabbitMQ queues, one
// queue per topic.
type AMQPPublisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	declared map[string]bool
}

func NewAMQPPublisher(conn *amqp.Connection) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &AMQPPublisher{ch: ch, declared: make(map[string]bool)}, nil
}

func (p *AMQPPublisher) Publish(topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.declared[topic] {
		if _, err := p.ch.QueueDeclare(topic, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", topic, err)
		}
		p.declared[topic] = true
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.ch.Publish("", topic, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (p *AMQPPublisher) Close() error {
	return p.ch.Close()
}

var _ Publisher = (*AMQPPublisher)(nil)
