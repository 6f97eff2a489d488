package queue

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// TopicCampaignSubmissions carries ids of campaigns handed to the dispatch
// worker after a successful wizard submission.
const TopicCampaignSubmissions = "campaign_submissions"

// SubmissionJob is the payload published on TopicCampaignSubmissions.
type SubmissionJob struct {
	CampaignID string `json:"campaign_id"`
}

// Publisher is the write side of the queue; services depend on this only.
type Publisher interface {
	Publish(topic string, payload any) error
}

// Queue adds the consume side for in-process subscribers.
type Queue interface {
	Publisher
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue is a broker-free queue with retry, used by tests and the
// single-process dev mode.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
	}
}

type job struct {
	payload    any
	retryCount int
	maxRetries int
}

// Publish sends a message to all subscribers of the topic.
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	j := job{payload: payload, maxRetries: 3}
	for _, handler := range handlers {
		go q.process(handler, j)
	}
	return nil
}

func (q *InMemoryQueue) process(handler func(payload any) error, j job) {
	for j.retryCount <= j.maxRetries {
		err := handler(j.payload)
		if err == nil {
			return
		}

		j.retryCount++
		log.Printf("job failed (attempt %d/%d): %v", j.retryCount, j.maxRetries, err)
		if j.retryCount > j.maxRetries {
			log.Printf("job permanently failed after %d attempts: %+v", j.maxRetries, j.payload)
			return
		}
		time.Sleep(time.Duration(j.retryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic.
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)
