package mykafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/toptunez/internal/metrics"
)

const (
	writeTimeout = 5 * time.Second
	queueSize    = 256
)

var (
	ErrQueueFull      = errors.New("kafka: publish queue is full")
	ErrProducerClosed = errors.New("kafka: producer is closed")
)

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer queues events and writes them from a background goroutine, so a
// slow or unreachable broker never holds up the caller.
type Producer struct {
	writer messageWriter
	log    *slog.Logger
	queue  chan kafka.Message
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewProducer(brokers []string, log *slog.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           writeTimeout,
		AllowAutoTopicCreation: true,
	}, log)
}

func newProducer(w messageWriter, log *slog.Logger) *Producer {
	if log == nil {
		log = slog.Default()
	}
	p := &Producer{
		writer: w,
		log:    log.With("component", "kafka_producer"),
		queue:  make(chan kafka.Message, queueSize),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Producer) run() {
	defer close(p.done)
	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := p.writer.WriteMessages(ctx, msg)
		cancel()
		if err != nil {
			metrics.EventsFailed.WithLabelValues(msg.Topic).Inc()
			p.log.Warn("publish_event_failed", "topic", msg.Topic, "key", string(msg.Key), "error", err)
		}
	}
}

// PublishEvent encodes the event and queues it. It fails only when the event
// cannot be encoded, the queue is full or the producer is closed.
func (p *Producer) PublishEvent(_ context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	select {
	case p.queue <- kafka.Message{Topic: topic, Key: []byte(key), Value: data}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close flushes queued events and closes the writer.
func (p *Producer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return p.writer.Close()
}

// Nop discards events. It is used when no brokers are configured.
type Nop struct{}

func (Nop) PublishEvent(context.Context, string, string, any) error { return nil }

func (Nop) Close() error { return nil }
