package testutil

import (
	"context"
	"sync"
)

type RecordedEvent struct {
	Topic string
	Key   string
	Event any
}

// EventRecorder is an in-memory event publisher.
type EventRecorder struct {
	mu     sync.Mutex
	events []RecordedEvent
	Err    error
}

func (r *EventRecorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, RecordedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

func (r *EventRecorder) Close() error { return nil }

func (r *EventRecorder) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedEvent(nil), r.events...)
}
