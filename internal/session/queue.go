package session

import (
	"context"
	"sync"
)

// EventKind tags a transcript event
type EventKind int

const (
	// EventInterim is a non-final transcript fragment, for display only
	EventInterim EventKind = iota
	// EventFinal is a finalized transcript fragment, for display only
	EventFinal
	// EventSpeechFinal is a complete utterance and triggers a conversation turn
	EventSpeechFinal
)

// TranscriptEvent is one entry in the transcript event queue. Text is
// always non-empty.
type TranscriptEvent struct {
	Kind EventKind
	Text string
}

// EventQueue is an ordered, unbounded queue of transcript events, written
// by the transcript bridge and drained by the turn coordinator. Producers
// never block, so slow turns (generation, synthesis) cannot stall the STT
// callback path. Single consumer.
type EventQueue struct {
	mu     sync.Mutex
	items  []TranscriptEvent
	signal chan struct{}
}

// NewEventQueue creates an empty event queue
func NewEventQueue() *EventQueue {
	return &EventQueue{
		signal: make(chan struct{}, 1),
	}
}

// Push appends an event to the queue. Never blocks.
func (q *EventQueue) Push(ev TranscriptEvent) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest event, blocking until one is
// available or the context is cancelled.
func (q *EventQueue) Pop(ctx context.Context) (TranscriptEvent, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			ev := q.items[0]
			q.items = q.items[1:]
			remaining := len(q.items)
			q.mu.Unlock()

			if remaining > 0 {
				select {
				case q.signal <- struct{}{}:
				default:
				}
			}
			return ev, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return TranscriptEvent{}, ctx.Err()
		case <-q.signal:
		}
	}
}

// Len returns the number of queued events
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
