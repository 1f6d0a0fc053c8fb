package session

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestEventQueue_Ordering(t *testing.T) {
	q := NewEventQueue()
	for i := 0; i < 100; i++ {
		q.Push(TranscriptEvent{Kind: EventFinal, Text: fmt.Sprintf("event-%d", i)})
	}

	for i := 0; i < 100; i++ {
		ev := popNow(t, q)
		want := fmt.Sprintf("event-%d", i)
		if ev.Text != want {
			t.Fatalf("event %d = %q, want %q", i, ev.Text, want)
		}
	}
}

func TestEventQueue_PushNeverBlocks(t *testing.T) {
	q := NewEventQueue()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10000; i++ {
			q.Push(TranscriptEvent{Kind: EventInterim, Text: "x"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Push blocked with no consumer")
	}
	if q.Len() != 10000 {
		t.Errorf("Len() = %d, want 10000", q.Len())
	}
}

func TestEventQueue_PopBlocksUntilPush(t *testing.T) {
	q := NewEventQueue()

	got := make(chan TranscriptEvent, 1)
	go func() {
		ev, err := q.Pop(context.Background())
		if err != nil {
			return
		}
		got <- ev
	}()

	time.Sleep(20 * time.Millisecond)
	q.Push(TranscriptEvent{Kind: EventSpeechFinal, Text: "hello"})

	select {
	case ev := <-got:
		if ev.Text != "hello" {
			t.Errorf("Pop() = %q, want %q", ev.Text, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake on Push")
	}
}

func TestEventQueue_PopContextCancelled(t *testing.T) {
	q := NewEventQueue()

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := q.Pop(ctx)
		errs <- err
	}()

	cancel()
	select {
	case err := <-errs:
		if err != context.Canceled {
			t.Errorf("Pop() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after cancellation")
	}
}

func TestEventQueue_ConcurrentProducerConsumer(t *testing.T) {
	q := NewEventQueue()
	const n = 1000

	go func() {
		for i := 0; i < n; i++ {
			q.Push(TranscriptEvent{Kind: EventFinal, Text: fmt.Sprintf("event-%d", i)})
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < n; i++ {
		ev, err := q.Pop(ctx)
		if err != nil {
			t.Fatalf("Pop() error = %v at event %d", err, i)
		}
		want := fmt.Sprintf("event-%d", i)
		if ev.Text != want {
			t.Fatalf("event %d = %q, want %q", i, ev.Text, want)
		}
	}
}
