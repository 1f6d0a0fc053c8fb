package session

import "strings"

// TranscriptBridge adapts provider transcript callbacks into ordered
// TranscriptEvents. It owns the utterance buffer exclusively: callbacks are
// delivered sequentially from the provider client's read loop, and no other
// unit touches the buffer, so no locking is needed.
type TranscriptBridge struct {
	queue *EventQueue
	parts []string // finalized fragments since the last speech boundary
}

// NewTranscriptBridge creates a bridge writing into queue
func NewTranscriptBridge(queue *EventQueue) *TranscriptBridge {
	return &TranscriptBridge{queue: queue}
}

// OnTranscript handles a transcript fragment from the provider
func (b *TranscriptBridge) OnTranscript(text string, isFinal, isSpeechFinal bool) {
	if text == "" {
		return
	}

	if !isFinal {
		b.queue.Push(TranscriptEvent{Kind: EventInterim, Text: text})
		return
	}

	b.parts = append(b.parts, text)
	b.queue.Push(TranscriptEvent{Kind: EventFinal, Text: text})

	if isSpeechFinal {
		b.flush()
	}
}

// OnUtteranceEnd handles a silence-timeout utterance boundary. Silence with
// no accumulated speech is not a turn.
func (b *TranscriptBridge) OnUtteranceEnd() {
	if len(b.parts) > 0 {
		b.flush()
	}
}

func (b *TranscriptBridge) flush() {
	full := strings.Join(b.parts, " ")
	b.parts = nil
	b.queue.Push(TranscriptEvent{Kind: EventSpeechFinal, Text: full})
}
