package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/lunavoice/voice-assistant/internal/audio"
	"github.com/lunavoice/voice-assistant/internal/llm"
	"github.com/lunavoice/voice-assistant/internal/observability"
	"github.com/lunavoice/voice-assistant/internal/tts"
)

// errConversationEnded signals a clean end of conversation: the user said
// goodbye and the finish frame has been sent.
var errConversationEnded = errors.New("conversation ended")

// errClientGone marks transport failures toward the client. Fatal for the
// session.
var errClientGone = errors.New("client connection lost")

// clientNotifier is the coordinator's view of the client connection
type clientNotifier interface {
	SendEvent(eventType, content string) error
	SendAudio(data []byte) error
}

// TurnCoordinator drives the conversation state machine. It drains the
// transcript event queue on a single goroutine: chat history mutation,
// generation calls and speech relay for turn n all complete before turn
// n+1 is examined, so turns can never interleave even though ingestion and
// transcription run concurrently.
type TurnCoordinator struct {
	queue     *EventQueue
	client    clientNotifier
	chat      llm.ChatClient
	speech    tts.Synthesizer
	history   *llm.History
	chunkSize int
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewTurnCoordinator creates a coordinator with an empty conversation
// history
func NewTurnCoordinator(
	queue *EventQueue,
	client clientNotifier,
	chat llm.ChatClient,
	speech tts.Synthesizer,
	systemPrompt string,
	memorySize int,
	chunkSize int,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *TurnCoordinator {
	return &TurnCoordinator{
		queue:     queue,
		client:    client,
		chat:      chat,
		speech:    speech,
		history:   llm.NewHistory(systemPrompt, memorySize),
		chunkSize: chunkSize,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run processes transcript events until the conversation ends or the
// context is cancelled. Returns errConversationEnded on a clean goodbye.
func (tc *TurnCoordinator) Run(ctx context.Context) error {
	for {
		ev, err := tc.queue.Pop(ctx)
		if err != nil {
			return err
		}

		switch ev.Kind {
		case EventInterim:
			if err := tc.client.SendEvent(EventTranscriptInterim, ev.Text); err != nil {
				return fmt.Errorf("%w: %v", errClientGone, err)
			}

		case EventFinal:
			if err := tc.client.SendEvent(EventTranscriptFinal, ev.Text); err != nil {
				return fmt.Errorf("%w: %v", errClientGone, err)
			}

		case EventSpeechFinal:
			if err := tc.processTurn(ctx, ev.Text); err != nil {
				return err
			}
		}
	}
}

// processTurn runs one conversation turn for a complete utterance
func (tc *TurnCoordinator) processTurn(ctx context.Context, text string) error {
	if shouldEndConversation(text) {
		tc.logger.Info().Msg("End-of-conversation phrase detected")
		if err := tc.client.SendEvent(EventFinish, ""); err != nil {
			tc.logger.Warn().Err(err).Msg("Failed to send finish frame")
		}
		return errConversationEnded
	}

	tc.history.AppendUser(text)

	tc.metrics.RecordGenerationStart()
	reply, err := tc.chat.Complete(ctx, tc.history.Window())
	if err != nil {
		// Recoverable: the turn produces no reply and the conversation
		// continues. The client is intentionally not notified.
		tc.metrics.RecordGenerationEnd(false)
		tc.metrics.RecordError("generation_error", "llm")
		tc.metrics.RecordTurn("generation_error")
		tc.logger.Error().Err(err).Msg("Text generation failed, skipping turn")
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}
	tc.metrics.RecordGenerationEnd(true)

	tc.history.AppendAssistant(reply)
	if err := tc.client.SendEvent(EventAssistant, reply); err != nil {
		return fmt.Errorf("%w: %v", errClientGone, err)
	}

	// The relay must finish before the next event is examined so audio
	// output ordering matches turn order.
	if err := tc.relaySpeech(ctx, reply); err != nil {
		if errors.Is(err, errClientGone) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Recoverable: the turn simply has no audio
		tc.metrics.RecordError("synthesis_error", "tts")
		tc.metrics.RecordTurn("synthesis_error")
		tc.logger.Error().Err(err).Msg("Speech synthesis failed, skipping audio for turn")
		return nil
	}

	tc.metrics.RecordTurn("completed")
	return nil
}

// relaySpeech streams synthesized audio for text to the client in bounded
// chunks, preserving stream order
func (tc *TurnCoordinator) relaySpeech(ctx context.Context, text string) error {
	tc.metrics.RecordTTSStart()

	stream, err := tc.speech.Synthesize(ctx, text)
	if err != nil {
		tc.metrics.RecordTTSEnd(false)
		return err
	}
	defer stream.Close()

	err = audio.StreamChunks(stream, tc.chunkSize, func(chunk []byte) error {
		if err := tc.client.SendAudio(chunk); err != nil {
			return fmt.Errorf("%w: %v", errClientGone, err)
		}
		tc.metrics.RecordAudioBytes("out", int64(len(chunk)))
		return nil
	})
	tc.metrics.RecordTTSEnd(err == nil)
	return err
}

// History exposes the conversation history for inspection
func (tc *TurnCoordinator) History() *llm.History {
	return tc.history
}

// shouldEndConversation reports whether the utterance ends the
// conversation: after stripping punctuation and lowercasing, the last word
// is "goodbye" or "bye".
func shouldEndConversation(text string) bool {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, text)

	words := strings.Fields(strings.ToLower(cleaned))
	if len(words) == 0 {
		return false
	}

	last := words[len(words)-1]
	return last == "goodbye" || last == "bye"
}
