package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lunavoice/voice-assistant/internal/config"
	"github.com/lunavoice/voice-assistant/internal/llm"
	"github.com/lunavoice/voice-assistant/internal/observability"
	"github.com/lunavoice/voice-assistant/internal/resilience"
	"github.com/lunavoice/voice-assistant/internal/stt"
	"github.com/lunavoice/voice-assistant/internal/tts"
)

// TranscriberFactory builds the streaming STT client for a session. The
// handler receives provider callbacks for the session's lifetime.
type TranscriberFactory func(ctx context.Context, handler stt.EventHandler) stt.LiveTranscriber

// Session owns one conversation: it supervises the audio ingest loop, the
// transcript bridge, the turn coordinator and the keep-alive loop, all
// sharing one cancellation context. One session = one client connection.
type Session struct {
	id     string
	config *config.Config

	client         *ClientConn
	chat           llm.ChatClient
	speech         tts.Synthesizer
	newTranscriber TranscriberFactory

	queue   *EventQueue
	audioIn chan []byte

	transcriber stt.LiveTranscriber

	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewSession creates a session for an upgraded client connection
func NewSession(
	conn *websocket.Conn,
	cfg *config.Config,
	chat llm.ChatClient,
	speech tts.Synthesizer,
	newTranscriber TranscriberFactory,
	logger zerolog.Logger,
) *Session {
	id := uuid.New().String()
	return &Session{
		id:             id,
		config:         cfg,
		client:         NewClientConn(conn),
		chat:           chat,
		speech:         speech,
		newTranscriber: newTranscriber,
		queue:          NewEventQueue(),
		audioIn:        make(chan []byte, 64),
		logger:         logger.With().Str("session_id", id).Logger(),
		metrics:        observability.NewSessionMetrics(id),
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Run drives the session to completion. It returns nil on a clean end of
// conversation or client disconnect, and an error on fatal failures such
// as the STT connection not establishing.
func (s *Session) Run(ctx context.Context) error {
	s.metrics.RecordSessionStart()
	defer s.metrics.RecordSessionEnd()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bridge := NewTranscriptBridge(s.queue)
	s.transcriber = s.newTranscriber(ctx, bridge)

	// Establishing the provider connection is the one failure that is
	// fatal before the session even starts.
	err := resilience.Reconnect(ctx, s.transcriber.Start, &resilience.ReconnectConfig{
		MaxAttempts: s.config.ConnectMaxAttempts,
		Backoff:     time.Duration(s.config.ConnectBackoff) * time.Millisecond,
		Multiplier:  2.0,
		MaxBackoff:  10 * time.Second,
	})
	if err != nil {
		s.metrics.RecordError("stt_connect_error", "stt")
		return fmt.Errorf("%w: %v", stt.ErrConnectionFailed, err)
	}

	coordinator := NewTurnCoordinator(
		s.queue,
		s.client,
		s.chat,
		s.speech,
		s.config.SystemPrompt,
		s.config.MemorySize,
		s.config.TTSChunkSize,
		s.logger,
		s.metrics,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.readClientFrames(gctx) })
	g.Go(func() error { return s.forwardAudio(gctx) })
	g.Go(func() error { return coordinator.Run(gctx) })
	g.Go(func() error { return s.keepAlive(gctx) })

	// The frame reader blocks in a websocket read that does not observe
	// the context; closing the connection unblocks it on cancellation.
	go func() {
		<-gctx.Done()
		s.client.Close()
	}()

	err = g.Wait()

	// Ordered teardown: finish the STT stream, then close the client
	// connection if still open. Each step is best-effort.
	if closeErr := s.transcriber.Close(); closeErr != nil {
		s.logger.Warn().Err(closeErr).Msg("Failed to close STT client")
	}
	s.client.Close()

	switch {
	case err == nil,
		errors.Is(err, errConversationEnded),
		errors.Is(err, errClientGone),
		errors.Is(err, context.Canceled):
		s.logger.Info().Msg("Session ended")
		return nil
	default:
		return err
	}
}

// readClientFrames pulls frames off the client websocket and hands binary
// audio frames to the ingest loop. Any read error means the client is gone.
func (s *Session) readClientFrames(ctx context.Context) error {
	for {
		messageType, data, err := s.client.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("Client websocket read error")
			}
			return fmt.Errorf("%w: %v", errClientGone, err)
		}

		if messageType != websocket.BinaryMessage {
			// Only binary audio frames are expected from the client
			s.metrics.RecordError("protocol_violation", "transport")
			s.logger.Warn().Int("message_type", messageType).Msg("Dropping unexpected client frame")
			continue
		}
		if len(data) == 0 {
			continue
		}

		select {
		case s.audioIn <- data:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// forwardAudio forwards client audio frames to the STT provider. When no
// frame arrives within the idle timeout it sends an empty keep-alive frame
// so the provider does not drop the stream.
func (s *Session) forwardAudio(ctx context.Context) error {
	idle := time.NewTimer(s.config.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case frame := <-s.audioIn:
			s.metrics.RecordAudioBytes("in", int64(len(frame)))
			if err := s.transcriber.SendAudio(frame); err != nil {
				return fmt.Errorf("failed to forward audio: %w", err)
			}

			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(s.config.IdleTimeout)

		case <-idle.C:
			s.logger.Debug().Msg("No client audio, sending STT keep-alive")
			if err := s.transcriber.KeepAlive(); err != nil {
				return fmt.Errorf("failed to keep STT stream alive: %w", err)
			}
			s.metrics.RecordKeepAlive("stt")
			idle.Reset(s.config.IdleTimeout)
		}
	}
}

// keepAlive pings the client on a fixed interval regardless of
// conversation activity. A failed ping means the client is gone and ends
// the session.
func (s *Session) keepAlive(ctx context.Context) error {
	ticker := time.NewTicker(s.config.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.client.SendEvent(EventPing, ""); err != nil {
				return fmt.Errorf("%w: %v", errClientGone, err)
			}
			s.metrics.RecordKeepAlive("client")
		}
	}
}
