package stt

import (
	"context"
	"fmt"
	"sync"

	websocketv1api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket"
	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	"github.com/rs/zerolog"

	"github.com/lunavoice/voice-assistant/internal/config"
)

// liveCallbackHandler implements the SDK's LiveMessageCallback interface.
// It embeds the default handler and overrides only the events the bridge
// cares about.
type liveCallbackHandler struct {
	*websocketv1api.DefaultCallbackHandler
	handler EventHandler
	logger  zerolog.Logger
}

// Message forwards transcript results to the event handler
func (h *liveCallbackHandler) Message(mr *msginterfaces.MessageResponse) error {
	if mr == nil || len(mr.Channel.Alternatives) == 0 {
		return nil
	}

	transcript := mr.Channel.Alternatives[0].Transcript
	if transcript == "" {
		return nil
	}

	h.handler.OnTranscript(transcript, mr.IsFinal, mr.SpeechFinal)
	return nil
}

// UtteranceEnd forwards silence-timeout utterance boundaries to the event handler
func (h *liveCallbackHandler) UtteranceEnd(ur *msginterfaces.UtteranceEndResponse) error {
	h.handler.OnUtteranceEnd()
	return nil
}

// Error logs provider-side errors; the connection teardown is observed by the
// session through failed sends.
func (h *liveCallbackHandler) Error(er *msginterfaces.ErrorResponse) error {
	h.logger.Error().
		Str("type", er.Type).
		Str("description", er.Description).
		Str("message", er.ErrMsg).
		Msg("Deepgram stream error")
	return nil
}

// DeepgramClient implements LiveTranscriber using Deepgram's streaming API
type DeepgramClient struct {
	config   *config.Config
	handler  EventHandler
	logger   zerolog.Logger
	ctx      context.Context
	client   *listenClient.WSCallback
	mu       sync.RWMutex
	isActive bool
}

// NewDeepgramClient creates a new Deepgram streaming client. Transcript
// notifications are delivered to handler from the SDK's read loop.
func NewDeepgramClient(ctx context.Context, cfg *config.Config, handler EventHandler, logger zerolog.Logger) *DeepgramClient {
	return &DeepgramClient{
		config:  cfg,
		handler: handler,
		logger:  logger,
		ctx:     ctx,
	}
}

// Start establishes the Deepgram streaming transcription connection.
// A failure here is ErrConnectionFailed and is fatal for the session.
func (d *DeepgramClient) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.isActive {
		return fmt.Errorf("deepgram client is already active")
	}

	tOptions := &interfaces.LiveTranscriptionOptions{
		Model:       d.config.DeepgramModel,
		Language:    d.config.DeepgramLanguage,
		SmartFormat: true,
		// UtteranceEnd events require interim results
		InterimResults: true,
		UtteranceEndMs: "1000",
		VadEvents:      true,
		// Milliseconds of silence before a final is flagged speech_final
		Endpointing: "500",
	}

	cOptions := &interfaces.ClientOptions{
		EnableKeepAlive: true,
	}

	callback := &liveCallbackHandler{
		DefaultCallbackHandler: websocketv1api.NewDefaultCallbackHandler(),
		handler:                d.handler,
		logger:                 d.logger,
	}

	client, err := listenClient.NewWSUsingCallback(
		d.ctx,
		d.config.DeepgramAPIKey,
		cOptions,
		tOptions,
		callback,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	if !client.Connect() {
		return ErrConnectionFailed
	}

	d.client = client
	d.isActive = true

	d.logger.Info().
		Str("model", d.config.DeepgramModel).
		Str("language", d.config.DeepgramLanguage).
		Msg("Deepgram streaming client started")
	return nil
}

// SendAudio forwards a raw audio frame to Deepgram
func (d *DeepgramClient) SendAudio(data []byte) error {
	d.mu.RLock()
	active := d.isActive
	client := d.client
	d.mu.RUnlock()

	if !active || client == nil {
		return fmt.Errorf("deepgram client is not active")
	}

	if _, err := client.Write(data); err != nil {
		return fmt.Errorf("failed to send audio to Deepgram: %w", err)
	}
	return nil
}

// KeepAlive sends an empty frame so Deepgram does not close the stream
// during client-side silence.
func (d *DeepgramClient) KeepAlive() error {
	return d.SendAudio([]byte{})
}

// Close finishes the transcription stream and releases the connection
func (d *DeepgramClient) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.isActive {
		return nil
	}

	d.client.Finish()
	d.isActive = false
	d.logger.Debug().Msg("Deepgram streaming client stopped")
	return nil
}

// IsActive returns whether the client currently holds a live connection
func (d *DeepgramClient) IsActive() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.isActive
}
