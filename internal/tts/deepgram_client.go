package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/lunavoice/voice-assistant/internal/config"
)

const deepgramSpeakURL = "https://api.deepgram.com/v1/speak"

// DeepgramClient implements Synthesizer using Deepgram's Aura speak API.
// Audio is streamed straight from the HTTP response body; no buffering or
// transcoding happens here.
type DeepgramClient struct {
	config     *config.Config
	apiURL     string
	httpClient *http.Client
	logger     zerolog.Logger
}

type speakRequest struct {
	Text string `json:"text"`
}

// NewDeepgramClient creates a new Deepgram speak client. The HTTP client
// carries no timeout: synthesis responses are open-ended streams and
// cancellation is handled through the request context.
func NewDeepgramClient(cfg *config.Config, logger zerolog.Logger) *DeepgramClient {
	return &DeepgramClient{
		config:     cfg,
		apiURL:     deepgramSpeakURL,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Synthesize submits text for synthesis and returns the audio byte stream
func (c *DeepgramClient) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	jsonData, err := json.Marshal(speakRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqURL := c.apiURL + "?model=" + url.QueryEscape(c.config.TTSVoice)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.config.DeepgramAPIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("deepgram speak API returned status %d", resp.StatusCode)
	}

	return resp.Body, nil
}
