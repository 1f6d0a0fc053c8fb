package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/lunavoice/voice-assistant/internal/config"
	"github.com/lunavoice/voice-assistant/internal/observability"
	"github.com/lunavoice/voice-assistant/internal/resilience"
)

const groqChatCompletionsURL = "https://api.groq.com/openai/v1/chat/completions"

// GroqClient implements ChatClient using Groq's OpenAI-compatible
// chat-completions API
type GroqClient struct {
	config         *config.Config
	apiURL         string
	httpClient     *http.Client
	circuitBreaker *resilience.CircuitBreaker
	logger         zerolog.Logger
}

type chatCompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// NewGroqClient creates a new Groq chat-completions client
func NewGroqClient(cfg *config.Config, logger zerolog.Logger) *GroqClient {
	return &GroqClient{
		config: cfg,
		apiURL: groqChatCompletionsURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.GroqTimeout) * time.Second,
		},
		circuitBreaker: resilience.NewCircuitBreaker(
			"groq",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
		logger: logger,
	}
}

// Complete submits the conversation and returns the single reply string.
// Transient provider failures are retried with exponential backoff; the
// provider is protected by a circuit breaker.
func (c *GroqClient) Complete(ctx context.Context, messages []Message) (string, error) {
	var reply string

	err := c.circuitBreaker.Call(func() error {
		retryConfig := &resilience.RetryConfig{
			MaxAttempts:       c.config.RetryMaxAttempts,
			InitialBackoff:    time.Duration(c.config.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
			Jitter:            true,
		}

		return resilience.Retry(func() error {
			r, err := c.complete(ctx, messages)
			if err != nil {
				return err
			}
			reply = r
			return nil
		}, retryConfig, resilience.IsRetryableNetworkError)
	})

	observability.UpdateCircuitBreakerState("groq", int(c.circuitBreaker.GetState()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures("groq")
		return "", fmt.Errorf("generation failed: %w", err)
	}

	return reply, nil
}

func (c *GroqClient) complete(ctx context.Context, messages []Message) (string, error) {
	reqBody := chatCompletionRequest{
		Model:    c.config.GroqModel,
		Messages: messages,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.GroqAPIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused; the status text keeps
		// rate-limit and unavailable responses recognizable as retryable.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("groq API returned status %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("groq API returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}
