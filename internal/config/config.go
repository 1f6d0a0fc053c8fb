package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultSystemPrompt is the fixed system message for every session unless
// SYSTEM_PROMPT overrides it.
const DefaultSystemPrompt = `You are a helpful and enthusiastic assistant. Speak in a human, conversational tone.
Keep your answers as short and concise as possible, like in a conversation, ideally no more than 120 characters.`

// Config holds all configuration for the voice assistant service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Origins allowed to open the /listen websocket. Empty means any origin
	// (development only).
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:""`

	// Deepgram STT API configuration
	DeepgramAPIKey   string `envconfig:"DEEPGRAM_API_KEY" required:"true"`
	DeepgramModel    string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`
	DeepgramLanguage string `envconfig:"DEEPGRAM_LANGUAGE" default:"en"`

	// Deepgram Aura TTS configuration
	TTSVoice     string `envconfig:"TTS_VOICE" default:"aura-luna-en"`
	TTSChunkSize int    `envconfig:"TTS_CHUNK_SIZE" default:"1024"` // Max bytes per audio frame relayed to the client

	// Groq text generation configuration
	GroqAPIKey  string `envconfig:"GROQ_API_KEY" required:"true"`
	GroqModel   string `envconfig:"GROQ_MODEL" default:"llama3-8b-8192"`
	GroqTimeout int    `envconfig:"GROQ_TIMEOUT" default:"30"` // seconds

	// Conversation configuration
	SystemPrompt string `envconfig:"SYSTEM_PROMPT" default:""`
	MemorySize   int    `envconfig:"MEMORY_SIZE" default:"10"` // Most recent messages sent to generation

	// Session timing
	IdleTimeout       time.Duration `envconfig:"IDLE_TIMEOUT" default:"5s"`        // No client audio before an STT keep-alive
	KeepAliveInterval time.Duration `envconfig:"KEEPALIVE_INTERVAL" default:"30s"` // Ping cadence toward the client

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // seconds
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"` // milliseconds
	ConnectMaxAttempts         int `envconfig:"CONNECT_MAX_ATTEMPTS" default:"3"`    // STT connection attempts before giving up
	ConnectBackoff             int `envconfig:"CONNECT_BACKOFF" default:"500"`       // milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads configuration from environment variables.
// It first attempts to load from a .env file if one exists, then from the
// environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load a .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.DeepgramAPIKey == "" {
		return nil, fmt.Errorf("DEEPGRAM_API_KEY is required")
	}
	if cfg.GroqAPIKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY is required")
	}
	if cfg.MemorySize < 1 {
		return nil, fmt.Errorf("MEMORY_SIZE must be at least 1, got %d", cfg.MemorySize)
	}
	if cfg.TTSChunkSize < 1 {
		return nil, fmt.Errorf("TTS_CHUNK_SIZE must be at least 1, got %d", cfg.TTSChunkSize)
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}

	return &cfg, nil
}
