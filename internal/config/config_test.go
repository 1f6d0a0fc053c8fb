package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredKeys(t *testing.T) {
	t.Helper()
	t.Setenv("DEEPGRAM_API_KEY", "test-deepgram-key")
	t.Setenv("GROQ_API_KEY", "test-groq-key")
}

func TestLoad(t *testing.T) {
	setRequiredKeys(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DeepgramAPIKey != "test-deepgram-key" {
		t.Errorf("Expected DeepgramAPIKey 'test-deepgram-key', got '%s'", cfg.DeepgramAPIKey)
	}

	if cfg.GroqAPIKey != "test-groq-key" {
		t.Errorf("Expected GroqAPIKey 'test-groq-key', got '%s'", cfg.GroqAPIKey)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("DEEPGRAM_API_KEY")
	os.Unsetenv("GROQ_API_KEY")

	_, err := LoadFromEnv()
	if err == nil {
		t.Error("Expected error when required keys are missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredKeys(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}
	if cfg.DeepgramModel != "nova-2" {
		t.Errorf("Expected default DeepgramModel 'nova-2', got '%s'", cfg.DeepgramModel)
	}
	if cfg.DeepgramLanguage != "en" {
		t.Errorf("Expected default DeepgramLanguage 'en', got '%s'", cfg.DeepgramLanguage)
	}
	if cfg.TTSVoice != "aura-luna-en" {
		t.Errorf("Expected default TTSVoice 'aura-luna-en', got '%s'", cfg.TTSVoice)
	}
	if cfg.GroqModel != "llama3-8b-8192" {
		t.Errorf("Expected default GroqModel 'llama3-8b-8192', got '%s'", cfg.GroqModel)
	}
	if cfg.MemorySize != 10 {
		t.Errorf("Expected default MemorySize 10, got %d", cfg.MemorySize)
	}
	if cfg.TTSChunkSize != 1024 {
		t.Errorf("Expected default TTSChunkSize 1024, got %d", cfg.TTSChunkSize)
	}
	if cfg.IdleTimeout != 5*time.Second {
		t.Errorf("Expected default IdleTimeout 5s, got %v", cfg.IdleTimeout)
	}
	if cfg.KeepAliveInterval != 30*time.Second {
		t.Errorf("Expected default KeepAliveInterval 30s, got %v", cfg.KeepAliveInterval)
	}
	if cfg.SystemPrompt != DefaultSystemPrompt {
		t.Errorf("Expected default system prompt, got '%s'", cfg.SystemPrompt)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredKeys(t)
	t.Setenv("MEMORY_SIZE", "4")
	t.Setenv("IDLE_TIMEOUT", "250ms")
	t.Setenv("SYSTEM_PROMPT", "You are terse.")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.MemorySize != 4 {
		t.Errorf("Expected MemorySize 4, got %d", cfg.MemorySize)
	}
	if cfg.IdleTimeout != 250*time.Millisecond {
		t.Errorf("Expected IdleTimeout 250ms, got %v", cfg.IdleTimeout)
	}
	if cfg.SystemPrompt != "You are terse." {
		t.Errorf("Expected overridden system prompt, got '%s'", cfg.SystemPrompt)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("Expected two allowed origins, got %v", cfg.AllowedOrigins)
	}
}

func TestLoad_InvalidMemorySize(t *testing.T) {
	setRequiredKeys(t)
	t.Setenv("MEMORY_SIZE", "0")

	if _, err := LoadFromEnv(); err == nil {
		t.Error("Expected error for MEMORY_SIZE=0")
	}
}
