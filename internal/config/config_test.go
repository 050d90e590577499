package config

import (
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "groq_key")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if cfg.LLMProvider != ProviderGroq {
			t.Errorf("Expected default provider %q, got %q", ProviderGroq, cfg.LLMProvider)
		}
		if cfg.HTTPAddr != ":8080" {
			t.Errorf("Expected default HTTP addr ':8080', got %q", cfg.HTTPAddr)
		}
		if cfg.DatabasePath != "data/pantry-planner.db" {
			t.Errorf("Unexpected default database path %q", cfg.DatabasePath)
		}
		if cfg.GenerationTimeoutSeconds != 60 {
			t.Errorf("Expected default timeout 60, got %d", cfg.GenerationTimeoutSeconds)
		}
		if cfg.GenerationMaxRetries != 2 {
			t.Errorf("Expected default max retries 2, got %d", cfg.GenerationMaxRetries)
		}
		if cfg.DefaultRecipeCount != 3 {
			t.Errorf("Expected default recipe count 3, got %d", cfg.DefaultRecipeCount)
		}
	})

	t.Run("MissingGroqKey", func(t *testing.T) {
		t.Setenv("LLM_PROVIDER", "groq")
		t.Setenv("GROQ_API_KEY", "")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for missing GROQ_API_KEY, got nil")
		}
	})

	t.Run("GeminiProvider", func(t *testing.T) {
		t.Setenv("LLM_PROVIDER", "gemini")
		t.Setenv("GEMINI_API_KEY", "gemini_key")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.LLMProvider != ProviderGemini {
			t.Errorf("Expected provider %q, got %q", ProviderGemini, cfg.LLMProvider)
		}
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		t.Setenv("LLM_PROVIDER", "chatgpt9000")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for unknown provider, got nil")
		}
	})

	t.Run("TelegramAllowedIDs", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "groq_key")
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "123, 456,789")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(cfg.TelegramAllowedUserIDs) != 3 {
			t.Fatalf("Expected 3 allowed IDs, got %d", len(cfg.TelegramAllowedUserIDs))
		}
		if cfg.TelegramAllowedUserIDs[1] != 456 {
			t.Errorf("Expected second ID 456, got %d", cfg.TelegramAllowedUserIDs[1])
		}
	})

	t.Run("InvalidTelegramID", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "groq_key")
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "123,abc")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for invalid allowed user ID, got nil")
		}
	})
}
