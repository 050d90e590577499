package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Provider names accepted in LLM_PROVIDER.
const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

// Config holds the configuration for the application.
type Config struct {
	LLMProvider  string
	GroqAPIKey   string
	GeminiAPIKey string

	DatabasePath string
	HTTPAddr     string

	SessionSecret     string
	SessionTTLMinutes int

	GenerationTimeoutSeconds int
	GenerationMaxRetries     int
	DefaultRecipeCount       int

	// Telegram Config (optional for the API server, required for the bot)
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = ProviderGroq
	}
	if provider != ProviderGroq && provider != ProviderGemini {
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q (want %q or %q)", provider, ProviderGroq, ProviderGemini)
	}

	groqAPIKey := os.Getenv("GROQ_API_KEY")
	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if provider == ProviderGroq && groqAPIKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
	}
	if provider == ProviderGemini && geminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	databasePath := os.Getenv("DATABASE_PATH")
	if databasePath == "" {
		databasePath = "data/pantry-planner.db"
	}

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	cfg := &Config{
		LLMProvider:  provider,
		GroqAPIKey:   groqAPIKey,
		GeminiAPIKey: geminiAPIKey,
		DatabasePath: databasePath,
		HTTPAddr:     httpAddr,

		SessionSecret:     os.Getenv("SESSION_SECRET"),
		SessionTTLMinutes: intFromEnv("SESSION_TTL_MINUTES", 60),

		GenerationTimeoutSeconds: intFromEnv("GENERATION_TIMEOUT_SECONDS", 60),
		GenerationMaxRetries:     intFromEnv("GENERATION_MAX_RETRIES", 2),
		DefaultRecipeCount:       intFromEnv("DEFAULT_RECIPE_COUNT", 3),

		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
	}

	if ids := os.Getenv("TELEGRAM_ALLOWED_USER_IDS"); ids != "" {
		for _, part := range strings.Split(ids, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", part, err)
			}
			cfg.TelegramAllowedUserIDs = append(cfg.TelegramAllowedUserIDs, id)
		}
	}

	if admin := os.Getenv("ADMIN_TELEGRAM_ID"); admin != "" {
		id, err := strconv.ParseInt(admin, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID %q: %w", admin, err)
		}
		cfg.AdminTelegramID = id
	}

	return cfg, nil
}

func intFromEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
