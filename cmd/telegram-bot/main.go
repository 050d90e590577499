package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pantry-planner/internal/clipper"
	"pantry-planner/internal/config"
	"pantry-planner/internal/database"
	"pantry-planner/internal/favorites"
	"pantry-planner/internal/llm"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/pantry"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/profile"
	"pantry-planner/internal/storage"
	"pantry-planner/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.TelegramBotToken == "" {
		log.Fatalf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if cfg.TelegramWebhookURL == "" {
		log.Fatalf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}

	ctx := context.Background()

	textGen, err := newTextGenerator(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}
	if closer, ok := textGen.(llm.Closer); ok {
		defer closer.Close()
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	docs := storage.NewDocumentStore(db.SQL)
	pantryStore, err := pantry.NewStore(ctx, docs)
	if err != nil {
		log.Fatalf("Failed to load pantry: %v", err)
	}
	favStore, err := favorites.NewStore(ctx, docs)
	if err != nil {
		log.Fatalf("Failed to load favorites: %v", err)
	}
	profileStore, err := profile.NewStore(ctx, docs)
	if err != nil {
		log.Fatalf("Failed to load profile: %v", err)
	}

	feedbackRepo := planner.NewFeedbackRepository(db.SQL)
	mealPlanner := planner.NewPlanner(textGen, feedbackRepo, cfg.GenerationMaxRetries, cfg.DefaultRecipeCount)
	recipeClipper := clipper.NewClipper(textGen, favStore)
	metricsStore := metrics.NewStore(db.SQL)
	planRepo := planner.NewPlanRepository(db.SQL)

	bot, err := telegram.NewBot(cfg, mealPlanner, recipeClipper, pantryStore, profileStore, planRepo, metricsStore)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	bot.RegisterHandlers()

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: nil,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

func newTextGenerator(ctx context.Context, cfg *config.Config) (llm.TextGenerator, error) {
	if cfg.LLMProvider == config.ProviderGemini {
		return llm.NewGeminiClient(ctx, cfg)
	}
	return llm.NewGroqClient(cfg), nil
}
