package main

import (
	"context"
	"flag"
	"fmt"
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
	"pantry-planner/internal/httpapi"
	"pantry-planner/internal/llm"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/pantry"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/profile"
	"pantry-planner/internal/storage"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if len(os.Args) > 1 && os.Args[1] == "metrics-cleanup" {
		runMetricsCleanup(cfg, os.Args[2:])
		return
	}

	if cfg.SessionSecret == "" {
		log.Fatalf("SESSION_SECRET environment variable not set")
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

	sessions := httpapi.NewSessionManager(cfg.SessionSecret, time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go sessions.Run(janitorCtx, time.Minute)

	server := &httpapi.Server{
		Planner:           mealPlanner,
		Pantry:            pantryStore,
		Favorites:         favStore,
		Profile:           profileStore,
		Clipper:           clipper.NewClipper(textGen, favStore),
		Plans:             planner.NewPlanRepository(db.SQL),
		Feedback:          feedbackRepo,
		Metrics:           metrics.NewStore(db.SQL),
		Sessions:          sessions,
		DBPath:            cfg.DatabasePath,
		GenerationTimeout: time.Duration(cfg.GenerationTimeoutSeconds) * time.Second,
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.NewRouter(server),
	}

	go func() {
		log.Printf("API server listening on %s", cfg.HTTPAddr)
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

func runMetricsCleanup(cfg *config.Config, args []string) {
	cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
	days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
	cleanupCmd.Parse(args)

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	affected, err := metrics.NewStore(db.SQL).Cleanup(*days)
	if err != nil {
		log.Fatalf("Cleanup failed: %v", err)
	}
	fmt.Printf("Successfully removed %d old metric records.\n", affected)
}
