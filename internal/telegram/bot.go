// Package telegram is the conversational front end. A message is either a
// URL (clip it), a /plan command (generate the week) or free text (recipe
// ideas from the pantry). Access is limited to an allow-list of user IDs.
package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pantry-planner/internal/clipper"
	"pantry-planner/internal/config"
	"pantry-planner/internal/meal"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/pantry"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/profile"
	"pantry-planner/internal/shared"
)

// Prompt sizes beyond this trigger an admin alert.
const promptTokenAlertThreshold = 4000

// Bot wraps the Telegram API around the planner, clipper and stores.
type Bot struct {
	api          *tgbotapi.BotAPI
	planner      *planner.Planner
	clipper      *clipper.Clipper
	pantry       *pantry.Store
	profile      *profile.Store
	planRepo     *planner.PlanRepository
	metricsStore *metrics.Store
	cfg          *config.Config
}

// NewBot initializes the Telegram Bot and sets the webhook.
func NewBot(
	cfg *config.Config,
	plnr *planner.Planner,
	clppr *clipper.Clipper,
	pantryStore *pantry.Store,
	profileStore *profile.Store,
	planRepo *planner.PlanRepository,
	metricsStore *metrics.Store,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          api,
		planner:      plnr,
		clipper:      clppr,
		pantry:       pantryStore,
		profile:      profileStore,
		planRepo:     planRepo,
		metricsStore: metricsStore,
		cfg:          cfg,
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}
	if update.Message == nil {
		return
	}

	isAllowed := false
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if update.Message.From.ID == id {
			isAllowed = true
			break
		}
	}
	if !isAllowed {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)

	switch {
	case text == "/metrics":
		b.handleMetricsRequest(msg)
	case strings.HasPrefix(text, "/plan"):
		b.handlePlanRequest(msg)
	case strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://"):
		b.handleClipperRequest(msg)
	default:
		b.handleRecipesRequest(msg)
	}
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "⛔ *Access Denied*: Admin only."))
		return
	}
	b.handleMetricsCommand(msg.Chat.ID)
}

func (b *Bot) handleClipperRequest(msg *tgbotapi.Message) {
	sentMsg, err := b.sendStatus(msg.Chat.ID, "✂️ *Clipping recipe...*\n(Extracting and saving to your favorites)")
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	recipe, meta, err := b.clipper.ClipURL(ctx, msg.Text)
	b.recordMetas([]shared.AgentMeta{meta})

	var finalText string
	if err != nil {
		log.Printf("Error clipping recipe: %v", err)
		finalText = formatError("Error clipping recipe", err)
	} else {
		finalText = fmt.Sprintf("✅ *Recipe Saved!*\n\n*%s*\nPrep: %d min | Cook: %d min | Serves %d",
			recipe.Name, recipe.PrepTime, recipe.CookTime, recipe.Servings)
	}
	b.editStatus(msg.Chat.ID, sentMsg.MessageID, finalText)
}

func (b *Bot) handleRecipesRequest(msg *tgbotapi.Message) {
	sentMsg, err := b.sendStatus(msg.Chat.ID, "🧑‍🍳 *Thinking...*\n(Cooking up ideas from your pantry)")
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	recipes, metas, err := b.planner.GenerateRecipes(ctx, b.pantry.List(), b.profile.Get(), 0)
	b.recordMetas(metas)
	if err != nil {
		log.Printf("Error generating recipes: %v", err)
		b.editStatus(msg.Chat.ID, sentMsg.MessageID, formatError("Error generating recipes", err))
		return
	}

	// Free text narrows the suggestions to a named ingredient when possible.
	recipes = meal.FilterRecipesByIngredient(recipes, msg.Text)
	b.editStatus(msg.Chat.ID, sentMsg.MessageID, formatRecipesMarkdown(recipes))
}

func (b *Bot) handlePlanRequest(msg *tgbotapi.Message) {
	sentMsg, err := b.sendStatus(msg.Chat.ID, "🧑‍🍳 *Thinking...*\n(Generating your weekly plan)")
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// "/plan 2025-04-07" plans a specific week, bare "/plan" the next one.
	startDate := nextMonday(time.Now()).Format("2006-01-02")
	if arg := strings.TrimSpace(strings.TrimPrefix(msg.Text, "/plan")); arg != "" {
		startDate = arg
	}

	plan, metas, err := b.planner.GenerateWeeklyPlan(ctx, b.profile.Get(), startDate)
	b.recordMetas(metas)
	if err != nil {
		log.Printf("Error generating plan: %v", err)
		b.editStatus(msg.Chat.ID, sentMsg.MessageID, formatError("Error generating plan", err))
		return
	}

	userID := fmt.Sprintf("%d", msg.From.ID)
	if err := b.planRepo.Save(ctx, userID, plan); err != nil {
		log.Printf("Warning: failed to save meal plan for user %s: %v", userID, err)
	}

	planText, shoppingText := formatPlanMarkdownParts(plan)
	b.editStatus(msg.Chat.ID, sentMsg.MessageID, planText)

	shoppingMsg := tgbotapi.NewMessage(msg.Chat.ID, shoppingText)
	shoppingMsg.ParseMode = "Markdown"
	b.api.Send(shoppingMsg)
}

func (b *Bot) handleMetricsCommand(chatID int64) {
	usage, err := b.metricsStore.GetDailyUsage(7)
	if err != nil {
		b.api.Send(tgbotapi.NewMessage(chatID, "❌ Error fetching metrics."))
		return
	}

	health := metrics.GetSysHealth(b.cfg.DatabasePath)

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Uptime: %s | DB: %s\n", health.Uptime, health.DBSize))

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ParseMode = "Markdown"
	b.api.Send(msg)
}

func (b *Bot) recordMetas(metas []shared.AgentMeta) {
	for _, m := range metas {
		if err := b.metricsStore.RecordMeta(m); err != nil {
			log.Printf("Failed to record metrics for %s: %v", m.AgentName, err)
		}
		if m.Usage.PromptTokens > promptTokenAlertThreshold {
			b.sendAdminAlert(fmt.Sprintf("⚠️ *Context Bloat Alert*\nAgent: %s\nModel: %s\nPrompt Tokens: %d",
				m.AgentName, m.Usage.Model, m.Usage.PromptTokens))
		}
	}
}

func (b *Bot) sendStatus(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	sent, err := b.api.Send(msg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
	}
	return sent, err
}

func (b *Bot) editStatus(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(b.cfg.AdminTelegramID, text)
	msg.ParseMode = "Markdown"
	b.api.Send(msg)
}

func formatError(prefix string, err error) string {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *%s:*\n```\n%v\n```", prefix, safeErr)
}

// nextMonday returns the upcoming Monday strictly after t's date.
func nextMonday(t time.Time) time.Time {
	d := t.AddDate(0, 0, 1)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}
