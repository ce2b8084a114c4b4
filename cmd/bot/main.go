package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chillchat/community-bot/internal/bot"
	"github.com/chillchat/community-bot/internal/config"
	"github.com/chillchat/community-bot/internal/domain"
	"github.com/chillchat/community-bot/internal/locale"
	"github.com/chillchat/community-bot/internal/logger"
	"github.com/chillchat/community-bot/internal/storage"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"
)

func main() {
	// Load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logLevel := logger.ParseLevel(cfg.LogLevel)
	log := logger.New(logLevel)
	log.Info("Starting Community Registration Bot", "log_level", cfg.LogLevel)

	// Initialize localizer
	localizer, err := locale.NewLocalizer(locale.NewLocale(cfg.DefaultLocale))
	if err != nil {
		log.Error("Failed to initialize localizer", "locale", cfg.DefaultLocale, "error", err)
		os.Exit(1)
	}

	// Build the event catalog
	catalog, err := domain.NewCatalog(cfg.Events)
	if err != nil {
		log.Error("Failed to build event catalog", "error", err)
		os.Exit(1)
	}
	log.Info("Event catalog loaded", "events", catalog.Len())

	// Initialize database
	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		log.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		log.Error("Failed to enable WAL mode", "error", err)
		os.Exit(1)
	}

	log.Info("Database opened", "path", cfg.DatabasePath)

	// Initialize DBQueue for safe concurrent access
	dbQueue := storage.NewDBQueue(db)
	defer dbQueue.Close()

	// Initialize database schema
	if err := storage.InitSchema(dbQueue); err != nil {
		log.Error("Failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	// Run database migrations
	if err := storage.RunMigrations(dbQueue); err != nil {
		log.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}
	log.Info("Database ready")

	// Create repositories
	rosterRepo := storage.NewRosterRepository(dbQueue)
	pendingRepo := storage.NewPendingRepository(dbQueue)
	userRepo := storage.NewUserRepository(dbQueue)
	boardRepo := storage.NewBoardRepository(dbQueue)
	fsmStorage := storage.NewFSMStorage(dbQueue, log)

	// Cleanup stale FSM sessions on startup
	if err := fsmStorage.CleanupStale(context.Background()); err != nil {
		log.Error("Failed to cleanup stale FSM sessions", "error", err)
		// Don't exit, just log the error
	}

	// Create context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create bot handler later (needed for default handler)
	var handler *bot.BotHandler

	// Initialize Telegram bot
	opts := []tgbot.Option{
		tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if handler == nil {
				return
			}
			// Contact shares arrive without text and bypass the text handler
			if update.Message != nil && update.Message.Contact != nil {
				handler.HandleMessage(ctx, b, update)
			}
		}),
	}

	b, err := tgbot.New(cfg.TelegramToken, opts...)
	if err != nil {
		log.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}
	log.Info("Telegram bot created")

	// Create domain services
	rosterService := domain.NewRosterService(catalog, rosterRepo, log)
	ticketService := domain.NewTicketService(b, localizer, log)
	statusBoard := domain.NewStatusBoard(b, rosterRepo, boardRepo, catalog, localizer, cfg.AdminGroupID, log)
	approvalService := domain.NewApprovalService(
		b,
		catalog,
		rosterService,
		rosterRepo,
		pendingRepo,
		ticketService,
		statusBoard,
		localizer,
		cfg.AdminGroupID,
		cfg.AutoApproveDelay,
		cfg.MeetupLinks,
		log,
	)

	// Create registration wizard
	registrationFSM := bot.NewRegistrationFSM(
		fsmStorage,
		b,
		catalog,
		rosterService,
		approvalService,
		cfg,
		localizer,
		log,
	)

	// Create bot handler
	handler = bot.NewBotHandler(
		b,
		cfg,
		catalog,
		rosterService,
		approvalService,
		statusBoard,
		userRepo,
		registrationFSM,
		fsmStorage,
		localizer,
		log,
	)

	// Register command handlers
	b.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypePrefix, handler.HandleStart)
	b.RegisterHandler(tgbot.HandlerTypeMessageText, "/broadcast", tgbot.MatchTypePrefix, handler.HandleBroadcast)
	b.RegisterHandler(tgbot.HandlerTypeMessageText, "/roster", tgbot.MatchTypePrefix, handler.HandleRoster)

	// Register callback query handler
	b.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, "", tgbot.MatchTypePrefix, handler.HandleCallback)

	// Register message handler for the wizard and feedback flows
	b.RegisterHandler(tgbot.HandlerTypeMessageText, "", tgbot.MatchTypePrefix, handler.HandleMessage)

	log.Info("Handlers registered")

	// Re-arm auto-approval timers for pendings that survived a restart
	if err := approvalService.RescheduleAll(ctx); err != nil {
		log.Error("Failed to reschedule pending registrations", "error", err)
		os.Exit(1)
	}

	// Start bot polling in a goroutine
	go func() {
		log.Info("Starting bot polling")
		b.Start(ctx)
	}()

	log.Info("Bot is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("Shutdown signal received, stopping bot...")
	approvalService.Shutdown()
	log.Info("Bot stopped successfully")
}
