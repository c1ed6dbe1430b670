package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"linkvault/internal/ai"
	"linkvault/internal/bot"
	"linkvault/internal/config"
	"linkvault/internal/pipeline"
	"linkvault/internal/scraper"
	"linkvault/internal/session"
	"linkvault/internal/storage"
	"linkvault/internal/web"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	log.WithFields(logrus.Fields{
		"http_addr":    cfg.HTTPAddr,
		"pending_path": cfg.PendingDBPath,
		"telegram":     cfg.TelegramBotToken != "",
		"gemini":       cfg.GeminiAPIKey != "",
		"groq":         cfg.GroqAPIKey != "",
	}).Info("Configuration loaded successfully")

	// --- Initialize Components ---
	log.Info("Initializing components...")

	repo, err := storage.NewPostgresRepository(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		log.Info("Closing database...")
		if err := repo.Close(); err != nil {
			log.WithError(err).Error("Error closing database")
		}
	}()

	pending, err := session.NewBadgerStore(cfg.PendingDBPath, log)
	if err != nil {
		log.Fatalf("Failed to initialize pending store: %v", err)
	}
	defer func() {
		if err := pending.Close(); err != nil {
			log.WithError(err).Error("Error closing pending store")
		}
	}()

	scraperService := scraper.NewService(log)

	var providers []ai.Provider
	if cfg.GeminiAPIKey != "" {
		providers = append(providers, ai.NewGeminiProvider(cfg.GeminiAPIKey, log))
	}
	if cfg.GroqAPIKey != "" {
		providers = append(providers, ai.NewGroqProvider(cfg.GroqAPIKey, log))
	}
	categorizer := ai.NewCategorizer(providers, log)

	pipe := pipeline.New(repo, scraperService, categorizer, pending, log)

	server := web.NewServer(cfg.HTTPAddr, cfg.SessionSecret, repo, pipe, log)

	// The Telegram surface is optional. Without a token the web API and
	// WhatsApp webhook still run.
	var botHandler *bot.Handler
	if cfg.TelegramBotToken != "" {
		botHandler, err = bot.NewHandler(cfg.TelegramBotToken, repo, pipe, log)
		if err != nil {
			log.Fatalf("Failed to initialize Telegram bot handler: %v", err)
		}
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN not set, Telegram surface disabled")
	}

	// --- Application Startup ---
	log.Info("Starting LinkVault...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if botHandler != nil {
		go botHandler.Start(ctx)
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server stopped unexpectedly")
			stop()
		}
	}()

	log.Info("LinkVault is running. Press Ctrl+C to exit.")

	// --- Wait for Shutdown Signal ---
	<-ctx.Done()

	// --- Graceful Shutdown ---
	log.Info("Shutting down LinkVault...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	log.Info("LinkVault shut down gracefully.")
}
