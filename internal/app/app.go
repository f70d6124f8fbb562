package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tracker/internal/api"
	"tracker/internal/bot"
	"tracker/internal/config"
	"tracker/internal/logger"
	"tracker/internal/storage"
	"tracker/internal/storage/ch"
	"tracker/internal/storage/gormdb"
	"tracker/internal/storage/stubs"
	"tracker/internal/tracker"
)

// App represents the application
type App struct {
	config  *config.Config
	logger  *zap.Logger
	db      storage.Storage
	tracker *tracker.Service
	api     *api.Server
	bot     *bot.Bot
	server  *http.Server
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// Load .env file if it exists
	envErr := godotenv.Load()

	// Load configuration from environment variables
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if envErr != nil {
		log.Debug("No .env file found, using system environment variables")
	}

	return newApp(cfg, log)
}

func newApp(cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{config: cfg, logger: log}

	log.Info("Starting Reading Tracker...",
		zap.String("env", cfg.Env),
		zap.String("storage_driver", cfg.StorageDriver),
		zap.Bool("bot_enabled", cfg.BotEnabled()),
	)

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.tracker = tracker.NewService(app.db, log)
	app.api = api.NewServer(app.tracker, log)

	// Initialize bot
	if cfg.BotEnabled() {
		if err := app.initBot(); err != nil {
			_ = app.db.Close()
			return nil, err
		}
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN not set, running the HTTP API only")
	}

	app.initHTTPServer()

	return app, nil
}

// openStorage picks the backend named by the configuration
func openStorage(cfg *config.Config, log *zap.Logger) (storage.Storage, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		log.Info("Using in-memory database")
		return stubs.NewMockDB(), nil

	case config.DriverPostgres, config.DriverSQLite:
		log.Info("Opening SQL database", zap.String("driver", cfg.StorageDriver))
		db, err := gormdb.Open(cfg.StorageDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s database: %w", cfg.StorageDriver, err)
		}
		return db, nil

	case config.DriverClickHouse:
		log.Info("Connecting to ClickHouse",
			zap.String("host", cfg.ClickHouseHost),
			zap.Int("port", cfg.ClickHousePort),
			zap.String("database", cfg.ClickHouseDatabase),
			zap.String("user", cfg.ClickHouseUser),
			zap.Bool("tls", cfg.ClickHouseUseTLS),
		)
		db, err := ch.NewClickHouseDB(
			cfg.ClickHouseHost,
			cfg.ClickHousePort,
			cfg.ClickHouseDatabase,
			cfg.ClickHouseUser,
			cfg.ClickHousePassword,
			cfg.ClickHouseUseTLS,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		return db, nil
	}

	return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
}

// initDatabase opens the configured backend and makes sure the schema exists
func (a *App) initDatabase() error {
	db, err := openStorage(a.config, a.logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Initialize(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.logger.Info("Database initialized successfully")

	a.db = db
	return nil
}

// initBot initializes the Telegram bot
func (a *App) initBot() error {
	telegramBot, err := bot.NewBot(a.config.TelegramToken, a.tracker, a.config.AllowedUserIDs, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	a.logger.Info("Bot created successfully", zap.Int64s("allowed_users", a.config.AllowedUserIDs))

	// Webhook endpoint (only used in webhook mode)
	if a.config.WebhookMode {
		a.api.Router().Post(bot.WebhookPath, telegramBot.WebhookHandler())
	}

	a.bot = telegramBot
	return nil
}

// initHTTPServer prepares the server for the JSON API and the webhook
func (a *App) initHTTPServer() {
	a.server = &http.Server{
		Addr:         ":" + a.config.Port,
		Handler:      a.api,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Handler returns the HTTP handler serving the API
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run starts the application and blocks until shutdown
func (a *App) Run() error {
	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)

	// Start HTTP server in background
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Start bot in appropriate mode
	if a.bot != nil {
		if a.config.WebhookMode {
			// Webhook mode: configure webhook and wait for HTTP requests
			if err := a.bot.StartWebhook(a.config.WebhookURL); err != nil {
				_ = a.Shutdown()
				return fmt.Errorf("failed to setup webhook: %w", err)
			}
			a.logger.Info("Webhook configured", zap.String("path", bot.WebhookPath))
		} else {
			// Polling mode: actively poll Telegram servers
			go func() {
				if err := a.bot.Start(); err != nil {
					errChan <- fmt.Errorf("bot: %w", err)
				}
			}()
		}
	}

	var runErr error
	select {
	case sig := <-sigChan:
		a.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case runErr = <-errChan:
		a.logger.Error("Application error", zap.Error(runErr))
	}

	a.logger.Info("Shutting down...")
	if err := a.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	// Shutdown HTTP server gracefully
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	if a.bot != nil {
		a.bot.Stop()
	}

	// Close database
	err := a.db.Close()
	if err != nil {
		a.logger.Error("Error closing database", zap.Error(err))
	} else {
		a.logger.Info("Shutdown complete")
	}

	_ = a.logger.Sync()
	return err
}
