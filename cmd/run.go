package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"wagermatch/api"
	"wagermatch/auth"
	"wagermatch/bot"
	"wagermatch/config"
	"wagermatch/database"
	"wagermatch/events"
	"wagermatch/metrics"
	"wagermatch/repository"
	"wagermatch/service"
	"wagermatch/workers"
)

// ConfigureLogging applies the configured level and format to the global logger
func ConfigureLogging(cfg *config.Config) {
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// DatabaseURL returns the connection string with DATABASE_NAME applied
func DatabaseURL(cfg *config.Config) (string, error) {
	return database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName)
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)
	log.Info("Starting wagermatch...")

	// Initialize database connection
	dbURL, err := DatabaseURL(cfg)
	if err != nil {
		return fmt.Errorf("failed to construct database URL: %w", err)
	}
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Initialize event bus and its subscribers
	eventBus := events.NewBus()
	metrics.Register(eventBus)

	if cfg.NATSURL != "" {
		natsClient := events.NewNATSClient(cfg.NATSURL)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer func() {
			if err := natsClient.Close(); err != nil {
				log.WithError(err).Warn("Error closing NATS connection")
			}
		}()
		events.NewNATSForwarder(natsClient).Register(eventBus)
		log.Info("Match events forwarded to NATS")
	}

	if cfg.DisputeNotificationsEnabled() {
		notifier, err := bot.New(bot.Config{
			Token:     cfg.DiscordToken,
			ChannelID: cfg.DiscordDisputeChannelID,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Discord notifier: %w", err)
		}
		defer func() {
			if err := notifier.Close(); err != nil {
				log.WithError(err).Warn("Error closing Discord session")
			}
		}()
		notifier.Register(eventBus)
	}

	// Initialize unit of work factory and services
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	matchService := service.NewMatchService(uowFactory, cfg)
	expiryService := service.NewExpiryService(uowFactory, cfg)
	userService := service.NewUserService(uowFactory)
	linkedAccountService := service.NewLinkedAccountService(uowFactory)

	// Start the expiry sweeper, leased through Redis when several replicas run
	var locker workers.Locker = workers.NewLocalLocker()
	if cfg.RedisURL != "" {
		redisLocker, err := workers.NewRedisLocker(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisLocker.Close()
		if err := redisLocker.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		locker = redisLocker
	}
	stopSweeper, err := workers.NewExpirySweeper(expiryService, locker, cfg.SweepInterval).Start(ctx)
	if err != nil {
		return err
	}
	defer stopSweeper()

	// Start the HTTP API
	server := api.NewServer(cfg, auth.NewJWTVerifier(cfg.JWTSecret), api.Services{
		Matches:        matchService,
		Expiry:         expiryService,
		Users:          userService,
		LinkedAccounts: linkedAccountService,
	})
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.WithField("environment", cfg.Environment).Info("wagermatch is running")

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown error")
	}

	// Give in-flight event handlers a moment before closing connections
	select {
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout exceeded")
	case <-time.After(500 * time.Millisecond):
	}
	log.Info("Shutdown completed")

	return nil
}
