package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"monkeybet/bot"
	"monkeybet/config"
	"monkeybet/database"
	"monkeybet/events"
	"monkeybet/games"
	"monkeybet/infrastructure"
	"monkeybet/observability"
	"monkeybet/repository"
	"monkeybet/server"
	"monkeybet/service"
)

const shutdownTimeout = 10 * time.Second

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	log.Info("Starting monkeybet...")

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	userService := service.NewUserService(uowFactory)
	ledgerService := service.NewLedgerService(uowFactory)
	withdrawalService := service.NewWithdrawalService(uowFactory)
	sessionService := service.NewSessionService(userService, ledgerService, games.NewSharedSource())
	log.Info("Services initialized successfully")

	closeSubscribers, err := startSubscribers(ctx, cfg, eventBus)
	if err != nil {
		return err
	}
	defer closeSubscribers()

	router := server.NewRouter(server.Dependencies{
		Session:     sessionService,
		Users:       userService,
		Withdrawals: withdrawalService,
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", httpServer.Addr).Infof("HTTP server listening in %s mode", cfg.Environment)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}

	// In-flight event handlers finish before their sinks are closed
	eventBus.Wait()

	log.Info("Shutdown completed")
	return nil
}

// startSubscribers attaches the optional event sinks and returns a function
// releasing them
func startSubscribers(ctx context.Context, cfg *config.Config, bus *events.Bus) (func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.NATSServers != "" {
		natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := natsClient.Connect(connectCtx)
		cancel()
		if err != nil {
			closeAll()
			return nil, err
		}
		infrastructure.NewEventForwarder(natsClient).Subscribe(bus)
		closers = append(closers, func() {
			if err := natsClient.Close(); err != nil {
				log.WithError(err).Error("Error closing NATS connection")
			}
		})
	} else {
		log.Info("NATS_SERVERS not set, event forwarding disabled")
	}

	if cfg.MetricsEnabled {
		metrics := observability.NewMetricsProvider(cfg)
		if err := metrics.Initialize(ctx); err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
		metrics.Subscribe(bus)
		closers = append(closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metrics.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Error("Error shutting down metrics")
			}
		})
	}

	if cfg.DiscordWebhookEnabled() {
		sender, err := bot.NewWebhookSender(cfg.DiscordWebhookID, cfg.DiscordWebhookToken)
		if err != nil {
			closeAll()
			return nil, err
		}
		bot.NewAdminNotifier(sender).Subscribe(bus)
		log.Info("Discord admin notifications enabled")
	}

	return closeAll, nil
}
