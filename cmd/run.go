package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"rafflehouse/api"
	"rafflehouse/application"
	"rafflehouse/config"
	"rafflehouse/database"
	"rafflehouse/domain/events"
	"rafflehouse/domain/interfaces"
	"rafflehouse/infrastructure"
	"rafflehouse/infrastructure/observability"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// eventBus is a publisher that in-process subscribers can hook into
type eventBus interface {
	interfaces.EventPublisher
	RegisterLocalHandler(eventType events.EventType, handler infrastructure.EventHandler)
}

// Run wires the application together and serves HTTP until ctx is cancelled
func Run(ctx context.Context) error {
	cfg := config.Get()
	configureLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting rafflehouse...")

	if cfg.AutoMigrate {
		log.Info("Applying database migrations...")
		if err := database.RunMigrationsWithURL(cfg.GetDatabaseURL()); err != nil {
			return err
		}
	}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	recorder := observability.NewRecorder()

	bus, closeBus, err := newEventBus(ctx, cfg, recorder)
	if err != nil {
		return err
	}
	defer closeBus()

	announcer, err := infrastructure.NewDiscordWinnerAnnouncer(cfg.DiscordWebhookURL)
	if err != nil {
		return fmt.Errorf("failed to initialize winner announcer: %w", err)
	}
	if announcer != nil {
		announcer.Register(bus)
		log.Info("Discord winner announcements enabled")
	}

	uowFactory := infrastructure.NewUnitOfWorkFactoryWrapper(db, bus)
	settings := application.ServiceSettings{
		Random:                   infrastructure.NewCryptoRandom(),
		InstantWinOdds:           cfg.InstantWinOdds,
		TicketNumberMaxRounds:    cfg.TicketNumberMaxRounds,
		DefaultMaxTicketsPerUser: cfg.DefaultMaxTicketsPerUser,
	}

	paymentClient := infrastructure.NewPaymentClient(infrastructure.PaymentClientConfig{
		BaseURL:        cfg.PaymentBaseURL,
		APIKey:         cfg.PaymentAPIKey,
		RequestsPerSec: cfg.PaymentRequestsPerSec,
		Timeout:        10 * time.Second,
	})

	catalogue := application.NewCatalogueHandler(uowFactory, settings)
	accounts := application.NewAccountHandler(uowFactory, settings)
	draws := application.NewDrawHandler(uowFactory, settings)
	payments := application.NewPaymentHandler(uowFactory, settings, paymentClient, recorder)
	purchases := application.NewPurchaseHandler(uowFactory, settings, paymentClient, application.CheckoutSettings{
		Currency:   cfg.PaymentCurrency,
		SuccessURL: cfg.PaymentSuccessURL,
		CancelURL:  cfg.PaymentCancelURL,
	}, recorder)

	limiter, closeLimiter := newLimiter(cfg)
	defer closeLimiter()

	scheduler := application.NewScheduler(recorder)
	if err := scheduler.Add(ctx, application.ReconcilePaymentsJob(cfg.ReconcileSchedule, payments, cfg.PaymentReconcileAfter)); err != nil {
		return err
	}
	if err := scheduler.Add(ctx, application.CloseExpiredJob(cfg.ExpirySchedule, catalogue)); err != nil {
		return err
	}
	stopScheduler := scheduler.Start()

	server := api.NewServer(api.Config{
		Catalogue:          catalogue,
		Accounts:           accounts,
		Purchases:          purchases,
		Payments:           payments,
		Draws:              draws,
		Webhooks:           infrastructure.NewWebhookVerifier(cfg.PaymentWebhookSecret, cfg.PaymentWebhookTolerance),
		Limiter:            limiter,
		Health:             db.Healthy,
		JWTSecret:          cfg.JWTSecret,
		AdminSecret:        cfg.AdminSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitCapacity:  cfg.RateLimitCapacity,
	})
	httpServer := server.HTTPServer(cfg.HTTPAddr)

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	}

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server did not shut down cleanly")
	}

	// Lets an in-flight reconciliation finish before the pool closes
	stopScheduler()

	log.Info("Shutdown completed")
	return runErr
}

// newEventBus connects to NATS when configured, otherwise events stay in-process
func newEventBus(ctx context.Context, cfg *config.Config, observer infrastructure.PublishObserver) (eventBus, func(), error) {
	if !cfg.NATSEnabled() {
		log.Info("NATS not configured, events are delivered to local handlers only")
		return infrastructure.NewNoopEventPublisher(), func() {}, nil
	}

	client := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := client.Connect(ctx); err != nil {
		return nil, nil, err
	}

	mapper := infrastructure.NewEventSubjectMapper()
	if err := infrastructure.EnsureDomainEventStream(client, mapper); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	closeFn := func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Failed to close NATS connection")
		}
	}
	return infrastructure.NewNATSEventPublisher(client, mapper, observer), closeFn, nil
}

// newLimiter shares buckets through Redis when configured, with in-process buckets as the fallback
func newLimiter(cfg *config.Config) (api.Limiter, func()) {
	rlCfg := api.RateLimitConfig{
		Prefix:         cfg.RateLimitKeyPrefix,
		Capacity:       cfg.RateLimitCapacity,
		RefillTokens:   cfg.RateLimitRefill,
		RefillInterval: cfg.RateLimitInterval,
	}
	local := api.NewLocalLimiter(rlCfg)
	if cfg.RedisAddr == "" {
		return local, func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	log.WithField("addr", cfg.RedisAddr).Info("Rate limiting through Redis")

	return api.NewFallbackLimiter(api.NewRedisLimiter(client, rlCfg), local), func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Failed to close Redis client")
		}
	}
}

func configureLogging(cfg *config.Config) {
	log.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
