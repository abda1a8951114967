package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"tattoo-market/config"
	"tattoo-market/internal/api"
	"tattoo-market/internal/bot"
	"tattoo-market/internal/broker"
	"tattoo-market/internal/payment"
	"tattoo-market/internal/redisclient"
	"tattoo-market/internal/service"
	"tattoo-market/internal/store"
	"tattoo-market/internal/util"
	"tattoo-market/internal/worker"
)

const serviceName = "tattoo-market"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env, cfg.Log.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting tattoo market bot", zap.String("env", cfg.Server.Env))

	tp, err := util.InitTracer(serviceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	if tp != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Warn("Error shutting down tracer", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.NewStore(cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	sessions := redisclient.NewSessionStore(redisClient, cfg.Redis.SessionTTL)
	logger.Info("Redis connected")

	eventsProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer eventsProducer.Close()
	mailingProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicMailing)
	defer mailingProducer.Close()
	eventPublisher := broker.NewEventPublisher(eventsProducer, mailingProducer)
	logger.Info("Kafka producers initialized")

	paymentClient := payment.NewClient(cfg.Payment.BaseURL, cfg.Payment.APIToken, cfg.Payment.Timeout)

	// assigned below once the router exists
	var dispatcher *bot.Dispatcher
	tg, err := tgbot.New(cfg.Bot.Token, tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		dispatcher.Handle(ctx, b, update)
	}))
	if err != nil {
		logger.Fatal("Failed to create bot client", zap.Error(err))
	}
	gateway := bot.NewGateway(tg)

	admins := service.Admins(cfg.Bot.AdminIDs)
	settingsService := service.NewSettingsService(db, admins)
	mailingService := service.NewMailingService(db, gateway, eventPublisher, admins, cfg.Mailing.RatePerSecond, cfg.Mailing.Burst)

	router := bot.NewRouter(bot.Services{
		Accounts:   service.NewAccountService(db, settingsService, paymentClient, gateway, admins, cfg.Payment.Asset),
		Submission: service.NewSubmissionService(db, paymentClient, gateway, eventPublisher, redisClient, admins, cfg.Payment.Asset, cfg.Payment.PlacementFee),
		Moderation: service.NewModerationService(db, gateway, eventPublisher, admins),
		Catalog:    service.NewCatalogService(db, admins),
		Reviews:    service.NewReviewService(db, gateway, admins),
		Social:     service.NewSocialService(db, gateway),
		Categories: service.NewCategoryService(db, admins),
		Settings:   settingsService,
		Mailing:    mailingService,
	}, sessions, gateway, admins)

	dispatcher = bot.NewDispatcher(0, router)
	dispatcher.Start(ctx)

	mailingConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicMailing, cfg.Kafka.ConsumerGroup+"-mailing")
	mailingWorker := worker.NewMailingWorker(mailingConsumer, mailingService)
	go func() {
		if err := mailingWorker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Mailing worker error", zap.Error(err))
		}
	}()

	eventsConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup+"-events")
	eventWorker := worker.NewWorkEventWorker(eventsConsumer)
	go func() {
		if err := eventWorker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Work event worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	handler := api.NewHandler(map[string]api.Pinger{
		"postgres": db,
		"redis":    redisClient,
	})
	handler.SetupRoutes(engine)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Polling for updates")
	tg.Start(ctx)

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	dispatcher.Wait()
	if err := mailingWorker.Stop(); err != nil {
		logger.Warn("Failed to stop mailing worker", zap.Error(err))
	}
	if err := eventWorker.Stop(); err != nil {
		logger.Warn("Failed to stop work event worker", zap.Error(err))
	}

	logger.Info("Bot exited")
}
