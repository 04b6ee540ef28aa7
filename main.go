package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"wanderly/config"
	"wanderly/cron"
	"wanderly/database"
	bookingRepo "wanderly/database/repository/booking"
	guideRepo "wanderly/database/repository/guide"
	tourRepo "wanderly/database/repository/tour"
	webhookRepo "wanderly/database/repository/webhook"
	"wanderly/handlers"
	"wanderly/middleware"
	"wanderly/routes"
	"wanderly/services/availability"
	"wanderly/services/booking"
	"wanderly/services/notification"
	"wanderly/services/payment"
	"wanderly/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type stores struct {
	bookings bookingRepo.BookingRepository
	guides   guideRepo.GuideRepository
	tours    tourRepo.TourRepository
	locker   availability.GuideLocker
	ledger   webhookRepo.Ledger
	mongo    *mongo.Client
	redis    []*redis.Client
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.StorageDriver == "memory" {
		logger.Warn("using in-memory storage; data is lost on restart")
		return &stores{
			bookings: bookingRepo.NewMemoryBookingRepo(),
			guides:   guideRepo.NewMemoryGuideRepo(),
			tours:    tourRepo.NewMemoryTourRepo(),
			locker:   availability.NewLocalLocker(),
			ledger:   webhookRepo.NewMemoryLedger(),
		}, nil
	}

	client, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.DatabaseName)

	bookings := bookingRepo.NewMongoBookingRepo(db)
	guides := guideRepo.NewMongoGuideRepo(db)
	if err := bookings.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	if err := guides.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	cacheClient, err := utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisCacheDB)
	if err != nil {
		return nil, err
	}
	lockClient, err := utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisLockDB)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to MongoDB and Redis", zap.String("database", cfg.DatabaseName))

	return &stores{
		bookings: bookings,
		guides:   guides,
		tours:    tourRepo.NewMongoTourRepo(db),
		locker:   availability.NewRedisLocker(lockClient, cfg.LockTTL),
		ledger:   webhookRepo.NewRedisLedger(cacheClient, webhookRepo.DefaultRetention),
		mongo:    client,
		redis:    []*redis.Client{cacheClient, lockClient},
	}, nil
}

func (s *stores) close() {
	for _, c := range s.redis {
		_ = c.Close()
	}
	_ = database.Disconnect(s.mongo)
}

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("main: failed to open storage", zap.Error(err))
	}
	defer st.close()

	// Notifications go through the queue when enabled; otherwise they are logged.
	var dispatcher notification.Dispatcher = notification.LogDispatcher{Logger: logger}
	var worker *cron.NotificationWorker
	if cfg.NotificationsEnabled {
		redisOpts := asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisQueueDB,
		}
		queue := asynq.NewClient(redisOpts)
		defer queue.Close()

		dispatcher, err = notification.NewQueueDispatcher(queue, logger)
		if err != nil {
			logger.Fatal("main: notification dispatcher", zap.Error(err))
		}

		fcm, err := utils.NewMessagingClient(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Fatal("main: firebase messaging", zap.Error(err))
		}
		sender, err := notification.NewPushSender(fcm)
		if err != nil {
			logger.Fatal("main: push sender", zap.Error(err))
		}

		worker = cron.NewNotificationWorker(redisOpts, sender, logger.Named("worker"))
		if err := worker.Start(ctx); err != nil {
			logger.Fatal("main: notification worker", zap.Error(err))
		}

		queueClient, err := utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisQueueDB)
		if err != nil {
			logger.Fatal("main: queue redis", zap.Error(err))
		}
		st.redis = append(st.redis, queueClient)
		go cron.MonitorRedisConnection(ctx, queueClient, 10*time.Second, logger.Named("worker"))
	}

	// services.
	availabilitySvc := availability.NewAvailabilityService(st.guides, st.locker, logger.Named("availability"))
	availabilitySvc.MaxRetries = cfg.AvailabilityMaxRetries
	availabilitySvc.Timeout = cfg.ConfirmTimeout

	engine, err := booking.NewConfirmationEngine(st.bookings, availabilitySvc, dispatcher, logger.Named("confirm"), cfg.ConfirmTimeout)
	if err != nil {
		logger.Fatal("main: confirmation engine", zap.Error(err))
	}

	fallback := &booking.FallbackService{
		Engine:   engine,
		Bookings: st.bookings,
		Tours:    st.tours,
		Logger:   logger.Named("fallback"),
		Timeout:  cfg.ConfirmTimeout,
	}
	webhookProcessor := &payment.WebhookProcessor{
		Secret:  cfg.StripeWebhookSecret,
		Engine:  engine,
		Ledger:  st.ledger,
		Logger:  logger.Named("webhook"),
		Timeout: cfg.ConfirmTimeout,
	}
	if cfg.StripeWebhookSecret == "" {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set; webhook deliveries will be rejected")
	}
	if cfg.StripeKey != "" {
		gateway, err := payment.NewStripeGateway(cfg.StripeKey)
		if err != nil {
			logger.Fatal("main: stripe gateway", zap.Error(err))
		}
		fallback.Checkout = gateway
		webhookProcessor.Lookup = gateway
	} else {
		logger.Warn("STRIPE_KEY not set; checkout sessions are not verified")
	}

	reconciler := &booking.Reconciler{
		Bookings:     st.bookings,
		Availability: availabilitySvc,
		Logger:       logger.Named("reconcile"),
	}

	monitor := utils.NewHealthMonitor(cfg.StorageDriver, st.redis, st.mongo, 60*time.Second)
	monitor.Start(ctx)

	handlerBundle := &handlers.HandlerBundle{
		Booking:      &handlers.BookingHandler{Engine: engine, Fallback: fallback, Logger: logger},
		Availability: &handlers.AvailabilityHandler{Guides: st.guides, Availability: availabilitySvc, Logger: logger},
		Webhook:      &handlers.WebhookHandler{Processor: webhookProcessor, Logger: logger},
		Admin:        &handlers.AdminHandler{Reconciler: reconciler, Logger: logger},
		Health:       &handlers.HealthHandler{Monitor: monitor},
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(utils.ErrorHandler(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin, logger))

	routes.RegisterRoutes(router, handlerBundle, routes.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		AdminToken: cfg.AdminToken,
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar().Errorf("main: server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	if worker != nil {
		worker.Shutdown()
	}

	logger.Info("main: server stopped gracefully")
}
