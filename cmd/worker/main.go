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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/agenda-api/internal/config"
	"github.com/jwalitptl/agenda-api/internal/handler/health"
	promHandler "github.com/jwalitptl/agenda-api/internal/handler/prometheus"
	"github.com/jwalitptl/agenda-api/internal/model"
	"github.com/jwalitptl/agenda-api/internal/repository/postgres"
	"github.com/jwalitptl/agenda-api/internal/service/conversation"
	"github.com/jwalitptl/agenda-api/internal/service/dispatch"
	"github.com/jwalitptl/agenda-api/internal/service/identity"
	"github.com/jwalitptl/agenda-api/internal/service/notification"
	"github.com/jwalitptl/agenda-api/internal/service/reminder"
	internalWorker "github.com/jwalitptl/agenda-api/internal/worker"
	"github.com/jwalitptl/agenda-api/pkg/locker"
	"github.com/jwalitptl/agenda-api/pkg/logger"
	"github.com/jwalitptl/agenda-api/pkg/mailer"
	"github.com/jwalitptl/agenda-api/pkg/messaging"
	"github.com/jwalitptl/agenda-api/pkg/messaging/redis"
	"github.com/jwalitptl/agenda-api/pkg/metrics"
	"github.com/jwalitptl/agenda-api/pkg/worker"
)

const (
	jobReminders = "reminders"
	jobCleanup   = "outbox-cleanup"
)

func setupHealthCheck(port int, checks map[string]health.Pinger, log *logger.Logger) *http.Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(checks).RegisterRoutes(engine)
	metricsHandler := promHandler.New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	engine.GET("/metrics", metricsHandler.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "Health check server failed")
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	hostname, _ := os.Hostname()
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.JSON,
	}).WithFields(map[string]interface{}{
		"service":   "agenda-worker",
		"worker_id": fmt.Sprintf("%s-%d", hostname, os.Getpid()),
	})
	gin.SetMode(gin.ReleaseMode)

	location, err := time.LoadLocation(cfg.Reminders.Location)
	if err != nil {
		log.Fatal(err, "Invalid reminders location")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewClient(ctx, cfg.Redis.ToBrokerConfig())
	if err != nil {
		log.Fatal(err, "Failed to connect to Redis")
	}
	defer redisClient.Close()

	broker := redis.NewRedisBroker(redisClient, log)
	publisher := messaging.NewEventPublisher(broker, cfg.Outbox.Channel)
	appMetrics := metrics.NewMetrics("agenda", "worker", prometheus.DefaultRegisterer)

	outboxRepo := postgres.NewOutboxRepository(db)
	directory := identity.NewCachedDirectory(postgres.NewProfileRepository(db), cfg.Identity.CacheTTL)
	conversations := conversation.NewService(postgres.NewConversationRepository(db), publisher, log)
	var mail mailer.Mailer
	if cfg.SMTP.Enabled {
		mail = mailer.NewSMTPMailer(mailer.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}
	notifier := notification.NewService(postgres.NewNotificationRepository(db), directory, mail, publisher, log)
	dispatcher := dispatch.NewDispatcher(conversations, notifier, outboxRepo, log, appMetrics)

	// Outbox: dependency retries are replayed in-process, everything else is
	// published to the broker.
	processor := worker.NewOutboxProcessor(outboxRepo, publisher, cfg.Outbox.ToWorkerConfig(), log, appMetrics)
	processor.Handle(model.EventDependencyMessage, dispatcher.ReplayMessage)
	processor.Handle(model.EventDependencyNotification, dispatcher.ReplayNotification)

	// Scheduled jobs run on one replica at a time.
	scheduler := internalWorker.NewScheduler(locker.NewRedisLocker(redisClient, "agenda:"), location, log)

	if cfg.Reminders.Enabled {
		reminders := reminder.NewService(
			postgres.NewAppointmentRepository(db),
			postgres.NewReminderRepository(db),
			notifier,
			reminder.Config{
				Windows:  model.DefaultReminderWindows,
				Location: location,
				AppURL:   cfg.Booking.AppURL,
			},
			log,
			appMetrics,
		)
		err := scheduler.Add(jobReminders, cfg.Reminders.Schedule, 5*time.Minute, func(ctx context.Context) error {
			_, err := reminders.Run(ctx)
			return err
		})
		if err != nil {
			log.Fatal(err, "Failed to schedule reminders")
		}
	}

	cleanup := worker.NewOutboxCleanupWorker(outboxRepo, cfg.Outbox.Retention, log)
	if err := scheduler.Add(jobCleanup, cfg.Worker.CleanupSchedule, 10*time.Minute, cleanup.Run); err != nil {
		log.Fatal(err, "Failed to schedule outbox cleanup")
	}

	healthSrv := setupHealthCheck(cfg.Worker.HealthPort, map[string]health.Pinger{
		"database": db,
		"redis": health.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	}, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Shutting down...")
		cancel()
	}()

	if err := scheduler.Start(ctx); err != nil {
		log.Fatal(err, "Failed to start scheduler")
	}
	processor.Start(ctx)

	scheduler.Stop()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	_ = healthSrv.Shutdown(shutdownCtx)
	log.Info("Worker stopped")
}
