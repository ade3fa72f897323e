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

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/agenda-api/internal/config"
	agendaHandler "github.com/jwalitptl/agenda-api/internal/handler/agenda"
	appointmentHandler "github.com/jwalitptl/agenda-api/internal/handler/appointment"
	availabilityHandler "github.com/jwalitptl/agenda-api/internal/handler/availability"
	"github.com/jwalitptl/agenda-api/internal/handler/health"
	promHandler "github.com/jwalitptl/agenda-api/internal/handler/prometheus"
	"github.com/jwalitptl/agenda-api/internal/middleware"
	"github.com/jwalitptl/agenda-api/internal/model"
	"github.com/jwalitptl/agenda-api/internal/repository/postgres"
	"github.com/jwalitptl/agenda-api/internal/router"
	agendaService "github.com/jwalitptl/agenda-api/internal/service/agenda"
	availabilityService "github.com/jwalitptl/agenda-api/internal/service/availability"
	"github.com/jwalitptl/agenda-api/internal/service/booking"
	"github.com/jwalitptl/agenda-api/internal/service/calendar"
	"github.com/jwalitptl/agenda-api/internal/service/conversation"
	"github.com/jwalitptl/agenda-api/internal/service/dispatch"
	"github.com/jwalitptl/agenda-api/internal/service/identity"
	"github.com/jwalitptl/agenda-api/internal/service/notification"
	"github.com/jwalitptl/agenda-api/pkg/auth"
	"github.com/jwalitptl/agenda-api/pkg/locker"
	"github.com/jwalitptl/agenda-api/pkg/logger"
	"github.com/jwalitptl/agenda-api/pkg/mailer"
	"github.com/jwalitptl/agenda-api/pkg/messaging"
	"github.com/jwalitptl/agenda-api/pkg/messaging/redis"
	"github.com/jwalitptl/agenda-api/pkg/metrics"
	"github.com/jwalitptl/agenda-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.JSON,
	}).WithFields(map[string]interface{}{"service": "agenda-api"})

	location, err := time.LoadLocation(cfg.Reminders.Location)
	if err != nil {
		log.Fatal(err, "invalid location")
	}

	ctx := context.Background()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewClient(ctx, cfg.Redis.ToBrokerConfig())
	if err != nil {
		log.Fatal(err, "failed to connect to Redis")
	}
	defer redisClient.Close()

	broker := redis.NewRedisBroker(redisClient, log)
	publisher := messaging.NewEventPublisher(broker, cfg.Outbox.Channel)
	appMetrics := metrics.NewMetrics("agenda", "api", prometheus.DefaultRegisterer)

	// Repositories
	ruleRepo := postgres.NewRuleRepository(db)
	blockRepo := postgres.NewBlockRepository(db)
	offeringRepo := postgres.NewOfferingRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	archiveRepo := postgres.NewArchiveRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// External collaborators
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

	// Services
	availabilitySvc := availabilityService.NewService(ruleRepo, blockRepo, appointmentRepo, offeringRepo, availabilityService.Config{
		HorizonDays:    cfg.Booking.HorizonDays,
		MaxHorizonDays: cfg.Booking.MaxHorizonDays,
		Location:       location,
	}, log, appMetrics)

	var slotLocker locker.Locker
	if cfg.Booking.SlotLockEnabled {
		slotLocker = locker.NewRedisLocker(redisClient, "agenda:")
	}
	bookingSvc := booking.NewService(appointmentRepo, archiveRepo, availabilitySvc, dispatcher, directory, slotLocker, booking.Config{
		SlotLockTTL: cfg.Booking.SlotLockTTL,
		AppURL:      cfg.Booking.AppURL,
		HorizonDays: cfg.Booking.MaxHorizonDays,
	}, log, appMetrics)
	calendarSvc := calendar.NewService(appointmentRepo, directory, bookingSvc, log, appMetrics)
	agendaSvc := agendaService.NewService(ruleRepo, blockRepo, offeringRepo, location, log)

	v, err := validator.New(model.ValidationTags())
	if err != nil {
		log.Fatal(err, "failed to build validator")
	}

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer)

	r := router.NewRouter(middleware.NewAuthMiddleware(jwtSvc), router.Handlers{
		Health: health.NewHandler(map[string]health.Pinger{
			"database": db,
			"redis": health.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}),
		}),
		Metrics:      promHandler.New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer),
		Availability: availabilityHandler.NewHandler(availabilitySvc),
		Appointment:  appointmentHandler.NewHandler(bookingSvc, v),
		Agenda:       agendaHandler.NewHandler(agendaSvc, calendarSvc, v),
	}, log, router.RouterConfig{
		Mode:           cfg.Server.Mode,
		RequestTimeout: cfg.Server.RequestTimeout,
		RateEnabled:    cfg.RateLimit.Enabled,
		RateLimit:      rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:      cfg.RateLimit.Burst,
		CORSConfig:     middleware.DefaultCORSConfig(cfg.CORS.AllowedOrigins),
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "server forced to shutdown")
	}

	log.Info("server exited properly")
}
