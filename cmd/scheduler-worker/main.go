package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/miklosbodnar/eventdeck-backend/api"
	"github.com/miklosbodnar/eventdeck-backend/internal/events"
	"github.com/miklosbodnar/eventdeck-backend/internal/notifications"
	"github.com/miklosbodnar/eventdeck-backend/internal/reactions"
	"github.com/miklosbodnar/eventdeck-backend/internal/scheduler"
	"github.com/miklosbodnar/eventdeck-backend/pkg/config"
	"github.com/miklosbodnar/eventdeck-backend/pkg/db"
	"github.com/miklosbodnar/eventdeck-backend/pkg/discord"
	"github.com/miklosbodnar/eventdeck-backend/pkg/logger"
	"github.com/miklosbodnar/eventdeck-backend/pkg/metrics"
	"github.com/miklosbodnar/eventdeck-backend/pkg/migrate"
	"github.com/miklosbodnar/eventdeck-backend/pkg/redis"
)

const serviceName = "scheduler-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceName

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	discordClient, err := discord.NewClient(context.Background(), cfg.Discord, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap discord client", err)
		os.Exit(1)
	}

	location, err := cfg.Scheduler.Location()
	if err != nil {
		logg.Error(context.Background(), "failed to resolve scheduler timezone", err)
		os.Exit(1)
	}

	eventsRepo := events.NewRepository(dbClient.DB())
	reactionsRepo := reactions.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())

	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Logger:  logg,
		Repo:    notificationsRepo,
		Gateway: discordClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatcher", err)
		os.Exit(1)
	}

	reconciler, err := reactions.NewReconciler(reactions.ReconcilerParams{
		Logger:    logg,
		Repo:      reactionsRepo,
		Gateway:   discordClient,
		PageLimit: cfg.Scheduler.ReactionPageLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler", err)
		os.Exit(1)
	}

	announceJob, err := scheduler.NewAnnounceJob(scheduler.AnnounceJobParams{
		Logger:     logg,
		Repository: eventsRepo,
		Gateway:    discordClient,
		SeedEmoji:  cfg.Scheduler.SeedEmoji,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create announce job", err)
		os.Exit(1)
	}

	milestoneJob, err := scheduler.NewMilestoneJob(scheduler.MilestoneJobParams{
		Logger:      logg,
		Repository:  eventsRepo,
		Dispatcher:  dispatcher,
		AttendEmoji: cfg.Scheduler.AttendEmoji,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create milestone job", err)
		os.Exit(1)
	}

	attendanceJob, err := scheduler.NewAttendanceJob(scheduler.AttendanceJobParams{
		Logger:      logg,
		Repository:  eventsRepo,
		Dispatcher:  dispatcher,
		Location:    location,
		LocalHour:   cfg.Scheduler.AttendanceCheckHour,
		Window:      cfg.Scheduler.AttendanceWindow,
		AttendEmoji: cfg.Scheduler.AttendEmoji,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create attendance job", err)
		os.Exit(1)
	}

	reactionSyncJob, err := scheduler.NewReactionSyncJob(scheduler.ReactionSyncJobParams{
		Logger:     logg,
		Repository: eventsRepo,
		Reconciler: reconciler,
		Trailing:   cfg.Scheduler.ReactionSyncTrailing,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reaction sync job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewSchedulerJobMetrics(prometheus.DefaultRegisterer)
	lock, err := scheduler.NewRedisLock(redisClient, redisClient.LockKey("scheduler-tick"), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create tick lock", err)
		os.Exit(1)
	}

	// Announcement runs first so events promoted this tick are already
	// visible to the notification and sync jobs.
	registry := scheduler.NewRegistry(announceJob, milestoneJob, attendanceJob, reactionSyncJob)
	service, err := scheduler.NewService(scheduler.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Scheduler.TickInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	opsServer := &http.Server{
		Addr: ":" + cfg.Ops.Port,
		Handler: api.NewOpsHandler(cfg, logg, map[string]api.Pinger{
			"db":    dbClient,
			"redis": redisClient,
		}),
	}
	go func() {
		logg.Info(logg.WithField(ctx, "port", cfg.Ops.Port), "ops server listening")
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "ops server stopped unexpectedly", err)
		}
	}()

	logg.Info(ctx, "starting scheduler worker")
	if err := service.Start(ctx); err != nil {
		logg.Error(ctx, "failed to start scheduler", err)
		os.Exit(1)
	}

	<-ctx.Done()
	service.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "ops server shutdown failed", err)
	}

	logg.Info(ctx, "scheduler worker shutting down gracefully")
}
