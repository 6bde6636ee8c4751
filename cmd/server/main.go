package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/api"
	"github.com/Freeeeeet/lesson_booking/internal/app"
	"github.com/Freeeeeet/lesson_booking/internal/calendar"
	"github.com/Freeeeeet/lesson_booking/internal/config"
	"github.com/Freeeeeet/lesson_booking/internal/events"
	"github.com/Freeeeeet/lesson_booking/internal/policy"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting lesson booking service",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
	)

	location, err := time.LoadLocation(cfg.StudioTimezone)
	if err != nil {
		logger.Fatal("Failed to load studio timezone", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	// Бизнес-параметры читаются один раз: без цен и рабочих часов
	// сервис стартовать не должен
	settingsRepo := repository.NewSettingsRepository(pool)
	settings, err := settingsRepo.Load(ctx, location)
	if err != nil {
		logger.Fatal("Failed to load studio settings", zap.Error(err))
	}

	policies := policy.NewEngine(
		location,
		settings.CancellationPolicyHours,
		settings.MaxReschedulesPerMonth,
		settings.MaxPendingMakeups,
	)

	bookingRepo := repository.NewBookingRepository(pool)
	recurringRepo := repository.NewRecurringRepository(pool)
	billingRepo := repository.NewBillingRepository(pool)
	blackoutRepo := repository.NewBlackoutRepository(pool)
	makeupRepo := repository.NewMakeupRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	syncLogRepo := repository.NewSyncLogRepository(pool)
	busyRepo := repository.NewBusyIntervalRepository(pool)

	bus := events.NewBus(logger)
	defer bus.Close()

	calendarClient := calendar.NewHTTPClient(cfg.CalendarAPIURL, cfg.CalendarAPIToken)
	if !cfg.CalendarConfigured() {
		logger.Warn("External calendar credentials are not set, sync disabled")
	}

	availabilityService := service.NewAvailabilityService(settings, bookingRepo, blackoutRepo, busyRepo, logger)
	bookingService := service.NewBookingService(settings, policies, bookingRepo, blackoutRepo, paymentRepo, bus, logger)
	recurringService := service.NewRecurringService(pool, settings, recurringRepo, billingRepo, bookingRepo, blackoutRepo, logger)
	makeupService := service.NewMakeupService(settings, policies, makeupRepo, sessionRepo, bookingRepo, logger)
	syncService := service.NewCalendarSyncService(calendarClient, cfg.CalendarConfigured(), bookingRepo, syncLogRepo, busyRepo, logger)

	scheduler := app.NewScheduler(recurringService, makeupService, syncService, cfg.CalendarSyncInterval, cfg.DailySweepHour, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	handler := api.NewHandler(
		availabilityService,
		bookingService,
		recurringService,
		makeupService,
		syncService,
		location,
		logger,
	)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	logger.Info("Stopped")
}
