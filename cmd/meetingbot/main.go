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

	"github.com/example/community-meetings/internal/application"
	"github.com/example/community-meetings/internal/config"
	"github.com/example/community-meetings/internal/delivery"
	httptransport "github.com/example/community-meetings/internal/http"
	"github.com/example/community-meetings/internal/logging"
	"github.com/example/community-meetings/internal/persistence/sqlite"
	"github.com/example/community-meetings/internal/planner"
	"github.com/example/community-meetings/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "info").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	location, err := cfg.Location()
	if err != nil {
		logger.Error("failed to load timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	userRepo := sqlite.NewUserRepository(pool)
	meetingRepo := sqlite.NewMeetingRepository(pool)
	registrationRepo := sqlite.NewRegistrationRepository(pool)

	var sender delivery.Sender
	if cfg.BotToken != "" {
		sender = delivery.NewTelegramClient(cfg.BotToken)
	} else {
		sender = delivery.NopSender{Logger: logger}
	}

	offsets := make([]planner.ReminderOffset, 0, len(cfg.ReminderDays))
	for _, day := range cfg.ReminderDays {
		offsets = append(offsets, planner.ReminderOffset{
			Label:  fmt.Sprintf("%dd", day),
			Before: time.Duration(day) * 24 * time.Hour,
		})
	}

	timer := scheduler.NewTimer(time.Now, logger)
	reminderPlanner := planner.New(timer, meetingRepo, registrationRepo, sender, offsets, location, time.Now, logger)

	userService := application.NewUserService(userRepo, logger)
	meetingService := application.NewMeetingService(meetingRepo, registrationRepo, userRepo, reminderPlanner, nil, time.Now, logger)
	registrationService := application.NewRegistrationService(registrationRepo, nil, time.Now, logger)

	timer.Start()
	defer timer.Stop()

	reminderPlanner.ScheduleAnnouncementDigest(cfg.AnnounceDays, cfg.AnnounceHour, cfg.AnnounceMinute, cfg.AnnounceChatID)
	if err := reminderPlanner.ReplanAll(ctx); err != nil {
		logger.Error("failed to replan reminders", "error", err)
		os.Exit(1)
	}

	meetingHandler := httptransport.NewMeetingHandler(meetingService, registrationService, userService, logger)
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Meetings: meetingHandler,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("meeting API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
