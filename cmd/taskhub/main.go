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

	"go.uber.org/zap"

	"taskhub/internal/api"
	"taskhub/internal/config"
	"taskhub/internal/identity"
	"taskhub/internal/logging"
	"taskhub/internal/metrics"
	"taskhub/internal/notifier"
	"taskhub/internal/ratelimit"
	"taskhub/internal/repository"
	"taskhub/internal/service"
	"taskhub/internal/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logging.SetGlobal(logger)

	loc, err := time.LoadLocation(cfg.Reminder.Timezone)
	if err != nil {
		logger.Fatal("reminder timezone", zap.String("timezone", cfg.Reminder.Timezone), zap.Error(err))
	}

	var m *metrics.Metrics
	opts := []repository.Option{}
	if cfg.Metrics.Enabled {
		m = metrics.New()
		opts = append(opts, repository.WithObserver(m.ObserveProcedure))
	}
	exec := repository.NewExecutor(repository.Opener(cfg.Database, logger.Named("db")), opts...)
	defer func() {
		if err := exec.Close(); err != nil {
			logger.Warn("close db", zap.Error(err))
		}
	}()

	deps := api.Deps{
		Tasks:         service.NewTaskService(exec),
		Priorities:    service.NewPriorityService(exec),
		Categories:    service.NewCategoryService(exec),
		Notifications: service.NewNotificationService(exec),
		Validator:     validation.New(time.Now),
		Identity: identity.Static{ID: identity.Identity{
			AccountID: cfg.Identity.AccountID,
			UserID:    cfg.Identity.UserID,
		}},
		Health:         exec,
		Metrics:        m,
		MetricsPath:    cfg.Metrics.Path,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		Production:     cfg.Env == config.EnvProduction,
	}
	if cfg.RateLimit.Enabled {
		counter := ratelimit.NewRedisCounter(cfg.RateLimit.RedisAddr)
		defer counter.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := counter.Ping(pingCtx); err != nil {
			logger.Warn("redis unreachable, requests pass unlimited until it recovers", zap.Error(err))
		}
		cancel()
		deps.Limiter = ratelimit.New(counter, cfg.RateLimit.RequestsPerMinute)
	}

	if cfg.Reminder.Enabled {
		notifiers := []service.Notifier{notifier.NewLog(logger)}
		if cfg.Telegram.Token != "" {
			tg, err := notifier.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, logger)
			if err != nil {
				logger.Fatal("telegram", zap.Error(err))
			}
			notifiers = append(notifiers, tg)
		}

		reminderOpts := []service.ReminderOption{}
		if m != nil {
			reminderOpts = append(reminderOpts, service.WithGeneratedHook(m.AddGenerated))
		}
		reminders := service.NewReminderService(exec, loc, logger, notifiers, reminderOpts...)

		scheduler := service.NewSchedulerService(loc, logger)
		if _, err := scheduler.ScheduleInterval(cfg.Reminder.Interval, reminders.GenerateJob(ctx)); err != nil {
			logger.Fatal("schedule reminders", zap.Error(err))
		}
		if _, err := scheduler.ScheduleDaily(cfg.Reminder.PurgeAt, reminders.PurgeJob(ctx)); err != nil {
			logger.Fatal("schedule purge", zap.Error(err))
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      api.New(deps).Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("taskhub listening", zap.String("address", cfg.HTTP.Address), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("http server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.GracefulTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
