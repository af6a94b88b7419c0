package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskhub/internal/model"
	"taskhub/internal/repository"
)

// Notifier delivers a generated notification outside the application inbox.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n model.Notification) error
}

// ReminderRun summarises one generation pass.
type ReminderRun struct {
	RunID     string
	Generated int
	Delivered int
	Failed    int
}

// ReminderService turns due tasks into notifications and hands them to the notifiers.
type ReminderService struct {
	exec        ProcedureExecutor
	loc         *time.Location
	log         *zap.Logger
	notifiers   []Notifier
	onGenerated func(n int)
	timeout     time.Duration
}

type ReminderOption func(*ReminderService)

// WithGeneratedHook is called with the number of notifications each run creates.
func WithGeneratedHook(fn func(n int)) ReminderOption {
	return func(s *ReminderService) { s.onGenerated = fn }
}

func WithJobTimeout(d time.Duration) ReminderOption {
	return func(s *ReminderService) { s.timeout = d }
}

func NewReminderService(exec ProcedureExecutor, loc *time.Location, log *zap.Logger, notifiers []Notifier, opts ...ReminderOption) *ReminderService {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &ReminderService{
		exec:      exec,
		loc:       loc,
		log:       log.Named("reminder"),
		notifiers: notifiers,
		timeout:   time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate creates notifications for due tasks and delivers each one to every notifier.
// Delivery failures are logged and counted, never returned.
func (s *ReminderService) Generate(ctx context.Context) (ReminderRun, error) {
	run := ReminderRun{RunID: uuid.NewString()}
	log := s.log.With(zap.String("run_id", run.RunID))

	sets, err := call(ctx, s.exec, repository.ProcNotificationGenerate, repository.Params{"location": s.loc})
	if err != nil {
		return run, err
	}
	created, err := rows[model.Notification](sets, 0)
	if err != nil {
		return run, err
	}
	run.Generated = len(created)
	if s.onGenerated != nil {
		s.onGenerated(run.Generated)
	}

	for _, n := range created {
		for _, notifier := range s.notifiers {
			if err := notifier.Notify(ctx, n); err != nil {
				run.Failed++
				log.Warn("deliver notification",
					zap.String("notifier", notifier.Name()),
					zap.Int64("notification_id", n.ID),
					zap.Error(err))
				continue
			}
			run.Delivered++
		}
	}
	log.Info("reminders generated",
		zap.Int("generated", run.Generated),
		zap.Int("delivered", run.Delivered),
		zap.Int("failed", run.Failed))
	return run, nil
}

// Purge removes notifications older than each user's retention period.
func (s *ReminderService) Purge(ctx context.Context) (int64, error) {
	sets, err := call(ctx, s.exec, repository.ProcNotificationPurge, repository.Params{})
	if err != nil {
		return 0, err
	}
	row, _, err := repository.First[model.PurgeRow](sets, 0)
	if err != nil {
		return 0, translate(err)
	}
	s.log.Info("notifications purged", zap.Int64("deleted", row.Deleted))
	return row.Deleted, nil
}

// GenerateJob adapts Generate to a cron job bound to ctx.
func (s *ReminderService) GenerateJob(ctx context.Context) func() {
	return func() {
		jobCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		if _, err := s.Generate(jobCtx); err != nil {
			s.log.Error("generate reminders", zap.Error(err))
		}
	}
}

func (s *ReminderService) PurgeJob(ctx context.Context) func() {
	return func() {
		jobCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		if _, err := s.Purge(jobCtx); err != nil {
			s.log.Error("purge notifications", zap.Error(err))
		}
	}
}
