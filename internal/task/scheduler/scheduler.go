package scheduler

import (
	"context"
	"time"

	"zuzuplan-backend/internal/task/repository"
	"zuzuplan-backend/internal/task/usecase"

	"go.uber.org/zap"
)

const batchSize = 100

// ReminderScheduler notifies assignees of tasks that are due soon or
// overdue. Each task gets at most one reminder of each kind per due date.
type ReminderScheduler struct {
	taskRepo repository.TaskRepository
	notifier usecase.ReminderNotifier
	interval time.Duration
	window   time.Duration
	logger   *zap.Logger
	now      func() time.Time
	stopChan chan struct{}
	done     chan struct{}
}

// NewReminderScheduler creates a scheduler that scans every interval for
// tasks due within window.
func NewReminderScheduler(
	taskRepo repository.TaskRepository,
	notifier usecase.ReminderNotifier,
	interval, window time.Duration,
	logger *zap.Logger,
) *ReminderScheduler {
	return &ReminderScheduler{
		taskRepo: taskRepo,
		notifier: notifier,
		interval: interval,
		window:   window,
		logger:   logger.Named("reminders"),
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *ReminderScheduler) Start() {
	if s.interval <= 0 {
		s.logger.Info("reminder scheduler disabled")
		close(s.done)
		return
	}

	s.logger.Info("starting reminder scheduler",
		zap.Duration("interval", s.interval),
		zap.Duration("window", s.window),
	)

	go func() {
		defer close(s.done)

		// Run immediately on start
		s.tick()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.tick()
			case <-s.stopChan:
				s.logger.Info("reminder scheduler stopped")
				return
			}
		}
	}()
}

// Stop stops the loop and waits for the current scan to finish.
func (s *ReminderScheduler) Stop() {
	close(s.stopChan)
	<-s.done
}

func (s *ReminderScheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	sent, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("reminder scan failed", zap.Error(err))
	}
	if sent > 0 {
		s.logger.Info("sent task reminders", zap.Int("count", sent))
	}
}

// RunOnce sends every reminder that is due now and returns how many went out.
func (s *ReminderScheduler) RunOnce(ctx context.Context) (int, error) {
	now := s.now()
	sent := 0
	for _, kind := range []repository.ReminderKind{repository.ReminderOverdue, repository.ReminderDueSoon} {
		n, err := s.remind(ctx, kind, now)
		sent += n
		if err != nil {
			return sent, err
		}
	}
	return sent, nil
}

func (s *ReminderScheduler) remind(ctx context.Context, kind repository.ReminderKind, now time.Time) (int, error) {
	tasks, err := s.taskRepo.FindDueForReminder(ctx, kind, now, s.window, batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, task := range tasks {
		if task.AssigneeID == nil || task.DueDate == nil {
			continue
		}
		// A failed notification is retried on the next tick.
		if err := s.notifier.NotifyDueDate(ctx, *task.AssigneeID, task.ID, task.Title, *task.DueDate); err != nil {
			s.logger.Warn("failed to send task reminder", zap.String("task_id", task.ID), zap.Error(err))
			continue
		}
		if err := s.taskRepo.MarkReminded(ctx, task.ID, kind, now); err != nil {
			s.logger.Error("failed to mark task reminded", zap.String("task_id", task.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}
