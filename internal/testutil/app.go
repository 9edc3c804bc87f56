package testutil

import (
	"context"
	"strings"
	"sync"
	"testing"

	"zuzuplan-backend/internal/access"
	activityrepo "zuzuplan-backend/internal/activity/repository"
	activityusecase "zuzuplan-backend/internal/activity/usecase"
	authdomain "zuzuplan-backend/internal/auth/domain"
	authrepo "zuzuplan-backend/internal/auth/repository"
	notificationrepo "zuzuplan-backend/internal/notification/repository"
	notificationusecase "zuzuplan-backend/internal/notification/usecase"
	projectrepo "zuzuplan-backend/internal/project/repository"
	projectusecase "zuzuplan-backend/internal/project/usecase"
	taskrepo "zuzuplan-backend/internal/task/repository"
	taskusecase "zuzuplan-backend/internal/task/usecase"
	"zuzuplan-backend/pkg/database"
	"zuzuplan-backend/pkg/mailer"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App is the usecase graph wired on an in-memory database.
type App struct {
	DB        *gorm.DB
	Sink      *RecordingSink
	Mail      *RecordingMailer
	Evaluator *access.Evaluator

	Users            authrepo.UserRepository
	ProjectRepo      projectrepo.ProjectRepository
	TaskRepo         taskrepo.TaskRepository
	ActivityRepo     activityrepo.ActivityRepository
	NotificationRepo notificationrepo.NotificationRepository

	Activity      activityusecase.ActivityUsecase
	Notifications notificationusecase.NotificationUsecase
	Projects      projectusecase.ProjectUsecase
	Tasks         taskusecase.TaskUsecase
	Labels        taskusecase.LabelUsecase
	Comments      taskusecase.CommentUsecase
	Attachments   taskusecase.AttachmentUsecase
}

func NewApp(t *testing.T) *App {
	t.Helper()

	db := NewDB(t)
	logger := zap.NewNop()
	sink := &RecordingSink{}
	mail := &RecordingMailer{}
	tx := database.NewTransactor(db)

	users := authrepo.NewUserRepository(db)
	fcmTokens := authrepo.NewFCMTokenRepository(db)
	projects := projectrepo.NewGormProjectRepository(db)
	tasks := taskrepo.NewGormTaskRepository(db)
	labels := taskrepo.NewGormLabelRepository(db)
	comments := taskrepo.NewGormCommentRepository(db)
	attachments := taskrepo.NewGormAttachmentRepository(db)
	activities := activityrepo.NewGormActivityRepository(db)
	notifications := notificationrepo.NewGormNotificationRepository(db)

	evaluator := access.NewEvaluator(projects)
	activity := activityusecase.NewActivityUsecase(activities, evaluator, sink, logger)
	notifier := notificationusecase.NewNotificationUsecase(notifications, users, fcmTokens, nil, sink, mail, logger)
	projectUc := projectusecase.NewProjectUsecase(projects, users, evaluator, tx, activity, tasks, notifier, logger, tasks, activities)

	return &App{
		DB:               db,
		Sink:             sink,
		Mail:             mail,
		Evaluator:        evaluator,
		Users:            users,
		ProjectRepo:      projects,
		TaskRepo:         tasks,
		ActivityRepo:     activities,
		NotificationRepo: notifications,
		Activity:         activity,
		Notifications:    notifier,
		Projects:         projectUc,
		Tasks:            taskusecase.NewTaskUsecase(tasks, labels, evaluator, tx, activity, projectUc, notifier, sink, logger),
		Labels:           taskusecase.NewLabelUsecase(labels, evaluator, tx, activity),
		Comments:         taskusecase.NewCommentUsecase(comments, tasks, evaluator, tx, activity, notifier, sink, logger),
		Attachments:      taskusecase.NewAttachmentUsecase(attachments, tasks, evaluator, tx, activity),
	}
}

// CreateUser stores a verified user named name with a derived email.
func (a *App) CreateUser(t *testing.T, name string) *authdomain.User {
	t.Helper()

	hash, err := authrepo.HashPassword("password123")
	require.NoError(t, err)
	user := &authdomain.User{
		Email:         strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Password:      hash,
		Name:          name,
		EmailVerified: true,
	}
	require.NoError(t, a.Users.Create(context.Background(), user))
	return user
}

// RecordingSink keeps every realtime publish.
type RecordingSink struct {
	mu     sync.Mutex
	events []Published
}

type Published struct {
	Path    string
	Payload interface{}
}

func (s *RecordingSink) Publish(_ context.Context, path string, payload interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, Published{Path: path, Payload: payload})
	return nil
}

// Paths returns the published paths in order.
func (s *RecordingSink) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, len(s.events))
	for i, e := range s.events {
		paths[i] = e.Path
	}
	return paths
}

// RecordingMailer keeps every message instead of sending it.
type RecordingMailer struct {
	mu       sync.Mutex
	Messages []mailer.Message
	Err      error
}

func (m *RecordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *RecordingMailer) Sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.Messages...)
}
