package usecase

import (
	"context"
	"fmt"
	"time"

	authrepo "zuzuplan-backend/internal/auth/repository"
	notificationdomain "zuzuplan-backend/internal/notification/domain"
	"zuzuplan-backend/internal/notification/repository"
	"zuzuplan-backend/pkg/apperror"
	"zuzuplan-backend/pkg/fcm"
	"zuzuplan-backend/pkg/mailer"
	"zuzuplan-backend/pkg/metrics"
	"zuzuplan-backend/pkg/realtime"
	"zuzuplan-backend/pkg/response"

	"go.uber.org/zap"
)

// Request describes one notification to deliver.
type Request struct {
	UserID    string
	Type      string
	Message   string
	RelatedID string
	SendEmail bool
}

// DevicePusher sends push notifications to device tokens and reports the
// tokens that are no longer valid. *fcm.Client implements it.
type DevicePusher interface {
	SendToDevices(ctx context.Context, tokens []string, n fcm.NotificationData) ([]string, error)
}

type NotificationUsecase interface {
	// Notify persists the notification, then pushes it over the realtime
	// sink, to the user's devices and optionally by email. Only the
	// persistence error is returned; delivery failures are logged.
	Notify(ctx context.Context, req Request) (*notificationdomain.Notification, error)
	NotifyTaskAssignment(ctx context.Context, assigneeID, taskID, taskTitle, projectName string) error
	NotifyDueDate(ctx context.Context, userID, taskID, taskTitle string, dueDate time.Time) error
	NotifyProjectInvite(ctx context.Context, userID, projectID, projectName, role string) error
	NotifyComment(ctx context.Context, userID, taskID, taskTitle, authorName string) error

	List(ctx context.Context, userID string, read *bool, page response.Page) ([]notificationdomain.Notification, int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id, userID string) (*notificationdomain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationUsecase struct {
	repo     repository.NotificationRepository
	userRepo authrepo.UserRepository
	fcmRepo  authrepo.FCMTokenRepository
	pusher   DevicePusher
	sink     realtime.Sink
	mail     mailer.Sender
	logger   *zap.Logger
	now      func() time.Time
}

// NewNotificationUsecase wires the dispatcher. pusher may be nil when FCM
// is not configured.
func NewNotificationUsecase(
	repo repository.NotificationRepository,
	userRepo authrepo.UserRepository,
	fcmRepo authrepo.FCMTokenRepository,
	pusher DevicePusher,
	sink realtime.Sink,
	mail mailer.Sender,
	logger *zap.Logger,
) NotificationUsecase {
	return &notificationUsecase{
		repo:     repo,
		userRepo: userRepo,
		fcmRepo:  fcmRepo,
		pusher:   pusher,
		sink:     sink,
		mail:     mail,
		logger:   logger,
		now:      time.Now,
	}
}

func (u *notificationUsecase) Notify(ctx context.Context, req Request) (*notificationdomain.Notification, error) {
	n := &notificationdomain.Notification{
		UserID:  req.UserID,
		Type:    req.Type,
		Message: req.Message,
	}
	if req.RelatedID != "" {
		related := req.RelatedID
		n.RelatedID = &related
	}
	if err := u.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("store notification: %w", err)
	}
	metrics.IncrementNotification(req.Type, "store")

	log := u.logger.With(zap.String("user_id", req.UserID), zap.String("type", req.Type))

	if err := u.sink.Publish(ctx, realtime.UserNotificationsPath(req.UserID), n); err != nil {
		log.Warn("failed to push notification", zap.Error(err))
	} else {
		metrics.IncrementNotification(req.Type, "realtime")
	}

	u.pushToDevices(ctx, n, log)

	if req.SendEmail {
		u.sendEmail(ctx, n, log)
	}

	return n, nil
}

func (u *notificationUsecase) pushToDevices(ctx context.Context, n *notificationdomain.Notification, log *zap.Logger) {
	if u.pusher == nil {
		return
	}
	tokens, err := u.fcmRepo.GetTokensByUserID(ctx, n.UserID)
	if err != nil {
		log.Warn("failed to load device tokens", zap.Error(err))
		return
	}
	if len(tokens) == 0 {
		return
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}
	data := map[string]string{"type": n.Type, "notification_id": n.ID}
	if n.RelatedID != nil {
		data["related_id"] = *n.RelatedID
	}

	stale, err := u.pusher.SendToDevices(ctx, tokenStrings, fcm.NotificationData{
		Title:       "ZuzuPlan",
		Body:        n.Message,
		Data:        data,
		ClickAction: "/notifications",
	})
	if err != nil {
		log.Warn("failed to push to devices", zap.Error(err))
		return
	}
	metrics.IncrementNotification(n.Type, "push")

	for _, token := range stale {
		if err := u.fcmRepo.DeleteToken(ctx, token); err != nil {
			log.Warn("failed to delete stale device token", zap.Error(err))
		}
	}
}

func (u *notificationUsecase) sendEmail(ctx context.Context, n *notificationdomain.Notification, log *zap.Logger) {
	user, err := u.userRepo.FindByID(ctx, n.UserID)
	if err != nil || user == nil {
		log.Warn("failed to load notification recipient", zap.Error(err))
		return
	}
	if err := u.mail.Send(ctx, mailer.NotificationEmail(user.Email, n.Type, n.Message)); err != nil {
		log.Warn("failed to send notification email", zap.Error(err))
		return
	}
	metrics.IncrementNotification(n.Type, "email")
}

func (u *notificationUsecase) NotifyTaskAssignment(ctx context.Context, assigneeID, taskID, taskTitle, projectName string) error {
	_, err := u.Notify(ctx, Request{
		UserID:    assigneeID,
		Type:      notificationdomain.TypeTaskAssigned,
		Message:   fmt.Sprintf("You have been assigned to task %q in project %q", taskTitle, projectName),
		RelatedID: taskID,
		SendEmail: true,
	})
	return err
}

// NotifyDueDate sends TASK_DUE_SOON, or TASK_OVERDUE once dueDate has passed.
func (u *notificationUsecase) NotifyDueDate(ctx context.Context, userID, taskID, taskTitle string, dueDate time.Time) error {
	now := u.now()
	kind := notificationdomain.TypeTaskDueSoon
	var message string
	switch days := daysUntil(now, dueDate); {
	case dueDate.Before(now):
		kind = notificationdomain.TypeTaskOverdue
		message = fmt.Sprintf("Task %q is overdue", taskTitle)
	case days == 0:
		message = fmt.Sprintf("Task %q is due today", taskTitle)
	default:
		message = fmt.Sprintf("Task %q is due in %d day(s)", taskTitle, days)
	}

	_, err := u.Notify(ctx, Request{
		UserID:    userID,
		Type:      kind,
		Message:   message,
		RelatedID: taskID,
		SendEmail: true,
	})
	return err
}

func (u *notificationUsecase) NotifyProjectInvite(ctx context.Context, userID, projectID, projectName, role string) error {
	_, err := u.Notify(ctx, Request{
		UserID:    userID,
		Type:      notificationdomain.TypeProjectInvite,
		Message:   fmt.Sprintf("You have been added to project %q as %s", projectName, role),
		RelatedID: projectID,
	})
	return err
}

func (u *notificationUsecase) NotifyComment(ctx context.Context, userID, taskID, taskTitle, authorName string) error {
	_, err := u.Notify(ctx, Request{
		UserID:    userID,
		Type:      notificationdomain.TypeCommentAdded,
		Message:   fmt.Sprintf("%s commented on task %q", authorName, taskTitle),
		RelatedID: taskID,
	})
	return err
}

// daysUntil counts calendar days between the dates of now and due, in UTC.
func daysUntil(now, due time.Time) int {
	y1, m1, d1 := now.UTC().Date()
	y2, m2, d2 := due.UTC().Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func (u *notificationUsecase) List(ctx context.Context, userID string, read *bool, page response.Page) ([]notificationdomain.Notification, int64, error) {
	return u.repo.List(ctx, repository.ListFilter{
		UserID: userID,
		Read:   read,
		Offset: page.Offset(),
		Limit:  page.Limit,
	})
}

func (u *notificationUsecase) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return u.repo.CountUnread(ctx, userID)
}

func (u *notificationUsecase) MarkRead(ctx context.Context, id, userID string) (*notificationdomain.Notification, error) {
	n, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, apperror.NotFound("Notification not found")
	}
	if n.UserID != userID {
		return nil, apperror.AccessDenied("Notification belongs to another user")
	}
	if n.Read {
		return n, nil
	}
	if err := u.repo.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	n.Read = true
	return n, nil
}

func (u *notificationUsecase) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return u.repo.MarkAllRead(ctx, userID)
}
