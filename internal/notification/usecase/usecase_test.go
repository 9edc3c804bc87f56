package usecase_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	authrepo "zuzuplan-backend/internal/auth/repository"
	notificationdomain "zuzuplan-backend/internal/notification/domain"
	notificationrepo "zuzuplan-backend/internal/notification/repository"
	"zuzuplan-backend/internal/notification/usecase"
	"zuzuplan-backend/internal/testutil"
	"zuzuplan-backend/pkg/apperror"
	"zuzuplan-backend/pkg/fcm"
	"zuzuplan-backend/pkg/realtime"
	"zuzuplan-backend/pkg/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPusher struct {
	mock.Mock
}

func (m *mockPusher) SendToDevices(ctx context.Context, tokens []string, n fcm.NotificationData) ([]string, error) {
	args := m.Called(ctx, tokens, n)
	stale, _ := args.Get(0).([]string)
	return stale, args.Error(1)
}

func TestNotify_PersistsPushesAndEmails(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	user := app.CreateUser(t, "Nina Notified")

	require.NoError(t, app.Notifications.NotifyTaskAssignment(ctx, user.ID, "task-1", "Design homepage", "Website Redesign"))

	list, total, err := app.Notifications.List(ctx, user.ID, nil, response.NewPage(1, 20))
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	n := list[0]
	assert.Equal(t, notificationdomain.TypeTaskAssigned, n.Type)
	assert.Contains(t, n.Message, `"Design homepage"`)
	assert.Contains(t, n.Message, `"Website Redesign"`)
	require.NotNil(t, n.RelatedID)
	assert.Equal(t, "task-1", *n.RelatedID)
	assert.False(t, n.Read)

	assert.Contains(t, app.Sink.Paths(), realtime.UserNotificationsPath(user.ID))
	sent := app.Mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, user.Email, sent[0].To)
}

func TestNotify_EmailFailureIsSwallowed(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	user := app.CreateUser(t, "Otto Offline")
	app.Mail.Err = errors.New("smtp unavailable")

	require.NoError(t, app.Notifications.NotifyTaskAssignment(ctx, user.ID, "task-1", "Ship it", "Launch"))

	count, err := app.Notifications.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestNotifyDueDate(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	user := app.CreateUser(t, "Dana Due")

	require.NoError(t, app.Notifications.NotifyDueDate(ctx, user.ID, "t1", "Report", time.Now().Add(72*time.Hour)))
	require.NoError(t, app.Notifications.NotifyDueDate(ctx, user.ID, "t2", "Invoice", time.Now().Add(-time.Hour)))

	list, _, err := app.Notifications.List(ctx, user.ID, nil, response.NewPage(1, 20))
	require.NoError(t, err)
	require.Len(t, list, 2)

	byTask := map[string]notificationdomain.Notification{}
	for _, n := range list {
		byTask[*n.RelatedID] = n
	}
	assert.Equal(t, notificationdomain.TypeTaskDueSoon, byTask["t1"].Type)
	assert.Equal(t, `Task "Report" is due in 3 day(s)`, byTask["t1"].Message)
	assert.Equal(t, notificationdomain.TypeTaskOverdue, byTask["t2"].Type)
	assert.Equal(t, `Task "Invoice" is overdue`, byTask["t2"].Message)
}

func TestMarkRead_Ownership(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	alice := app.CreateUser(t, "Alice Reader")
	bob := app.CreateUser(t, "Bob Snooper")

	n, err := app.Notifications.Notify(ctx, usecase.Request{UserID: alice.ID, Type: notificationdomain.TypeProjectInvite, Message: "hi"})
	require.NoError(t, err)

	_, err = app.Notifications.MarkRead(ctx, n.ID, bob.ID)
	assert.Equal(t, apperror.KindAccessDenied, apperror.From(err).Kind)

	_, err = app.Notifications.MarkRead(ctx, "does-not-exist", alice.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.From(err).Kind)

	got, err := app.Notifications.MarkRead(ctx, n.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)

	// Marking twice is harmless.
	got, err = app.Notifications.MarkRead(ctx, n.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)
}

func TestMarkAllReadAndFilter(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	user := app.CreateUser(t, "Mo Many")
	other := app.CreateUser(t, "Una Untouched")

	for i := 0; i < 3; i++ {
		_, err := app.Notifications.Notify(ctx, usecase.Request{UserID: user.ID, Type: notificationdomain.TypeCommentAdded, Message: "c"})
		require.NoError(t, err)
	}
	_, err := app.Notifications.Notify(ctx, usecase.Request{UserID: other.ID, Type: notificationdomain.TypeCommentAdded, Message: "c"})
	require.NoError(t, err)

	updated, err := app.Notifications.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, updated)

	count, err := app.Notifications.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	count, err = app.Notifications.UnreadCount(ctx, other.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	unread := false
	_, total, err := app.Notifications.List(ctx, user.ID, &unread, response.NewPage(1, 20))
	require.NoError(t, err)
	assert.Zero(t, total)

	read := true
	list, total, err := app.Notifications.List(ctx, user.ID, &read, response.NewPage(1, 2))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, list, 2)
}

func TestNotify_PrunesStaleDeviceTokens(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	user := app.CreateUser(t, "Pia Phone")

	devices := authrepo.NewFCMTokenRepository(app.DB)
	require.NoError(t, devices.SaveToken(ctx, user.ID, "good-token", "pixel"))
	require.NoError(t, devices.SaveToken(ctx, user.ID, "stale-token", "old tablet"))

	pusher := &mockPusher{}
	pusher.On("SendToDevices", mock.Anything, mock.MatchedBy(func(tokens []string) bool {
		sort.Strings(tokens)
		return len(tokens) == 2 && tokens[0] == "good-token" && tokens[1] == "stale-token"
	}), mock.MatchedBy(func(n fcm.NotificationData) bool {
		return n.Body == "hello" && n.Data["type"] == notificationdomain.TypeProjectInvite
	})).Return([]string{"stale-token"}, nil).Once()

	notifier := usecase.NewNotificationUsecase(
		notificationrepo.NewGormNotificationRepository(app.DB),
		app.Users, devices, pusher, app.Sink, app.Mail, zap.NewNop(),
	)
	_, err := notifier.Notify(ctx, usecase.Request{UserID: user.ID, Type: notificationdomain.TypeProjectInvite, Message: "hello"})
	require.NoError(t, err)
	pusher.AssertExpectations(t)

	left, err := devices.GetTokensByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "good-token", left[0].Token)
}
