package realtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	paths []string
	err   error
}

func (s *recordingSink) Publish(_ context.Context, path string, _ interface{}) error {
	s.paths = append(s.paths, path)
	return s.err
}

func TestFanout_PublishesToAllAndJoinsErrors(t *testing.T) {
	ok := &recordingSink{}
	broken := &recordingSink{err: errors.New("firebase unavailable")}

	err := Fanout{broken, ok}.Publish(context.Background(), "users/u1/notifications", map[string]string{"a": "b"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "firebase unavailable")
	assert.Equal(t, []string{"users/u1/notifications"}, ok.paths)
	assert.Equal(t, []string{"users/u1/notifications"}, broken.paths)
}

func TestHub_RoutesByPrefix(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	userSub, userEvents := hub.Subscribe("users/u1")
	_, projectEvents := hub.Subscribe("projects/p1")
	defer hub.Unsubscribe(userSub)

	require.NoError(t, hub.Publish(ctx, UserNotificationsPath("u1"), "hello"))
	require.NoError(t, hub.Publish(ctx, ProjectActivityPath("p1"), "activity"))
	require.NoError(t, hub.Publish(ctx, ProjectActivityPath("p10"), "other project"))
	require.NoError(t, hub.Publish(ctx, UserNotificationsPath("u2"), "other user"))

	got := <-userEvents
	assert.Equal(t, "users/u1/notifications", got.Path)
	assert.Equal(t, "hello", got.Payload)
	assert.Len(t, userEvents, 0)

	got = <-projectEvents
	assert.Equal(t, "projects/p1/activity", got.Path)
	assert.Len(t, projectEvents, 0)
}

func TestHub_DropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewHub()
	hub.buffer = 1
	id, events := hub.Subscribe("users/u1")

	require.NoError(t, hub.Publish(context.Background(), "users/u1/notifications", 1))
	require.NoError(t, hub.Publish(context.Background(), "users/u1/notifications", 2))

	assert.Len(t, events, 1)
	hub.Unsubscribe(id)
	assert.Equal(t, 0, hub.Subscribers())
	_, open := <-events
	assert.True(t, open)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "projects/p/tasks/t", TaskPath("p", "t"))
	assert.Equal(t, "projects/p/tasks/t/comments/c", CommentPath("p", "t", "c"))
	assert.NoError(t, Nop{}.Publish(context.Background(), "x", nil))
}
