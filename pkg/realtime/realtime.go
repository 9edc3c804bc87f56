// Package realtime pushes JSON payloads to subscribers addressed by a
// slash-separated path, e.g. "users/{id}/notifications".
package realtime

import (
	"context"
	"errors"
	"fmt"
)

// Sink delivers a payload to whoever listens on path.
type Sink interface {
	Publish(ctx context.Context, path string, payload interface{}) error
}

func UserNotificationsPath(userID string) string {
	return fmt.Sprintf("users/%s/notifications", userID)
}

func ProjectActivityPath(projectID string) string {
	return fmt.Sprintf("projects/%s/activity", projectID)
}

func TaskPath(projectID, taskID string) string {
	return fmt.Sprintf("projects/%s/tasks/%s", projectID, taskID)
}

func CommentPath(projectID, taskID, commentID string) string {
	return fmt.Sprintf("projects/%s/tasks/%s/comments/%s", projectID, taskID, commentID)
}

// Nop drops every payload. Used when no realtime backend is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) error { return nil }

// Fanout publishes to every sink and joins their errors.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, path string, payload interface{}) error {
	var errs []error
	for _, s := range f {
		if err := s.Publish(ctx, path, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
