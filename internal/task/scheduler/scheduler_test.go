package scheduler

import (
	"context"
	"testing"
	"time"

	notificationdomain "zuzuplan-backend/internal/notification/domain"
	projectdto "zuzuplan-backend/internal/project/dto"
	"zuzuplan-backend/internal/task/domain"
	"zuzuplan-backend/internal/task/dto"
	"zuzuplan-backend/internal/testutil"
	"zuzuplan-backend/pkg/patch"
	"zuzuplan-backend/pkg/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunOnce_RemindsOncePerKind(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	owner := app.CreateUser(t, "Olivia Owner")
	project, err := app.Projects.CreateProject(ctx, owner.ID, &projectdto.CreateProjectRequest{Name: "Launch"})
	require.NoError(t, err)

	now := time.Now().UTC()
	create := func(title string, due time.Time, assigned bool, status domain.Status) *domain.Task {
		req := &dto.CreateTaskRequest{Title: title, DueDate: &due, Status: status}
		if assigned {
			req.AssigneeID = &owner.ID
		}
		task, err := app.Tasks.CreateTask(ctx, project.ID, owner.ID, req)
		require.NoError(t, err)
		return task
	}
	soon := create("due soon", now.Add(2*time.Hour), true, "")
	create("overdue", now.Add(-time.Hour), true, "")
	create("unassigned", now.Add(time.Hour), false, "")
	create("finished", now.Add(time.Hour), true, domain.StatusDone)
	create("far away", now.Add(10*24*time.Hour), true, "")

	s := NewReminderScheduler(app.TaskRepo, app.Notifications, time.Hour, 24*time.Hour, zap.NewNop())

	sent, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	sent, err = s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	countType := func(kind string) int {
		all, _, err := app.Notifications.List(ctx, owner.ID, nil, response.NewPage(1, 100))
		require.NoError(t, err)
		n := 0
		for _, note := range all {
			if note.Type == kind {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 1, countType(notificationdomain.TypeTaskDueSoon))
	assert.Equal(t, 1, countType(notificationdomain.TypeTaskOverdue))

	// Moving the due date re-arms the reminder.
	_, err = app.Tasks.UpdateTask(ctx, soon.ID, owner.ID, &dto.UpdateTaskRequest{
		DueDate: patch.Of(now.Add(3 * time.Hour)),
	})
	require.NoError(t, err)

	sent, err = s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 2, countType(notificationdomain.TypeTaskDueSoon))
}

func TestStartStop(t *testing.T) {
	app := testutil.NewApp(t)
	s := NewReminderScheduler(app.TaskRepo, app.Notifications, time.Hour, time.Hour, zap.NewNop())
	s.Start()
	s.Stop()

	disabled := NewReminderScheduler(app.TaskRepo, app.Notifications, 0, time.Hour, zap.NewNop())
	disabled.Start()
	disabled.Stop()
}
