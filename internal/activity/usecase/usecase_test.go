package usecase_test

import (
	"context"
	"testing"

	activitydomain "zuzuplan-backend/internal/activity/domain"
	"zuzuplan-backend/internal/activity/usecase"
	projectdomain "zuzuplan-backend/internal/project/domain"
	projectdto "zuzuplan-backend/internal/project/dto"
	taskdto "zuzuplan-backend/internal/task/dto"
	"zuzuplan-backend/internal/testutil"
	"zuzuplan-backend/pkg/apperror"
	"zuzuplan-backend/pkg/realtime"
	"zuzuplan-backend/pkg/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityFeed(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	owner := app.CreateUser(t, "Olga Owner")
	viewer := app.CreateUser(t, "Vic Viewer")
	stranger := app.CreateUser(t, "Stan Stranger")

	project, err := app.Projects.CreateProject(ctx, owner.ID, &projectdto.CreateProjectRequest{Name: "Website Redesign"})
	require.NoError(t, err)
	_, err = app.Projects.AddMember(ctx, project.ID, owner.ID, &projectdto.AddMemberRequest{UserID: viewer.ID, Role: projectdomain.RoleViewer})
	require.NoError(t, err)
	task, err := app.Tasks.CreateTask(ctx, project.ID, owner.ID, &taskdto.CreateTaskRequest{Title: "Design homepage"})
	require.NoError(t, err)

	logs, total, err := app.Activity.List(ctx, project.ID, viewer.ID, usecase.ListFilter{Page: response.NewPage(1, 20)})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)

	// Newest first: task created, member added, project created.
	assert.Equal(t, activitydomain.ActionCreated, logs[0].Action)
	require.NotNil(t, logs[0].TaskID)
	assert.Equal(t, task.ID, *logs[0].TaskID)
	assert.Equal(t, activitydomain.ActionMemberAdded, logs[1].Action)
	assert.Equal(t, activitydomain.ActionCreated, logs[2].Action)
	assert.Nil(t, logs[2].TaskID)

	details, err := activitydomain.DecodeDetails(logs[2].Details)
	require.NoError(t, err)
	assert.Equal(t, &activitydomain.ProjectCreated{Name: "Website Redesign"}, details)

	byTask, total, err := app.Activity.List(ctx, project.ID, viewer.ID, usecase.ListFilter{TaskID: task.ID, Page: response.NewPage(1, 20)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, byTask, 1)
	require.NotNil(t, byTask[0].Task)
	assert.Equal(t, "Design homepage", byTask[0].Task.Title)

	_, _, err = app.Activity.List(ctx, project.ID, stranger.ID, usecase.ListFilter{Page: response.NewPage(1, 20)})
	assert.Equal(t, apperror.KindNotFound, apperror.From(err).Kind)

	assert.Contains(t, app.Sink.Paths(), realtime.ProjectActivityPath(project.ID))
}

func TestLog_WithoutTask(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	owner := app.CreateUser(t, "Lee Logger")
	project, err := app.Projects.CreateProject(ctx, owner.ID, &projectdto.CreateProjectRequest{Name: "Ops"})
	require.NoError(t, err)

	entry, err := app.Activity.Log(ctx, usecase.Entry{
		ProjectID: project.ID,
		UserID:    owner.ID,
		Action:    activitydomain.ActionUpdated,
		Details:   activitydomain.ProjectUpdated{Changes: map[string]activitydomain.Change{"name": {Old: "Ops", New: "Ops 2"}}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Nil(t, entry.TaskID)
	assert.Contains(t, entry.Details, "project_updated")
}
