package usecase_test

import (
	"testing"

	activitydomain "zuzuplan-backend/internal/activity/domain"
	notificationdomain "zuzuplan-backend/internal/notification/domain"
	"zuzuplan-backend/internal/task/dto"
	"zuzuplan-backend/pkg/apperror"
	"zuzuplan-backend/pkg/realtime"
	"zuzuplan-backend/pkg/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComments_CreateLogsPushesAndNotifiesAssignee(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "Review copy", func(r *dto.CreateTaskRequest) { r.AssigneeID = &f.admin.ID })

	comment, err := f.app.Comments.CreateComment(f.ctx, task.ID, f.member.ID, "  Looks good to me  ")
	require.NoError(t, err)
	assert.Equal(t, "Looks good to me", comment.Content)
	require.NotNil(t, comment.User)
	assert.Equal(t, "Mia Member", comment.User.Name)

	logs := f.activity(t, task.ID)
	assert.Equal(t, activitydomain.ActionCommentAdded, logs[0].Action)
	assert.Contains(t, f.app.Sink.Paths(), realtime.CommentPath(f.project.ID, task.ID, comment.ID))

	notes := f.notificationsOfType(t, f.admin.ID, notificationdomain.TypeCommentAdded)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "Mia Member")
}

func TestComments_ListOldestFirstWithPagination(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "Chatty")
	for _, body := range []string{"first", "second", "third"} {
		_, err := f.app.Comments.CreateComment(f.ctx, task.ID, f.member.ID, body)
		require.NoError(t, err)
	}

	comments, total, err := f.app.Comments.ListComments(f.ctx, task.ID, f.viewer.ID, response.NewPage(1, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)
}

func TestComments_OnlyAuthorEditsAuthorOrAdminDeletes(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "Discussed")
	comment, err := f.app.Comments.CreateComment(f.ctx, task.ID, f.member.ID, "original")
	require.NoError(t, err)

	_, err = f.app.Comments.UpdateComment(f.ctx, comment.ID, f.admin.ID, "hijacked")
	assert.Equal(t, apperror.KindAccessDenied, kindOf(err))

	updated, err := f.app.Comments.UpdateComment(f.ctx, comment.ID, f.member.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	_, err = f.app.Comments.CreateComment(f.ctx, task.ID, f.viewer.ID, "viewers cannot comment")
	assert.Equal(t, apperror.KindAccessDenied, kindOf(err))

	other, err := f.app.Comments.CreateComment(f.ctx, task.ID, f.owner.ID, "owner note")
	require.NoError(t, err)
	err = f.app.Comments.DeleteComment(f.ctx, other.ID, f.member.ID)
	assert.Equal(t, apperror.KindAccessDenied, kindOf(err))

	require.NoError(t, f.app.Comments.DeleteComment(f.ctx, comment.ID, f.admin.ID))
	err = f.app.Comments.DeleteComment(f.ctx, comment.ID, f.admin.ID)
	assert.Equal(t, apperror.KindNotFound, kindOf(err))

	err = f.app.Comments.DeleteComment(f.ctx, other.ID, f.outsider.ID)
	assert.Equal(t, apperror.KindNotFound, kindOf(err))
}

func TestAttachments(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "With files")

	first, err := f.app.Attachments.CreateAttachment(f.ctx, task.ID, f.member.ID, &dto.CreateAttachmentRequest{
		FileName: "brief.pdf",
		FileURL:  "https://files.example.com/brief.pdf",
		FileType: "application/pdf",
		FileSize: 2048,
	})
	require.NoError(t, err)
	require.NotNil(t, first.Uploader)
	assert.Equal(t, f.member.ID, first.Uploader.ID)

	second, err := f.app.Attachments.CreateAttachment(f.ctx, task.ID, f.admin.ID, &dto.CreateAttachmentRequest{
		FileName: "mock.png",
		FileURL:  "https://files.example.com/mock.png",
	})
	require.NoError(t, err)

	list, err := f.app.Attachments.ListAttachments(f.ctx, task.ID, f.viewer.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	logs := f.activity(t, task.ID)
	assert.Equal(t, activitydomain.ActionAttachmentAdded, logs[0].Action)

	err = f.app.Attachments.DeleteAttachment(f.ctx, second.ID, f.member.ID)
	assert.Equal(t, apperror.KindAccessDenied, kindOf(err))
	require.NoError(t, f.app.Attachments.DeleteAttachment(f.ctx, first.ID, f.member.ID))
	require.NoError(t, f.app.Attachments.DeleteAttachment(f.ctx, second.ID, f.owner.ID))

	list, err = f.app.Attachments.ListAttachments(f.ctx, task.ID, f.viewer.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLabels(t *testing.T) {
	f := newFixture(t)
	f.createLabel(t, f.project.ID, "zeta")
	alpha := f.createLabel(t, f.project.ID, "alpha")

	labels, err := f.app.Labels.ListLabels(f.ctx, f.project.ID, f.viewer.ID)
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, "alpha", labels[0].Name)

	_, err = f.app.Labels.CreateLabel(f.ctx, f.project.ID, f.viewer.ID, &dto.CreateLabelRequest{Name: "nope", Color: "#000000"})
	assert.Equal(t, apperror.KindAccessDenied, kindOf(err))

	color := "#00ff00"
	updated, err := f.app.Labels.UpdateLabel(f.ctx, alpha.ID, f.member.ID, &dto.UpdateLabelRequest{Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "#00ff00", updated.Color)
	assert.Equal(t, "alpha", updated.Name)

	task := f.createTask(t, "Tagged", func(r *dto.CreateTaskRequest) { r.LabelIDs = []string{alpha.ID} })
	require.NoError(t, f.app.Labels.DeleteLabel(f.ctx, alpha.ID, f.member.ID))

	got, err := f.app.Tasks.GetTaskByID(f.ctx, task.ID, f.member.ID)
	require.NoError(t, err)
	assert.Empty(t, got.TaskLabels)

	_, err = f.app.Labels.UpdateLabel(f.ctx, alpha.ID, f.outsider.ID, &dto.UpdateLabelRequest{Color: &color})
	assert.Equal(t, apperror.KindNotFound, kindOf(err))
}

// detailsOfKind decodes the entries whose details are of the given kind.
func detailsOfKind(t *testing.T, logs []activitydomain.ActivityLog, kind string) map[activitydomain.Action]activitydomain.Details {
	t.Helper()
	out := map[activitydomain.Action]activitydomain.Details{}
	for _, l := range logs {
		d, err := activitydomain.DecodeDetails(l.Details)
		require.NoError(t, err)
		if d != nil && d.Kind() == kind {
			out[l.Action] = d
		}
	}
	return out
}

func TestLabels_MutationsAreLogged(t *testing.T) {
	f := newFixture(t)
	label := f.createLabel(t, f.project.ID, "bug")

	name := "defect"
	_, err := f.app.Labels.UpdateLabel(f.ctx, label.ID, f.member.ID, &dto.UpdateLabelRequest{Name: &name})
	require.NoError(t, err)

	same := "defect"
	_, err = f.app.Labels.UpdateLabel(f.ctx, label.ID, f.member.ID, &dto.UpdateLabelRequest{Name: &same})
	require.NoError(t, err)

	require.NoError(t, f.app.Labels.DeleteLabel(f.ctx, label.ID, f.member.ID))

	byAction := detailsOfKind(t, f.activity(t, ""), "label_changed")
	require.Len(t, byAction, 3, "an update that changes nothing is not logged")

	created := byAction[activitydomain.ActionCreated].(*activitydomain.LabelChanged)
	assert.Equal(t, label.ID, created.LabelID)
	assert.Equal(t, "bug", created.Name)

	updated := byAction[activitydomain.ActionUpdated].(*activitydomain.LabelChanged)
	assert.Equal(t, "defect", updated.Name)
	assert.Equal(t, "bug", updated.Changes["name"].Old)

	deleted := byAction[activitydomain.ActionDeleted].(*activitydomain.LabelChanged)
	assert.Equal(t, "deleted", deleted.Change)
	assert.Equal(t, "defect", deleted.Name)
}

func TestComments_EditAndDeleteAreLogged(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "Reviewed")
	comment, err := f.app.Comments.CreateComment(f.ctx, task.ID, f.member.ID, "first draft")
	require.NoError(t, err)

	_, err = f.app.Comments.UpdateComment(f.ctx, comment.ID, f.member.ID, "second draft")
	require.NoError(t, err)
	require.NoError(t, f.app.Comments.DeleteComment(f.ctx, comment.ID, f.admin.ID))

	logs := f.activity(t, task.ID)
	byAction := detailsOfKind(t, logs, "comment_changed")
	require.Len(t, byAction, 2)

	edited := byAction[activitydomain.ActionUpdated].(*activitydomain.CommentChanged)
	assert.Equal(t, comment.ID, edited.CommentID)
	assert.Equal(t, "second draft", edited.Excerpt)

	removed := byAction[activitydomain.ActionDeleted].(*activitydomain.CommentChanged)
	assert.Equal(t, "deleted", removed.Change)

	for _, l := range logs {
		if l.Action == activitydomain.ActionDeleted {
			assert.Equal(t, f.admin.ID, l.UserID)
		}
	}
}

func TestAttachments_DeleteIsLogged(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "Files")
	attachment, err := f.app.Attachments.CreateAttachment(f.ctx, task.ID, f.member.ID, &dto.CreateAttachmentRequest{
		FileName: "notes.txt",
		FileURL:  "https://files.example.com/notes.txt",
	})
	require.NoError(t, err)

	require.NoError(t, f.app.Attachments.DeleteAttachment(f.ctx, attachment.ID, f.member.ID))

	byAction := detailsOfKind(t, f.activity(t, task.ID), "attachment_deleted")
	require.Contains(t, byAction, activitydomain.ActionDeleted)
	deleted := byAction[activitydomain.ActionDeleted].(*activitydomain.AttachmentDeleted)
	assert.Equal(t, attachment.ID, deleted.AttachmentID)
	assert.Equal(t, "notes.txt", deleted.FileName)
}
