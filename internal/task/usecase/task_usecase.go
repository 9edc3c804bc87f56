package usecase

import (
	"context"
	"strings"
	"time"

	"zuzuplan-backend/internal/access"
	activitydomain "zuzuplan-backend/internal/activity/domain"
	activityusecase "zuzuplan-backend/internal/activity/usecase"
	projectdomain "zuzuplan-backend/internal/project/domain"
	projectusecase "zuzuplan-backend/internal/project/usecase"
	"zuzuplan-backend/internal/task/domain"
	"zuzuplan-backend/internal/task/dto"
	"zuzuplan-backend/internal/task/repository"
	"zuzuplan-backend/pkg/apperror"
	"zuzuplan-backend/pkg/database"
	"zuzuplan-backend/pkg/realtime"

	"go.uber.org/zap"
)

type taskUsecase struct {
	repo     repository.TaskRepository
	labels   repository.LabelRepository
	access   *access.Evaluator
	tx       database.Transactor
	activity activityusecase.ActivityUsecase
	progress projectusecase.ProgressCalculator
	notifier TaskNotifier
	sink     realtime.Sink
	logger   *zap.Logger
}

// NewTaskUsecase creates a new TaskUsecase
func NewTaskUsecase(
	repo repository.TaskRepository,
	labels repository.LabelRepository,
	evaluator *access.Evaluator,
	tx database.Transactor,
	activity activityusecase.ActivityUsecase,
	progress projectusecase.ProgressCalculator,
	notifier TaskNotifier,
	sink realtime.Sink,
	logger *zap.Logger,
) TaskUsecase {
	return &taskUsecase{
		repo:     repo,
		labels:   labels,
		access:   evaluator,
		tx:       tx,
		activity: activity,
		progress: progress,
		notifier: notifier,
		sink:     sink,
		logger:   logger,
	}
}

// CreateTask validates, stores the task with its labels, logs CREATED and
// recomputes progress in one transaction. The assignee is notified after
// commit.
func (u *taskUsecase) CreateTask(ctx context.Context, projectID, userID string, req *dto.CreateTaskRequest) (*domain.Task, error) {
	a, err := u.access.Require(ctx, projectID, userID, projectdomain.RoleMember)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperror.Validation("Task title is required")
	}
	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperror.Validation("Invalid priority")
	}
	status := req.Status
	if status == "" {
		status = domain.StatusTodo
	}
	if !status.Valid() {
		return nil, apperror.Validation("Invalid status")
	}

	var assigneeID *string
	if req.AssigneeID != nil && strings.TrimSpace(*req.AssigneeID) != "" {
		id := strings.TrimSpace(*req.AssigneeID)
		if err := checkAssignee(ctx, u.access, projectID, id); err != nil {
			return nil, err
		}
		assigneeID = &id
	}
	labelIDs, err := checkLabels(ctx, u.labels, projectID, req.LabelIDs)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		Title:       title,
		Description: req.Description,
		ProjectID:   projectID,
		AssigneeID:  assigneeID,
		DueDate:     req.DueDate,
		Priority:    priority,
		Status:      status,
	}

	var entry *activitydomain.ActivityLog
	err = u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := u.repo.Create(ctx, task); err != nil {
			return err
		}
		if len(labelIDs) > 0 {
			if err := u.repo.ReplaceLabels(ctx, task.ID, labelIDs); err != nil {
				return err
			}
		}
		var err error
		entry, err = u.activity.Log(ctx, activityusecase.Entry{
			ProjectID: projectID,
			TaskID:    task.ID,
			UserID:    userID,
			Action:    activitydomain.ActionCreated,
			Details:   activitydomain.TaskCreated{Title: task.Title},
		})
		if err != nil {
			return err
		}
		_, err = u.progress.CalculateProgress(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	u.activity.Publish(ctx, entry)
	created, err := u.repo.FindDetailed(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	publish(ctx, u.sink, u.logger, realtime.TaskPath(projectID, task.ID), taskEvent{Event: "created", TaskID: task.ID, Data: created})
	if assigneeID != nil && *assigneeID != userID {
		u.notifyAssignment(ctx, created, a.Project.Name)
	}
	return created, nil
}

func (u *taskUsecase) GetTasks(ctx context.Context, projectID, userID string, filter TaskFilter) ([]domain.Task, int64, error) {
	if _, err := u.access.Require(ctx, projectID, userID, projectdomain.RoleViewer); err != nil {
		return nil, 0, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperror.Validation("Invalid status")
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, 0, apperror.Validation("Invalid priority")
	}

	return u.repo.List(ctx, repository.TaskFilter{
		ProjectID:  projectID,
		Status:     filter.Status,
		Priority:   filter.Priority,
		AssigneeID: filter.AssigneeID,
		LabelID:    filter.LabelID,
		Search:     filter.Search,
		DueBefore:  filter.DueBefore,
		DueAfter:   filter.DueAfter,
		Offset:     filter.Page.Offset(),
		Limit:      filter.Page.Limit,
	})
}

func (u *taskUsecase) GetTaskByID(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	if _, _, err := loadTask(ctx, u.repo, u.access, taskID, userID, projectdomain.RoleViewer); err != nil {
		return nil, err
	}
	task, err := u.repo.FindDetailed(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, errTaskNotFound()
	}
	return task, nil
}

// UpdateTask applies a partial update. A status change is logged as
// STATUS_CHANGED and recomputes progress; anything else is UPDATED. A
// request that changes nothing writes nothing.
func (u *taskUsecase) UpdateTask(ctx context.Context, taskID, userID string, req *dto.UpdateTaskRequest) (*domain.Task, error) {
	_, a, err := loadTask(ctx, u.repo, u.access, taskID, userID, projectdomain.RoleMember)
	if err != nil {
		return nil, err
	}
	current, err := u.repo.FindDetailed(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, errTaskNotFound()
	}

	expectedVersion := 0
	if req.Version != nil {
		if *req.Version != current.Version {
			return nil, errStaleVersion()
		}
		expectedVersion = *req.Version
	}

	fields := map[string]interface{}{}
	changes := map[string]activitydomain.Change{}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperror.Validation("Task title cannot be empty")
		}
		if title != current.Title {
			fields["title"] = title
			changes["title"] = activitydomain.Change{Old: current.Title, New: title}
		}
	}
	if req.Description.Set {
		next := req.Description.Ptr()
		if !equalStringPtr(current.Description, next) {
			fields["description"] = next
			changes["description"] = activitydomain.Change{Old: current.Description, New: next}
		}
	}

	assigneeChanged := false
	if req.AssigneeID.Set {
		next := req.AssigneeID.Ptr()
		if next != nil && strings.TrimSpace(*next) == "" {
			next = nil
		}
		if !equalStringPtr(current.AssigneeID, next) {
			if next != nil {
				if err := checkAssignee(ctx, u.access, current.ProjectID, *next); err != nil {
					return nil, err
				}
			}
			fields["assignee_id"] = next
			changes["assigneeId"] = activitydomain.Change{Old: current.AssigneeID, New: next}
			assigneeChanged = true
		}
	}
	if req.DueDate.Set {
		next := req.DueDate.Ptr()
		if !equalTimePtr(current.DueDate, next) {
			fields["due_date"] = next
			fields["reminded_due_soon_at"] = nil
			fields["reminded_overdue_at"] = nil
			changes["dueDate"] = activitydomain.Change{Old: current.DueDate, New: next}
		}
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return nil, apperror.Validation("Invalid priority")
		}
		if *req.Priority != current.Priority {
			fields["priority"] = *req.Priority
			changes["priority"] = activitydomain.Change{Old: current.Priority, New: *req.Priority}
		}
	}

	statusChanged := false
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, apperror.Validation("Invalid status")
		}
		if *req.Status != current.Status {
			fields["status"] = *req.Status
			statusChanged = true
		}
	}

	var labelIDs []string
	labelsChanged := false
	if req.LabelIDs.Set {
		labelIDs, err = checkLabels(ctx, u.labels, current.ProjectID, req.LabelIDs.Value)
		if err != nil {
			return nil, err
		}
		if oldIDs := current.LabelIDs(); !sameIDSet(oldIDs, labelIDs) {
			labelsChanged = true
			changes["labels"] = activitydomain.Change{Old: oldIDs, New: labelIDs}
		}
	}

	if len(fields) == 0 && !labelsChanged {
		return current, nil
	}

	entry := activityusecase.Entry{
		ProjectID: current.ProjectID,
		TaskID:    taskID,
		UserID:    userID,
		Action:    activitydomain.ActionUpdated,
		Details:   activitydomain.TaskUpdated{Changes: changes},
	}
	if statusChanged {
		details := activitydomain.TaskStatusChanged{
			OldStatus: string(current.Status),
			NewStatus: string(*req.Status),
		}
		if len(changes) > 0 {
			details.Changes = changes
		}
		entry.Action = activitydomain.ActionStatusChanged
		entry.Details = details
	}

	var log *activitydomain.ActivityLog
	err = u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		updated, err := u.repo.Update(ctx, taskID, fields, expectedVersion)
		if err != nil {
			return err
		}
		if updated == 0 {
			return errStaleVersion()
		}
		if labelsChanged {
			if err := u.repo.ReplaceLabels(ctx, taskID, labelIDs); err != nil {
				return err
			}
		}
		log, err = u.activity.Log(ctx, entry)
		if err != nil {
			return err
		}
		if statusChanged {
			_, err = u.progress.CalculateProgress(ctx, current.ProjectID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	u.activity.Publish(ctx, log)
	task, err := u.repo.FindDetailed(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, errTaskNotFound()
	}
	publish(ctx, u.sink, u.logger, realtime.TaskPath(task.ProjectID, taskID), taskEvent{Event: "updated", TaskID: taskID, Data: task})
	if assigneeChanged && task.AssigneeID != nil && *task.AssigneeID != userID {
		u.notifyAssignment(ctx, task, a.Project.Name)
	}
	return task, nil
}

// DeleteTask removes the task and its children, logs DELETED and
// recomputes progress in one transaction.
func (u *taskUsecase) DeleteTask(ctx context.Context, taskID, userID string) error {
	task, _, err := loadTask(ctx, u.repo, u.access, taskID, userID, projectdomain.RoleMember)
	if err != nil {
		return err
	}

	var entry *activitydomain.ActivityLog
	err = u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := u.repo.Delete(ctx, taskID); err != nil {
			return err
		}
		var err error
		entry, err = u.activity.Log(ctx, activityusecase.Entry{
			ProjectID: task.ProjectID,
			TaskID:    taskID,
			UserID:    userID,
			Action:    activitydomain.ActionDeleted,
			Details:   activitydomain.TaskDeleted{Title: task.Title},
		})
		if err != nil {
			return err
		}
		_, err = u.progress.CalculateProgress(ctx, task.ProjectID)
		return err
	})
	if err != nil {
		return err
	}

	u.activity.Publish(ctx, entry)
	publish(ctx, u.sink, u.logger, realtime.TaskPath(task.ProjectID, taskID), taskEvent{Event: "deleted", TaskID: taskID})
	return nil
}

func (u *taskUsecase) AddSubtask(ctx context.Context, taskID, userID string, req *dto.CreateSubtaskRequest) (*domain.Subtask, error) {
	task, _, err := loadTask(ctx, u.repo, u.access, taskID, userID, projectdomain.RoleMember)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperror.Validation("Subtask title is required")
	}

	subtask := &domain.Subtask{TaskID: taskID, Title: title}
	err = u.logSubtask(ctx, task, userID, "added", subtask, func(ctx context.Context) error {
		return u.repo.CreateSubtask(ctx, subtask)
	})
	if err != nil {
		return nil, err
	}
	return subtask, nil
}

func (u *taskUsecase) UpdateSubtask(ctx context.Context, taskID, subtaskID, userID string, req *dto.UpdateSubtaskRequest) (*domain.Subtask, error) {
	task, _, err := loadTask(ctx, u.repo, u.access, taskID, userID, projectdomain.RoleMember)
	if err != nil {
		return nil, err
	}
	subtask, err := u.findSubtask(ctx, taskID, subtaskID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperror.Validation("Subtask title cannot be empty")
		}
		if title != subtask.Title {
			fields["title"] = title
			subtask.Title = title
		}
	}
	change := "updated"
	if req.Completed != nil && *req.Completed != subtask.Completed {
		fields["completed"] = *req.Completed
		subtask.Completed = *req.Completed
		if len(fields) == 1 {
			change = "completed"
			if !subtask.Completed {
				change = "reopened"
			}
		}
	}
	if len(fields) == 0 {
		return subtask, nil
	}

	err = u.logSubtask(ctx, task, userID, change, subtask, func(ctx context.Context) error {
		return u.repo.UpdateSubtask(ctx, subtaskID, fields)
	})
	if err != nil {
		return nil, err
	}
	return u.repo.FindSubtask(ctx, subtaskID)
}

func (u *taskUsecase) DeleteSubtask(ctx context.Context, taskID, subtaskID, userID string) error {
	task, _, err := loadTask(ctx, u.repo, u.access, taskID, userID, projectdomain.RoleMember)
	if err != nil {
		return err
	}
	subtask, err := u.findSubtask(ctx, taskID, subtaskID)
	if err != nil {
		return err
	}

	return u.logSubtask(ctx, task, userID, "deleted", subtask, func(ctx context.Context) error {
		return u.repo.DeleteSubtask(ctx, subtaskID)
	})
}

func (u *taskUsecase) findSubtask(ctx context.Context, taskID, subtaskID string) (*domain.Subtask, error) {
	subtask, err := u.repo.FindSubtask(ctx, subtaskID)
	if err != nil {
		return nil, err
	}
	if subtask == nil || subtask.TaskID != taskID {
		return nil, apperror.NotFound("Subtask not found")
	}
	return subtask, nil
}

// logSubtask runs mutate and logs it as an UPDATED entry on the parent task.
func (u *taskUsecase) logSubtask(ctx context.Context, task *domain.Task, userID, change string, subtask *domain.Subtask, mutate func(ctx context.Context) error) error {
	var entry *activitydomain.ActivityLog
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := mutate(ctx); err != nil {
			return err
		}
		var err error
		entry, err = u.activity.Log(ctx, activityusecase.Entry{
			ProjectID: task.ProjectID,
			TaskID:    task.ID,
			UserID:    userID,
			Action:    activitydomain.ActionUpdated,
			Details: activitydomain.SubtaskChanged{
				Change:    change,
				SubtaskID: subtask.ID,
				Title:     subtask.Title,
			},
		})
		return err
	})
	if err != nil {
		return err
	}

	u.activity.Publish(ctx, entry)
	publish(ctx, u.sink, u.logger, realtime.TaskPath(task.ProjectID, task.ID), taskEvent{Event: "subtask_" + change, TaskID: task.ID, Data: subtask})
	return nil
}

func (u *taskUsecase) notifyAssignment(ctx context.Context, task *domain.Task, projectName string) {
	if err := u.notifier.NotifyTaskAssignment(ctx, *task.AssigneeID, task.ID, task.Title, projectName); err != nil {
		u.logger.Warn("failed to send task assignment notification",
			zap.String("task_id", task.ID),
			zap.String("assignee_id", *task.AssigneeID),
			zap.Error(err),
		)
	}
}

func errStaleVersion() error {
	return apperror.Conflict("Task was modified by someone else, reload and try again")
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
