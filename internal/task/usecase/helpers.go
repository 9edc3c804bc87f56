package usecase

import (
	"context"
	"sort"
	"strings"

	"zuzuplan-backend/internal/access"
	projectdomain "zuzuplan-backend/internal/project/domain"
	"zuzuplan-backend/internal/task/domain"
	"zuzuplan-backend/internal/task/repository"
	"zuzuplan-backend/pkg/apperror"
	"zuzuplan-backend/pkg/realtime"

	"go.uber.org/zap"
)

// loadTask finds a task and checks the caller's role in its project. To a
// caller outside the project the task does not exist.
func loadTask(ctx context.Context, repo repository.TaskRepository, evaluator *access.Evaluator, taskID, userID string, min projectdomain.Role) (*domain.Task, *access.Access, error) {
	task, err := repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if task == nil {
		return nil, nil, errTaskNotFound()
	}

	a, err := evaluator.Require(ctx, task.ProjectID, userID, min)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, nil, errTaskNotFound()
		}
		return nil, nil, err
	}
	return task, a, nil
}

func errTaskNotFound() error {
	return apperror.NotFound("Task not found")
}

// checkAssignee rejects assignees who are not in the project.
func checkAssignee(ctx context.Context, evaluator *access.Evaluator, projectID, assigneeID string) error {
	if _, err := evaluator.ResolveRole(ctx, projectID, assigneeID); err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return apperror.Validation("Assignee must be a member of the project")
		}
		return err
	}
	return nil
}

// checkLabels dedupes ids and rejects any that are not labels of the project.
func checkLabels(ctx context.Context, labels repository.LabelRepository, projectID string, ids []string) ([]string, error) {
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return unique, nil
	}
	count, err := labels.CountInProject(ctx, projectID, unique)
	if err != nil {
		return nil, err
	}
	if count != int64(len(unique)) {
		return nil, apperror.Validation("Labels must belong to the task's project")
	}
	return unique, nil
}

func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// taskEvent is pushed on a task's realtime path.
type taskEvent struct {
	Event  string      `json:"event"`
	TaskID string      `json:"taskId"`
	Data   interface{} `json:"data,omitempty"`
}

func publish(ctx context.Context, sink realtime.Sink, logger *zap.Logger, path string, payload interface{}) {
	if err := sink.Publish(ctx, path, payload); err != nil {
		logger.Warn("realtime publish failed", zap.String("path", path), zap.Error(err))
	}
}

func excerpt(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
