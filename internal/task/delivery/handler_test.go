package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"zuzuplan-backend/internal/task/domain"
	"zuzuplan-backend/internal/task/dto"
	taskusecase "zuzuplan-backend/internal/task/usecase"
	"zuzuplan-backend/pkg/apperror"
	"zuzuplan-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTaskUsecase struct {
	mock.Mock
}

func (m *mockTaskUsecase) CreateTask(ctx context.Context, projectID, userID string, req *dto.CreateTaskRequest) (*domain.Task, error) {
	args := m.Called(ctx, projectID, userID, req)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

func (m *mockTaskUsecase) GetTasks(ctx context.Context, projectID, userID string, filter taskusecase.TaskFilter) ([]domain.Task, int64, error) {
	args := m.Called(ctx, projectID, userID, filter)
	tasks, _ := args.Get(0).([]domain.Task)
	return tasks, args.Get(1).(int64), args.Error(2)
}

func (m *mockTaskUsecase) GetTaskByID(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	args := m.Called(ctx, taskID, userID)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

func (m *mockTaskUsecase) UpdateTask(ctx context.Context, taskID, userID string, req *dto.UpdateTaskRequest) (*domain.Task, error) {
	args := m.Called(ctx, taskID, userID, req)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

func (m *mockTaskUsecase) DeleteTask(ctx context.Context, taskID, userID string) error {
	return m.Called(ctx, taskID, userID).Error(0)
}

func (m *mockTaskUsecase) AddSubtask(ctx context.Context, taskID, userID string, req *dto.CreateSubtaskRequest) (*domain.Subtask, error) {
	args := m.Called(ctx, taskID, userID, req)
	subtask, _ := args.Get(0).(*domain.Subtask)
	return subtask, args.Error(1)
}

func (m *mockTaskUsecase) UpdateSubtask(ctx context.Context, taskID, subtaskID, userID string, req *dto.UpdateSubtaskRequest) (*domain.Subtask, error) {
	args := m.Called(ctx, taskID, subtaskID, userID, req)
	subtask, _ := args.Get(0).(*domain.Subtask)
	return subtask, args.Error(1)
}

func (m *mockTaskUsecase) DeleteSubtask(ctx context.Context, taskID, subtaskID, userID string) error {
	return m.Called(ctx, taskID, subtaskID, userID).Error(0)
}

func setupRouter(uc taskusecase.TaskUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTaskHandler(uc, nil, nil, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "user-1")
		c.Next()
	})
	r.GET("/projects/:id/tasks", h.GetTasks)
	r.POST("/projects/:id/tasks", h.CreateTask)
	r.GET("/tasks/:id", h.GetTask)
	r.PUT("/tasks/:id", h.UpdateTask)
	r.DELETE("/tasks/:id", h.DeleteTask)
	return r
}

func perform(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, response.Envelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env response.Envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestCreateTask_Created(t *testing.T) {
	uc := new(mockTaskUsecase)
	uc.On("CreateTask", mock.Anything, "p1", "user-1", mock.MatchedBy(func(req *dto.CreateTaskRequest) bool {
		return req.Title == "Ship it" && req.Priority == domain.PriorityHigh
	})).Return(&domain.Task{ID: "t1", Title: "Ship it"}, nil)

	w, env := perform(setupRouter(uc), http.MethodPost, "/projects/p1/tasks", `{"title":"Ship it","priority":"HIGH"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)
	uc.AssertExpectations(t)
}

func TestCreateTask_MissingTitle(t *testing.T) {
	uc := new(mockTaskUsecase)

	w, env := perform(setupRouter(uc), http.MethodPost, "/projects/p1/tasks", `{"priority":"HIGH"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, http.StatusBadRequest, env.Error.StatusCode)
	uc.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateTask_PassesTriStateFields(t *testing.T) {
	uc := new(mockTaskUsecase)
	uc.On("UpdateTask", mock.Anything, "t1", "user-1", mock.MatchedBy(func(req *dto.UpdateTaskRequest) bool {
		return req.AssigneeID.Set && req.AssigneeID.Null &&
			!req.DueDate.Set &&
			req.LabelIDs.Set && len(req.LabelIDs.Value) == 0 &&
			req.Version != nil && *req.Version == 3
	})).Return(&domain.Task{ID: "t1"}, nil)

	w, _ := perform(setupRouter(uc), http.MethodPut, "/tasks/t1", `{"assigneeId":null,"labelIds":[],"version":3}`)

	assert.Equal(t, http.StatusOK, w.Code)
	uc.AssertExpectations(t)
}

func TestUpdateTask_MapsConflict(t *testing.T) {
	uc := new(mockTaskUsecase)
	uc.On("UpdateTask", mock.Anything, "t1", "user-1", mock.Anything).
		Return(nil, apperror.Conflict("Task was modified by someone else, reload and try again"))

	w, env := perform(setupRouter(uc), http.MethodPut, "/tasks/t1", `{"title":"x","version":1}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, http.StatusConflict, env.Error.StatusCode)
}

func TestGetTask_NotFound(t *testing.T) {
	uc := new(mockTaskUsecase)
	uc.On("GetTaskByID", mock.Anything, "missing", "user-1").Return(nil, apperror.NotFound("Task not found"))

	w, env := perform(setupRouter(uc), http.MethodGet, "/tasks/missing", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Task not found", env.Error.Message)
}

func TestGetTasks_BindsFiltersAndPaginates(t *testing.T) {
	uc := new(mockTaskUsecase)
	uc.On("GetTasks", mock.Anything, "p1", "user-1", mock.MatchedBy(func(f taskusecase.TaskFilter) bool {
		return f.Status == domain.StatusInProgress && f.AssigneeID == "u2" && f.Page.Page == 2 && f.Page.Limit == 5
	})).Return([]domain.Task{{ID: "t1"}}, int64(6), nil)

	w, env := perform(setupRouter(uc), http.MethodGet, "/projects/p1/tasks?status=IN_PROGRESS&assigneeId=u2&page=2&limit=5", "")

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.TotalPages)
	assert.False(t, env.Pagination.HasNext)
	assert.True(t, env.Pagination.HasPrev)
}

func TestDeleteTask_Forbidden(t *testing.T) {
	uc := new(mockTaskUsecase)
	uc.On("DeleteTask", mock.Anything, "t1", "user-1").Return(apperror.AccessDenied("Insufficient permissions for this project"))

	w, _ := perform(setupRouter(uc), http.MethodDelete, "/tasks/t1", "")

	assert.Equal(t, http.StatusForbidden, w.Code)
}
