package delivery

import (
	"zuzuplan-backend/internal/task/dto"
	taskusecase "zuzuplan-backend/internal/task/usecase"
	"zuzuplan-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// TaskHandler serves tasks and everything hanging off them: subtasks,
// labels, comments and attachments.
type TaskHandler struct {
	taskUsecase       taskusecase.TaskUsecase
	labelUsecase      taskusecase.LabelUsecase
	commentUsecase    taskusecase.CommentUsecase
	attachmentUsecase taskusecase.AttachmentUsecase
}

func NewTaskHandler(
	taskUsecase taskusecase.TaskUsecase,
	labelUsecase taskusecase.LabelUsecase,
	commentUsecase taskusecase.CommentUsecase,
	attachmentUsecase taskusecase.AttachmentUsecase,
) *TaskHandler {
	return &TaskHandler{
		taskUsecase:       taskUsecase,
		labelUsecase:      labelUsecase,
		commentUsecase:    commentUsecase,
		attachmentUsecase: attachmentUsecase,
	}
}

// GetTasks handles GET /projects/:id/tasks
func (h *TaskHandler) GetTasks(c *gin.Context) {
	var query dto.TaskQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, err)
		return
	}

	page := response.PageFromQuery(c)
	tasks, total, err := h.taskUsecase.GetTasks(c.Request.Context(), c.Param("id"), c.GetString("userID"), taskusecase.TaskFilter{
		TaskQuery: query,
		Page:      page,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, tasks, response.NewPagination(page, total))
}

// CreateTask handles POST /projects/:id/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	task, err := h.taskUsecase.CreateTask(c.Request.Context(), c.Param("id"), c.GetString("userID"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// GetTask handles GET /tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.taskUsecase.GetTaskByID(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, task)
}

// UpdateTask handles PUT /tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	task, err := h.taskUsecase.UpdateTask(c.Request.Context(), c.Param("id"), c.GetString("userID"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, task)
}

// DeleteTask handles DELETE /tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.taskUsecase.DeleteTask(c.Request.Context(), c.Param("id"), c.GetString("userID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Task deleted successfully")
}

func (h *TaskHandler) AddSubtask(c *gin.Context) {
	var req dto.CreateSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	subtask, err := h.taskUsecase.AddSubtask(c.Request.Context(), c.Param("id"), c.GetString("userID"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subtask)
}

func (h *TaskHandler) UpdateSubtask(c *gin.Context) {
	var req dto.UpdateSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	subtask, err := h.taskUsecase.UpdateSubtask(c.Request.Context(), c.Param("id"), c.Param("subtaskId"), c.GetString("userID"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, subtask)
}

func (h *TaskHandler) DeleteSubtask(c *gin.Context) {
	if err := h.taskUsecase.DeleteSubtask(c.Request.Context(), c.Param("id"), c.Param("subtaskId"), c.GetString("userID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Subtask deleted successfully")
}

// ListLabels handles GET /projects/:id/labels
func (h *TaskHandler) ListLabels(c *gin.Context) {
	labels, err := h.labelUsecase.ListLabels(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, labels)
}

// CreateLabel handles POST /projects/:id/labels
func (h *TaskHandler) CreateLabel(c *gin.Context) {
	var req dto.CreateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	label, err := h.labelUsecase.CreateLabel(c.Request.Context(), c.Param("id"), c.GetString("userID"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, label)
}

// UpdateLabel handles PUT /labels/:id
func (h *TaskHandler) UpdateLabel(c *gin.Context) {
	var req dto.UpdateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	label, err := h.labelUsecase.UpdateLabel(c.Request.Context(), c.Param("id"), c.GetString("userID"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, label)
}

// DeleteLabel handles DELETE /labels/:id
func (h *TaskHandler) DeleteLabel(c *gin.Context) {
	if err := h.labelUsecase.DeleteLabel(c.Request.Context(), c.Param("id"), c.GetString("userID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Label deleted successfully")
}

// ListComments handles GET /tasks/:id/comments
func (h *TaskHandler) ListComments(c *gin.Context) {
	page := response.PageFromQuery(c)
	comments, total, err := h.commentUsecase.ListComments(c.Request.Context(), c.Param("id"), c.GetString("userID"), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, comments, response.NewPagination(page, total))
}

// CreateComment handles POST /tasks/:id/comments
func (h *TaskHandler) CreateComment(c *gin.Context) {
	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	comment, err := h.commentUsecase.CreateComment(c.Request.Context(), c.Param("id"), c.GetString("userID"), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// UpdateComment handles PUT /comments/:id
func (h *TaskHandler) UpdateComment(c *gin.Context) {
	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	comment, err := h.commentUsecase.UpdateComment(c.Request.Context(), c.Param("id"), c.GetString("userID"), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, comment)
}

// DeleteComment handles DELETE /comments/:id
func (h *TaskHandler) DeleteComment(c *gin.Context) {
	if err := h.commentUsecase.DeleteComment(c.Request.Context(), c.Param("id"), c.GetString("userID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Comment deleted successfully")
}

// ListAttachments handles GET /tasks/:id/attachments
func (h *TaskHandler) ListAttachments(c *gin.Context) {
	attachments, err := h.attachmentUsecase.ListAttachments(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, attachments)
}

// CreateAttachment handles POST /tasks/:id/attachments
func (h *TaskHandler) CreateAttachment(c *gin.Context) {
	var req dto.CreateAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	attachment, err := h.attachmentUsecase.CreateAttachment(c.Request.Context(), c.Param("id"), c.GetString("userID"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, attachment)
}

// DeleteAttachment handles DELETE /attachments/:id
func (h *TaskHandler) DeleteAttachment(c *gin.Context) {
	if err := h.attachmentUsecase.DeleteAttachment(c.Request.Context(), c.Param("id"), c.GetString("userID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Attachment deleted successfully")
}
