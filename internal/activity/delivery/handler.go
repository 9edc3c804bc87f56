package delivery

import (
	activityusecase "zuzuplan-backend/internal/activity/usecase"
	"zuzuplan-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	activityUsecase activityusecase.ActivityUsecase
}

func NewActivityHandler(activityUsecase activityusecase.ActivityUsecase) *ActivityHandler {
	return &ActivityHandler{activityUsecase: activityUsecase}
}

// GetActivity handles GET /projects/:id/activity?taskId&userId&page&limit.
func (h *ActivityHandler) GetActivity(c *gin.Context) {
	page := response.PageFromQuery(c)
	logs, total, err := h.activityUsecase.List(c.Request.Context(), c.Param("id"), c.GetString("userID"), activityusecase.ListFilter{
		TaskID: c.Query("taskId"),
		UserID: c.Query("userId"),
		Page:   page,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, logs, response.NewPagination(page, total))
}
