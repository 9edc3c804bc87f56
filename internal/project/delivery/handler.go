package delivery

import (
	projectdto "zuzuplan-backend/internal/project/dto"
	projectusecase "zuzuplan-backend/internal/project/usecase"
	"zuzuplan-backend/pkg/realtime"
	"zuzuplan-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectUsecase projectusecase.ProjectUsecase
	hub            *realtime.Hub
}

func NewProjectHandler(projectUsecase projectusecase.ProjectUsecase, hub *realtime.Hub) *ProjectHandler {
	return &ProjectHandler{
		projectUsecase: projectUsecase,
		hub:            hub,
	}
}

func (h *ProjectHandler) ListProjects(c *gin.Context) {
	page := response.PageFromQuery(c)
	projects, total, err := h.projectUsecase.ListProjects(c.Request.Context(), c.GetString("userID"), c.Query("search"), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, projects, response.NewPagination(page, total))
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req projectdto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	project, err := h.projectUsecase.CreateProject(c.Request.Context(), c.GetString("userID"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.projectUsecase.GetProject(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, project)
}

func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	var req projectdto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	project, err := h.projectUsecase.UpdateProject(c.Request.Context(), c.Param("id"), c.GetString("userID"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, project)
}

func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	if err := h.projectUsecase.DeleteProject(c.Request.Context(), c.Param("id"), c.GetString("userID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Project deleted successfully")
}

func (h *ProjectHandler) ListMembers(c *gin.Context) {
	members, err := h.projectUsecase.ListMembers(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, members)
}

func (h *ProjectHandler) AddMember(c *gin.Context) {
	var req projectdto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	member, err := h.projectUsecase.AddMember(c.Request.Context(), c.Param("id"), c.GetString("userID"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

func (h *ProjectHandler) UpdateMemberRole(c *gin.Context) {
	var req projectdto.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	member, err := h.projectUsecase.UpdateMemberRole(c.Request.Context(), c.Param("id"), c.GetString("userID"), c.Param("userId"), req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, member)
}

func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	if err := h.projectUsecase.RemoveMember(c.Request.Context(), c.Param("id"), c.GetString("userID"), c.Param("userId")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Member removed successfully")
}

func (h *ProjectHandler) GetProjectStats(c *gin.Context) {
	stats, err := h.projectUsecase.GetProjectStats(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// Events streams the project's activity, task and comment updates over SSE.
func (h *ProjectHandler) Events(c *gin.Context) {
	h.hub.Serve(c, "projects/"+c.Param("id"))
}
