package api

import (
	"context"
	"net/http"
	"time"

	"zuzuplan-backend/internal/auth/delivery"
	projectdomain "zuzuplan-backend/internal/project/domain"
	"zuzuplan-backend/pkg/database"
	"zuzuplan-backend/pkg/metrics"
	"zuzuplan-backend/pkg/ratelimit"
	"zuzuplan-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	deps := h.deps
	authRequired := delivery.AuthMiddleware(deps.Auth)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx, deps.DB); err != nil {
			deps.Logger.Warn("readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// SSE stream of the caller's notifications
		api.GET("/events", authRequired, h.notificationHandler.Events)

		loginLimit := ratelimit.Middleware(deps.LoginLimiter, "login", "Too many login attempts, please try again later")
		resetLimit := ratelimit.Middleware(deps.ResetLimiter, "password_reset", "Too many password reset requests, please try again later")

		auth := api.Group("/auth")
		{
			auth.POST("/register", h.authHandler.Register)
			auth.POST("/login", loginLimit, h.authHandler.Login)
			auth.POST("/refresh", h.authHandler.RefreshToken)
			auth.POST("/logout", h.authHandler.Logout)
			auth.POST("/verify-email", h.authHandler.VerifyEmail)
			auth.POST("/forgot-password", resetLimit, h.authHandler.ForgotPassword)
			auth.POST("/reset-password", resetLimit, h.authHandler.ResetPassword)
			auth.GET("/me", authRequired, h.authHandler.Me)
		}

		users := api.Group("/users")
		users.Use(authRequired)
		{
			users.GET("/me", h.authHandler.Me)
			users.PUT("/me", h.authHandler.UpdateProfile)
			users.PUT("/me/avatar", h.authHandler.UpdateAvatar)
			users.GET("/search", h.authHandler.SearchUsers)
			users.GET("/:id", response.ValidIDs("id"), h.authHandler.GetUser)
		}

		devices := api.Group("/devices")
		devices.Use(authRequired)
		{
			devices.POST("", h.authHandler.RegisterDevice)
			devices.DELETE("/:token", h.authHandler.UnregisterDevice)
		}

		projects := api.Group("/projects")
		projects.Use(authRequired)
		{
			projects.GET("", h.projectHandler.ListProjects)
			projects.POST("", h.projectHandler.CreateProject)

			// Every project-scoped route needs at least Viewer; the usecases
			// check the stricter minimums.
			project := projects.Group("/:id")
			project.Use(response.ValidIDs("id", "userId"), deps.Evaluator.RequireProjectRole("id", projectdomain.RoleViewer))
			{
				project.GET("", h.projectHandler.GetProject)
				project.PUT("", h.projectHandler.UpdateProject)
				project.DELETE("", h.projectHandler.DeleteProject)
				project.GET("/stats", h.projectHandler.GetProjectStats)
				project.GET("/events", h.projectHandler.Events)

				project.GET("/members", h.projectHandler.ListMembers)
				project.POST("/members", h.projectHandler.AddMember)
				project.PUT("/members/:userId", h.projectHandler.UpdateMemberRole)
				project.DELETE("/members/:userId", h.projectHandler.RemoveMember)

				project.GET("/tasks", h.taskHandler.GetTasks)
				project.POST("/tasks", h.taskHandler.CreateTask)

				project.GET("/labels", h.taskHandler.ListLabels)
				project.POST("/labels", h.taskHandler.CreateLabel)

				project.GET("/activity", h.activityHandler.GetActivity)
			}
		}

		tasks := api.Group("/tasks")
		tasks.Use(authRequired, response.ValidIDs("id", "subtaskId"))
		{
			tasks.GET("/:id", h.taskHandler.GetTask)
			tasks.PUT("/:id", h.taskHandler.UpdateTask)
			tasks.DELETE("/:id", h.taskHandler.DeleteTask)

			tasks.POST("/:id/subtasks", h.taskHandler.AddSubtask)
			tasks.PUT("/:id/subtasks/:subtaskId", h.taskHandler.UpdateSubtask)
			tasks.DELETE("/:id/subtasks/:subtaskId", h.taskHandler.DeleteSubtask)

			tasks.GET("/:id/comments", h.taskHandler.ListComments)
			tasks.POST("/:id/comments", h.taskHandler.CreateComment)

			tasks.GET("/:id/attachments", h.taskHandler.ListAttachments)
			tasks.POST("/:id/attachments", h.taskHandler.CreateAttachment)
		}

		labels := api.Group("/labels")
		labels.Use(authRequired, response.ValidIDs("id"))
		{
			labels.PUT("/:id", h.taskHandler.UpdateLabel)
			labels.DELETE("/:id", h.taskHandler.DeleteLabel)
		}

		comments := api.Group("/comments")
		comments.Use(authRequired, response.ValidIDs("id"))
		{
			comments.PUT("/:id", h.taskHandler.UpdateComment)
			comments.DELETE("/:id", h.taskHandler.DeleteComment)
		}

		attachments := api.Group("/attachments")
		attachments.Use(authRequired, response.ValidIDs("id"))
		{
			attachments.DELETE("/:id", h.taskHandler.DeleteAttachment)
		}

		notifications := api.Group("/notifications")
		notifications.Use(authRequired, response.ValidIDs("id"))
		{
			notifications.GET("", h.notificationHandler.List)
			notifications.GET("/unread-count", h.notificationHandler.UnreadCount)
			notifications.PUT("/read-all", h.notificationHandler.MarkAllRead)
			notifications.PUT("/:id/read", h.notificationHandler.MarkRead)
		}
	}
}
