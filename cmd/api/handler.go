package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"zuzuplan-backend/internal/access"
	activitydelivery "zuzuplan-backend/internal/activity/delivery"
	activityusecase "zuzuplan-backend/internal/activity/usecase"
	authdelivery "zuzuplan-backend/internal/auth/delivery"
	authusecase "zuzuplan-backend/internal/auth/usecase"
	notificationdelivery "zuzuplan-backend/internal/notification/delivery"
	notificationusecase "zuzuplan-backend/internal/notification/usecase"
	projectdelivery "zuzuplan-backend/internal/project/delivery"
	projectusecase "zuzuplan-backend/internal/project/usecase"
	taskdelivery "zuzuplan-backend/internal/task/delivery"
	taskusecase "zuzuplan-backend/internal/task/usecase"
	"zuzuplan-backend/pkg/config"
	"zuzuplan-backend/pkg/logger"
	"zuzuplan-backend/pkg/metrics"
	"zuzuplan-backend/pkg/ratelimit"
	"zuzuplan-backend/pkg/realtime"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Dependencies is everything the HTTP layer needs from the composition root.
type Dependencies struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *zap.Logger
	Hub    *realtime.Hub

	Auth          authusecase.AuthUsecase
	Users         authusecase.UserUsecase
	Evaluator     *access.Evaluator
	Projects      projectusecase.ProjectUsecase
	Tasks         taskusecase.TaskUsecase
	Labels        taskusecase.LabelUsecase
	Comments      taskusecase.CommentUsecase
	Attachments   taskusecase.AttachmentUsecase
	Activity      activityusecase.ActivityUsecase
	Notifications notificationusecase.NotificationUsecase

	LoginLimiter ratelimit.Limiter
	ResetLimiter ratelimit.Limiter
}

type Handler struct {
	deps Dependencies

	authHandler         *authdelivery.AuthHandler
	projectHandler      *projectdelivery.ProjectHandler
	taskHandler         *taskdelivery.TaskHandler
	activityHandler     *activitydelivery.ActivityHandler
	notificationHandler *notificationdelivery.NotificationHandler
}

func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		deps:                deps,
		authHandler:         authdelivery.NewAuthHandler(deps.Auth, deps.Users),
		projectHandler:      projectdelivery.NewProjectHandler(deps.Projects, deps.Hub),
		taskHandler:         taskdelivery.NewTaskHandler(deps.Tasks, deps.Labels, deps.Comments, deps.Attachments),
		activityHandler:     activitydelivery.NewActivityHandler(deps.Activity),
		notificationHandler: notificationdelivery.NewNotificationHandler(deps.Notifications, deps.Hub),
	}
}

// Engine builds the gin engine with the middleware chain and every route.
func (h *Handler) Engine() *gin.Engine {
	if h.deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(h.deps.Logger))
	r.Use(metrics.GinMiddleware())
	r.Use(corsMiddleware(h.deps.Config.FrontendURL))

	SetupRoutes(r, h)
	return r
}

// Start serves on addr until ctx is cancelled, then drains in-flight
// requests.
func (h *Handler) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.deps.Logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	h.deps.Logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// corsMiddleware echoes the request origin. In production only the
// configured frontend origin is echoed.
func corsMiddleware(frontendURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		switch {
		case origin == "":
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case gin.Mode() != gin.ReleaseMode || origin == frontendURL:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
