package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	api "zuzuplan-backend/cmd/api"
	"zuzuplan-backend/internal/access"
	activityrepo "zuzuplan-backend/internal/activity/repository"
	activityusecase "zuzuplan-backend/internal/activity/usecase"
	authrepo "zuzuplan-backend/internal/auth/repository"
	authusecase "zuzuplan-backend/internal/auth/usecase"
	notificationrepo "zuzuplan-backend/internal/notification/repository"
	notificationusecase "zuzuplan-backend/internal/notification/usecase"
	projectrepo "zuzuplan-backend/internal/project/repository"
	projectusecase "zuzuplan-backend/internal/project/usecase"
	"zuzuplan-backend/internal/schema"
	taskrepo "zuzuplan-backend/internal/task/repository"
	"zuzuplan-backend/internal/task/scheduler"
	taskusecase "zuzuplan-backend/internal/task/usecase"
	"zuzuplan-backend/pkg/config"
	"zuzuplan-backend/pkg/database"
	"zuzuplan-backend/pkg/fcm"
	"zuzuplan-backend/pkg/logger"
	"zuzuplan-backend/pkg/mailer"
	"zuzuplan-backend/pkg/ratelimit"
	"zuzuplan-backend/pkg/realtime"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run the reminder scheduler",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", true, "migrate the schema before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.NewPostgresConnection(cfg, log)
	if err != nil {
		return err
	}
	if autoMigrate {
		if err := schema.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// Repositories
	userRepo := authrepo.NewUserRepository(db)
	fcmTokenRepo := authrepo.NewFCMTokenRepository(db)
	projectRepo := projectrepo.NewGormProjectRepository(db)
	taskRepo := taskrepo.NewGormTaskRepository(db)
	labelRepo := taskrepo.NewGormLabelRepository(db)
	commentRepo := taskrepo.NewGormCommentRepository(db)
	attachmentRepo := taskrepo.NewGormAttachmentRepository(db)
	activityRepo := activityrepo.NewGormActivityRepository(db)
	notificationRepo := notificationrepo.NewGormNotificationRepository(db)
	tx := database.NewTransactor(db)

	// Integrations degrade to disabled when unconfigured or unreachable.
	hub := realtime.NewHub()
	sink := realtime.Fanout{hub}
	if cfg.FirebaseDatabaseURL != "" {
		fbSink, err := realtime.NewFirebaseSink(ctx, cfg.FirebaseCredentials, cfg.FirebaseDatabaseURL)
		if err != nil {
			log.Warn("firebase realtime sink disabled", zap.Error(err))
		} else {
			sink = append(sink, fbSink)
		}
	}
	if cfg.GoogleProjectID != "" && cfg.RealtimePubSubTopic != "" {
		psSink, err := realtime.NewPubSubSink(ctx, cfg.GoogleProjectID, cfg.RealtimePubSubTopic, cfg.FirebaseCredentials)
		if err != nil {
			log.Warn("pub/sub realtime sink disabled", zap.Error(err))
		} else {
			defer func() { _ = psSink.Close() }()
			sink = append(sink, psSink)
		}
	}

	var mail mailer.Sender = mailer.NewLogSender(log)
	if cfg.MQURL != "" {
		amqpSender, err := mailer.NewAMQPSender(cfg.MQURL, cfg.MailQueue)
		if err != nil {
			log.Warn("mail queue unavailable, logging emails instead", zap.Error(err))
		} else {
			defer amqpSender.Close()
			mail = amqpSender
		}
	}

	var pusher notificationusecase.DevicePusher
	if cfg.FirebaseCredentials != "" {
		fcmClient, err := fcm.NewClient(ctx, cfg.FirebaseCredentials, log)
		if err != nil {
			log.Warn("push notifications disabled", zap.Error(err))
		} else {
			pusher = fcmClient
		}
	}

	loginLimiter, resetLimiter := newLimiters(ctx, cfg, log)

	// Usecases
	tokens := authusecase.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	authUc := authusecase.NewAuthUsecase(userRepo, tokens, mail, authusecase.AuthOptions{
		RequireEmailVerification: cfg.RequireEmailVerification,
		FrontendURL:              cfg.FrontendURL,
	}, log)
	userUc := authusecase.NewUserUsecase(userRepo, fcmTokenRepo)

	evaluator := access.NewEvaluator(projectRepo)
	activityUc := activityusecase.NewActivityUsecase(activityRepo, evaluator, sink, log)
	notificationUc := notificationusecase.NewNotificationUsecase(notificationRepo, userRepo, fcmTokenRepo, pusher, sink, mail, log)
	projectUc := projectusecase.NewProjectUsecase(projectRepo, userRepo, evaluator, tx, activityUc, taskRepo, notificationUc, log, taskRepo, activityRepo)
	taskUc := taskusecase.NewTaskUsecase(taskRepo, labelRepo, evaluator, tx, activityUc, projectUc, notificationUc, sink, log)
	labelUc := taskusecase.NewLabelUsecase(labelRepo, evaluator, tx, activityUc)
	commentUc := taskusecase.NewCommentUsecase(commentRepo, taskRepo, evaluator, tx, activityUc, notificationUc, sink, log)
	attachmentUc := taskusecase.NewAttachmentUsecase(attachmentRepo, taskRepo, evaluator, tx, activityUc)

	reminders := scheduler.NewReminderScheduler(taskRepo, notificationUc, cfg.ReminderInterval, cfg.ReminderWindow, log)
	reminders.Start()
	defer reminders.Stop()

	handler := api.NewHandler(api.Dependencies{
		Config:        cfg,
		DB:            db,
		Logger:        log,
		Hub:           hub,
		Auth:          authUc,
		Users:         userUc,
		Evaluator:     evaluator,
		Projects:      projectUc,
		Tasks:         taskUc,
		Labels:        labelUc,
		Comments:      commentUc,
		Attachments:   attachmentUc,
		Activity:      activityUc,
		Notifications: notificationUc,
		LoginLimiter:  loginLimiter,
		ResetLimiter:  resetLimiter,
	})
	return handler.Start(ctx, ":"+cfg.Port)
}

// newLimiters returns Redis-backed limiters when Redis answers, in-memory
// ones otherwise.
func newLimiters(ctx context.Context, cfg *config.Config, log *zap.Logger) (login, reset ratelimit.Limiter) {
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, using in-memory rate limits", zap.Error(err))
			_ = client.Close()
		} else {
			return ratelimit.NewRedisLimiter(client, "zuzuplan:ratelimit:login", cfg.LoginRateLimit.Max, cfg.LoginRateLimit.Window),
				ratelimit.NewRedisLimiter(client, "zuzuplan:ratelimit:reset", cfg.ResetRateLimit.Max, cfg.ResetRateLimit.Window)
		}
	}
	return ratelimit.NewMemoryLimiter(cfg.LoginRateLimit.Max, cfg.LoginRateLimit.Window),
		ratelimit.NewMemoryLimiter(cfg.ResetRateLimit.Max, cfg.ResetRateLimit.Window)
}
