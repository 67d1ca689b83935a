package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/dispatch-service/internal/api/http"
	"github.com/spec-kit/dispatch-service/internal/api/http/handlers"
	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/notify"
	"github.com/spec-kit/dispatch-service/internal/observability"
	"github.com/spec-kit/dispatch-service/internal/persistence"
	"github.com/spec-kit/dispatch-service/internal/queue"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/service"
	"github.com/spec-kit/dispatch-service/internal/store"
	"github.com/spec-kit/dispatch-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var docs store.Store
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		docs = store.NewPgStore(pool)
	} else {
		logger.Warn("using in-memory document store; data will not survive restarts")
		docs = store.NewMemStore()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	taskRepo := repository.NewTaskRepository(docs)
	staffRepo := repository.NewStaffRepository(docs)
	studentRepo := repository.NewStudentRepository(docs)
	notificationRepo := repository.NewNotificationRepository(docs)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var jobs queue.Queue
	if redis.Available() {
		jobs = queue.NewRedisQueue(redis.Client)
	} else {
		logger.Warn("redis unavailable; using bounded in-memory job queue")
		jobs = queue.NewMemoryQueue(cfg.Dispatch.QueueCapacity)
	}

	pusher := notify.NewWebhookPusher(cfg.Notify.WebhookURL, cfg.Notify.PushTimeout())
	pushDispatcher := notify.NewDispatcher(pusher, notificationRepo, logger, metrics, cfg.Notify.PushTimeout())

	notificationService := service.NewNotificationService(cfg.Notify, service.NotificationDependencies{
		Dispatcher:  dispatcher,
		Jobs:        jobs,
		StaffRepo:   staffRepo,
		StudentRepo: studentRepo,
		LogRepo:     notificationRepo,
		Logger:      logger,
	})
	notificationService.RegisterHandlers()

	workers := worker.NewNotificationWorker(jobs, pushDispatcher, logger, cfg.Dispatch.WorkerCount)
	workers.Start(ctx)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokens)

	balancer := service.NewLoadBalancer(staffRepo, taskRepo, cfg.Dispatch, logger)
	taskService := service.NewTaskService(service.TaskDependencies{
		TaskRepo:   taskRepo,
		StaffRepo:  staffRepo,
		Balancer:   balancer,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	staffService := service.NewStaffService(*cfg, service.StaffDependencies{
		StaffRepo:   staffRepo,
		StudentRepo: studentRepo,
		TaskRepo:    taskRepo,
		Tokens:      tokens,
	})
	studentService := service.NewStudentService(studentRepo)
	queueService := service.NewQueueService(taskRepo, staffRepo, taskService, balancer, logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Reports:        handlers.NewReportsHandler(taskService),
		Staff:          handlers.NewStaffHandler(staffService, studentService, taskService),
		Admin:          handlers.NewAdminHandler(staffService, taskService, queueService, notificationService, metrics),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()
	workers.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
