package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/efvillarin/sis-api/api/swagger"
	"github.com/efvillarin/sis-api/internal/handler"
	"github.com/efvillarin/sis-api/internal/middleware"
	"github.com/efvillarin/sis-api/internal/repository"
	"github.com/efvillarin/sis-api/internal/service"
	"github.com/efvillarin/sis-api/pkg/cache"
	"github.com/efvillarin/sis-api/pkg/config"
	"github.com/efvillarin/sis-api/pkg/database"
	"github.com/efvillarin/sis-api/pkg/export"
	"github.com/efvillarin/sis-api/pkg/jobs"
	"github.com/efvillarin/sis-api/pkg/logger"
	corsmiddleware "github.com/efvillarin/sis-api/pkg/middleware/cors"
	reqidmiddleware "github.com/efvillarin/sis-api/pkg/middleware/requestid"
	"github.com/efvillarin/sis-api/pkg/storage"
)

// @title SIS API
// @version 1.0.0
// @description School information system: enrollment, masterlists, grades
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init uploads storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	periodRepo := repository.NewEnrollmentPeriodRepository(db)
	masterlistRepo := repository.NewMasterlistRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	// Services.
	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "sis-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	sectionSvc := service.NewSectionService(sectionRepo, teacherRepo, studentRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, teacherRepo, validate, logr)
	periodSvc := service.NewEnrollmentPeriodService(periodRepo, validate, logr)

	dashboardSvc := service.NewDashboardService(
		cacheRepo,
		studentRepo,
		teacherRepo,
		sectionRepo,
		enrollmentRepo,
		cfg.Enrollment.CurrentSchoolYear,
		cfg.Dashboard.CacheTTL,
		logr,
	)

	enrollmentSvc := service.NewEnrollmentService(
		enrollmentRepo,
		studentRepo,
		periodRepo,
		userRepo,
		dashboardSvc,
		validate,
		logr,
	)

	masterlistSvc := service.NewMasterlistService(
		masterlistRepo,
		sectionRepo,
		studentRepo,
		subjectRepo,
		userRepo,
		export.NewCSVExporter(),
		dashboardSvc,
		validate,
		logr,
	)

	gradeSvc := service.NewGradeService(
		gradeRepo,
		subjectRepo,
		studentRepo,
		userRepo,
		export.NewPDFExporter(),
		validate,
		logr,
	)

	scheduleSvc := service.NewScheduleService(scheduleRepo, cfg.Schedules.TeachingLoadCapHours, validate, logr)
	messageSvc := service.NewMessageService(messageRepo, userRepo, validate, logr)
	materialSvc := service.NewMaterialService(
		materialRepo,
		subjectRepo,
		store,
		signer,
		cfg.Uploads.MaxFileSizeBytes,
		cfg.Uploads.AllowedMIMEs,
		validate,
		logr,
	)

	// The queue handler closes over the service pointer so the service can own
	// both the enqueue and fan-out sides.
	var notificationSvc *service.NotificationService
	queue := jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job) error {
		start := time.Now()
		err := notificationSvc.HandleJob(ctx, job)
		metricsSvc.ObserveJob(job.Type, time.Since(start))
		return err
	}, jobs.QueueConfig{
		Workers:    cfg.Notifications.WorkerConcurrency,
		MaxRetries: cfg.Notifications.WorkerRetries,
		Logger:     logr,
	})
	notificationSvc = service.NewNotificationService(notificationRepo, queue, validate, logr)
	queue.Start(ctx)
	defer queue.Stop()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	periodHandler := handler.NewEnrollmentPeriodHandler(periodSvc)
	masterlistHandler := handler.NewMasterlistHandler(masterlistSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc, teacherSvc, studentSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	messageHandler := handler.NewMessageHandler(messageSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	materialHandler := handler.NewMaterialHandler(materialSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, authSvc, routeHandlers{
		auth:          authHandler,
		users:         userHandler,
		students:      studentHandler,
		teachers:      teacherHandler,
		sections:      sectionHandler,
		subjects:      subjectHandler,
		enrollments:   enrollmentHandler,
		periods:       periodHandler,
		masterlists:   masterlistHandler,
		grades:        gradeHandler,
		schedules:     scheduleHandler,
		messages:      messageHandler,
		notifications: notificationHandler,
		materials:     materialHandler,
		dashboard:     dashboardHandler,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
