package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/traincamp-api/api/swagger"
	"github.com/noah-isme/traincamp-api/internal/handler"
	"github.com/noah-isme/traincamp-api/internal/middleware"
	"github.com/noah-isme/traincamp-api/internal/models"
	"github.com/noah-isme/traincamp-api/internal/repository"
	"github.com/noah-isme/traincamp-api/internal/service"
	"github.com/noah-isme/traincamp-api/pkg/cache"
	"github.com/noah-isme/traincamp-api/pkg/config"
	"github.com/noah-isme/traincamp-api/pkg/database"
	"github.com/noah-isme/traincamp-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/traincamp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/traincamp-api/pkg/middleware/requestid"
	"github.com/noah-isme/traincamp-api/pkg/storage"
)

// @title TrainCamp API
// @version 0.1.0
// @description Training-program pipeline: tasks, check-ins, submissions, evaluations and reports
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Reports fall back to recompute without a cache.
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}

	artifactStore, err := storage.NewLocalStorage(cfg.Artifacts.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init artifact storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Artifacts.SignedURLSecret, cfg.Artifacts.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	checkInRepo := repository.NewCheckInRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	reportRepo := repository.NewReportRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	registrySvc := service.NewRegistryService(enrollmentRepo, assignmentRepo, courseRepo, userRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, registrySvc, validate, logr)
	taskSvc := service.NewTaskService(taskRepo, courseRepo, registrySvc, validate, logr)
	checkInSvc := service.NewCheckInService(checkInRepo, taskRepo, registrySvc, logr)
	submissionSvc := service.NewSubmissionService(submissionRepo, taskRepo, registrySvc, validate, logr)
	evaluationSvc := service.NewEvaluationService(evaluationRepo, submissionRepo, registrySvc, validate, logr)
	templateSvc := service.NewTemplateService(templateRepo, validate, logr)
	reportSvc := service.NewReportService(reportRepo, registrySvc, redisClient, cfg.Reports.CacheTTL, logr)
	metricsSvc := service.NewMetricsService()
	reportSvc.UseMetrics(metricsSvc)

	authHandler := handler.NewAuthHandler(authSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	taskHandler := handler.NewTaskHandler(taskSvc)
	registryHandler := handler.NewRegistryHandler(registrySvc)
	checkInHandler := handler.NewCheckInHandler(checkInSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc)
	evaluationHandler := handler.NewEvaluationHandler(evaluationSvc)
	templateHandler := handler.NewTemplateHandler(templateSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	artifactHandler := handler.NewArtifactHandler(artifactStore, signer, cfg.Artifacts.MaxUploadBytes, logr)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.GET("/artifacts/:token", artifactHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.GET("/courses", courseHandler.List)
		authed.GET("/tasks", taskHandler.List)
		authed.GET("/tasks/today", taskHandler.Today)
		authed.GET("/check-ins", checkInHandler.List)
		authed.GET("/submissions", submissionHandler.List)
		authed.GET("/reports/window", reportHandler.Window)
		authed.GET("/reports/window/export", reportHandler.Export)
		authed.POST("/artifacts", artifactHandler.Upload)
	}

	admin := api.Group("")
	admin.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.POST("/courses", courseHandler.Create)
		admin.PUT("/courses/:id", courseHandler.Update)
		admin.DELETE("/courses/:id", courseHandler.Delete)
		admin.POST("/tasks", taskHandler.Create)
		admin.PUT("/tasks/:id", taskHandler.Update)
		admin.DELETE("/tasks/:id", taskHandler.Delete)
		admin.PUT("/teachers/:id/assignments", registryHandler.SaveAssignments)
		admin.PUT("/students/:id/enrollments", registryHandler.SaveEnrollments)
	}

	registryReads := api.Group("")
	registryReads.Use(middleware.JWT(authSvc), middleware.RBAC(string(models.RoleAdmin), "SELF"))
	{
		registryReads.GET("/teachers/:id/assignments", registryHandler.ListAssignments)
		registryReads.GET("/students/:id/enrollments", registryHandler.ListEnrollments)
	}

	students := api.Group("")
	students.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStudent))
	{
		students.POST("/check-ins", checkInHandler.Create)
		students.POST("/submissions", submissionHandler.Create)
		students.PUT("/submissions/:id", submissionHandler.Amend)
	}

	teachers := api.Group("")
	teachers.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleTeacher))
	{
		teachers.POST("/evaluations", evaluationHandler.Create)
		teachers.POST("/evaluations/batch", evaluationHandler.CreateBatch)
		teachers.PUT("/evaluations/:id", evaluationHandler.Update)
		teachers.GET("/comment-templates", templateHandler.List)
		teachers.POST("/comment-templates", templateHandler.Create)
		teachers.DELETE("/comment-templates/:id", templateHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
