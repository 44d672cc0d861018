package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/TQanh23/course-registration-api/api/swagger"
	"github.com/TQanh23/course-registration-api/internal/handler"
	"github.com/TQanh23/course-registration-api/internal/middleware"
	"github.com/TQanh23/course-registration-api/internal/models"
	"github.com/TQanh23/course-registration-api/internal/repository"
	"github.com/TQanh23/course-registration-api/internal/service"
	"github.com/TQanh23/course-registration-api/pkg/cache"
	"github.com/TQanh23/course-registration-api/pkg/config"
	"github.com/TQanh23/course-registration-api/pkg/database"
	"github.com/TQanh23/course-registration-api/pkg/logger"
	corsmiddleware "github.com/TQanh23/course-registration-api/pkg/middleware/cors"
	reqidmiddleware "github.com/TQanh23/course-registration-api/pkg/middleware/requestid"
)

// @title Course Registration API
// @version 1.0.0
// @description University course registration service
// @BasePath /api
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

	db, err := database.NewMySQL(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Catalog.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, catalog caching disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Catalog.CacheTTL, logr, true)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}
	if cacheService == nil {
		cacheService = service.NewCacheService(nil, metricsService, cfg.Catalog.CacheTTL, logr, false)
	}

	validate := validator.New()

	accountRepo := repository.NewAccountRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	termRepo := repository.NewTermRepository(db)
	offeringRepo := repository.NewOfferingRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)

	authService := service.NewAuthService(accountRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "course-registration-api",
		Audience:           []string{"course-registration"},
	})
	accountService := service.NewAccountService(accountRepo, validate, logr)
	courseService := service.NewCourseService(courseRepo, cacheService, validate, logr)
	termService := service.NewTermService(termRepo, validate, logr)
	offeringService := service.NewOfferingService(offeringRepo, courseRepo, termRepo, scheduleRepo, validate, logr)
	registrationService := service.NewRegistrationService(
		registrationRepo, accountRepo, courseRepo, termRepo, offeringRepo, scheduleRepo,
		metricsService, validate, logr,
	)

	authHandler := handler.NewAuthHandler(authService)
	accountHandler := handler.NewAccountHandler(accountService)
	courseHandler := handler.NewCourseHandler(courseService)
	termHandler := handler.NewTermHandler(termService)
	offeringHandler := handler.NewOfferingHandler(offeringService)
	registrationHandler := handler.NewRegistrationHandler(registrationService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		auth.PUT("/password", middleware.JWT(authService), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))

	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	accounts := protected.Group("/accounts")
	{
		accounts.GET("", adminOnly, accountHandler.List)
		accounts.POST("", adminOnly, accountHandler.Create)
		accounts.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), accountHandler.Get)
		accounts.PUT("/:id", adminOnly, accountHandler.Update)
		accounts.DELETE("/:id", adminOnly, accountHandler.Delete)
	}

	courses := protected.Group("/courses")
	courses.Use(middleware.Audit(accountRepo, "courses"))
	{
		courses.GET("", courseHandler.List)
		courses.GET("/:id", courseHandler.Get)
		courses.POST("", adminOnly, courseHandler.Create)
		courses.PUT("/:id", adminOnly, courseHandler.Update)
		courses.DELETE("/:id", adminOnly, courseHandler.Delete)
	}

	terms := protected.Group("/terms")
	terms.Use(middleware.Audit(accountRepo, "terms"))
	{
		terms.GET("", termHandler.List)
		terms.GET("/:id", termHandler.Get)
		terms.POST("", adminOnly, termHandler.Create)
		terms.PUT("/:id", adminOnly, termHandler.Update)
		terms.DELETE("/:id", adminOnly, termHandler.Delete)
	}

	offerings := protected.Group("/offerings")
	offerings.Use(middleware.Audit(accountRepo, "offerings"))
	{
		offerings.GET("", offeringHandler.List)
		offerings.GET("/:id", offeringHandler.Get)
		offerings.POST("", adminOnly, offeringHandler.Create)
		offerings.PUT("/:id", adminOnly, offeringHandler.Update)
		offerings.DELETE("/:id", adminOnly, offeringHandler.Delete)
		offerings.POST("/:id/schedules", adminOnly, offeringHandler.AttachSchedule)
		offerings.DELETE("/:id/schedules/:scheduleId", adminOnly, offeringHandler.DetachSchedule)
	}

	protected.GET("/timetable-slots", offeringHandler.ListSlots)

	studentOnly := middleware.RequireRoles(models.RoleStudent)

	registrations := protected.Group("/registrations")
	{
		registrations.GET("", registrationHandler.List)
		registrations.GET("/export", adminOnly, registrationHandler.Export)
		registrations.GET("/my-timetable", studentOnly, registrationHandler.MyTimetable)
		registrations.GET("/my-timetable/export", studentOnly, registrationHandler.ExportMyTimetable)
		registrations.GET("/:id", registrationHandler.Get)
		registrations.POST("", adminOnly, registrationHandler.Create)
		registrations.POST("/course-signup", studentOnly, registrationHandler.SignUp)
		registrations.POST("/batch", registrationHandler.BatchRegister)
		registrations.POST("/batch-drop", registrationHandler.BatchDrop)
		registrations.PUT("/:id", adminOnly, registrationHandler.UpdateStatus)
		registrations.PUT("/:id/drop", registrationHandler.Drop)
		registrations.DELETE("/:id", adminOnly, registrationHandler.Delete)
	}

	protected.GET("/metrics/snapshot", adminOnly, metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
