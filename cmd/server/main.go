package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/GovTech-CSG/govtech-csg-xcg-securefileupload/internal/config"
	"github.com/GovTech-CSG/govtech-csg-xcg-securefileupload/internal/database"
	"github.com/GovTech-CSG/govtech-csg-xcg-securefileupload/internal/handlers"
	"github.com/GovTech-CSG/govtech-csg-xcg-securefileupload/internal/middleware"
	"github.com/GovTech-CSG/govtech-csg-xcg-securefileupload/internal/repository"
	"github.com/GovTech-CSG/govtech-csg-xcg-securefileupload/internal/services"
	"github.com/GovTech-CSG/govtech-csg-xcg-securefileupload/internal/upload"
	"github.com/GovTech-CSG/govtech-csg-xcg-securefileupload/internal/upload/clamav"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Configure logging
	setupLogging(cfg.LogLevel)

	// Initialize database
	db, err := database.NewConnection(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Setup Gin router
	router := setupRouter(cfg, db)

	// Create HTTP server
	srv := &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithField("address", srv.Addr).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}

func setupLogging(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithError(err).Warn("Invalid log level, defaulting to info")
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
}

func setupRouter(cfg *config.Config, db *database.DB) *gin.Engine {
	// Set Gin mode
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.StructuredLogger())
	router.Use(middleware.PrometheusMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecureHeaders())
	router.Use(gin.Recovery())

	// Repositories
	userRepo := repository.NewUserRepository(db.DB)
	orgRepo := repository.NewOrganizationRepository(db.DB)
	groupRepo := repository.NewGroupRepository(db.DB)
	fileRepo := repository.NewFileRepository(db.DB)

	// Services
	authSQLDB, err := db.SQLDB()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to obtain sql.DB handle for auth service")
	}
	authService := services.NewAuthService(authSQLDB, cfg.JWTSecret)
	auditService := services.NewAuditService(db.DB)
	quotaService := services.NewQuotaService(userRepo, fileRepo)

	storageService, err := newStorageBackend(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize storage backend")
	}

	fileUploadService := services.NewFileUploadService(fileRepo, storageService, userRepo, quotaService)

	// Handlers
	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(userRepo, orgRepo, groupRepo, authService)
	orgHandler := handlers.NewOrganizationHandler(orgRepo, userRepo, groupRepo)
	fileHandler := handlers.NewFileHandler(fileRepo, userRepo, orgRepo, groupRepo, fileUploadService, storageService)

	// Health and metrics endpoints
	router.GET("/healthz", healthHandler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public auth routes
	authGroup := router.Group("/api/v1/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.RefreshToken)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// Authenticated routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(authService))
	{
		api.GET("/me", authHandler.GetUserProfile)

		api.GET("/organization", orgHandler.GetOrganizationInfo)
		api.GET("/organization/storage", orgHandler.GetStorageUsage)
		api.GET("/organizations", orgHandler.ListOrganizations)
		api.POST("/organization/groups", orgHandler.CreateGroup)

		uploadDeps := buildUploadDeps()

		files := api.Group("/files")
		{
			files.POST("/upload-session", fileHandler.CreateUploadSession)
			files.POST("/upload-session/:sessionToken/complete", fileHandler.CompleteUploadSession)
			files.GET("/upload-session/:sessionToken/progress", fileHandler.GetUploadProgress)
			files.POST("/upload-session/:sessionToken/file",
				middleware.FileUploadInspection("file", cfg.Upload, uploadDeps, auditService),
				fileHandler.UploadFile,
			)
			files.GET("", fileHandler.GetFiles)
			files.GET("/:fileId", fileHandler.GetFileMetadata)
			files.GET("/:fileId/download", fileHandler.DownloadFile)
			files.DELETE("/:fileId", fileHandler.DeleteFile)
		}
	}

	return router
}

// newStorageBackend picks the storage implementation named by
// cfg.StorageBackend. Azure Storage defaults (Azurite) are always
// populated for local development, so the backend choice is an explicit
// switch rather than inferred from whether those fields are set.
func newStorageBackend(cfg *config.Config) (services.Storage, error) {
	switch cfg.StorageBackend {
	case "azure":
		return services.NewAzureStorageService(
			cfg.AzureStorageAccount,
			cfg.AzureStorageKey,
			cfg.AzureStorageContainer,
			cfg.AzureStorageEndpoint,
		)
	default:
		return services.NewStorageService("./data/uploads")
	}
}

// buildUploadDeps wires the advisory scanning engines the upload pipeline
// uses. YARA and Quicksand have no licensed Go binding in this stack, so
// their no-op implementations stand in until one is wired; ClamAV has a
// real client talking the INSTREAM wire protocol over a Unix socket.
func buildUploadDeps() upload.Deps {
	return upload.Deps{
		Advisory: upload.AdvisoryDeps{
			Yara:      upload.NoopYaraScanner{},
			Quicksand: upload.NoopQuicksandScanner{},
			ClamAV:    clamav.New(),
		},
		Log: logrus.NewEntry(logrus.StandardLogger()),
	}
}
