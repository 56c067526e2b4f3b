package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/derya/enrollsync/docs" // Import generated swagger docs
	appControllers "github.com/derya/enrollsync/internal/app/controllers"
	appMigrations "github.com/derya/enrollsync/internal/app/migrations"
	appRepos "github.com/derya/enrollsync/internal/app/repositories"
	appRoutes "github.com/derya/enrollsync/internal/app/routes"
	appServices "github.com/derya/enrollsync/internal/app/services"
	"github.com/derya/enrollsync/internal/config"
	"github.com/derya/enrollsync/internal/db"
	appMiddleware "github.com/derya/enrollsync/internal/middleware"
	"github.com/derya/enrollsync/internal/pkg/helpers"
	"github.com/derya/enrollsync/internal/pkg/logger"
	"github.com/derya/enrollsync/internal/pkg/objectstore"
	"github.com/derya/enrollsync/internal/pkg/scheduler"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos            *appRepos.Repositories
	Store            *objectstore.Store
	Scheduler        *scheduler.Client
	ReportService    *appServices.ReportService
	ReportController *appControllers.ReportController
	Logger           zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	// Load .env if present, real environment variables take precedence
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("Failed to load .env file")
	}

	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger // Get the configured global logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	// Run migrations
	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")
	return dbPool, nil
}

// BuildDependencies initializes the object store, scheduler client,
// repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	store, err := objectstore.NewStore(objectstore.Config{
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize object storage")
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}
	deps.Store = store

	deps.Scheduler = scheduler.NewClient(scheduler.Config{
		CrawlerBaseURL: cfg.Scheduler.CrawlerBaseURL,
		SeatBaseURL:    cfg.Scheduler.SeatBaseURL,
		RequestTimeout: helpers.ParseDuration(cfg.Scheduler.RequestTimeout, 30*time.Second),
		CacheTTL:       helpers.ParseDuration(cfg.Scheduler.CacheTTL, 10*time.Minute),
	})

	deps.Repos = appRepos.NewRepositories(dbPool, store)

	deps.ReportService = appServices.NewReportService(
		deps.Scheduler,
		deps.Repos.JobRepository,
		store,
		deps.Repos.ReferenceRepository,
		appServices.ReportConfig{
			ProcessingTimeout: helpers.ParseDuration(cfg.Processing.Timeout, 14*time.Minute),
			MaxEmbedSize:      cfg.Processing.MaxEmbedSize,
			DownloadURLTTL:    helpers.ParseDuration(cfg.Processing.DownloadURLTTL, 24*time.Hour),
		},
	)

	deps.ReportController = appControllers.NewReportController(deps.ReportService, deps.Repos.ReferenceRepository)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger())

	// Setup Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json"), ginSwagger.DefaultModelsExpandDepth(1)))

	// Setup API routes using the dependencies
	appRoutes.SetupRouter(router, deps.ReportController)

	return router
}

// StartJobCleanup periodically deletes jobs older than the configured
// retention. The returned function stops the loop.
func StartJobCleanup(cfg *config.Config, svc *appServices.ReportService, lgr zerolog.Logger) func() {
	retention := helpers.ParseDuration(cfg.Processing.JobRetention, 168*time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := svc.CleanupExpiredJobs(ctx, retention)
				if err != nil {
					lgr.Error().Err(err).Msg("Job cleanup failed")
					continue
				}
				if removed > 0 {
					lgr.Info().Int64("removed", removed).Msg("Expired jobs removed")
				}
			}
		}
	}()

	return cancel
}
