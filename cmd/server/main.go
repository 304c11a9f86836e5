// @title           UGC Studio API
// @version         1.0.0
// @description     Backend API for generating product marketing images and videos from uploaded photos. Image generation runs asynchronously and is observed by polling the project.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ugc-studio/internal/config"
	"ugc-studio/internal/database"
	"ugc-studio/internal/handlers"
	"ugc-studio/internal/imagen"
	"ugc-studio/internal/jobs"
	"ugc-studio/internal/log"
	"ugc-studio/internal/middleware"
	"ugc-studio/internal/queue"
	"ugc-studio/internal/services"
	"ugc-studio/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server exited cleanly")
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:            cfg.Sentry.DSN,
			Environment:    cfg.Environment,
			SendDefaultPII: true,
		}); err != nil {
			logger.Warn().Err(err).Msg("sentry init failed")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	migrator, err := database.NewMigrator(cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		migrator.Close()
		return err
	}
	migrator.Close()

	db, err := supabase.NewDatabaseClient(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		return err
	}
	storageClient := supabase.NewStorageClient(supabaseClient)

	imagenClient, err := imagen.NewClient(ctx, cfg.GenAI)
	if err != nil {
		return err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return err
	}

	generation := services.NewGenerationService(db, storageClient, imagenClient, cfg.GenAI.VideoTimeout, logger)
	producer := queue.NewProducer(redisClient, cfg.Queue.Stream)
	consumer := queue.NewConsumer(redisClient, cfg.Queue.Stream, cfg.Queue.Group, consumerName(cfg), logger, generation)

	scheduler := jobs.NewScheduler(db, cfg.Jobs.StaleGeneration, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           newRouter(cfg, logger, db, storageClient, producer, generation),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := consumer.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
			return srv.Close()
		}
		return nil
	})

	return g.Wait()
}

func newRouter(cfg *config.Config, logger zerolog.Logger, db *supabase.DatabaseClient, files *supabase.StorageClient, producer *queue.Producer, generation *services.GenerationService) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(gin.Recovery())
	if cfg.Sentry.DSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	router.GET("/health", handlers.HealthHandler)

	projects := handlers.NewProjectsHandler(db, files, producer, logger)
	videos := handlers.NewVideoHandler(generation, logger)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg))

	api.POST("/project", projects.CreateProject)
	api.POST("/project/video", videos.GenerateVideo)
	api.GET("/project/published", projects.ListPublished)
	api.DELETE("/project/:id", projects.DeleteProject)

	api.GET("/user/projects", projects.ListProjects)
	api.GET("/user/projects/:id", projects.GetProject)
	api.POST("/user/publish/:id", projects.TogglePublish)

	return router
}

func consumerName(cfg *config.Config) string {
	if cfg.Queue.Consumer != "" {
		return cfg.Queue.Consumer
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return uuid.NewString()
}
