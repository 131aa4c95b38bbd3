package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"itemsclassification/controllers"
	"itemsclassification/core"
	"itemsclassification/internal/metrics"
	"itemsclassification/internal/openapi"
	"itemsclassification/models"
)

const version = "1.0.0"

func main() {
	cfg, err := core.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := core.NewLogger(cfg.Server.Environment, cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// connect to the database
	db, err := core.InitDB(cfg.Database, cfg.IsDevelopment())
	if err != nil {
		logger.Fatalw("Cannot connect to the database", "error", err)
	}

	// auto migrate the database
	err = db.AutoMigrate(
		&models.Item{},
		&models.TaskStatus{},
	)
	if err != nil {
		logger.Fatalw("Cannot migrate the database", "error", err)
	}

	meter, err := metrics.NewPipelineMeter("items-classification")
	if err != nil {
		logger.Fatalw("Cannot create pipeline meter", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := core.NewServices(ctx, cfg, db, meter, logger)
	if err != nil {
		logger.Fatalw("Cannot create services", "error", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           createServer(cfg, db, services, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infow("Starting server", "addr", server.Addr, "environment", cfg.Server.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("Server shutdown failed", "error", err)
	}
	if err := services.Close(shutdownCtx); err != nil {
		logger.Errorw("Background tasks did not finish", "error", err)
	}
	if err := meter.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("Meter shutdown failed", "error", err)
	}
}

func createServer(cfg *core.Config, db *gorm.DB, s *core.Services, logger *zap.SugaredLogger) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// set up http server
	engine := gin.New()
	err := engine.SetTrustedProxies(nil)
	if err != nil {
		panic(err)
	}

	engine.Use(
		gin.Recovery(),
		controllers.RequestLogger(logger.With("component", "http")),
		controllers.Metrics(),
		controllers.CORS(cfg.Server.CORSOrigins),
		controllers.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst),
	)

	router := controllers.Router{
		HealthController: &controllers.HealthController{
			DB:      db,
			Store:   s.Store,
			Storage: s.Storage,
			Cache:   s.Cache,
			Version: version,
			Logger:  logger.With("controller", "health"),
		},
		ItemsController: &controllers.ItemsController{
			DB:              db,
			Storage:         s.Storage,
			ImagesContainer: cfg.Storage.ImagesContainer,
			Logger:          logger.With("controller", "items"),
		},
		TasksController: &controllers.TasksController{
			DB:        db,
			Runner:    s.Runner,
			SimSearch: s.SimSearch,
			Batch:     s.Batch,
			Logger:    logger.With("controller", "tasks"),
		},
		ClassificationController: &controllers.ClassificationController{
			Pipeline: s.Classification,
			Cache:    s.Cache,
			Logger:   logger.With("controller", "classification"),
		},
		ColorsController: &controllers.ColorsController{
			Pipeline: s.Colors,
			Cache:    s.Cache,
			Logger:   logger.With("controller", "colors"),
		},
		HSCodeController: &controllers.HSCodeController{
			Classifier: s.HSCode,
			Cache:      s.Cache,
			Logger:     logger.With("controller", "hscode"),
		},
		DocsController: &controllers.DocsController{
			Document: openapi.Build(version),
			Logger:   logger.With("controller", "docs"),
		},
	}

	router.RegisterRoutes(engine)
	return engine
}
