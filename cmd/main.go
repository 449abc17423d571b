// Package main is the entry point for the floor plan inventory service.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/floorplan-inventory/backend/internal/bootstrap"
	"github.com/floorplan-inventory/backend/internal/config"
	"github.com/floorplan-inventory/backend/internal/gateway"
	"github.com/floorplan-inventory/backend/internal/handler"
	"github.com/floorplan-inventory/backend/internal/selection"
)

func main() {
	// Parse command line flags
	role := flag.String("role", "", "Service role: gateway or handler (overrides SERVICE_ROLE env var)")
	port := flag.String("port", "", "Server port (overrides SERVER_PORT env var)")
	flag.Parse()

	// Override environment variables if flags are provided
	if *role != "" {
		os.Setenv("SERVICE_ROLE", *role)
	}
	if *port != "" {
		os.Setenv("SERVER_PORT", *port)
	}

	app := fx.New(
		fx.Provide(
			config.New,
			newLogger,
			newGinEngine,
		),
		fx.Invoke(startServer),
	)

	app.Run()
}

// newLogger creates a new zap logger based on the environment.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newGinEngine creates and configures a new Gin engine.
func newGinEngine(cfg *config.Config) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	// CORS middleware
	engine.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, "+handler.PersistenceErrorHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	return engine
}

// startServer starts the HTTP server based on the configured role.
func startServer(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger, engine *gin.Engine) error {
	logger.Info("Starting service",
		zap.String("role", cfg.Role),
		zap.String("port", cfg.ServerPort),
	)

	apiV1 := engine.Group("/api/v1")

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"role":    cfg.Role,
			"service": gateway.ServiceName,
		})
	})

	var runtime *bootstrap.Runtime

	if cfg.IsHandler() {
		var err error
		runtime, err = bootstrap.Open(context.Background(), cfg, logger)
		if err != nil {
			logger.Error("Failed to open inventory", zap.Error(err))
			return err
		}

		session := selection.NewSession(runtime.Store, cfg.Grid(), cfg.Canvas(), logger)
		h := handler.NewHandler(runtime.Store, session, handler.Options{
			Grid:       cfg.Grid(),
			Canvas:     cfg.Canvas(),
			Aliases:    runtime.Aliases,
			ExactFirst: cfg.AliasExactFirst,
		}, logger)
		h.RegisterRoutes(apiV1)

		logger.Info("Handler routes registered",
			zap.String("storage", cfg.StorageBackend),
			zap.String("state_key", cfg.StateKey),
		)
	} else {
		gw := gateway.NewGateway(cfg, logger)
		gw.RegisterRoutes(apiV1)

		logger.Info("Gateway routes registered",
			zap.String("handler_url", cfg.HandlerURL),
		)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info("Server starting", zap.String("addr", server.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("Server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Server shutting down")

			err := server.Shutdown(ctx)
			if runtime != nil {
				if cerr := runtime.Close(); cerr != nil {
					logger.Warn("Failed to close storage", zap.Error(cerr))
				}
			}
			return err
		},
	})

	return nil
}
