package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis"
	"github.com/xpanvictor/intervox/internal/app"
	"github.com/xpanvictor/intervox/internal/config"
	"github.com/xpanvictor/intervox/internal/database"
	"github.com/xpanvictor/intervox/internal/domains/auth"
	"github.com/xpanvictor/intervox/internal/server"
	"github.com/xpanvictor/intervox/pkg/Logger"
	"gorm.io/gorm"
)

// This is the main entry point for the API server.
// Loads in all system components
// Exposes functionalities
func main() {
	hashKey := flag.String("hash-api-key", "", "print the bcrypt hash of the given API key and exit")
	flag.Parse()
	if *hashKey != "" {
		hash, err := auth.HashAPIKey(*hashKey)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(hash)
		return
	}

	// fetch cfg
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	// load global logger
	logger := Logger.New(cfg.Debug)
	defer logger.Sync()
	logger.Info("Logger initialized")

	var rc *redis.Client
	if cfg.Redis.Addr != "" {
		if rc, err = database.NewRedis(cfg.Redis); err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rc.Close()
	}

	// fetch database connection
	var db *gorm.DB
	if cfg.DB.Host != "" {
		if db, err = database.InitDB(*cfg); err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		// handle migrations
		if err := database.MigrateDB(db); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
	}

	application, err := app.NewApp(cfg, logger, db, rc)
	if err != nil {
		logger.Fatalf("Failed to build application: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := application.Start(ctx); err != nil {
		logger.Fatalf("Failed to start background workers: %v", err)
	}

	// compose router
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	server.InitializeRoutes(router, application.GetServerDependencies())

	// listen with graceful exit
	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router.Handler(),
	}
	go func() {
		logger.Infof("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Server exiting: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Shutdown error: %v", err)
	}
	if err := application.Close(shutdownCtx); err != nil {
		logger.Errorf("Close error: %v", err)
	}
	logger.Info("Shutdown complete")
}
