package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mr1hm/cuya-bot/internal/api"
	"github.com/mr1hm/cuya-bot/internal/config"
	"github.com/mr1hm/cuya-bot/internal/dialogue"
	"github.com/mr1hm/cuya-bot/internal/logging"
	"github.com/mr1hm/cuya-bot/internal/repository"
	"github.com/mr1hm/cuya-bot/internal/rules"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	r, err := rules.Load(cfg.Rules.Path)
	if err != nil {
		logging.Fatalf("Failed to load rules: %v", err)
	}
	slog.Info("rules loaded", "categories", len(r.Categories), "places", len(r.Gazetteer))

	if err := repository.EnsureParentDir(cfg.DB.Path); err != nil {
		logging.Fatalf("Failed to create database directory: %v", err)
	}
	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	machine := dialogue.NewMachine(r, db, dialogue.WithMapSearchURL(cfg.Rules.MapSearchURL))
	store := dialogue.NewStore(machine, cfg.Session.TTL, dialogue.WithMaxSessions(cfg.Session.MaxSessions))

	janitor, err := dialogue.StartJanitor(store, cfg.Session.SweepInterval)
	if err != nil {
		logging.Fatalf("Failed to start session janitor: %v", err)
	}

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", api.SessionHeader},
		ExposeHeaders:    []string{"Content-Length", api.SessionHeader},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))

	handler := api.NewHandler(db, store)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	janitor.Stop()

	slog.Info("shutdown complete")
}
