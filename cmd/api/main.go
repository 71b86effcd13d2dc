// @title           Ostad Todo API
// @version         1.0
// @description     Date-bucketed to-do lists with bearer-token auth.
// @host            localhost:5000
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ostadtodo/internal/app"
	"ostadtodo/internal/config"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "api",
	})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", "err", err)
	}
	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
		logger.SetFormatter(log.JSONFormatter)
	}
	logger.Info("config loaded, connecting to DB and Redis...", "env", cfg.App.Env, "version", cfg.App.Version)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("app init", "err", err)
	}
	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTP.Port,
		Handler:      application.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Duration(),
	}

	go func() {
		logger.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "err", err)
	}

	if err := application.Close(ctx); err != nil {
		logger.Error("close", "err", err)
	}
}
