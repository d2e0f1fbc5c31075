package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	_ "github.com/noah-isme/student-console/api/swagger"
	"github.com/noah-isme/student-console/internal/handler"
	"github.com/noah-isme/student-console/internal/repository"
	"github.com/noah-isme/student-console/internal/service"
	"github.com/noah-isme/student-console/pkg/config"
	"github.com/noah-isme/student-console/pkg/logger"
)

// @title Student Console
// @version 0.1.0
// @description Operator console for the students REST backend
// @BasePath /
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

	metricsSvc := service.NewMetricsService()
	students := repository.NewStudentRepository(
		cfg.Backend.Endpoint(),
		&http.Client{Timeout: cfg.Backend.Timeout},
		metricsSvc,
		logr.Named("backend"),
	)
	console := service.NewConsoleService(students, logr.Named("console"),
		service.WithMessageTTL(cfg.Console.MessageTTL),
		service.WithMessageRecorder(metricsSvc),
	)
	defer console.Close()

	var ready atomic.Bool
	if cfg.Console.LoadOnStart {
		go func() {
			defer ready.Store(true)
			if err := console.LoadList(context.Background()); err != nil {
				logr.Sugar().Warnw("initial student load failed", "error", err)
			}
		}()
	} else {
		ready.Store(true)
	}

	r, err := handler.NewRouter(cfg, logr,
		metricsSvc,
		handler.NewConsoleHandler(console),
		handler.NewMetricsHandler(metricsSvc, ready.Load),
	)
	if err != nil {
		logr.Sugar().Fatalw("failed to build router", "error", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("console starting", "addr", srv.Addr, "env", cfg.Env, "backend", cfg.Backend.Endpoint())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	logr.Info("console stopped")
}
