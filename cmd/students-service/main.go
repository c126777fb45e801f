package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-records-api/internal/handler"
	"github.com/noah-isme/campus-records-api/internal/repository"
	"github.com/noah-isme/campus-records-api/internal/router"
	"github.com/noah-isme/campus-records-api/internal/service"
	"github.com/noah-isme/campus-records-api/pkg/config"
	"github.com/noah-isme/campus-records-api/pkg/database"
	"github.com/noah-isme/campus-records-api/pkg/logger"
	"github.com/noah-isme/campus-records-api/pkg/tracing"
)

// @title Students Service
// @version 1.0.0
// @description Student records
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load("students-service", 7001)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("service stopped", zap.Error(err))
	}
}

// run wires the service and serves until shutdown. Every resource it opens is
// released before it returns, on failure paths too.
func run(cfg *config.Config, logr *zap.Logger) error {
	shutdownTracing, err := tracing.Init(context.Background(), cfg.Tracing, cfg.ServiceName, cfg.Env, logr)
	if err != nil {
		logr.Warn("tracing disabled", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logr.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	students := service.NewStudentService(repository.NewStudentRepository(db), validator.New(), logr)

	engine := router.New(router.Options{Config: cfg, Logger: logr, Metrics: metrics, DB: db},
		handler.NewStudentHandler(students),
	)
	return router.Run(engine, cfg.Port, logr)
}
