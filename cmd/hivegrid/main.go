package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/seantiz/hivegrid/internal/api"
	"github.com/seantiz/hivegrid/internal/blueprint"
	"github.com/seantiz/hivegrid/internal/blueprint/static"
	"github.com/seantiz/hivegrid/internal/config"
	"github.com/seantiz/hivegrid/internal/launcher"
	"github.com/seantiz/hivegrid/internal/model"
	"github.com/seantiz/hivegrid/internal/runner"
	"github.com/seantiz/hivegrid/internal/store"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	logger.Info("hivegrid: starting",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"task_type", cfg.TaskType,
	)

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	registry := blueprint.NewRegistry()
	if err := registry.Register(static.New(db, cfg.TaskData, 0)); err != nil {
		log.Fatalf("failed to register blueprints: %v", err)
	}

	bp, err := registry.Resolve(cfg.TaskType)
	if err != nil {
		log.Fatalf("unknown task type: %v", err)
	}

	providerType := "mock"
	if !cfg.Sandbox {
		providerType = "live"
	}
	run := &model.TaskRun{
		ID:                 model.NewID(),
		TaskType:           cfg.TaskType,
		Reward:             cfg.TaskReward,
		MaxConcurrentUnits: cfg.MaxUnits,
		ProviderType:       providerType,
		Sandbox:            cfg.Sandbox,
		CreatedAt:          time.Now().UTC(),
	}
	if err := db.CreateTaskRun(context.Background(), run); err != nil {
		log.Fatalf("failed to create task run: %v", err)
	}

	driver := runner.NewDriver(db, bp, logger)

	l, err := launcher.New(db, run, bp, logger, launcher.Options{})
	if err != nil {
		log.Fatalf("failed to build launcher: %v", err)
	}
	if err := l.RegisterAssignments(context.Background()); err != nil {
		log.Fatalf("failed to register assignments: %v", err)
	}
	l.StartLaunching(cfg.Destination)

	srv := api.NewServer(cfg.ListenAddr, db, registry, bp, run, l, driver, logger)

	if err := srv.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}

	// Server has stopped; wind the run down before the store closes.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	l.ExpireAll(ctx)
}
