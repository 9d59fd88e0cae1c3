package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"expohall/internal/config"
	"expohall/internal/consumers"
	"expohall/internal/database"
	"expohall/internal/external"
	"expohall/internal/jobs"
	"expohall/internal/logger"
	"expohall/internal/messaging"
	"expohall/internal/repository"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	natsCfg := cfg.NATS
	natsCfg.ClientID = "expohall-consumers"
	nats, err := messaging.NewNATSClient(natsCfg)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}
	defer nats.Close()

	repos := repository.NewRepositories(db)

	svc := consumers.New(nats,
		repos.Users,
		external.NewNotifyClient(cfg.Notify),
		external.NewRendererClient(cfg.Renderer))

	if err := svc.Start(); err != nil {
		logger.Fatal("Failed to start consumers", "error", err)
	}
	defer svc.Stop()

	job := jobs.NewStandReconciliation(repos.Stands, jobsInterval())
	job.Start()
	defer job.Stop()

	logger.Get().Info("Consumers running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Get().Info("Shutting down consumers...")
}

func jobsInterval() time.Duration {
	if val := os.Getenv("RECONCILIATION_INTERVAL_SEC"); val != "" {
		if sec, err := strconv.Atoi(val); err == nil && sec > 0 {
			return time.Duration(sec) * time.Second
		}
	}
	return time.Minute
}
