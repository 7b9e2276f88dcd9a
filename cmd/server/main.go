// Command server runs the alana API server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/postgres"

	"github.com/alanahq/alana-server/internal/auth"
	"github.com/alanahq/alana-server/internal/config"
	"github.com/alanahq/alana-server/internal/logger"
	"github.com/alanahq/alana-server/internal/server"
	"github.com/alanahq/alana-server/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config.yml")
	flag.Parse()

	var cfg config.Config
	if err := config.Load(*configPath, &cfg); err != nil {
		logger.NewDefault().Fatal("configuration error", logger.Fields(logger.FieldError, err.Error()))
	}

	log := logger.New(cfg.Log)
	log.Info("starting", logger.Fields(
		"service", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, postgres.Open(cfg.Database.DSN), cfg.Database, log)
	if err != nil {
		log.Fatal("database error", logger.Fields(logger.FieldError, err.Error()))
	}
	defer db.Close()

	verifier, err := auth.NewCredentialVerifier(cfg.Auth, db.Users(), log)
	if err != nil {
		log.Fatal("auth error", logger.Fields(logger.FieldError, err.Error()))
	}

	srv, err := server.New(cfg, db, verifier, log)
	if err != nil {
		log.Fatal("server error", logger.Fields(logger.FieldError, err.Error()))
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("listener error", logger.Fields(logger.FieldError, err.Error()))
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	drain, _ := time.ParseDuration(cfg.Server.ShutdownTimeout)
	if drain <= 0 {
		drain = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown incomplete", logger.Fields(logger.FieldError, err.Error()))
	}
	log.Info("stopped")
}
