package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ikkim/littlelemon-backend/config"
	"github.com/ikkim/littlelemon-backend/internal/db"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
)

func main() {
	command := flag.String("cmd", "up", "goose command: up, up-by-one, down, redo, reset, status, version")
	seed := flag.Bool("seed", true, "seed the role groups after up")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.RunGoose(ctx, db.GetDB(), *command, flag.Args()...); err != nil {
		logger.Error("Migration failed", err, logger.Fields{"command": *command})
		os.Exit(1)
	}

	if *seed && *command == "up" {
		if err := db.Seed(db.GetDB()); err != nil {
			logger.Error("Seeding failed", err)
			os.Exit(1)
		}
	}
	logger.Info("Migration finished", logger.Fields{"command": *command})
}
