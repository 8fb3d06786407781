package main

import (
	"context"
	"log"

	"habit-service/internal/app"
	"habit-service/internal/config"
	"habit-service/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	l, err := logger.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer l.Sync()

	a, err := app.New(context.Background(), cfg, l)
	if err != nil {
		l.Fatal("failed to build application: " + err.Error())
	}

	if err := a.Run(); err != nil {
		l.Fatal("application exited with error: " + err.Error())
	}
}
