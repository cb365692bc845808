package main

import (
	"banktrack/config"
	"banktrack/internal/tracker"
	"banktrack/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env overrides (PIN, backend credentials) before viper reads the env
	_ = godotenv.Load()

	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	// run tracker engine
	if _, err := tracker.Start(cfg, log); err != nil {
		log.Fatal("tracker failed", zap.Error(err))
	}

	select {}
}
