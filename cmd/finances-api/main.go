package main

import (
	"context"
	"os"

	"gofinances/internal/api"
	"gofinances/internal/cli"
	"gofinances/internal/config"
	applog "gofinances/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateBackend)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	if cfg.SeedDemo {
		n, err := repo.SeedDemo(context.Background())
		if err != nil {
			logger.Error("Demo seed failed", applog.FieldError, err, applog.FieldOperation, applog.OpSeed)
			os.Exit(1)
		}
		if n > 0 {
			logger.Info("Seeded demo transactions", applog.FieldOperation, applog.OpSeed, "count", n)
		}
	}

	srv := api.NewServer(":"+cfg.APIPort, repo, logger)
	logger.Info("Starting finances API",
		applog.FieldOperation, applog.OpStartup,
		"port", cfg.APIPort,
		"db", cfg.SQLiteDBPath)

	if err := cli.Run(context.Background(), logger, srv, cli.ShutdownTimeout); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.APIPort)
		_ = repo.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
