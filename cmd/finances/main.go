package main

import (
	"context"
	"os"

	"gofinances/internal/cli"
	"gofinances/internal/client"
	"gofinances/internal/config"
	"gofinances/internal/format"
	apphttp "gofinances/internal/http"
	applog "gofinances/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	fetcher := client.New(cfg.APIBaseURL, client.WithTimeout(cfg.FetchTimeout))
	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		ImportURL:          cfg.ImportURL,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Formatter:          format.New(format.BRL()),
		Logger:             logger,
	}, fetcher)

	logger.Info("Starting finances dashboard",
		applog.FieldOperation, applog.OpStartup,
		"port", cfg.Port,
		applog.FieldBaseURL, cfg.APIBaseURL,
		"ready", srv.Ready())

	if err := cli.Run(context.Background(), logger, srv, cli.ShutdownTimeout); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
