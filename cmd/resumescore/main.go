package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"resumescore/internal/cli"
	"resumescore/internal/config"
	"resumescore/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		logger.LogError(err, "Failed to load secrets from Vault")
		os.Exit(1)
	}

	logger.Debug("Starting resumescore",
		"version", cli.Version,
		"log_level", cfg.App.LogLevel,
		"pdf_provider", cfg.Extraction.PDFProvider)

	if err := cli.Execute(ctx, loader, cfg, logger); err != nil {
		logger.LogError(err, "Application execution failed")
		stop()
		os.Exit(1)
	}
}
