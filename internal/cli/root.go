package cli

import (
	"context"
	"fmt"

	"resumescore/internal/config"
	"resumescore/internal/errors"

	"github.com/spf13/cobra"
)

type configKeyType struct{}
type loggerKeyType struct{}
type loaderKeyType struct{}

var (
	configKey = configKeyType{}
	loggerKey = loggerKeyType{}
	loaderKey = loaderKeyType{}
)

var rootCmd = &cobra.Command{
	Use:   "resumescore",
	Short: "Score resumes with deterministic, explainable heuristics",
	Long: `Resumescore analyzes a resume and reports an overall score, per-section
scores, the detected industry, quantified achievements and concrete suggestions.
It runs as a one-shot command or as an HTTP service with version history.`,
	SilenceUsage: true,
}

// Execute runs the root command with the loaded configuration. loader may be
// nil, in which case the server does not watch the config file.
func Execute(ctx context.Context, loader *config.Loader, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	ctx = context.WithValue(ctx, loaderKey, loader)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok && cfg != nil {
		return cfg, nil
	}
	return nil, fmt.Errorf("config not found in context")
}

func getLoggerFromContext(ctx context.Context) (*errors.Logger, error) {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok && logger != nil {
		return logger, nil
	}
	return nil, fmt.Errorf("logger not found in context")
}

func getLoaderFromContext(ctx context.Context) *config.Loader {
	loader, _ := ctx.Value(loaderKey).(*config.Loader)
	return loader
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
