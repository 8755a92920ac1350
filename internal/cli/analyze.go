package cli

import (
	"fmt"

	"resumescore/internal/common"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file]",
	Short: "Analyze a resume file (pdf, txt or md)",
	Long: `Analyze a resume and report its overall score, detected industry,
per-section scores, quantified achievements and improvement suggestions.

PDF files are extracted locally or through Apache Tika, depending on
extraction.pdfProvider. Results are memoized, and shared through Redis
when cache.redis.enabled is set.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if analyzeConfig.OutputFormat == "" {
			analyzeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(analyzeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAnalyze,
}

var analyzeConfig common.CommandConfig

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = analyzeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return []string{}, cobra.ShellCompDirectiveError
		}
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(ctx)
	if err != nil {
		return err
	}

	rt, err := newRuntime(ctx, cfg, logger, runtimeOptions{})
	if err != nil {
		return fmt.Errorf("failed to initialize analyzer: %w", err)
	}
	defer rt.Close()

	err = common.RunAnalyzeCommand(ctx, logger, common.AnalyzeRequest{
		Filename:    args[0],
		MaxFileSize: cfg.App.MaxFileSize,
		Output:      analyzeConfig,
	}, rt.extractor, rt.engine.Analyze)
	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}

	logger.Info("Resume analysis completed successfully")
	return nil
}
