// cmd/guard/analyze.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Corphon/ContinuityGuard/internal/app"
	"github.com/Corphon/ContinuityGuard/internal/config"
	"github.com/Corphon/ContinuityGuard/internal/heuristic"
	"github.com/Corphon/ContinuityGuard/internal/models"
	"github.com/Corphon/ContinuityGuard/internal/services"
	"github.com/Corphon/ContinuityGuard/internal/utils"
)

type analyzeOptions struct {
	budget    string
	useLLM    bool
	verbose   bool
	seed      uint64
	rulesFile string
	compact   bool
}

func analyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <file|->",
		Short: "Analyze a screenplay and print the JSON report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.budget, "budget", "b", string(models.BudgetMedium), "Budget mode (Low, Medium, High)")
	cmd.Flags().BoolVar(&opts.useLLM, "llm", false, "Use the configured LLM, falling back to the engine")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging on stderr")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Seed for reproducible estimates (0 = random)")
	cmd.Flags().StringVar(&opts.rulesFile, "rules", "", "YAML file overriding the engine tables")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "Print JSON without indentation")

	return cmd
}

func runAnalyze(cmd *cobra.Command, path string, opts analyzeOptions) error {
	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	utils.RedirectLogger(level, "stderr")
	logger := utils.GetLogger()
	defer logger.Sync()

	text, err := readScript(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.rulesFile != "" {
		cfg.HeuristicsFile = opts.rulesFile
	}

	var extra []heuristic.Option
	if opts.seed != 0 {
		extra = append(extra, heuristic.WithRandomizer(heuristic.NewSeededRandomizer(opts.seed)))
	}
	engine, err := app.BuildEngine(cfg, logger, extra...)
	if err != nil {
		return err
	}

	var llmService *services.LLMService
	if opts.useLLM {
		llmService = services.NewLLMService(cfg)
	}
	analyzer := services.NewAnalyzerService(engine, llmService,
		services.WithLLMTimeout(cfg.LLMTimeout),
		services.WithCache(services.NewLLMCache(cfg.LLMCacheTTL)),
		services.WithMetrics(utils.NewMetricsCollector()),
		services.WithAnalyzerLogger(logger),
	)

	analysis := analyzer.Analyze(cmd.Context(), text, models.BudgetMode(opts.budget), !opts.useLLM)
	if opts.useLLM && analysis.FallbackReason != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "note: LLM unavailable (%s), heuristic engine used\n", analysis.FallbackReason)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetEscapeHTML(false)
	if !opts.compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(analysis.Result)
}

// readScript 读取文件，"-" 表示标准输入
func readScript(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	return string(data), nil
}
