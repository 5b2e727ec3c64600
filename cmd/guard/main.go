// cmd/guard/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "guard"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Screenplay production-risk analyzer",
		Long: `guard reads a screenplay and reports continuity defects, censor and legal
risks, schedule risks, asset clearances and a line-item budget per scene.

The heuristic engine runs offline. With --llm and the configured provider's
API key set (OPENAI_API_KEY, or GEMINI_API_KEY for LLM_PROVIDER=google) the
analysis is delegated to the model and falls back to the engine on failure.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(analyzeCmd(), rulesCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}
