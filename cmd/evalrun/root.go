// Command evalrun runs reasoning-agent evaluations against question
// benchmarks: create an evaluation, execute or resume it, inspect progress
// and results, and export them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentlab/evalrun/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "evalrun",
	Short: "Evaluate reasoning agents against question benchmarks",
	Long:  "Runs configured LLM agents through benchmark question sets sequentially, persisting each question's outcome so interrupted evaluations resume where they left off.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
