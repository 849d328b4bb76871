package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agentlab/evalrun/internal/domain"
)

var runParallel int

var runCmd = &cobra.Command{
	Use:   "run <evaluation-id> [evaluation-id...]",
	Short: "Execute or resume evaluations",
	Long:  "Runs each evaluation's question loop. Already-answered questions are skipped, so an interrupted or crashed run picks up where it stopped. Ctrl-C interrupts cleanly between questions.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(runParallel)

		for _, id := range args {
			g.Go(func() error {
				err := a.service.ExecuteEvaluation(ctx, id, func(p domain.ProgressInfo) {
					fmt.Fprintf(os.Stderr, "%s %s\n", p.EvaluationID, p.String())
				})
				if errors.Is(err, context.Canceled) {
					zap.L().Info("run interrupted", zap.String("evaluation_id", id))
					return err
				}
				return err
			})
		}

		err = g.Wait()
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Interrupted. Re-run the same command to resume.")
			return nil
		}
		return err
	},
}

func init() {
	runCmd.Flags().IntVar(&runParallel, "parallel", 1, "number of evaluations to run concurrently")
	rootCmd.AddCommand(runCmd)
}
