package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentlab/evalrun/internal/application"
	"github.com/agentlab/evalrun/internal/domain"
)

var (
	listStatus    string
	listBenchmark string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List evaluations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		summaries, err := a.service.ListEvaluations(ctx, domain.EvaluationStatus(listStatus), listBenchmark)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Fprintln(os.Stderr, "No evaluations found.")
			return nil
		}

		formatEvaluationList(os.Stdout, summaries)
		return nil
	},
}

func formatEvaluationList(w io.Writer, summaries []application.EvaluationSummary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBENCHMARK\tAGENT\tMODEL\tSTATUS\tPROGRESS\tCREATED")
	for _, s := range summaries {
		eval := s.Evaluation
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			eval.EvaluationID,
			s.BenchmarkName,
			eval.AgentConfig.AgentType,
			eval.AgentConfig.ModelName,
			eval.Status,
			s.Progress.Completed, s.Progress.Total,
			eval.CreatedAt.Local().Format(time.DateTime),
		)
	}
	tw.Flush()
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status: pending, running, completed, failed, interrupted")
	listCmd.Flags().StringVar(&listBenchmark, "benchmark", "", "filter by benchmark name or id")
	rootCmd.AddCommand(listCmd)
}
