package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentlab/evalrun/internal/domain"
)

var resultsJSON bool

var resultsCmd = &cobra.Command{
	Use:   "results <evaluation-id>",
	Short: "Show an evaluation's results",
	Long:  "Derives aggregate results from the persisted per-question records. Works for completed, interrupted, and running evaluations alike.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.service.GetResults(ctx, args[0])
		if errors.Is(err, domain.ErrNoResults) {
			fmt.Fprintln(os.Stderr, "No questions processed yet.")
			return nil
		}
		if err != nil {
			return err
		}

		if resultsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}

		fmt.Printf("Questions:  %d\n", results.TotalQuestions)
		fmt.Printf("Correct:    %d\n", results.CorrectAnswers)
		fmt.Printf("Errors:     %d\n", results.ErrorCount)
		fmt.Printf("Accuracy:   %.1f%%\n", results.Accuracy)
		fmt.Printf("Avg time:   %s\n", results.AverageExecutionTime)
		return nil
	},
}

func init() {
	resultsCmd.Flags().BoolVar(&resultsJSON, "json", false, "print the full results document as JSON")
	rootCmd.AddCommand(resultsCmd)
}
