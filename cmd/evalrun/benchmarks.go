package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentlab/evalrun/infrastructure/storage"
)

var benchmarksCmd = &cobra.Command{
	Use:   "benchmarks",
	Short: "List available benchmarks",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := storage.NewYAMLBenchmarkStore(cfg.Benchmarks.Dir)
		if err != nil {
			return err
		}

		benchmarks, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(benchmarks) == 0 {
			fmt.Fprintf(os.Stderr, "No benchmarks found in %s.\n", cfg.Benchmarks.Dir)
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tQUESTIONS\tDESCRIPTION")
		for _, b := range benchmarks {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", b.ID, b.Name, b.Size(), b.Description)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(benchmarksCmd)
}
