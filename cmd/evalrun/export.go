package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <evaluation-id>",
	Short: "Export an evaluation's results to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		out := exportOut
		if out == "" {
			out = args[0] + "." + exportFormat
		}

		if err := a.service.ExportResults(ctx, args[0], exportFormat, out); err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format: json or csv")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path; defaults to <evaluation-id>.<format>")
	rootCmd.AddCommand(exportCmd)
}
