package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentlab/evalrun/internal/domain"
)

var (
	createBenchmark   string
	createModel       string
	createProvider    string
	createAgent       string
	createTemperature float64
	createMaxTokens   int
	createStrategy    string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new evaluation",
	Long:  "Validates the agent configuration against the named benchmark and records a pending evaluation. Run it with 'evalrun run <id>'.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		modelParams := map[string]any{}
		if cmd.Flags().Changed("temperature") {
			modelParams["temperature"] = createTemperature
		}
		if cmd.Flags().Changed("max-tokens") {
			modelParams["max_tokens"] = createMaxTokens
		}
		if cmd.Flags().Changed("strategy") {
			modelParams["strategy"] = createStrategy
		}

		agentConfig := domain.NewAgentConfig(
			domain.AgentType(createAgent),
			domain.ModelProvider(createProvider),
			createModel,
			modelParams,
			nil,
		)

		eval, err := a.service.CreateEvaluation(ctx, agentConfig, createBenchmark)
		if err != nil {
			return err
		}

		fmt.Println(eval.EvaluationID)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createBenchmark, "benchmark", "", "benchmark name (required)")
	createCmd.Flags().StringVar(&createModel, "model", "", "model name, e.g. gpt-4o or claude-3-5-sonnet-20241022 (required)")
	createCmd.Flags().StringVar(&createProvider, "provider", "", "provider override; detected from the model name when omitted")
	createCmd.Flags().StringVar(&createAgent, "agent", string(domain.AgentTypeNone), "reasoning approach: none or chain_of_thought")
	createCmd.Flags().Float64Var(&createTemperature, "temperature", 0, "sampling temperature")
	createCmd.Flags().IntVar(&createMaxTokens, "max-tokens", 0, "completion token limit")
	createCmd.Flags().StringVar(&createStrategy, "strategy", "", "structured-output strategy: auto, native, constrained, or extraction (default auto)")
	_ = createCmd.MarkFlagRequired("benchmark")
	_ = createCmd.MarkFlagRequired("model")
	rootCmd.AddCommand(createCmd)
}
