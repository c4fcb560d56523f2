package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "agentloop",
	Short: "agentloop - a bounded agentic tool-calling loop",
	Long: `Agentloop runs a language model in a bounded tool-calling loop: the model
either answers directly or requests tool executions, whose results are fed
back until it converges on a final answer.

Key commands:
  agentloop run    Ask one question with the built-in tools
  agentloop chat   Multi-turn conversation with tool use and memory
  agentloop tools  List the built-in tool declarations`,
	Version:      version,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "agentloop.yaml", "Path to YAML config file")
	rootCmd.PersistentFlags().String("backend", "", "Backend adapter: openai or anthropic")
	rootCmd.PersistentFlags().String("model", "", "Model name")
	rootCmd.PersistentFlags().String("base-url", "", "Backend base URL override")
	rootCmd.PersistentFlags().Int("max-iterations", 0, "Backend call budget per run")
	rootCmd.PersistentFlags().Int("concurrency", 0, "Parallel tool executions per assistant turn")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every loop event")
}
