package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"agentloop/agent"
)

var runCmd = &cobra.Command{
	Use:   "run \"question\"",
	Short: "Ask one question with the built-in tools",
	Long: `Run executes a single agent loop: the model answers directly or calls the
built-in tools (weather, calculator, contacts, news) until it produces a
final answer or the iteration budget runs out.

Examples:
  agentloop run "Compare the weather in Delhi and Bengaluru"
  agentloop run --max-iterations 5 "What is 245 * 38 + 17?"
  agentloop run --backend anthropic "What's Bob's phone number?"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		loop, _, err := newLoop(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		result, err := loop.Run(ctx, agent.RunInput{
			SystemPrompt:  cfg.SystemPrompt,
			UserPrompt:    args[0],
			MaxIterations: cfg.MaxIterations,
			Concurrency:   cfg.Concurrency,
		})
		printRunOutcome(result, err)
		if err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func printRunOutcome(result agent.RunResult, err error) {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	toolCalls := 0
	for _, message := range result.Messages {
		if message.Role == agent.RoleTool {
			toolCalls++
		}
	}
	fmt.Println(dimStyle.Render(fmt.Sprintf(
		"%d backend call(s), %d tool execution(s)",
		result.Iterations,
		toolCalls,
	)))

	switch {
	case err == nil:
		fmt.Println(titleStyle.Render("Agent:"))
		fmt.Println(successStyle.Render(result.Output))
	case errors.Is(err, agent.ErrIterationLimitExceeded):
		fmt.Println(failStyle.Render("No final answer within the iteration budget. Transcript:"))
		for _, message := range result.Messages {
			fmt.Println(dimStyle.Render(transcriptLine(message)))
		}
	default:
		fmt.Println(failStyle.Render(fmt.Sprintf("Run ended: %v", err)))
	}
}

func transcriptLine(message agent.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", message.Role)
	if message.Content != "" {
		fmt.Fprintf(&b, " %s", message.Content)
	}
	for _, call := range message.ToolCalls {
		fmt.Fprintf(&b, " -> %s(%v)", call.Name, call.Arguments)
	}
	return b.String()
}
