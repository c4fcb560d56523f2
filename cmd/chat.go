package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"agentloop/agent"
	"agentloop/internal/config"
	"agentloop/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Multi-turn conversation with tool use and memory",
	Long: `Chat keeps a session across turns: the full transcript, including earlier
tool results, is replayed to the model on every follow-up, so it can answer
questions like "which one was hotter?" about a previous turn.

Type "exit" or press Ctrl+C to leave.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		loop, _, err := newLoop(cfg)
		if err != nil {
			return err
		}
		manager, err := session.NewManager(loop, session.NewStore())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
		answerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
		dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

		fmt.Println(titleStyle.Render("agentloop chat"))
		fmt.Println(dimStyle.Render(`Ask about weather, calculations, contacts, or news. Type "exit" to quit.`))

		sessionID := ""
		for {
			var prompt string
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("You").Value(&prompt),
			))
			if err := form.RunWithContext(ctx); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}
			prompt = strings.TrimSpace(prompt)
			if prompt == "" || strings.EqualFold(prompt, "exit") {
				return nil
			}

			result, runErr := runChatTurn(ctx, manager, &sessionID, cfg, prompt)
			if runErr != nil {
				if ctx.Err() != nil {
					fmt.Println(dimStyle.Render("cancelled"))
					return nil
				}
				fmt.Println(dimStyle.Render(fmt.Sprintf("turn failed: %v", runErr)))
				continue
			}
			fmt.Println(answerStyle.Render("Agent: " + result.Output))
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChatTurn(
	ctx context.Context,
	manager *session.Manager,
	sessionID *string,
	cfg config.Config,
	prompt string,
) (agent.RunResult, error) {
	if *sessionID == "" {
		*sessionID = "chat"
		return manager.Start(ctx, session.StartInput{
			SessionID:     *sessionID,
			SystemPrompt:  cfg.SystemPrompt,
			UserPrompt:    prompt,
			MaxIterations: cfg.MaxIterations,
			Concurrency:   cfg.Concurrency,
		})
	}
	return manager.FollowUp(ctx, session.FollowUpInput{
		SessionID:     *sessionID,
		UserPrompt:    prompt,
		MaxIterations: cfg.MaxIterations,
		Concurrency:   cfg.Concurrency,
	})
}
