package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"agentloop/internal/toolset"
	"agentloop/tooling/registry"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the built-in tool declarations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tools := registry.New()
		if err := toolset.Register(tools); err != nil {
			return err
		}

		nameStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
		dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

		for _, declaration := range tools.Declarations() {
			fmt.Println(nameStyle.Render(declaration.Name))
			fmt.Println("  " + declaration.Description)
			if properties, ok := declaration.InputSchema["properties"].(map[string]any); ok {
				for name, schema := range properties {
					detail := ""
					if schemaMap, ok := schema.(map[string]any); ok {
						if typeName, ok := schemaMap["type"].(string); ok {
							detail = typeName
						}
					}
					fmt.Println(dimStyle.Render(fmt.Sprintf("  - %s: %s", name, detail)))
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
