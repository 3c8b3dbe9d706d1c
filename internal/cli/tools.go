package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/klubi/reagent/internal/tools"
)

type toolInfo struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools the agent can call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			registry, err := tools.NewDefaultRegistry(cwd, tools.AutoConfirm(false), tools.Options{
				ShellTimeout:   cfg.Agent.ShellTimeout,
				MaxOutputBytes: cfg.Agent.MaxOutputBytes,
			})
			if err != nil {
				return err
			}

			infos, rows := describeTools(registry)
			return printOutput(infos, []string{"NAME", "DESCRIPTION"}, rows)
		},
	}
	return cmd
}

func describeTools(registry *tools.Registry) ([]toolInfo, [][]string) {
	infos := make([]toolInfo, 0, registry.Len())
	rows := make([][]string, 0, registry.Len())
	for _, name := range registry.Names() {
		t, _ := registry.Get(name)
		infos = append(infos, toolInfo{Name: name, Description: t.Description()})
		rows = append(rows, []string{name, truncate(t.Description(), 90)})
	}
	return infos, rows
}
