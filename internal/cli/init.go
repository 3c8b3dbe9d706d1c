package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klubi/reagent/internal/config"
)

const configTemplate = `# reagent configuration. Environment variables and a .env file in the
# working directory override these values:
#   OPENROUTER_API_KEY (or OPENAI_API_KEY), OPENAI_API_BASE, OPENAI_MODEL_NAME
model:
  apiBase: %q
  name: %q
  # apiKey: ""

agent:
  maxRetries: 5
  stream: true
  settleDelay: 100ms
  shellTimeout: 2m
  maxOutputBytes: 102400
  # promptTemplate: /path/to/prompt.tmpl

store:
  enabled: true
  dataDir: %q

log:
  level: warn
  format: console
`

func newInitCmd() *cobra.Command {
	var (
		path    string
		apiBase string
		model   string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long: `Create a commented configuration file with the default settings.

The API key is best kept out of the file: export OPENROUTER_API_KEY or put
it in a .env file next to where you run reagent.`,
		Example: `  reagent init
  reagent init --api-base https://openrouter.ai/api/v1 --model moonshotai/kimi-k2
  reagent init --path ./reagent.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = cfgFile
			}
			if path == "" {
				path = config.DefaultPath()
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("file %s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("checking %s: %w", path, err)
			}

			defaults := config.DefaultConfig()
			if model == "" {
				model = defaults.Model.Name
			}
			content := fmt.Sprintf(configTemplate, apiBase, model, defaults.Store.DataDir)

			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("creating config directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				return fmt.Errorf("writing config file: %w", err)
			}

			color.New(color.FgCyan, color.Bold).Println("reagent configured!")
			fmt.Println()
			fmt.Printf("  Config: %s\n", path)
			fmt.Println()
			color.New(color.Bold).Println("Next steps:")
			fmt.Println("  1. Provide an API key:")
			fmt.Printf("     export %s=...\n", config.EnvAPIKey)
			if apiBase == "" {
				fmt.Println()
				fmt.Println("  2. Set model.apiBase in the config, or:")
				fmt.Printf("     export %s=https://openrouter.ai/api/v1\n", config.EnvAPIBase)
			}
			fmt.Println()
			fmt.Println("  Then start a session:")
			fmt.Println("     reagent ./myproject")
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Where to write the file (default ~/.reagent/config.yaml)")
	cmd.Flags().StringVar(&apiBase, "api-base", "", "OpenAI-compatible API base URL")
	cmd.Flags().StringVar(&model, "model", "", "Model name")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
