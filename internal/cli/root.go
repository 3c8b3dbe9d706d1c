package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klubi/reagent/internal/config"
)

var (
	cfgFile   string
	logLevel  string
	autoYes   bool
	noJournal bool

	// Populated by the root command's PersistentPreRunE.
	cfg    *config.Config
	logger *zap.Logger
)

// NewRootCmd creates the top-level reagent command. Run with a project
// directory it starts the interactive loop; subcommands cover one-shot
// runs and the task journal.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reagent <project-dir>",
		Short: "ReAct coding agent for a project directory",
		Long: `reagent answers tasks about a project directory by letting a language
model think, call tools (read and write files, create directories, run
shell commands) and observe the results until it has a final answer.

Tools can only touch paths inside the project directory. Shell commands
and destructive file operations ask for confirmation first.`,
		Example: `  reagent ./myproject
  reagent --yes ./myproject
  reagent run ./myproject -- "Add a README"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// init must work even when the existing config is broken.
			if cmd.Name() == "init" {
				return nil
			}
			return loadEnvironment(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(os.Stdin)
			s, err := openSession(args[0], in, os.Stdout)
			if err != nil {
				return err
			}
			defer s.Close()

			return runREPL(cmd.Context(), s, in, os.Stdout)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.reagent/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table|json|yaml")
	cmd.PersistentFlags().BoolVarP(&autoYes, "yes", "y", false, "Approve every confirmation prompt")
	cmd.PersistentFlags().BoolVar(&noJournal, "no-journal", false, "Do not record tasks in the journal")

	cmd.AddCommand(
		newRunCmd(),
		newToolsCmd(),
		newHistoryCmd(),
		newDescribeCmd(),
		newDeleteCmd(),
		newInitCmd(),
		newUICmd(),
	)

	return cmd
}

// loadEnvironment reads the configuration and builds the logger.
func loadEnvironment(cmd *cobra.Command) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		c.Log.Level = logLevel
		if err := c.Validate(); err != nil {
			return err
		}
	}
	switch outputFormat {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q (valid: table, json, yaml)", outputFormat)
	}

	l, err := config.NewLogger(c.Log)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}
