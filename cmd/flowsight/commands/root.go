package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	serverCmd "github.com/flowsight/flowsight/cmd/flowsight/commands/server"
	"github.com/flowsight/flowsight/cmd/flowsight/internal/format"
	"github.com/flowsight/flowsight/pkg/appctx"
	"github.com/flowsight/flowsight/pkg/config"
	"github.com/flowsight/flowsight/pkg/logging"
)

const cliExecutable = "flowsight"

// NewCommand constructs the top-level flowsight CLI command, wiring global
// flags, configuration loading, and logging setup shared by all subcommands.
func NewCommand() *cobra.Command {
	var (
		configFile string
		outputMode string
		quiet      bool
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Flowsight is an analytics dashboard for network intrusion detection results",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := format.ValidateMode(outputMode); err != nil {
				return err
			}

			mgr := config.NewManager()
			if err := mgr.Load(cmd.Flags(), configFile); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			cfg := mgr.Get()
			if err := logging.ConfigureGlobalLogging(cfg.Log.Level); err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}

			ctx := appctx.WithConfig(cmd.Context(), mgr)
			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
	}

	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().StringVarP(&outputMode, "output", "o", "table", "Output format: table or json")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddGroup(&cobra.Group{ID: "analysis", Title: "Analysis Commands"})
	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands"})

	cmd.AddCommand(serverCmd.NewCommand())
	cmd.AddCommand(newAnalyzeCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}
