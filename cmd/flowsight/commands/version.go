package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	v "github.com/flowsight/flowsight/pkg/version"
)

func newVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:     "version",
		Short:   "Print version information",
		GroupID: "core",
		Run: func(cmd *cobra.Command, _ []string) {
			info := v.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", cliExecutable, info.Version)
			if short {
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", info.Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "Build Date: %s\n", info.BuildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "Go Version: %s\n", info.GoVersion)
			fmt.Fprintf(cmd.OutOrStdout(), "Platform: %s\n", info.Platform)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")

	return cmd
}
