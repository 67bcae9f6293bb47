package root

import (
	"github.com/flarebyte/darkonly/cmd/darkonly/run"
	"github.com/flarebyte/darkonly/cmd/darkonly/version"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for darkonly. Invoked without a
// subcommand it migrates the source tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "darkonly",
		Short:         "CLI: Collapse light/dark Tailwind class pairs into a dark-only theme",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	run.Bind(cmd)

	// Subcommands
	cmd.AddCommand(version.VersionCmd)

	return cmd
}

// Execute runs the root command with provided args.
func Execute(args []string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}
