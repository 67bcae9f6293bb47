package version

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/flarebyte/darkonly/internal/buildinfo"
	"github.com/flarebyte/darkonly/internal/classes"
	"github.com/flarebyte/darkonly/internal/discover"
	"github.com/flarebyte/darkonly/internal/rewrite"
	"github.com/spf13/cobra"
)

var (
	flagShort bool
	flagJSON  bool
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printVersion(cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func printVersion(stdout, stderr io.Writer) error {
	if flagShort || !flagJSON {
		_, err := fmt.Fprintf(stdout, "darkonly %s\n", buildinfo.Summary())
		return err
	}

	// JSON goes to stdout, the human line to stderr.
	_, _ = fmt.Fprintf(stderr, "darkonly version: %s\n", buildinfo.Summary())
	out := map[string]any{
		"version": buildinfo.ResolvedVersion(),
		"commit":  buildinfo.Commit,
		"date":    buildinfo.Date,
		"go":      runtime.Version(),
		"go_os":   runtime.GOOS,
		"go_arch": runtime.GOARCH,
		"defaults": map[string]any{
			"marker":     classes.DefaultMarker,
			"extensions": discover.DefaultExtensions,
			"attributes": rewrite.DefaultAttributes,
		},
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	VersionCmd.Flags().BoolVar(&flagShort, "short", false, "Print only the version string")
	VersionCmd.Flags().BoolVar(&flagJSON, "json", false, "Print detailed JSON version info")
}
