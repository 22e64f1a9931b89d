package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swimform/swimform-go/internal/buildinfo"
)

// Command creates the version command.
func Command(build buildinfo.BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "swimform %s (built %s)\n", build.GetVersion(), build.GetBuildDate())
			return err
		},
	}
}
