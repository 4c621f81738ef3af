package cli

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X github.com/JonMunkholm/biblioteca/internal/cli.Version=...".
var Version = "dev"

const modulePath = "github.com/JonMunkholm/biblioteca"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bibliotecactl version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			goVersion := "unknown"
			if info, ok := debug.ReadBuildInfo(); ok {
				goVersion = info.GoVersion
			}
			fmt.Fprintf(cmd.OutOrStdout(), "bibliotecactl %s\nmodule: %s\ngo: %s\n", Version, modulePath, goVersion)
			return nil
		},
	}
}
