package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swimform/swimform-go/cmd/analyze"
	"github.com/swimform/swimform-go/cmd/serve"
	"github.com/swimform/swimform-go/cmd/sessions"
	"github.com/swimform/swimform-go/cmd/settings"
	"github.com/swimform/swimform-go/cmd/version"
	"github.com/swimform/swimform-go/internal/config"
)

// RootCommand creates and returns the root command
func RootCommand(ctx *config.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "swimform",
		Short:         "Swim technique analysis from video",
		Long:          "Analyze freestyle swimming video: pose landmarks in, stroke, breath and technique metrics out.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, ctx); err != nil {
		panic(err)
	}

	versionCmd := version.Command(ctx.Build)
	rootCmd.AddCommand(
		analyze.Command(ctx),
		serve.Command(ctx),
		sessions.Command(ctx),
		settings.Command(ctx),
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// The version command works without a configuration.
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return ctx.Initialize()
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, ctx *config.Context) error {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.ConfigFile, "config", "c", "", "Path to config.yaml (default: search ., user config dir, /etc/swimform)")
	flags.BoolP("debug", "d", false, "Enable debug output")

	if err := ctx.Viper.BindPFlag("debug", flags.Lookup("debug")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
