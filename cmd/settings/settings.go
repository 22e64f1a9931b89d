package settings

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/swimform/swimform-go/internal/conf"
	"github.com/swimform/swimform-go/internal/config"
)

const redacted = "********"

// Command creates the settings command.
func Command(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and save the effective configuration",
	}
	cmd.AddCommand(showCommand(ctx), saveCommand(ctx))
	return cmd
}

func showCommand(ctx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML, secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(Redact(ctx.Settings)); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func saveCommand(ctx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "save <path>",
		Short: "Write the effective configuration, flags and environment included, to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return conf.SaveYAMLConfig(args[0], ctx.Settings)
		},
	}
}

// Redact returns a copy of s with credentials masked.
func Redact(s *conf.Settings) *conf.Settings {
	if s == nil {
		return nil
	}
	out := *s
	mask := func(v *string) {
		if *v != "" {
			*v = redacted
		}
	}
	mask(&out.Pose.APIKey)
	mask(&out.Database.MySQL.Password)
	mask(&out.MQTT.Password)
	mask(&out.Sentry.DSN)
	return &out
}
