package sessions

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/swimform/swimform-go/internal/config"
	"github.com/swimform/swimform-go/internal/datastore"
	"github.com/swimform/swimform-go/internal/errors"
)

// Command creates the sessions command and its subcommands.
func Command(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored sessions",
	}
	cmd.AddCommand(listCommand(ctx), showCommand(ctx), deleteCommand(ctx))
	return cmd
}

func listCommand(ctx *config.Context) *cobra.Command {
	var opts datastore.ListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store datastore.Interface) error {
				list, err := store.ListSessions(cmd.Context(), opts)
				if err != nil {
					return err
				}
				return printSessions(cmd.OutOrStdout(), list)
			})
		},
	}
	cmd.Flags().IntVar(&opts.Limit, "limit", datastore.DefaultListLimit, "Maximum number of sessions")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Number of sessions to skip")
	cmd.Flags().StringVar(&opts.SortBy, "sort", "created_at", "Sort by created_at or avg_score")
	cmd.Flags().BoolVar(&opts.Ascending, "asc", false, "Sort ascending")
	return cmd
}

func showCommand(ctx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored session as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store datastore.Interface) error {
				session, err := store.GetSession(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(session)
			})
		},
	}
}

func deleteCommand(ctx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored session with its frames and images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store datastore.Interface) error {
				if err := store.DeleteSession(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return err
			})
		},
	}
}

func withStore(ctx *config.Context, fn func(datastore.Interface) error) error {
	store, err := ctx.OpenStore()
	if err != nil {
		return err
	}
	if store == nil {
		return errors.Newf("session storage is disabled, set database.type").
			Component("cli").
			Category(errors.CategoryConfiguration).
			Build()
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}

func printSessions(w io.Writer, list []datastore.Session) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSOURCE\tVIEW\tFRAMES\tSTROKES\tSCORE")
	for i := range list {
		s := &list[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s/%s\t%d\t%d\t%.1f\n",
			s.ID,
			s.CreatedAt.Local().Format(time.DateTime),
			s.Source,
			s.CameraView, s.WaterPosition,
			s.Frames,
			s.StrokeCount,
			s.AvgScore)
	}
	return tw.Flush()
}
