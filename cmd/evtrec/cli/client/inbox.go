package client

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/evtrec/internal/agent"
	"github.com/spf13/cobra"
)

func NewInboxCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Inspect folder inboxes",
		Long:  "Inspect the file inbox of a folder.",
	}

	cmd.AddCommand(NewInboxListCommand())

	return cmd
}

func NewInboxListCommand() *cobra.Command {
	var humanReadable bool

	cmd := &cobra.Command{
		Use:   "ls <folder-id>",
		Short: "List inbox files",
		Long:  "List the files stored in the inbox of a folder, most recently modified first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withServices(cmd.Context(), func(s *agent.Services) error {
				engine, release, err := s.Manager.Acquire(cmd.Context(), id)
				if err != nil {
					return err
				}
				defer release()

				files, err := engine.ListInboxFiles(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED\tURL")
				for _, f := range files {
					size := fmt.Sprintf("%d", f.Bytes)
					modified := time.Unix(f.MTime, 0).Format(time.RFC3339)
					if humanReadable {
						size = humanize.Bytes(uint64(f.Bytes))
						modified = humanize.Time(time.Unix(f.MTime, 0))
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.DisplayName, size, modified, f.FileURL)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVarP(&humanReadable, "human", "H", false, "Enable human-readable format")

	return cmd
}
