package client

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/evtrec/internal/agent"
	"github.com/spf13/cobra"
)

func NewFoldersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "Manage tenant folders",
		Long:  "List, create or remove the tenant folders known to the registry.",
	}

	cmd.AddCommand(NewFoldersListCommand())
	cmd.AddCommand(NewFoldersCreateCommand())
	cmd.AddCommand(NewFoldersRemoveCommand())

	return cmd
}

func NewFoldersListCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List folders",
		Long:  "List all registered folders, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(s *agent.Services) error {
				folders, err := s.Manager.ListFolders(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(folders)
				}

				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSLUG\tNAME\tCREATED\tPATH")
				for _, f := range folders {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", f.ID, f.Slug, f.Name, humanize.Time(f.CreatedAt), f.StoragePath)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print folders as JSON")

	return cmd
}

func NewFoldersCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a folder",
		Long:  "Register a new folder and create its directory below the base directory.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")

			return withServices(cmd.Context(), func(s *agent.Services) error {
				folder, err := s.Manager.CreateFolder(cmd.Context(), name)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Created folder %d '%s' at %s\n", folder.ID, folder.Slug, folder.StoragePath)
				return nil
			})
		},
	}

	return cmd
}

func NewFoldersRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a folder from the registry",
		Long:  "Removes the registry entry of a folder. Its directory, files and database stay on disk.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withServices(cmd.Context(), func(s *agent.Services) error {
				if err := s.Manager.RemoveFolder(cmd.Context(), id); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Removed folder %d\n", id)
				return nil
			})
		},
	}

	return cmd
}
