package server

import (
	"fmt"

	"github.com/mwantia/evtrec/internal/agent"
	"github.com/spf13/cobra"

	config "github.com/mwantia/evtrec/internal/config/server"
)

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the evtrec HTTP API",
		Long: `Start the evtrec HTTP API.

The server opens the folder registry, serves the folder, event, tag and
inbox endpoints and shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			return agent.NewAgent(cfg).Serve(cmd.Context())
		},
	}

	cmd.Flags().String("address", "", "listen address (overrides http.address)")
	viperBind("http.address", cmd.Flags().Lookup("address"))

	return cmd
}
