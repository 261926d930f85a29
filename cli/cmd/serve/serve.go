// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"fmt"

	"github.com/ashokkumarta/DataspaceConnector/server"
	"github.com/ashokkumarta/DataspaceConnector/server/config"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:   "serve",
	Short: "Run the connector with the scheduled usage-control enforcement loop",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		srv, err := server.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}

		return srv.Run(cmd.Context())
	},
}
