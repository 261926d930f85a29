// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

package setdata

import (
	"bytes"
	"fmt"

	"github.com/ashokkumarta/DataspaceConnector/server"
	"github.com/ashokkumarta/DataspaceConnector/server/config"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:   "set-data <artifact-id> <file>",
	Short: "Replace an artifact's local payload with the contents of a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		artifactID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid artifact id %q: %w", args[0], err)
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		srv, err := server.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}

		return runCommand(cmd, srv, artifactID, args[1])
	},
}

func runCommand(cmd *cobra.Command, srv *server.Server, artifactID uuid.UUID, path string) error {
	payload, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	data, err := srv.Broker.SetData(cmd.Context(), artifactID, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to set data: %w", err)
	}
	defer data.Close()

	record, err := srv.Broker.Get(cmd.Context(), artifactID)
	if err != nil {
		return fmt.Errorf("failed to reload artifact: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "stored %d bytes, checksum %s\n", record.ByteSize, record.CheckSum)

	return nil
}

// fs is swapped for a memory filesystem in tests.
var fs = afero.NewOsFs()
