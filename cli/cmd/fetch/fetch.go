// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"errors"
	"fmt"
	"io"

	"github.com/ashokkumarta/DataspaceConnector/server"
	"github.com/ashokkumarta/DataspaceConnector/server/config"
	"github.com/ashokkumarta/DataspaceConnector/server/types"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:   "fetch <artifact-id>",
	Short: "Access an artifact's data through the policy-gated broker",
	Args:  cobra.ExactArgs(1),
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

		return runCommand(cmd, srv, artifactID)
	},
}

func runCommand(cmd *cobra.Command, srv *server.Server, artifactID uuid.UUID) error {
	ctx := cmd.Context()

	var data io.ReadCloser

	var err error

	if opts.Agreement != "" || opts.ForceDownload || opts.NoDownload {
		if opts.ForceDownload && opts.NoDownload {
			return errors.New("--force-download and --no-download are mutually exclusive")
		}

		info := &types.RetrievalInformation{
			TransferContract: opts.Agreement,
			Connector:        srv.Config.UsageControl.ConnectorID,
		}

		if opts.ForceDownload || opts.NoDownload {
			force := opts.ForceDownload
			info.ForceDownload = &force
		}

		data, err = srv.Broker.GetDataByAgreement(ctx, srv.Verifier, srv.Retriever, artifactID, info)
	} else {
		data, err = srv.Broker.GetData(ctx, srv.Verifier, srv.Retriever, artifactID, nil)
	}

	if err != nil {
		return fmt.Errorf("failed to fetch data: %w", err)
	}
	defer data.Close()

	if opts.Output == "" {
		_, err = io.Copy(cmd.OutOrStdout(), data)
		if err != nil {
			return fmt.Errorf("failed to write data: %w", err)
		}

		return nil
	}

	payload, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}

	if err := afero.WriteFile(fs, opts.Output, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.Output, err)
	}

	return nil
}

// fs is swapped for a memory filesystem in tests.
var fs = afero.NewOsFs()
