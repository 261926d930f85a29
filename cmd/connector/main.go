// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ashokkumarta/DataspaceConnector/cli/cmd/fetch"
	"github.com/ashokkumarta/DataspaceConnector/cli/cmd/serve"
	"github.com/ashokkumarta/DataspaceConnector/cli/cmd/setdata"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "connector",
	Short: "Dataspace connector: policy-gated access to exchanged data artifacts",
	Long: `The connector mediates access to data artifacts exchanged under
machine-readable usage-control contracts. Every data access is gated by
the policy verifier; a background loop enforces post-access duties such
as scheduled deletion.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serve.Command)
	rootCmd.AddCommand(fetch.Command)
	rootCmd.AddCommand(setdata.Command)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
