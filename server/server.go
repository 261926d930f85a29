// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

// Package server wires the connector's components together.
package server

import (
	"context"

	"github.com/ashokkumarta/DataspaceConnector/server/artifact"
	"github.com/ashokkumarta/DataspaceConnector/server/config"
	"github.com/ashokkumarta/DataspaceConnector/server/database"
	"github.com/ashokkumarta/DataspaceConnector/server/retriever"
	"github.com/ashokkumarta/DataspaceConnector/server/types"
	"github.com/ashokkumarta/DataspaceConnector/server/usagecontrol"
	"github.com/ashokkumarta/DataspaceConnector/utils/logging"
	"github.com/benbjohnson/clock"
	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
)

var logger = logging.Logger("server")

// Server bundles the connector's runtime components.
type Server struct {
	Config    *config.Config
	Database  *database.Database
	Broker    *artifact.Service
	Retriever types.Retriever
	Verifier  types.Verifier
	Trail     *usagecontrol.AuditTrail
	Scheduler *usagecontrol.Scheduler
}

// New builds the component graph from the given configuration.
func New(cfg *config.Config) (*Server, error) {
	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, err
	}

	clk := clock.New()

	broker := artifact.NewService(db.Artifacts(), db.Agreements(), artifact.NewBackendClient(cfg.Backend))
	trail := usagecontrol.NewAuditTrail(dssync.MutexWrap(datastore.NewMapDatastore()), clk)

	return &Server{
		Config:    cfg,
		Database:  db,
		Broker:    broker,
		Retriever: retriever.NewHTTP(cfg.Retriever),
		Verifier:  usagecontrol.Default(clk, trail),
		Trail:     trail,
		Scheduler: usagecontrol.NewScheduler(cfg.UsageControl, db.Agreements(), broker, clk),
	}, nil
}

// Run starts the scheduled enforcement loop and blocks until the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("Starting connector",
		"framework", s.Config.UsageControl.Framework,
		"scan_period", s.Config.UsageControl.ScanPeriod)

	s.Scheduler.Start(ctx)
	defer s.Scheduler.Stop()

	<-ctx.Done()

	logger.Info("Shutting down connector")

	return nil
}
