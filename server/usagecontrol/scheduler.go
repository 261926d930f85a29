// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

package usagecontrol

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/ashokkumarta/DataspaceConnector/server/artifact"
	"github.com/ashokkumarta/DataspaceConnector/server/config"
	"github.com/ashokkumarta/DataspaceConnector/server/contract"
	"github.com/ashokkumarta/DataspaceConnector/server/database"
	"github.com/ashokkumarta/DataspaceConnector/utils/logging"
	"github.com/benbjohnson/clock"
)

var schedLogger = logging.Logger("usagecontrol/scheduler")

// Scheduler periodically scans all stored agreements and erases the
// data of artifacts whose post-access duties have lapsed. It owns its
// own period and clock; a single goroutine runs scans sequentially, so
// a new scan never starts before the previous one finished.
type Scheduler struct {
	framework  config.Framework
	period     time.Duration
	agreements *database.AgreementRepository
	broker     *artifact.Service
	clock      clock.Clock

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

func NewScheduler(cfg config.UsageControlConfig, agreements *database.AgreementRepository, broker *artifact.Service, clk clock.Clock) *Scheduler {
	period := cfg.ScanPeriod
	if period <= 0 {
		period = config.DefaultScanPeriod
	}

	return &Scheduler{
		framework:  cfg.Framework,
		period:     period,
		agreements: agreements,
		broker:     broker,
		clock:      clk,
		stopCh:     make(chan struct{}),
	}
}

// Start launches the enforcement loop. It returns immediately; the
// loop runs until Stop is called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.wg.Add(1)

		go s.run(ctx)
	})
}

// Stop terminates the loop and waits for an in-flight scan to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})

	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := s.clock.Ticker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Scan(ctx)
		}
	}
}

// Scan runs one enforcement pass over all stored agreements. A
// malformed agreement, an unresolvable target or a failed erasure is
// logged and skipped; nothing here ever aborts the pass or the loop.
func (s *Scheduler) Scan(ctx context.Context) {
	if s.framework != config.FrameworkInternal {
		schedLogger.Debug("External usage-control framework configured, skipping scan")

		return
	}

	schedLogger.Info("Scanning agreements...")

	agreements, err := s.agreements.All(ctx)
	if err != nil {
		schedLogger.Warn("Failed to check policy", "error", err)

		return
	}

	for _, agreement := range agreements {
		doc, err := contract.Decode(agreement.Value)
		if err != nil {
			schedLogger.Warn("Skipping malformed agreement", "agreement", agreement.ID, "error", err)

			continue
		}

		for _, rule := range contract.ExtractRules(doc) {
			if len(rule.PostDuties) == 0 || rule.Target == "" {
				continue
			}

			s.enforceRule(ctx, rule)
		}
	}
}

func (s *Scheduler) enforceRule(ctx context.Context, rule contract.Rule) {
	artifactID, err := s.broker.IdentifyByRemoteID(ctx, rule.Target)
	if err != nil {
		schedLogger.Debug("Duty target not tracked locally", "target", rule.Target)

		return
	}

	record, err := s.broker.Get(ctx, artifactID)
	if err != nil {
		schedLogger.Warn("Failed to load artifact for duty check", "artifact", artifactID, "error", err)

		return
	}

	now := s.clock.Now()

	for _, duty := range rule.PostDuties {
		if !contract.DutyIsDue(duty, now, record.NumAccessed) {
			continue
		}

		if _, err := s.broker.SetData(ctx, artifactID, bytes.NewReader(nil)); err != nil {
			schedLogger.Warn("Failed to remove data from artifact", "artifact", artifactID, "error", err)

			continue
		}

		schedLogger.Debug("Removed data from artifact", "artifact", artifactID, "target", rule.Target)
	}
}
