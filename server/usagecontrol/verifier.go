// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

// Package usagecontrol implements the policy verification strategies
// gating every data access, and the scheduled enforcement of
// post-access duties.
package usagecontrol

import (
	"context"
	"fmt"
	"slices"

	"github.com/ashokkumarta/DataspaceConnector/server/types"
	"github.com/ashokkumarta/DataspaceConnector/utils/logging"
	"github.com/benbjohnson/clock"
)

var logger = logging.Logger("usagecontrol")

// AllowAll grants every access. Used when usage control is disabled.
type AllowAll struct{}

func (AllowAll) Verify(_ context.Context, _ *types.AccessSubject) (types.VerificationResult, string) {
	return types.Allowed, ""
}

// DenyAll rejects every access.
type DenyAll struct{}

func (DenyAll) Verify(_ context.Context, _ *types.AccessSubject) (types.VerificationResult, string) {
	return types.Denied, "access denied by policy"
}

// TimeInterval allows access only while the current time lies inside
// the usage window of every governing rule that carries one.
type TimeInterval struct {
	clock clock.Clock
}

func NewTimeInterval(clk clock.Clock) *TimeInterval {
	return &TimeInterval{clock: clk}
}

func (v *TimeInterval) Verify(_ context.Context, subject *types.AccessSubject) (types.VerificationResult, string) {
	now := v.clock.Now()

	for _, rule := range subject.Rules {
		if rule.NotBefore != nil && now.Before(*rule.NotBefore) {
			return types.Denied, fmt.Sprintf("usage not allowed before %s", rule.NotBefore.Format("2006-01-02T15:04:05Z07:00"))
		}

		if rule.NotAfter != nil && now.After(*rule.NotAfter) {
			return types.Denied, fmt.Sprintf("usage not allowed after %s", rule.NotAfter.Format("2006-01-02T15:04:05Z07:00"))
		}
	}

	return types.Allowed, ""
}

// DurationUsage allows access only within a bounded period after the
// artifact was stored. The period is measured from the artifact's
// creation time, not the agreement's.
type DurationUsage struct {
	clock clock.Clock
}

func NewDurationUsage(clk clock.Clock) *DurationUsage {
	return &DurationUsage{clock: clk}
}

func (v *DurationUsage) Verify(_ context.Context, subject *types.AccessSubject) (types.VerificationResult, string) {
	now := v.clock.Now()

	for _, rule := range subject.Rules {
		if rule.MaxDuration == nil {
			continue
		}

		if now.After(subject.CreatedAt.Add(rule.MaxDuration.Duration)) {
			return types.Denied, fmt.Sprintf("usage period of %s expired", rule.MaxDuration)
		}
	}

	return types.Allowed, ""
}

// AccessCount allows access while the artifact's access counter stays
// below the bound of every governing rule that carries one.
type AccessCount struct{}

func (AccessCount) Verify(_ context.Context, subject *types.AccessSubject) (types.VerificationResult, string) {
	for _, rule := range subject.Rules {
		if rule.MaxAccess != nil && subject.NumAccessed >= *rule.MaxAccess {
			return types.Denied, fmt.Sprintf("access count limit reached (%d of %d)", subject.NumAccessed, *rule.MaxAccess)
		}
	}

	return types.Allowed, ""
}

// ConnectorRestriction allows access only to connectors listed on the
// governing rules. Rules without an allow-list do not restrict.
type ConnectorRestriction struct{}

func (ConnectorRestriction) Verify(_ context.Context, subject *types.AccessSubject) (types.VerificationResult, string) {
	for _, rule := range subject.Rules {
		if len(rule.Connectors) == 0 {
			continue
		}

		if !slices.Contains(rule.Connectors, subject.Connector) {
			return types.Denied, fmt.Sprintf("connector %q is not allowed to access the data", subject.Connector)
		}
	}

	return types.Allowed, ""
}

// LogOnly always allows access but records the attempt on the audit
// trail. A failed audit write never affects the decision.
type LogOnly struct {
	trail *AuditTrail
}

func NewLogOnly(trail *AuditTrail) *LogOnly {
	return &LogOnly{trail: trail}
}

func (v *LogOnly) Verify(ctx context.Context, subject *types.AccessSubject) (types.VerificationResult, string) {
	if v.trail == nil {
		logger.Info("Data access", "artifact", subject.ArtifactID, "connector", subject.Connector)

		return types.Allowed, ""
	}

	if err := v.trail.Record(ctx, subject); err != nil {
		logger.Warn("Failed to record audit entry", "artifact", subject.ArtifactID, "error", err)
	}

	return types.Allowed, ""
}

// Chain composes verifiers: every member must allow, the first denial
// wins. Composition across agreements stays with the broker; a chain
// only combines strategies for a single resolution path.
type Chain struct {
	verifiers []types.Verifier
}

func NewChain(verifiers ...types.Verifier) *Chain {
	return &Chain{verifiers: verifiers}
}

func (c *Chain) Verify(ctx context.Context, subject *types.AccessSubject) (types.VerificationResult, string) {
	for _, verifier := range c.verifiers {
		if result, reason := verifier.Verify(ctx, subject); result == types.Denied {
			return types.Denied, reason
		}
	}

	return types.Allowed, ""
}

// Default is the strategy set used for locally issued accesses when
// the internal framework is configured.
func Default(clk clock.Clock, trail *AuditTrail) *Chain {
	return NewChain(
		NewTimeInterval(clk),
		NewDurationUsage(clk),
		AccessCount{},
		ConnectorRestriction{},
		NewLogOnly(trail),
	)
}
