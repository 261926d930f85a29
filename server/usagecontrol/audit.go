// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

package usagecontrol

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ashokkumarta/DataspaceConnector/server/types"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AuditEntry is one recorded data access.
type AuditEntry struct {
	ArtifactID  uuid.UUID `json:"artifact_id"`
	RemoteID    string    `json:"remote_id,omitempty"`
	Connector   string    `json:"connector,omitempty"`
	NumAccessed int64     `json:"num_accessed"`
	Timestamp   time.Time `json:"timestamp"`
}

// AuditTrail persists access records behind the LogOnly strategy.
type AuditTrail struct {
	ds    datastore.Datastore
	clock clock.Clock
}

func NewAuditTrail(ds datastore.Datastore, clk clock.Clock) *AuditTrail {
	return &AuditTrail{ds: ds, clock: clk}
}

// Record appends an audit entry for the given access attempt.
func (t *AuditTrail) Record(ctx context.Context, subject *types.AccessSubject) error {
	entry := AuditEntry{
		ArtifactID:  subject.ArtifactID,
		RemoteID:    subject.RemoteID,
		Connector:   subject.Connector,
		NumAccessed: subject.NumAccessed,
		Timestamp:   t.clock.Now().UTC(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to encode audit entry: %v", err)
	}

	key := datastore.KeyWithNamespaces([]string{
		"audit",
		subject.ArtifactID.String(),
		entry.Timestamp.Format(time.RFC3339Nano),
	})

	if err := t.ds.Put(ctx, key, data); err != nil {
		return status.Errorf(codes.Internal, "failed to write audit entry: %v", err)
	}

	return nil
}

// Entries returns all recorded accesses for an artifact.
func (t *AuditTrail) Entries(ctx context.Context, artifactID uuid.UUID) ([]AuditEntry, error) {
	results, err := t.ds.Query(ctx, query.Query{
		Prefix: datastore.KeyWithNamespaces([]string{"audit", artifactID.String()}).String(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to query audit trail: %v", err)
	}
	defer results.Close()

	var entries []AuditEntry

	for result := range results.Next() {
		if result.Error != nil {
			return nil, status.Errorf(codes.Internal, "failed to read audit entry: %v", result.Error)
		}

		entry := AuditEntry{}
		if err := json.Unmarshal(result.Value, &entry); err != nil {
			return nil, status.Errorf(codes.Internal, "failed to decode audit entry: %v", err)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
