// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

package usagecontrol

import (
	"context"
	"testing"
	"time"

	"github.com/ashokkumarta/DataspaceConnector/server/artifact"
	"github.com/ashokkumarta/DataspaceConnector/server/config"
	"github.com/ashokkumarta/DataspaceConnector/server/contract"
	"github.com/ashokkumarta/DataspaceConnector/server/database"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schedulerEnv struct {
	db     *database.Database
	broker *artifact.Service
	clock  *clock.Mock
}

func newSchedulerEnv(t *testing.T) *schedulerEnv {
	t.Helper()

	db, err := database.New(config.DatabaseConfig{DSN: ":memory:"})
	require.NoError(t, err)

	mock := clock.NewMock()
	mock.Set(time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC))

	return &schedulerEnv{
		db:     db,
		broker: artifact.NewService(db.Artifacts(), db.Agreements(), artifact.NewBackendClient(config.BackendConfig{})),
		clock:  mock,
	}
}

func (e *schedulerEnv) scheduler(framework config.Framework) *Scheduler {
	cfg := config.UsageControlConfig{
		Framework:  framework,
		ScanPeriod: time.Minute,
	}

	return NewScheduler(cfg, e.db.Agreements(), e.broker, e.clock)
}

func (e *schedulerEnv) createArtifact(t *testing.T, remoteID string, payload []byte) uuid.UUID {
	t.Helper()

	record, err := artifact.New(&artifact.Desc{
		RemoteID: remoteID,
		Value:    payload,
	})
	require.NoError(t, err)
	require.NoError(t, e.db.Artifacts().Create(t.Context(), record))

	return record.ID
}

func (e *schedulerEnv) createAgreement(t *testing.T, remoteID string, doc *contract.Document) {
	t.Helper()

	value, err := contract.Encode(doc)
	require.NoError(t, err)

	require.NoError(t, e.db.Agreements().Create(t.Context(), &database.Agreement{
		RemoteID: remoteID,
		Value:    value,
	}))
}

func deleteAfter(after time.Time) []contract.Duty {
	return []contract.Duty{{Action: contract.ActionDelete, After: &after}}
}

func TestScanErasesDataOnceDutyLapses(t *testing.T) {
	ctx := t.Context()
	env := newSchedulerEnv(t)

	artifactID := env.createArtifact(t, "https://provider/artifacts/1", []byte("secret payload"))
	require.NoError(t, env.db.Artifacts().IncrementAccess(ctx, artifactID))

	env.createAgreement(t, "https://provider/agreements/1", &contract.Document{
		Permissions: []contract.Rule{{
			Target:     "https://provider/artifacts/1",
			PostDuties: deleteAfter(env.clock.Now().Add(time.Hour)),
		}},
	})

	scheduler := env.scheduler(config.FrameworkInternal)

	// Not lapsed yet, the payload must survive.
	scheduler.Scan(ctx)

	record, err := env.broker.Get(ctx, artifactID)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret payload"), record.Data.Value)

	env.clock.Add(2 * time.Hour)
	scheduler.Scan(ctx)

	record, err = env.broker.Get(ctx, artifactID)
	require.NoError(t, err)
	assert.Empty(t, record.Data.Value)
	assert.EqualValues(t, 0, record.ByteSize)
	// Erasure is not an access.
	assert.EqualValues(t, 1, record.NumAccessed)
}

func TestScanEnforcesCountKeyedDuty(t *testing.T) {
	ctx := t.Context()
	env := newSchedulerEnv(t)

	artifactID := env.createArtifact(t, "https://provider/artifacts/1", []byte("payload"))

	maxAccess := int64(2)
	env.createAgreement(t, "https://provider/agreements/1", &contract.Document{
		Permissions: []contract.Rule{{
			Target:     "https://provider/artifacts/1",
			PostDuties: []contract.Duty{{Action: contract.ActionDelete, MaxAccess: &maxAccess}},
		}},
	})

	scheduler := env.scheduler(config.FrameworkInternal)

	scheduler.Scan(ctx)

	record, err := env.broker.Get(ctx, artifactID)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), record.Data.Value)

	require.NoError(t, env.db.Artifacts().IncrementAccess(ctx, artifactID))
	require.NoError(t, env.db.Artifacts().IncrementAccess(ctx, artifactID))

	scheduler.Scan(ctx)

	record, err = env.broker.Get(ctx, artifactID)
	require.NoError(t, err)
	assert.Empty(t, record.Data.Value)
}

func TestScanSurvivesMalformedAgreement(t *testing.T) {
	ctx := t.Context()
	env := newSchedulerEnv(t)

	artifactID := env.createArtifact(t, "https://provider/artifacts/1", []byte("payload"))

	// The repository rejects malformed contracts at create time, but a
	// row written before that check existed can still be on disk. Plant
	// one directly and make sure the scan moves past it.
	require.NoError(t, env.db.Handle().Create(&database.Agreement{
		ID:       uuid.New(),
		RemoteID: "https://provider/agreements/legacy",
		Value:    []byte("not a contract"),
	}).Error)

	env.createAgreement(t, "https://provider/agreements/1", &contract.Document{
		Permissions: []contract.Rule{{
			Target:     "https://provider/artifacts/1",
			PostDuties: deleteAfter(env.clock.Now().Add(-time.Hour)),
		}},
	})

	env.scheduler(config.FrameworkInternal).Scan(ctx)

	record, err := env.broker.Get(ctx, artifactID)
	require.NoError(t, err)
	assert.Empty(t, record.Data.Value)
}

func TestScanSkipsUntrackedTargets(t *testing.T) {
	ctx := t.Context()
	env := newSchedulerEnv(t)

	artifactID := env.createArtifact(t, "https://provider/artifacts/1", []byte("payload"))

	// The lapsed duty targets an artifact this connector never stored;
	// the one after it must still be enforced.
	env.createAgreement(t, "https://provider/agreements/1", &contract.Document{
		Permissions: []contract.Rule{
			{
				Target:     "https://provider/artifacts/unknown",
				PostDuties: deleteAfter(env.clock.Now().Add(-time.Hour)),
			},
			{
				Target:     "https://provider/artifacts/1",
				PostDuties: deleteAfter(env.clock.Now().Add(-time.Hour)),
			},
		},
	})

	env.scheduler(config.FrameworkInternal).Scan(ctx)

	record, err := env.broker.Get(ctx, artifactID)
	require.NoError(t, err)
	assert.Empty(t, record.Data.Value)
}

func TestScanSkippedWithExternalFramework(t *testing.T) {
	ctx := t.Context()
	env := newSchedulerEnv(t)

	artifactID := env.createArtifact(t, "https://provider/artifacts/1", []byte("payload"))

	env.createAgreement(t, "https://provider/agreements/1", &contract.Document{
		Permissions: []contract.Rule{{
			Target:     "https://provider/artifacts/1",
			PostDuties: deleteAfter(env.clock.Now().Add(-time.Hour)),
		}},
	})

	env.scheduler(config.FrameworkExternal).Scan(ctx)

	record, err := env.broker.Get(ctx, artifactID)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), record.Data.Value)
}

func TestSchedulerLoopScansOnTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := newSchedulerEnv(t)

	artifactID := env.createArtifact(t, "https://provider/artifacts/1", []byte("payload"))

	env.createAgreement(t, "https://provider/agreements/1", &contract.Document{
		Permissions: []contract.Rule{{
			Target:     "https://provider/artifacts/1",
			PostDuties: deleteAfter(env.clock.Now().Add(-time.Hour)),
		}},
	})

	scheduler := env.scheduler(config.FrameworkInternal)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// Let the loop register its ticker before moving the clock.
	time.Sleep(10 * time.Millisecond)
	env.clock.Add(time.Minute)

	require.Eventually(t, func() bool {
		record, err := env.broker.Get(ctx, artifactID)

		return err == nil && len(record.Data.Value) == 0
	}, time.Second, 10*time.Millisecond)
}
