// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"bytes"
	"testing"

	"github.com/ashokkumarta/DataspaceConnector/server"
	"github.com/ashokkumarta/DataspaceConnector/server/artifact"
	"github.com/ashokkumarta/DataspaceConnector/server/config"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	srv, err := server.New(&config.Config{
		Database: config.DatabaseConfig{DSN: ":memory:"},
	})
	require.NoError(t, err)

	return srv
}

func seedArtifact(t *testing.T, srv *server.Server, payload []byte) uuid.UUID {
	t.Helper()

	record, err := artifact.New(&artifact.Desc{
		RemoteID: "https://provider/artifacts/1",
		Value:    payload,
	})
	require.NoError(t, err)
	require.NoError(t, srv.Database.Artifacts().Create(t.Context(), record))

	return record.ID
}

func newTestCommand(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}

	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetContext(t.Context())

	return cmd, out
}

func TestFetchWritesToStdout(t *testing.T) {
	srv := newTestServer(t)
	artifactID := seedArtifact(t, srv, []byte("hello"))

	cmd, out := newTestCommand(t)
	opts = &options{}

	require.NoError(t, runCommand(cmd, srv, artifactID))
	assert.Equal(t, "hello", out.String())
}

func TestFetchWritesToFile(t *testing.T) {
	srv := newTestServer(t)
	artifactID := seedArtifact(t, srv, []byte("hello"))

	fs = afero.NewMemMapFs()

	cmd, out := newTestCommand(t)
	opts = &options{Output: "/tmp/artifact.bin"}

	require.NoError(t, runCommand(cmd, srv, artifactID))
	assert.Empty(t, out.String())

	data, err := afero.ReadFile(fs, "/tmp/artifact.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestFetchRejectsConflictingDownloadFlags(t *testing.T) {
	srv := newTestServer(t)

	cmd, _ := newTestCommand(t)
	opts = &options{ForceDownload: true, NoDownload: true}

	err := runCommand(cmd, srv, uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}
