// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

package retriever

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ashokkumarta/DataspaceConnector/server/config"
	"github.com/ashokkumarta/DataspaceConnector/server/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRetrieveSetsHeaders(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "https://provider/agreements/1", r.Header.Get(TransferContractHeader))
		assert.Equal(t, "5", r.URL.Query().Get("depth"))

		_, _ = w.Write([]byte("artifact content"))
	}))
	defer provider.Close()

	retriever := NewHTTP(config.RetrieverConfig{UserAgent: "test-agent"})

	queryInput := &types.QueryInput{Params: map[string]string{"depth": "5"}}

	stream, err := retriever.Retrieve(t.Context(), uuid.New(), provider.URL, "https://provider/agreements/1", queryInput)
	require.NoError(t, err)

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.NoError(t, stream.Close())
	assert.Equal(t, []byte("artifact content"), data)
}

func TestRetrieveEmptyAddress(t *testing.T) {
	retriever := NewHTTP(config.RetrieverConfig{})

	_, err := retriever.Retrieve(t.Context(), uuid.New(), "", "", nil)
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestRetrieveProviderFailure(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer provider.Close()

	retriever := NewHTTP(config.RetrieverConfig{})

	_, err := retriever.Retrieve(t.Context(), uuid.New(), provider.URL, "", nil)
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}
