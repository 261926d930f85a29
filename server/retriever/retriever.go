// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

// Package retriever implements the provider pull: the original
// acquisition of an artifact's content from its origin connector.
package retriever

import (
	"context"
	"io"
	"net/http"

	"github.com/ashokkumarta/DataspaceConnector/server/config"
	"github.com/ashokkumarta/DataspaceConnector/server/types"
	"github.com/ashokkumarta/DataspaceConnector/utils/logging"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var logger = logging.Logger("retriever")

// TransferContractHeader carries the governing agreement's remote id
// on artifact request messages.
const TransferContractHeader = "Transfer-Contract"

// HTTP pulls artifact content from the provider's remote address.
type HTTP struct {
	client    *http.Client
	userAgent string
}

var _ types.Retriever = (*HTTP)(nil)

func NewHTTP(cfg config.RetrieverConfig) *HTTP {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultRetrieverTimeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "dataspace-connector"
	}

	return &HTTP{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Retrieve fetches the artifact's content from the provider endpoint.
// Any network or auth failure surfaces as a transport error; nothing
// is cached here.
func (r *HTTP) Retrieve(ctx context.Context, artifactID uuid.UUID, remoteAddress, transferContract string, queryInput *types.QueryInput) (io.ReadCloser, error) {
	if remoteAddress == "" {
		return nil, status.Errorf(codes.InvalidArgument, "artifact %s has no remote address", artifactID)
	}

	logger.Debug("Retrieving artifact data from provider",
		"artifact", artifactID, "address", remoteAddress, "contract", transferContract)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteAddress, nil)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid remote address %q: %v", remoteAddress, err)
	}

	req.Header.Set("User-Agent", r.userAgent)
	if transferContract != "" {
		req.Header.Set(TransferContractHeader, transferContract)
	}

	if queryInput != nil {
		q := req.URL.Query()
		for key, value := range queryInput.Params {
			q.Set(key, value)
		}

		req.URL.RawQuery = q.Encode()

		for key, value := range queryInput.Headers {
			req.Header.Set(key, value)
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "failed to retrieve artifact %s: %v", artifactID, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_ = resp.Body.Close()

		return nil, status.Errorf(codes.Unavailable, "provider returned status %d for artifact %s", resp.StatusCode, artifactID)
	}

	return resp.Body, nil
}
