// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"context"
	"io"
	"net/http"

	"github.com/ashokkumarta/DataspaceConnector/server/config"
	"github.com/ashokkumarta/DataspaceConnector/server/types"
	"github.com/ashokkumarta/DataspaceConnector/utils/logging"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var backendLogger = logging.Logger("artifact/backend")

// BackendClient performs the live HTTP fetch for backend-fetched
// artifacts. The response stream is handed to the caller as-is and is
// never persisted.
type BackendClient struct {
	client *http.Client
}

func NewBackendClient(cfg config.BackendConfig) *BackendClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultBackendTimeout
	}

	return &BackendClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get issues a GET against the backend URL with the supplied query
// parameters and optional basic credentials.
func (c *BackendClient) Get(ctx context.Context, accessURL string, queryInput *types.QueryInput, creds *types.BasicAuth) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, accessURL, nil)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid backend URL %q: %v", accessURL, err)
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

	if creds != nil {
		req.SetBasicAuth(creds.Username, creds.Password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		backendLogger.Warn("Could not connect to data source", "url", accessURL, "error", err)

		return nil, status.Errorf(codes.Unavailable, "could not connect to data source: %v", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_ = resp.Body.Close()

		return nil, status.Errorf(codes.Unavailable, "data source returned status %d", resp.StatusCode)
	}

	return resp.Body, nil
}
