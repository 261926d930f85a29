// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"time"

	"github.com/ashokkumarta/DataspaceConnector/server/contract"
	"github.com/google/uuid"
)

// VerificationResult is the two-valued outcome of a policy check. A
// verifier that cannot decide must return Denied itself; callers never
// see a third state.
type VerificationResult int

const (
	Denied VerificationResult = iota
	Allowed
)

func (r VerificationResult) String() string {
	if r == Allowed {
		return "ALLOWED"
	}

	return "DENIED"
}

// QueryInput carries backend query parameters for a data request. The
// content is opaque to the broker and handed to the data source as-is.
type QueryInput struct {
	Params  map[string]string `json:"params,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// RetrievalInformation scopes a single data access to an agreement.
type RetrievalInformation struct {
	// TransferContract is the remote id of the agreement to use. Empty
	// means no specific agreement was negotiated for this access.
	TransferContract string

	// QueryInput holds backend query parameters. May be nil.
	QueryInput *QueryInput

	// ForceDownload overrides the refresh decision: true always
	// refetches, false never does, nil falls back to the artifact's
	// own download policy.
	ForceDownload *bool

	// Connector is the requesting connector's identity, forwarded to
	// the verifiers through the access subject. May be empty.
	Connector string
}

// BasicAuth is an optional credential pair for backend data sources.
type BasicAuth struct {
	Username string
	Password string
}

// AccessSubject is the snapshot a verifier decides over: the artifact's
// bookkeeping state, the rules resolved for the governing agreement and
// the identity of the requesting connector.
type AccessSubject struct {
	ArtifactID  uuid.UUID
	RemoteID    string
	NumAccessed int64
	CreatedAt   time.Time

	// Connector is the requesting connector's identity. May be empty
	// when the request originates locally.
	Connector string

	// Rules are the clauses of the governing agreement that target
	// this artifact. Empty when no agreement applies.
	Rules []contract.Rule
}
