// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Verifier decides whether a data access may proceed. Implementations
// must be pure with respect to artifact state: they read the subject
// but never mutate it. Side effects such as audit logging are allowed
// as long as they cannot change the returned decision.
type Verifier interface {
	// Verify returns the access decision and, when denied, a short
	// human-readable reason.
	Verify(ctx context.Context, subject *AccessSubject) (VerificationResult, string)
}

// Retriever performs the original cross-connector data pull for an
// artifact. Any network or auth failure surfaces as a transport error.
type Retriever interface {
	Retrieve(ctx context.Context, artifactID uuid.UUID, remoteAddress, transferContract string, queryInput *QueryInput) (io.ReadCloser, error)
}
