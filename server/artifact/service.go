// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

// Package artifact implements the data-access broker: it resolves the
// agreements governing an artifact, gates every access through the
// injected policy verifier and materializes the requested bytes from
// local storage, a backend endpoint or the originating provider.
package artifact

import (
	"bytes"
	"context"
	"io"

	"github.com/ashokkumarta/DataspaceConnector/server/contract"
	"github.com/ashokkumarta/DataspaceConnector/server/database"
	"github.com/ashokkumarta/DataspaceConnector/server/types"
	"github.com/ashokkumarta/DataspaceConnector/utils/logging"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var logger = logging.Logger("artifact/service")

// Service is the artifact data broker.
type Service struct {
	artifacts  *database.ArtifactRepository
	agreements *database.AgreementRepository
	backend    *BackendClient
}

func NewService(artifacts *database.ArtifactRepository, agreements *database.AgreementRepository, backend *BackendClient) *Service {
	return &Service{
		artifacts:  artifacts,
		agreements: agreements,
		backend:    backend,
	}
}

// Get returns the artifact record, including its data row.
func (s *Service) Get(ctx context.Context, artifactID uuid.UUID) (*database.Artifact, error) {
	return s.artifacts.Get(ctx, artifactID)
}

// IdentifyByRemoteID resolves a provider-side artifact identifier to
// the local artifact id.
func (s *Service) IdentifyByRemoteID(ctx context.Context, remoteID string) (uuid.UUID, error) {
	return s.artifacts.IdentifyByRemoteID(ctx, remoteID)
}

// ArtifactsByAgreement returns all artifacts referenced by the targets
// of the given agreement's contract.
func (s *Service) ArtifactsByAgreement(ctx context.Context, agreementID uuid.UUID) ([]database.Artifact, error) {
	agreement, err := s.agreements.Get(ctx, agreementID)
	if err != nil {
		return nil, err
	}

	doc, err := contract.Decode(agreement.Value)
	if err != nil {
		return nil, err
	}

	return s.artifacts.FindByRemoteIDs(ctx, contract.Targets(doc))
}

// GetData serves an artifact's data when the caller does not know
// which agreement applies. Every agreement targeting the artifact is
// tried in creation order; the first allowed access that yields data
// wins. If all of them deny, the last denial is propagated. An
// artifact with no agreements is offered by this connector and served
// without a policy gate.
func (s *Service) GetData(ctx context.Context, verifier types.Verifier, retriever types.Retriever, artifactID uuid.UUID, queryInput *types.QueryInput) (io.ReadCloser, error) {
	artifact, err := s.artifacts.Get(ctx, artifactID)
	if err != nil {
		return nil, err
	}

	agreements, err := s.agreements.FindByTarget(ctx, artifact.RemoteID)
	if err != nil {
		return nil, err
	}

	if len(agreements) == 0 {
		// Not assigned to any requested resource: the artifact is
		// offered by this connector, ownership implies no restriction.
		return s.serveStored(ctx, artifact, queryInput)
	}

	denial := status.Error(codes.PermissionDenied, "policy restriction")

	for _, agreement := range agreements {
		info := &types.RetrievalInformation{
			TransferContract: agreement.RemoteID,
			QueryInput:       queryInput,
		}

		data, err := s.GetDataByAgreement(ctx, verifier, retriever, artifactID, info)
		if err == nil {
			return data, nil
		}

		if status.Code(err) != codes.PermissionDenied {
			return nil, err
		}

		logger.Debug("Tried to access artifact data by trying an agreement",
			"artifact", artifactID, "agreement", agreement.RemoteID)

		denial = err
	}

	logger.Debug("The requested resource is not owned by this connector, access forbidden",
		"artifact", artifactID)

	return nil, denial
}

// GetDataByAgreement serves an artifact's data under a specific
// agreement. Access is verified exactly once; a denial fails
// immediately, retrying across agreements is the caller's concern.
func (s *Service) GetDataByAgreement(ctx context.Context, verifier types.Verifier, retriever types.Retriever, artifactID uuid.UUID, info *types.RetrievalInformation) (io.ReadCloser, error) {
	artifact, err := s.artifacts.Get(ctx, artifactID)
	if err != nil {
		return nil, err
	}

	subject, err := s.subjectFor(ctx, artifact, info)
	if err != nil {
		return nil, err
	}

	if result, reason := verifier.Verify(ctx, subject); result == types.Denied {
		logger.Info("Access denied", "artifact", artifactID, "reason", reason)

		if reason == "" {
			reason = "policy restriction"
		}

		return nil, status.Errorf(codes.PermissionDenied, "access denied for artifact %s: %s", artifactID, reason)
	}

	if s.shouldDownload(artifact, info.ForceDownload) {
		stream, err := retriever.Retrieve(ctx, artifactID, artifact.RemoteAddress, info.TransferContract, info.QueryInput)
		if err != nil {
			return nil, err
		}

		data, err := s.SetData(ctx, artifactID, stream)
		if err != nil {
			return nil, err
		}

		if err := s.artifacts.IncrementAccess(ctx, artifactID); err != nil {
			return nil, err
		}

		return data, nil
	}

	return s.serveStored(ctx, artifact, info.QueryInput)
}

// SetData rewrites an artifact's underlying data. Only artifacts with
// a local payload support this; the byte size and checksum are
// recomputed in the same transaction as the payload write. Used by the
// refresh path and by the scheduled enforcement loop for erasure.
func (s *Service) SetData(ctx context.Context, artifactID uuid.UUID, data io.Reader) (io.ReadCloser, error) {
	artifact, err := s.artifacts.Get(ctx, artifactID)
	if err != nil {
		return nil, err
	}

	if artifact.Data == nil || artifact.Data.Kind != database.DataKindLocal {
		return nil, status.Errorf(codes.Unimplemented, "cannot set data on backend-fetched artifact %s", artifactID)
	}

	payload, err := io.ReadAll(data)
	if closer, ok := data.(io.Closer); ok {
		_ = closer.Close()
	}

	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "failed to read data stream: %v", err)
	}

	checkSum, err := Checksum(payload)
	if err != nil {
		return nil, err
	}

	if err := s.artifacts.SetLocalData(ctx, artifactID, payload, checkSum, int64(len(payload))); err != nil {
		logger.Error("Failed to store data", "artifact", artifactID, "error", err)

		return nil, err
	}

	return io.NopCloser(bytes.NewReader(payload)), nil
}

// serveStored dispatches on the artifact's data kind, increments the
// access counter on success and returns the byte stream. No policy
// enforcement is performed here.
func (s *Service) serveStored(ctx context.Context, artifact *database.Artifact, queryInput *types.QueryInput) (io.ReadCloser, error) {
	if artifact.Data == nil {
		return nil, status.Errorf(codes.Internal, "artifact %s has no data row", artifact.ID)
	}

	var stream io.ReadCloser

	switch artifact.Data.Kind {
	case database.DataKindLocal:
		stream = io.NopCloser(bytes.NewReader(artifact.Data.Value))

	case database.DataKindRemote:
		var creds *types.BasicAuth
		if artifact.Data.Username != "" || artifact.Data.Password != "" {
			creds = &types.BasicAuth{
				Username: artifact.Data.Username,
				Password: artifact.Data.Password,
			}
		}

		var err error

		stream, err = s.backend.Get(ctx, artifact.Data.AccessURL, queryInput, creds)
		if err != nil {
			return nil, err
		}

	default:
		return nil, status.Errorf(codes.Internal, "unknown data kind %q", artifact.Data.Kind)
	}

	if err := s.artifacts.IncrementAccess(ctx, artifact.ID); err != nil {
		_ = stream.Close()

		return nil, err
	}

	return stream, nil
}

// shouldDownload decides whether a provider refresh is required before
// serving. Remote-backed artifacts are queried live on every serve and
// never count as stale.
func (s *Service) shouldDownload(artifact *database.Artifact, forceDownload *bool) bool {
	if forceDownload != nil {
		return *forceDownload
	}

	return !s.isDataPresent(artifact) || artifact.AutomatedDownload
}

func (s *Service) isDataPresent(artifact *database.Artifact) bool {
	if artifact.Data != nil && artifact.Data.Kind == database.DataKindRemote {
		return true
	}

	// The checksum is written with the first payload store.
	return artifact.CheckSum != ""
}

// subjectFor builds the verification subject: the artifact snapshot
// plus the rules of the governing agreement that target it.
func (s *Service) subjectFor(ctx context.Context, artifact *database.Artifact, info *types.RetrievalInformation) (*types.AccessSubject, error) {
	subject := &types.AccessSubject{
		ArtifactID:  artifact.ID,
		RemoteID:    artifact.RemoteID,
		NumAccessed: artifact.NumAccessed,
		CreatedAt:   artifact.CreatedAt,
		Connector:   info.Connector,
	}

	if info.TransferContract == "" {
		return subject, nil
	}

	agreement, err := s.agreements.GetByRemoteID(ctx, info.TransferContract)
	if err != nil {
		return nil, err
	}

	doc, err := contract.Decode(agreement.Value)
	if err != nil {
		return nil, err
	}

	subject.Rules = contract.RulesForTarget(doc, artifact.RemoteID)

	return subject, nil
}
