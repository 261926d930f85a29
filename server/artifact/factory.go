// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"github.com/ashokkumarta/DataspaceConnector/server/database"
	"github.com/google/uuid"
	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Desc describes a new artifact. Value and AccessURL are mutually
// exclusive: a payload makes a local artifact, an access URL makes a
// backend-fetched one.
type Desc struct {
	RemoteID          string
	RemoteAddress     string
	Title             string
	AutomatedDownload bool

	// Local payload. May be nil for an artifact whose content is
	// pulled from the provider on first access.
	Value []byte

	// Remote backend descriptor.
	AccessURL string
	Username  string
	Password  string
}

// New builds an artifact record from a description. Local artifacts
// with a seed payload get their checksum and byte size computed up
// front; backend-fetched artifacts never carry either.
func New(desc *Desc) (*database.Artifact, error) {
	artifact := &database.Artifact{
		ID:                uuid.New(),
		RemoteID:          desc.RemoteID,
		RemoteAddress:     desc.RemoteAddress,
		Title:             desc.Title,
		AutomatedDownload: desc.AutomatedDownload,
	}

	if desc.AccessURL != "" {
		if len(desc.Value) > 0 {
			return nil, status.Error(codes.InvalidArgument, "artifact cannot carry both a payload and an access URL")
		}

		if desc.AutomatedDownload {
			return nil, status.Error(codes.InvalidArgument, "backend-fetched artifacts do not support automated download")
		}

		artifact.Data = &database.ArtifactData{
			ArtifactID: artifact.ID,
			Kind:       database.DataKindRemote,
			AccessURL:  desc.AccessURL,
			Username:   desc.Username,
			Password:   desc.Password,
		}

		return artifact, nil
	}

	artifact.Data = &database.ArtifactData{
		ArtifactID: artifact.ID,
		Kind:       database.DataKindLocal,
		Value:      desc.Value,
	}

	if len(desc.Value) > 0 {
		checkSum, err := Checksum(desc.Value)
		if err != nil {
			return nil, err
		}

		artifact.CheckSum = checkSum
		artifact.ByteSize = int64(len(desc.Value))
	}

	return artifact, nil
}

// Checksum computes the content identifier of a payload. Identical
// bytes always yield identical checksums.
func Checksum(payload []byte) (string, error) {
	hash, err := mh.Sum(payload, mh.SHA2_256, -1)
	if err != nil {
		return "", status.Errorf(codes.Internal, "failed to hash payload: %v", err)
	}

	return cid.NewCidV1(cid.Raw, hash).String(), nil
}
