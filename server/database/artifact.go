// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// DataKind tags an artifact's underlying data variant. The kind is
// fixed at creation and never changes.
type DataKind string

const (
	// DataKindLocal marks payload bytes held by this connector.
	DataKindLocal DataKind = "local"

	// DataKindRemote marks data served live from a backend endpoint.
	DataKindRemote DataKind = "remote"
)

// TableName specifies the table name for Artifact.
func (Artifact) TableName() string {
	return "artifacts"
}

// Artifact is the persisted unit of exchangeable data and its access
// bookkeeping. ByteSize and CheckSum always describe the last stored
// payload; both are rewritten together with the payload itself.
type Artifact struct {
	ID        uuid.UUID `gorm:"primaryKey;type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// RemoteID is the artifact's identifier on the provider side, used
	// to correlate the artifact with agreement targets.
	RemoteID string `gorm:"index;size:2048"`

	// RemoteAddress is the provider endpoint for artifact requests.
	RemoteAddress string `gorm:"size:2048"`

	Title             string `gorm:"size:512"`
	NumAccessed       int64  `gorm:"default:0"`
	AutomatedDownload bool

	ByteSize int64 `gorm:"default:0"`

	// CheckSum is the CID of the last stored payload. Empty until data
	// has been cached at least once.
	CheckSum string `gorm:"size:128"`

	Data *ArtifactData `gorm:"foreignKey:ArtifactID"`
}

// TableName specifies the table name for ArtifactData.
func (ArtifactData) TableName() string {
	return "artifact_data"
}

// ArtifactData is the tagged-union data row behind an artifact:
// exactly one of the local payload or the remote descriptor is
// populated, selected by Kind.
type ArtifactData struct {
	ID         uint      `gorm:"primaryKey"`
	ArtifactID uuid.UUID `gorm:"uniqueIndex;type:text"`
	Kind       DataKind  `gorm:"size:16"`

	// Local payload.
	Value []byte

	// Remote descriptor.
	AccessURL string `gorm:"size:2048"`
	Username  string `gorm:"size:256"`
	Password  string `gorm:"size:256"`
}

// ArtifactRepository handles artifact persistence.
type ArtifactRepository struct {
	db *gorm.DB
}

// Create persists a new artifact together with its data row.
func (r *ArtifactRepository) Create(ctx context.Context, artifact *Artifact) error {
	if artifact.ID == uuid.Nil {
		artifact.ID = uuid.New()
	}

	if err := r.db.WithContext(ctx).Create(artifact).Error; err != nil {
		return status.Errorf(codes.Internal, "failed to create artifact: %v", err)
	}

	return nil
}

// Get retrieves an artifact by id, including its data row.
func (r *ArtifactRepository) Get(ctx context.Context, id uuid.UUID) (*Artifact, error) {
	artifact := &Artifact{}

	err := r.db.WithContext(ctx).Preload("Data").First(artifact, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, status.Errorf(codes.NotFound, "artifact not found: %s", id)
	}

	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to load artifact: %v", err)
	}

	return artifact, nil
}

// IdentifyByRemoteID resolves a provider-side artifact identifier to
// the local artifact id.
func (r *ArtifactRepository) IdentifyByRemoteID(ctx context.Context, remoteID string) (uuid.UUID, error) {
	artifact := &Artifact{}

	err := r.db.WithContext(ctx).Select("id").First(artifact, "remote_id = ?", remoteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, status.Errorf(codes.NotFound, "no artifact tracked for remote id %s", remoteID)
	}

	if err != nil {
		return uuid.Nil, status.Errorf(codes.Internal, "failed to resolve remote id: %v", err)
	}

	return artifact.ID, nil
}

// FindByRemoteIDs returns all artifacts whose remote id is in the
// given set, ordered by creation time ascending.
func (r *ArtifactRepository) FindByRemoteIDs(ctx context.Context, remoteIDs []string) ([]Artifact, error) {
	if len(remoteIDs) == 0 {
		return nil, nil
	}

	var artifacts []Artifact

	err := r.db.WithContext(ctx).
		Preload("Data").
		Where("remote_id IN ?", remoteIDs).
		Order("created_at ASC").
		Find(&artifacts).Error
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to list artifacts: %v", err)
	}

	return artifacts, nil
}

// SetLocalData rewrites an artifact's local payload together with its
// checksum and byte size in a single transaction. Payload and metadata
// are applied together or not at all.
func (r *ArtifactRepository) SetLocalData(ctx context.Context, artifactID uuid.UUID, payload []byte, checkSum string, byteSize int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&ArtifactData{}).
			Where("artifact_id = ? AND kind = ?", artifactID, DataKindLocal).
			Update("value", payload)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&Artifact{}).
			Where("id = ?", artifactID).
			Updates(map[string]any{
				"check_sum": checkSum,
				"byte_size": byteSize,
			}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return status.Errorf(codes.NotFound, "no local data row for artifact %s", artifactID)
	}

	if err != nil {
		return status.Errorf(codes.Internal, "failed to store data: %v", err)
	}

	return nil
}

// IncrementAccess adds one successful access to the artifact's counter.
func (r *ArtifactRepository) IncrementAccess(ctx context.Context, artifactID uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&Artifact{}).
		Where("id = ?", artifactID).
		UpdateColumn("num_accessed", gorm.Expr("num_accessed + 1")).Error
	if err != nil {
		return status.Errorf(codes.Internal, "failed to increment access counter: %v", err)
	}

	return nil
}
