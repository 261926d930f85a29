// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

package database

import (
	"context"
	"errors"
	"time"

	"github.com/ashokkumarta/DataspaceConnector/server/contract"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// TableName specifies the table name for Agreement.
func (Agreement) TableName() string {
	return "agreements"
}

// Agreement is a persisted record of a negotiated usage contract.
// Immutable once stored except for the archived flag.
type Agreement struct {
	ID        uuid.UUID `gorm:"primaryKey;type:text"`
	CreatedAt time.Time

	// RemoteID is the provider's identifier for the negotiated
	// contract, referenced by transfer-contract ids on data requests.
	RemoteID string `gorm:"uniqueIndex;size:2048"`

	// Value is the serialized contract document.
	Value []byte `gorm:"type:blob"`

	Archived bool `gorm:"default:false"`
}

// TableName specifies the table name for AgreementTarget.
func (AgreementTarget) TableName() string {
	return "agreement_targets"
}

// AgreementTarget links an agreement to the artifact remote ids its
// contract governs. Rows are derived from the contract document when
// the agreement is stored.
type AgreementTarget struct {
	ID          uint      `gorm:"primaryKey"`
	AgreementID uuid.UUID `gorm:"index;type:text"`
	Target      string    `gorm:"index;size:2048"`
}

// AgreementRepository handles agreement persistence.
type AgreementRepository struct {
	db *gorm.DB
}

// Create persists a new agreement and indexes its contract targets.
func (r *AgreementRepository) Create(ctx context.Context, agreement *Agreement) error {
	if agreement.ID == uuid.Nil {
		agreement.ID = uuid.New()
	}

	doc, err := contract.Decode(agreement.Value)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(agreement).Error; err != nil {
			return err
		}

		for _, target := range contract.Targets(doc) {
			link := &AgreementTarget{AgreementID: agreement.ID, Target: target}
			if err := tx.Create(link).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return status.Errorf(codes.Internal, "failed to create agreement: %v", err)
	}

	return nil
}

// Get retrieves an agreement by id.
func (r *AgreementRepository) Get(ctx context.Context, id uuid.UUID) (*Agreement, error) {
	agreement := &Agreement{}

	err := r.db.WithContext(ctx).First(agreement, "id = ? AND archived = ?", id, false).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, status.Errorf(codes.NotFound, "agreement not found: %s", id)
	}

	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to load agreement: %v", err)
	}

	return agreement, nil
}

// GetByRemoteID retrieves an agreement by the provider's contract id.
func (r *AgreementRepository) GetByRemoteID(ctx context.Context, remoteID string) (*Agreement, error) {
	agreement := &Agreement{}

	err := r.db.WithContext(ctx).First(agreement, "remote_id = ? AND archived = ?", remoteID, false).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, status.Errorf(codes.NotFound, "agreement not found for remote id %s", remoteID)
	}

	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to load agreement: %v", err)
	}

	return agreement, nil
}

// FindByTarget returns all non-archived agreements whose contract
// governs the given artifact remote id. Results are ordered by
// agreement creation time ascending; the broker relies on this order
// when it surfaces the last denial.
func (r *AgreementRepository) FindByTarget(ctx context.Context, target string) ([]Agreement, error) {
	var agreements []Agreement

	err := r.db.WithContext(ctx).
		Joins("JOIN agreement_targets ON agreement_targets.agreement_id = agreements.id").
		Where("agreement_targets.target = ? AND agreements.archived = ?", target, false).
		Order("agreements.created_at ASC").
		Find(&agreements).Error
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to find agreements: %v", err)
	}

	return agreements, nil
}

// All returns every non-archived agreement, ordered by creation time
// ascending. Used by the scheduled enforcement scan.
func (r *AgreementRepository) All(ctx context.Context) ([]Agreement, error) {
	var agreements []Agreement

	err := r.db.WithContext(ctx).
		Where("archived = ?", false).
		Order("created_at ASC").
		Find(&agreements).Error
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to list agreements: %v", err)
	}

	return agreements, nil
}

// Archive soft-deletes an agreement. The record itself is kept.
func (r *AgreementRepository) Archive(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&Agreement{}).
		Where("id = ?", id).
		Update("archived", true)
	if res.Error != nil {
		return status.Errorf(codes.Internal, "failed to archive agreement: %v", res.Error)
	}

	if res.RowsAffected == 0 {
		return status.Errorf(codes.NotFound, "agreement not found: %s", id)
	}

	return nil
}
