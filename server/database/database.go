// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

// Package database persists artifacts and agreements and exposes the
// repository lookups consumed by the broker and the enforcement loop.
package database

import (
	"fmt"

	"github.com/ashokkumarta/DataspaceConnector/server/config"
	"github.com/ashokkumarta/DataspaceConnector/utils/logging"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbLogger = logging.Logger("database")

// Database wraps the gorm handle shared by all repositories.
type Database struct {
	db *gorm.DB
}

// New opens the sqlite database and migrates the schema.
func New(cfg config.DatabaseConfig) (*Database, error) {
	dbLogger.Debug("Opening database", "dsn", cfg.DSN)

	db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(
		&Artifact{},
		&ArtifactData{},
		&Agreement{},
		&AgreementTarget{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Database{db: db}, nil
}

// Artifacts returns the artifact repository.
func (d *Database) Artifacts() *ArtifactRepository {
	return &ArtifactRepository{db: d.db}
}

// Agreements returns the agreement repository.
func (d *Database) Agreements() *AgreementRepository {
	return &AgreementRepository{db: d.db}
}

// Handle returns the raw gorm handle, bypassing the repository
// validations. Rows written through it are not guaranteed to satisfy
// the repositories' invariants.
func (d *Database) Handle() *gorm.DB {
	return d.db
}
