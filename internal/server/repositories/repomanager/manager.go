// Package repomanager defines the atomic keyed record store the ledger is
// built on: a bundle of per-entity repositories plus a transaction boundary.
// Every external ledger operation runs inside exactly one InTx call.
package repomanager

import (
	"context"

	"github.com/verarta/artledger/internal/server/repositories/accesslogs"
	"github.com/verarta/artledger/internal/server/repositories/adminkeys"
	"github.com/verarta/artledger/internal/server/repositories/artworks"
	"github.com/verarta/artledger/internal/server/repositories/chunks"
	"github.com/verarta/artledger/internal/server/repositories/files"
	"github.com/verarta/artledger/internal/server/repositories/quotas"
)

// Repos is the set of repositories visible inside one transaction. All reads
// and writes performed through it either commit together or not at all.
type Repos interface {
	Artworks() artworks.Repository
	Files() files.Repository
	Chunks() chunks.Repository
	Quotas() quotas.Repository
	AdminKeys() adminkeys.Repository
	AccessLogs() accesslogs.Repository
}

// Store executes functions atomically against the record store.
type Store interface {
	// InTx runs fn inside one transaction. If fn returns an error the
	// transaction is rolled back and the error is returned unchanged.
	InTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
	RunMigrations(ctx context.Context) error
	Close() error
}
