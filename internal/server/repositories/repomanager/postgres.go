package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/verarta/artledger/internal/dbx"
	"github.com/verarta/artledger/internal/server/migrations"
	"github.com/verarta/artledger/internal/server/repositories/accesslogs"
	"github.com/verarta/artledger/internal/server/repositories/adminkeys"
	"github.com/verarta/artledger/internal/server/repositories/artworks"
	"github.com/verarta/artledger/internal/server/repositories/chunks"
	"github.com/verarta/artledger/internal/server/repositories/files"
	"github.com/verarta/artledger/internal/server/repositories/quotas"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresStore is the production Store: one *sql.DB (pgx), repositories
// bound per transaction, schema managed by embedded goose migrations.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens the database identified by dsn.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// txRepos binds every repository to the same transactional handle.
type txRepos struct {
	tx dbx.DBTX
}

func (r txRepos) Artworks() artworks.Repository     { return artworks.NewPostgresRepository(r.tx) }
func (r txRepos) Files() files.Repository           { return files.NewPostgresRepository(r.tx) }
func (r txRepos) Chunks() chunks.Repository         { return chunks.NewPostgresRepository(r.tx) }
func (r txRepos) Quotas() quotas.Repository         { return quotas.NewPostgresRepository(r.tx) }
func (r txRepos) AdminKeys() adminkeys.Repository   { return adminkeys.NewPostgresRepository(r.tx) }
func (r txRepos) AccessLogs() accesslogs.Repository { return accesslogs.NewPostgresRepository(r.tx) }

func (s *PostgresStore) InTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, txRepos{tx: tx})
	})
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the store's database connection.
func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, s.db, ".")
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
