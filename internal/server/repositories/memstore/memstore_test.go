package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verarta/artledger/internal/server/models"
	"github.com/verarta/artledger/internal/server/repositories/repomanager"
)

func TestInTxRollsBackOnError(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		require.NoError(t, r.Artworks().Create(ctx, &models.Artwork{ArtworkID: 1, Owner: "alice"}))
		require.NoError(t, r.Files().Create(ctx, &models.File{FileID: 10, ArtworkID: 1, Owner: "alice"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		_, err := r.Artworks().Get(ctx, 1)
		assert.Error(t, err)
		_, err = r.Files().Get(ctx, 10)
		assert.Error(t, err)
		return nil
	})
	require.NoError(t, err)
}

func TestInTxCommitsOnSuccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		return r.Artworks().Create(ctx, &models.Artwork{ArtworkID: 1, Owner: "alice"})
	})
	require.NoError(t, err)

	err = store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		a, err := r.Artworks().Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "alice", a.Owner)
		return nil
	})
	require.NoError(t, err)
}

func TestRollbackRestoresEscrowSlices(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		return r.Files().Create(ctx, &models.File{
			FileID: 10, ArtworkID: 1, Owner: "alice",
			AdminEncryptedDEKs: []string{"dek-1"},
		})
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		require.NoError(t, r.Files().AppendAdminDEK(ctx, 10, "dek-2"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		f, err := r.Files().Get(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"dek-1"}, f.AdminEncryptedDEKs)
		return nil
	})
	require.NoError(t, err)
}
