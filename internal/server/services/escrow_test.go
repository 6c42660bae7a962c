package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verarta/artledger/internal/ledgererr"
	"github.com/verarta/artledger/internal/server/models"
	"github.com/verarta/artledger/internal/server/repositories/repomanager"
)

func newEscrowService(store repomanager.Store) *EscrowService {
	s := NewEscrowService(store, testLogger())
	s.now = fixedNow
	return s
}

func TestAddAdminKeyValidation(t *testing.T) {
	store := newTestStore()
	s := newEscrowService(store)
	ctx := context.Background()

	valid := AddAdminKeyParams{
		AdminAccount: "admin1",
		PublicKey:    testPubKey,
		Description:  "recovery key",
	}

	t.Run("non-service caller denied", func(t *testing.T) {
		_, err := s.AddAdminKey(ctx, alice, valid)
		assert.ErrorIs(t, err, ledgererr.ErrPermissionDenied)
	})

	t.Run("empty account", func(t *testing.T) {
		p := valid
		p.AdminAccount = ""
		_, err := s.AddAdminKey(ctx, service, p)
		assert.ErrorIs(t, err, ledgererr.ErrInvalidArgument)
	})

	t.Run("short public key", func(t *testing.T) {
		p := valid
		p.PublicKey = "short"
		_, err := s.AddAdminKey(ctx, service, p)
		assert.ErrorIs(t, err, ledgererr.ErrInvalidArgument)
	})

	t.Run("empty description", func(t *testing.T) {
		p := valid
		p.Description = ""
		_, err := s.AddAdminKey(ctx, service, p)
		assert.ErrorIs(t, err, ledgererr.ErrInvalidArgument)
	})

	t.Run("oversized description", func(t *testing.T) {
		p := valid
		p.Description = strings.Repeat("x", maxKeyDescriptionLen+1)
		_, err := s.AddAdminKey(ctx, service, p)
		assert.ErrorIs(t, err, ledgererr.ErrInvalidArgument)
	})
}

func TestAddAdminKeyMonotonicIDs(t *testing.T) {
	store := newTestStore()
	s := newEscrowService(store)
	ctx := context.Background()

	k1, err := s.AddAdminKey(ctx, service, AddAdminKeyParams{
		AdminAccount: "admin1", PublicKey: testPubKey, Description: "first",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), k1.KeyID)
	assert.True(t, k1.IsActive)
	assert.Equal(t, testNow, k1.AddedAt)

	k2, err := s.AddAdminKey(ctx, service, AddAdminKeyParams{
		AdminAccount: "admin2", PublicKey: testPubKey2, Description: "second",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), k2.KeyID)

	// deactivated keys keep their ids reserved
	require.NoError(t, s.RemoveAdminKey(ctx, service, 2))

	k3, err := s.AddAdminKey(ctx, service, AddAdminKeyParams{
		AdminAccount: "admin3", PublicKey: strings.Repeat("C", 44), Description: "third",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), k3.KeyID)
}

func TestAddAdminKeyDuplicatePublicKey(t *testing.T) {
	store := newTestStore()
	s := newEscrowService(store)
	ctx := context.Background()

	_, err := s.AddAdminKey(ctx, service, AddAdminKeyParams{
		AdminAccount: "admin1", PublicKey: testPubKey, Description: "first",
	})
	require.NoError(t, err)

	// uniqueness covers deactivated keys too
	require.NoError(t, s.RemoveAdminKey(ctx, service, 1))

	_, err = s.AddAdminKey(ctx, service, AddAdminKeyParams{
		AdminAccount: "admin2", PublicKey: testPubKey, Description: "reuse",
	})
	assert.ErrorIs(t, err, ledgererr.ErrAlreadyExists)
}

func TestRemoveAdminKey(t *testing.T) {
	store := newTestStore()
	s := newEscrowService(store)
	ctx := context.Background()

	t.Run("non-service caller denied", func(t *testing.T) {
		assert.ErrorIs(t, s.RemoveAdminKey(ctx, alice, 1), ledgererr.ErrPermissionDenied)
	})

	t.Run("unknown key", func(t *testing.T) {
		assert.ErrorIs(t, s.RemoveAdminKey(ctx, service, 99), ledgererr.ErrNotFound)
	})

	t.Run("deactivates and drops from active listing", func(t *testing.T) {
		seedAdminKey(t, store, 1, "admin1", testPubKey, true)
		seedAdminKey(t, store, 2, "admin2", testPubKey2, true)

		require.NoError(t, s.RemoveAdminKey(ctx, service, 1))

		keys, err := s.ListActiveKeys(ctx)
		require.NoError(t, err)
		require.Len(t, keys, 1)
		assert.Equal(t, uint64(2), keys[0].KeyID)
	})
}

func TestAddAdminDekCatchUp(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*EscrowService, repomanager.Store) {
		store := newTestStore()
		s := newEscrowService(store)
		seedAdminKey(t, store, 1, "admin1", testPubKey, true)
		seedAdminKey(t, store, 2, "admin2", testPubKey2, true)
		seedArtwork(t, store, 1, "alice", 1)
		seedFile(t, store, models.File{
			FileID: 10, ArtworkID: 1, Owner: "alice",
			AdminEncryptedDEKs: []string{"dek-for-key-1"},
		})
		return s, store
	}

	t.Run("non-service caller denied", func(t *testing.T) {
		s, _ := setup(t)
		assert.ErrorIs(t, s.AddAdminDek(ctx, alice, 10, "dek"), ledgererr.ErrPermissionDenied)
	})

	t.Run("unknown file", func(t *testing.T) {
		s, _ := setup(t)
		assert.ErrorIs(t, s.AddAdminDek(ctx, service, 99, "dek"), ledgererr.ErrNotFound)
	})

	t.Run("empty dek", func(t *testing.T) {
		s, _ := setup(t)
		assert.ErrorIs(t, s.AddAdminDek(ctx, service, 10, ""), ledgererr.ErrInvalidArgument)
	})

	t.Run("appends until saturated", func(t *testing.T) {
		s, store := setup(t)

		require.NoError(t, s.AddAdminDek(ctx, service, 10, "dek-for-key-2"))

		var deks []string
		err := store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
			f, err := r.Files().Get(ctx, 10)
			if err != nil {
				return err
			}
			deks = f.AdminEncryptedDEKs
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"dek-for-key-1", "dek-for-key-2"}, deks)

		// a saturated escrow set rejects further catch-up
		err = s.AddAdminDek(ctx, service, 10, "extra")
		assert.ErrorIs(t, err, ledgererr.ErrFailedPrecondition)
	})

	t.Run("deactivating a key lowers the saturation point", func(t *testing.T) {
		s, _ := setup(t)

		require.NoError(t, s.RemoveAdminKey(ctx, service, 2))

		// one escrow entry, one active key: already saturated
		err := s.AddAdminDek(ctx, service, 10, "dek-for-key-2")
		assert.ErrorIs(t, err, ledgererr.ErrFailedPrecondition)
	})
}

func TestListActiveKeysOrdered(t *testing.T) {
	store := newTestStore()
	s := newEscrowService(store)

	seedAdminKey(t, store, 3, "admin3", strings.Repeat("C", 44), true)
	seedAdminKey(t, store, 1, "admin1", testPubKey, true)
	seedAdminKey(t, store, 2, "admin2", testPubKey2, false)

	keys, err := s.ListActiveKeys(context.Background())
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, uint64(1), keys[0].KeyID)
	assert.Equal(t, uint64(3), keys[1].KeyID)
}
