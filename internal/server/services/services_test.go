package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/verarta/artledger/internal/logging"
	"github.com/verarta/artledger/internal/server/auth"
	"github.com/verarta/artledger/internal/server/models"
	"github.com/verarta/artledger/internal/server/repositories/memstore"
	"github.com/verarta/artledger/internal/server/repositories/repomanager"
)

// 2025-06-18T12:00:00Z, a Wednesday.
const testNow int64 = 1750248000

var (
	alice   = auth.Caller{Account: "alice"}
	bob     = auth.Caller{Account: "bob"}
	service = auth.Caller{IsService: true}

	testPubKey  = strings.Repeat("A", 44)
	testPubKey2 = strings.Repeat("B", 44)
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func fixedNow() int64 { return testNow }

func newTestStore() *memstore.MemoryStore {
	return memstore.NewMemoryStore()
}

// seedArtwork inserts an artwork directly, bypassing service validation.
func seedArtwork(t *testing.T, store repomanager.Store, artworkID uint64, owner string, fileCount uint32) {
	t.Helper()
	err := store.InTx(context.Background(), func(ctx context.Context, r repomanager.Repos) error {
		return r.Artworks().Create(ctx, &models.Artwork{
			ArtworkID:        artworkID,
			Owner:            owner,
			TitleCipher:      "dGl0bGU=",
			CreatorPublicKey: testPubKey,
			CreatedAt:        testNow,
			FileCount:        fileCount,
		})
	})
	require.NoError(t, err)
}

// seedFile inserts a file directly, bypassing quota and escrow checks.
func seedFile(t *testing.T, store repomanager.Store, f models.File) {
	t.Helper()
	if f.FilenameCipher == "" {
		f.FilenameCipher = "bmFtZQ=="
	}
	if f.MimeType == "" {
		f.MimeType = "image/png"
	}
	if f.FileSize == 0 {
		f.FileSize = 1024
	}
	if f.UserEncryptedDEK == "" {
		f.UserEncryptedDEK = "ZGVr"
	}
	if f.IV == "" {
		f.IV = "aXY="
	}
	if f.AuthTag == "" {
		f.AuthTag = "dGFn"
	}
	err := store.InTx(context.Background(), func(ctx context.Context, r repomanager.Repos) error {
		return r.Files().Create(ctx, &f)
	})
	require.NoError(t, err)
}

// seedAdminKey inserts an admin key directly.
func seedAdminKey(t *testing.T, store repomanager.Store, keyID uint64, account, publicKey string, active bool) {
	t.Helper()
	err := store.InTx(context.Background(), func(ctx context.Context, r repomanager.Repos) error {
		return r.AdminKeys().Create(ctx, &models.AdminKey{
			KeyID:        keyID,
			AdminAccount: account,
			PublicKey:    publicKey,
			Description:  "escrow key",
			AddedAt:      testNow,
			IsActive:     active,
		})
	})
	require.NoError(t, err)
}
