package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verarta/artledger/internal/ledgererr"
	"github.com/verarta/artledger/internal/server/auth"
	"github.com/verarta/artledger/internal/server/models"
	"github.com/verarta/artledger/internal/server/repositories/repomanager"
)

func newAuditService(store repomanager.Store) *AuditService {
	s := NewAuditService(store, testLogger())
	s.now = fixedNow
	return s
}

func auditFixture(t *testing.T) (*AuditService, repomanager.Store) {
	store := newTestStore()
	s := newAuditService(store)
	seedAdminKey(t, store, 1, "admin1", testPubKey, true)
	seedArtwork(t, store, 1, "alice", 1)
	seedFile(t, store, models.File{FileID: 10, ArtworkID: 1, Owner: "alice"})
	return s, store
}

func TestLogAccessAuthorization(t *testing.T) {
	ctx := context.Background()
	admin1 := auth.Caller{Account: "admin1"}

	t.Run("caller must be the admin account", func(t *testing.T) {
		s, _ := auditFixture(t)
		_, err := s.LogAccess(ctx, alice, "admin1", 10, "support request")
		assert.ErrorIs(t, err, ledgererr.ErrPermissionDenied)
	})

	t.Run("service identity cannot log on behalf of an admin", func(t *testing.T) {
		s, _ := auditFixture(t)
		_, err := s.LogAccess(ctx, service, "admin1", 10, "support request")
		assert.ErrorIs(t, err, ledgererr.ErrPermissionDenied)
	})

	t.Run("admin without an active key denied", func(t *testing.T) {
		s, _ := auditFixture(t)
		stranger := auth.Caller{Account: "admin2"}
		_, err := s.LogAccess(ctx, stranger, "admin2", 10, "support request")
		assert.ErrorIs(t, err, ledgererr.ErrPermissionDenied)
	})

	t.Run("admin with only a deactivated key denied", func(t *testing.T) {
		s, store := auditFixture(t)
		seedAdminKey(t, store, 2, "admin2", testPubKey2, false)
		caller := auth.Caller{Account: "admin2"}
		_, err := s.LogAccess(ctx, caller, "admin2", 10, "support request")
		assert.ErrorIs(t, err, ledgererr.ErrPermissionDenied)
	})

	t.Run("unknown file", func(t *testing.T) {
		s, _ := auditFixture(t)
		_, err := s.LogAccess(ctx, admin1, "admin1", 99, "support request")
		assert.ErrorIs(t, err, ledgererr.ErrNotFound)
	})
}

func TestLogAccessValidation(t *testing.T) {
	ctx := context.Background()
	admin1 := auth.Caller{Account: "admin1"}
	s, _ := auditFixture(t)

	_, err := s.LogAccess(ctx, admin1, "admin1", 10, "")
	assert.ErrorIs(t, err, ledgererr.ErrInvalidArgument)

	_, err = s.LogAccess(ctx, admin1, "admin1", 10, strings.Repeat("x", maxReasonLen+1))
	assert.ErrorIs(t, err, ledgererr.ErrInvalidArgument)

	_, err = s.LogAccess(ctx, admin1, "admin1", 0, "reason")
	assert.ErrorIs(t, err, ledgererr.ErrInvalidArgument)
}

func TestLogAccessAppendsMonotonically(t *testing.T) {
	ctx := context.Background()
	admin1 := auth.Caller{Account: "admin1"}
	s, store := auditFixture(t)
	seedAdminKey(t, store, 2, "admin2", testPubKey2, true)
	admin2 := auth.Caller{Account: "admin2"}

	e1, err := s.LogAccess(ctx, admin1, "admin1", 10, "dispute review")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), e1.LogID)
	assert.Equal(t, testNow, e1.AccessedAt)

	e2, err := s.LogAccess(ctx, admin2, "admin2", 10, "second opinion")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), e2.LogID)

	entries, err := s.ListFileAccess(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "admin1", entries[0].AdminAccount)
	assert.Equal(t, "dispute review", entries[0].Reason)
	assert.Equal(t, "admin2", entries[1].AdminAccount)
}

func TestListFileAccessUnknownFile(t *testing.T) {
	s, _ := auditFixture(t)
	_, err := s.ListFileAccess(context.Background(), 99)
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)
}
