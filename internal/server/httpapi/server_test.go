package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verarta/artledger/internal/logging"
	"github.com/verarta/artledger/internal/server/auth"
	"github.com/verarta/artledger/internal/server/config"
	"github.com/verarta/artledger/internal/server/repositories/memstore"
	"github.com/verarta/artledger/internal/server/services"
)

const testServiceKey = "service-api-key"

func newTestServer(t *testing.T) *Server {
	t.Helper()

	hash, err := auth.HashServiceKey(testServiceKey)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.ServiceAPIKeyHash = hash
	cfg.TokenValidityDuration = time.Minute

	store := memstore.NewMemoryStore()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	quota := services.NewQuotaService(store, logger)
	ledger := services.NewLedgerService(store, quota, logger)
	escrow := services.NewEscrowService(store, logger)
	audit := services.NewAuditService(store, logger)
	archive := services.NewArchiveService(store, cfg, logger)

	return NewServer(cfg, ledger, quota, escrow, audit, archive)
}

func bearerFor(t *testing.T, s *Server, account string) string {
	t.Helper()
	token, err := auth.GenerateToken(account, []byte(s.config.SecretKey), time.Minute)
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(s *Server, method, path, authz, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authz != "" {
		if strings.HasPrefix(authz, "Bearer ") {
			req.Header.Set("Authorization", authz)
		} else {
			req.Header.Set("X-Api-Key", authz)
		}
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

const createArtworkBody = `{
	"artwork_id": 1,
	"owner": "alice",
	"title_cipher": "dGl0bGU=",
	"creator_public_key": "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="
}`

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(s, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	t.Run("no credentials", func(t *testing.T) {
		rec := doJSON(s, http.MethodGet, "/api/artworks/1", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		rec := doJSON(s, http.MethodGet, "/api/artworks/1", "Bearer garbage", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong api key", func(t *testing.T) {
		rec := doJSON(s, http.MethodGet, "/api/artworks/1", "wrong-key", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCreateArtworkEndpoint(t *testing.T) {
	s := newTestServer(t)
	aliceAuth := bearerFor(t, s, "alice")

	rec := doJSON(s, http.MethodPost, "/api/artworks", aliceAuth, createArtworkBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var dto artworkDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, uint64(1), dto.ArtworkID)
	assert.Equal(t, "alice", dto.Owner)

	t.Run("duplicate maps to 409", func(t *testing.T) {
		rec := doJSON(s, http.MethodPost, "/api/artworks", aliceAuth, createArtworkBody)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("another account maps to 403", func(t *testing.T) {
		rec := doJSON(s, http.MethodPost, "/api/artworks", bearerFor(t, s, "bob"), createArtworkBody)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("get round trip", func(t *testing.T) {
		rec := doJSON(s, http.MethodGet, "/api/artworks/1", aliceAuth, "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown id maps to 404", func(t *testing.T) {
		rec := doJSON(s, http.MethodGet, "/api/artworks/99", aliceAuth, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-numeric id maps to 400", func(t *testing.T) {
		rec := doJSON(s, http.MethodGet, "/api/artworks/abc", aliceAuth, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestValidationMapsTo400(t *testing.T) {
	s := newTestServer(t)

	body := `{"artwork_id": 0, "owner": "alice", "title_cipher": "x", "creator_public_key": "short"}`
	rec := doJSON(s, http.MethodPost, "/api/artworks", bearerFor(t, s, "alice"), body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errBody map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.NotEmpty(t, errBody["error"])
	assert.NotEmpty(t, errBody["request_id"])
}

func TestServiceKeyOperations(t *testing.T) {
	s := newTestServer(t)

	t.Run("set quota with api key", func(t *testing.T) {
		body := `{
			"account": "alice", "tier": 1,
			"daily_file_limit": 5, "daily_size_limit": 1000,
			"weekly_file_limit": 20, "weekly_size_limit": 4000
		}`
		rec := doJSON(s, http.MethodPost, "/api/quotas", testServiceKey, body)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = doJSON(s, http.MethodGet, "/api/quotas/alice", testServiceKey, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var q quotaDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
		assert.Equal(t, uint8(1), q.Tier)
		assert.Equal(t, uint32(5), q.DailyFileLimit)
	})

	t.Run("quota for account caller maps to 403", func(t *testing.T) {
		body := `{
			"account": "alice", "tier": 0,
			"daily_file_limit": 5, "daily_size_limit": 1000,
			"weekly_file_limit": 20, "weekly_size_limit": 4000
		}`
		rec := doJSON(s, http.MethodPost, "/api/quotas", bearerFor(t, s, "alice"), body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin key lifecycle", func(t *testing.T) {
		body := `{
			"admin_account": "admin1",
			"public_key": "BBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB=",
			"description": "recovery"
		}`
		rec := doJSON(s, http.MethodPost, "/api/admin-keys", testServiceKey, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var k adminKeyDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &k))
		assert.Equal(t, uint64(1), k.KeyID)

		rec = doJSON(s, http.MethodGet, "/api/admin-keys", testServiceKey, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var keys []adminKeyDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &keys))
		assert.Len(t, keys, 1)

		rec = doJSON(s, http.MethodDelete, "/api/admin-keys/1", testServiceKey, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestMintToken(t *testing.T) {
	s := newTestServer(t)

	t.Run("service mints a usable token", func(t *testing.T) {
		rec := doJSON(s, http.MethodPost, "/api/auth/token", testServiceKey, `{"account": "alice"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotEmpty(t, body["access_token"])

		rec = doJSON(s, http.MethodPost, "/api/artworks", "Bearer "+body["access_token"], createArtworkBody)
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("accounts cannot mint", func(t *testing.T) {
		rec := doJSON(s, http.MethodPost, "/api/auth/token", bearerFor(t, s, "alice"), `{"account": "bob"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestFileLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	aliceAuth := bearerFor(t, s, "alice")

	rec := doJSON(s, http.MethodPost, "/api/artworks", aliceAuth, createArtworkBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	fileBody := `{
		"file_id": 10, "artwork_id": 1, "owner": "alice",
		"filename_cipher": "bmFtZQ==", "mime_type": "image/png",
		"file_size": 1024,
		"content_hash": "abababababababababababababababababababababababababababababababab",
		"encrypted_dek": "ZGVr", "iv": "aXY=", "auth_tag": "dGFn"
	}`
	rec = doJSON(s, http.MethodPost, "/api/files", aliceAuth, fileBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	chunkBody := `{
		"chunk_id": 100, "file_id": 10, "owner": "alice",
		"chunk_index": 0, "chunk_data": "ZGF0YQ==", "chunk_size": 512
	}`
	rec = doJSON(s, http.MethodPost, "/api/chunks", aliceAuth, chunkBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	t.Run("duplicate chunk index maps to 409", func(t *testing.T) {
		dup := strings.Replace(chunkBody, `"chunk_id": 100`, `"chunk_id": 101`, 1)
		rec := doJSON(s, http.MethodPost, "/api/chunks", aliceAuth, dup)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("premature completion maps to 412", func(t *testing.T) {
		rec := doJSON(s, http.MethodPost, "/api/files/10/complete", aliceAuth, `{"owner": "alice", "total_chunks": 5}`)
		assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	})

	rec = doJSON(s, http.MethodPost, "/api/files/10/complete", aliceAuth, `{"owner": "alice", "total_chunks": 1}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	t.Run("manifest and payload", func(t *testing.T) {
		rec := doJSON(s, http.MethodGet, "/api/files/10/chunks", aliceAuth, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var manifest []chunkManifestDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &manifest))
		require.Len(t, manifest, 1)
		assert.Equal(t, uint64(100), manifest[0].ChunkID)

		rec = doJSON(s, http.MethodGet, "/api/chunks/100/payload", aliceAuth, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var payload map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "ZGF0YQ==", payload["chunk_data"])
	})
}

func TestQuotaExhaustionMapsTo429(t *testing.T) {
	s := newTestServer(t)
	aliceAuth := bearerFor(t, s, "alice")

	quotaBody := `{
		"account": "alice", "tier": 0,
		"daily_file_limit": 1, "daily_size_limit": 100000,
		"weekly_file_limit": 10, "weekly_size_limit": 1000000
	}`
	rec := doJSON(s, http.MethodPost, "/api/quotas", testServiceKey, quotaBody)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(s, http.MethodPost, "/api/artworks", aliceAuth, createArtworkBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	fileBody := `{
		"file_id": 10, "artwork_id": 1, "owner": "alice",
		"filename_cipher": "bmFtZQ==", "mime_type": "image/png",
		"file_size": 1024,
		"content_hash": "abababababababababababababababababababababababababababababababab",
		"encrypted_dek": "ZGVr", "iv": "aXY=", "auth_tag": "dGFn"
	}`
	rec = doJSON(s, http.MethodPost, "/api/files", aliceAuth, fileBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	second := strings.Replace(fileBody, `"file_id": 10`, `"file_id": 11`, 1)
	rec = doJSON(s, http.MethodPost, "/api/files", aliceAuth, second)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
