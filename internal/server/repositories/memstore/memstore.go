// Package memstore is an in-memory implementation of the record store. It
// backs service tests and the "memory:" DSN used for local development.
//
// Atomicity is provided by snapshotting every table at transaction start and
// restoring the snapshot when the transaction function returns an error, so
// a failed precondition leaves no partial effect, exactly like the SQL
// store's rollback.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/verarta/artledger/internal/ledgererr"
	"github.com/verarta/artledger/internal/server/models"
	"github.com/verarta/artledger/internal/server/repositories/accesslogs"
	"github.com/verarta/artledger/internal/server/repositories/adminkeys"
	"github.com/verarta/artledger/internal/server/repositories/artworks"
	"github.com/verarta/artledger/internal/server/repositories/chunks"
	"github.com/verarta/artledger/internal/server/repositories/files"
	"github.com/verarta/artledger/internal/server/repositories/quotas"
	"github.com/verarta/artledger/internal/server/repositories/repomanager"
)

type tables struct {
	artworks   map[uint64]models.Artwork
	files      map[uint64]models.File
	chunks     map[uint64]models.Chunk
	quotas     map[string]models.UsageQuota
	adminKeys  map[uint64]models.AdminKey
	accessLogs map[uint64]models.AccessLog
}

func newTables() tables {
	return tables{
		artworks:   map[uint64]models.Artwork{},
		files:      map[uint64]models.File{},
		chunks:     map[uint64]models.Chunk{},
		quotas:     map[string]models.UsageQuota{},
		adminKeys:  map[uint64]models.AdminKey{},
		accessLogs: map[uint64]models.AccessLog{},
	}
}

func (t tables) clone() tables {
	c := newTables()
	for k, v := range t.artworks {
		c.artworks[k] = v
	}
	for k, v := range t.files {
		v.AdminEncryptedDEKs = slices.Clone(v.AdminEncryptedDEKs)
		c.files[k] = v
	}
	for k, v := range t.chunks {
		c.chunks[k] = v
	}
	for k, v := range t.quotas {
		c.quotas[k] = v
	}
	for k, v := range t.adminKeys {
		c.adminKeys[k] = v
	}
	for k, v := range t.accessLogs {
		c.accessLogs[k] = v
	}
	return c
}

// MemoryStore is a repomanager.Store over process-local maps.
type MemoryStore struct {
	mu sync.Mutex
	t  tables
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{t: newTables()}
}

// InTx serializes transactions with a mutex and rolls back by restoring the
// pre-transaction snapshot on error.
func (s *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, r repomanager.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.t.clone()
	if err := fn(ctx, memRepos{t: &s.t}); err != nil {
		s.t = snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) RunMigrations(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

type memRepos struct {
	t *tables
}

func (r memRepos) Artworks() artworks.Repository     { return artworkRepo{r.t} }
func (r memRepos) Files() files.Repository           { return fileRepo{r.t} }
func (r memRepos) Chunks() chunks.Repository         { return chunkRepo{r.t} }
func (r memRepos) Quotas() quotas.Repository         { return quotaRepo{r.t} }
func (r memRepos) AdminKeys() adminkeys.Repository   { return adminKeyRepo{r.t} }
func (r memRepos) AccessLogs() accesslogs.Repository { return accessLogRepo{r.t} }

// --- artworks ---

type artworkRepo struct{ t *tables }

func (r artworkRepo) Create(ctx context.Context, a *models.Artwork) error {
	if _, ok := r.t.artworks[a.ArtworkID]; ok {
		return ledgererr.ErrAlreadyExists
	}
	r.t.artworks[a.ArtworkID] = *a
	return nil
}

func (r artworkRepo) Get(ctx context.Context, id uint64) (*models.Artwork, error) {
	a, ok := r.t.artworks[id]
	if !ok {
		return nil, ledgererr.ErrNotFound
	}
	return &a, nil
}

func (r artworkRepo) modify(id uint64, fn func(a *models.Artwork)) error {
	a, ok := r.t.artworks[id]
	if !ok {
		return ledgererr.ErrNotFound
	}
	fn(&a)
	r.t.artworks[id] = a
	return nil
}

func (r artworkRepo) UpdateCiphers(ctx context.Context, id uint64, descriptionCipher, metadataCipher string) error {
	return r.modify(id, func(a *models.Artwork) {
		a.DescriptionCipher = descriptionCipher
		a.MetadataCipher = metadataCipher
	})
}

func (r artworkRepo) SetOwner(ctx context.Context, id uint64, owner string) error {
	return r.modify(id, func(a *models.Artwork) { a.Owner = owner })
}

func (r artworkRepo) IncrementFileCount(ctx context.Context, id uint64) error {
	return r.modify(id, func(a *models.Artwork) { a.FileCount++ })
}

func (r artworkRepo) DecrementFileCount(ctx context.Context, id uint64) error {
	return r.modify(id, func(a *models.Artwork) {
		if a.FileCount > 0 {
			a.FileCount--
		}
	})
}

func (r artworkRepo) Delete(ctx context.Context, id uint64) error {
	if _, ok := r.t.artworks[id]; !ok {
		return ledgererr.ErrNotFound
	}
	delete(r.t.artworks, id)
	return nil
}

// --- files ---

type fileRepo struct{ t *tables }

func (r fileRepo) Create(ctx context.Context, f *models.File) error {
	if _, ok := r.t.files[f.FileID]; ok {
		return ledgererr.ErrAlreadyExists
	}
	c := *f
	c.AdminEncryptedDEKs = slices.Clone(f.AdminEncryptedDEKs)
	r.t.files[f.FileID] = c
	return nil
}

func (r fileRepo) Get(ctx context.Context, id uint64) (*models.File, error) {
	f, ok := r.t.files[id]
	if !ok {
		return nil, ledgererr.ErrNotFound
	}
	f.AdminEncryptedDEKs = slices.Clone(f.AdminEncryptedDEKs)
	return &f, nil
}

func (r fileRepo) ListByArtwork(ctx context.Context, artworkID uint64) ([]*models.File, error) {
	var result []*models.File
	for _, f := range r.t.files {
		if f.ArtworkID == artworkID {
			f.AdminEncryptedDEKs = slices.Clone(f.AdminEncryptedDEKs)
			result = append(result, &f)
		}
	}
	slices.SortFunc(result, func(a, b *models.File) int {
		return cmp.Compare(a.FileID, b.FileID)
	})
	return result, nil
}

func (r fileRepo) modify(id uint64, fn func(f *models.File)) error {
	f, ok := r.t.files[id]
	if !ok {
		return ledgererr.ErrNotFound
	}
	fn(&f)
	r.t.files[id] = f
	return nil
}

func (r fileRepo) IncrementUploadedChunks(ctx context.Context, id uint64) error {
	return r.modify(id, func(f *models.File) { f.UploadedChunks++ })
}

func (r fileRepo) MarkComplete(ctx context.Context, id uint64, totalChunks uint32, completedAt int64) error {
	return r.modify(id, func(f *models.File) {
		f.TotalChunks = totalChunks
		f.UploadComplete = true
		f.CompletedAt = completedAt
	})
}

func (r fileRepo) Transfer(ctx context.Context, id uint64, newOwner, newUserEncryptedDEK, newAuthTag string) error {
	return r.modify(id, func(f *models.File) {
		f.Owner = newOwner
		f.UserEncryptedDEK = newUserEncryptedDEK
		f.AuthTag = newAuthTag
	})
}

func (r fileRepo) AppendAdminDEK(ctx context.Context, id uint64, encryptedDEK string) error {
	return r.modify(id, func(f *models.File) {
		f.AdminEncryptedDEKs = append(slices.Clone(f.AdminEncryptedDEKs), encryptedDEK)
	})
}

func (r fileRepo) Delete(ctx context.Context, id uint64) error {
	if _, ok := r.t.files[id]; !ok {
		return ledgererr.ErrNotFound
	}
	delete(r.t.files, id)
	return nil
}

// --- chunks ---

type chunkRepo struct{ t *tables }

func (r chunkRepo) Create(ctx context.Context, c *models.Chunk) error {
	if _, ok := r.t.chunks[c.ChunkID]; ok {
		return ledgererr.ErrAlreadyExists
	}
	r.t.chunks[c.ChunkID] = *c
	return nil
}

func (r chunkRepo) Exists(ctx context.Context, chunkID uint64) (bool, error) {
	_, ok := r.t.chunks[chunkID]
	return ok, nil
}

func (r chunkRepo) ExistsAtIndex(ctx context.Context, fileID uint64, chunkIndex uint32) (bool, error) {
	for _, c := range r.t.chunks {
		if c.FileID == fileID && c.ChunkIndex == chunkIndex {
			return true, nil
		}
	}
	return false, nil
}

func (r chunkRepo) ListByFile(ctx context.Context, fileID uint64) ([]*models.Chunk, error) {
	var result []*models.Chunk
	for _, c := range r.t.chunks {
		if c.FileID == fileID {
			c.Payload = ""
			result = append(result, &c)
		}
	}
	slices.SortFunc(result, func(a, b *models.Chunk) int {
		return cmp.Compare(a.ChunkIndex, b.ChunkIndex)
	})
	return result, nil
}

func (r chunkRepo) GetPayload(ctx context.Context, chunkID uint64) (string, error) {
	c, ok := r.t.chunks[chunkID]
	if !ok {
		return "", ledgererr.ErrNotFound
	}
	return c.Payload, nil
}

func (r chunkRepo) DeleteByFile(ctx context.Context, fileID uint64) (int64, error) {
	var n int64
	for id, c := range r.t.chunks {
		if c.FileID == fileID {
			delete(r.t.chunks, id)
			n++
		}
	}
	return n, nil
}

// --- quotas ---

type quotaRepo struct{ t *tables }

func (r quotaRepo) Get(ctx context.Context, account string) (*models.UsageQuota, error) {
	q, ok := r.t.quotas[account]
	if !ok {
		return nil, ledgererr.ErrNotFound
	}
	return &q, nil
}

func (r quotaRepo) Create(ctx context.Context, q *models.UsageQuota) error {
	if _, ok := r.t.quotas[q.Account]; ok {
		return ledgererr.ErrAlreadyExists
	}
	r.t.quotas[q.Account] = *q
	return nil
}

func (r quotaRepo) Replace(ctx context.Context, q *models.UsageQuota) error {
	if _, ok := r.t.quotas[q.Account]; !ok {
		return ledgererr.ErrNotFound
	}
	r.t.quotas[q.Account] = *q
	return nil
}

// --- admin keys ---

type adminKeyRepo struct{ t *tables }

func (r adminKeyRepo) Create(ctx context.Context, k *models.AdminKey) error {
	if _, ok := r.t.adminKeys[k.KeyID]; ok {
		return ledgererr.ErrAlreadyExists
	}
	r.t.adminKeys[k.KeyID] = *k
	return nil
}

func (r adminKeyRepo) Get(ctx context.Context, keyID uint64) (*models.AdminKey, error) {
	k, ok := r.t.adminKeys[keyID]
	if !ok {
		return nil, ledgererr.ErrNotFound
	}
	return &k, nil
}

func (r adminKeyRepo) NextKeyID(ctx context.Context) (uint64, error) {
	next := uint64(1)
	for id := range r.t.adminKeys {
		if id >= next {
			next = id + 1
		}
	}
	return next, nil
}

func (r adminKeyRepo) PublicKeyExists(ctx context.Context, publicKey string) (bool, error) {
	for _, k := range r.t.adminKeys {
		if k.PublicKey == publicKey {
			return true, nil
		}
	}
	return false, nil
}

func (r adminKeyRepo) CountActive(ctx context.Context) (int, error) {
	count := 0
	for _, k := range r.t.adminKeys {
		if k.IsActive {
			count++
		}
	}
	return count, nil
}

func (r adminKeyRepo) ListActive(ctx context.Context) ([]*models.AdminKey, error) {
	var result []*models.AdminKey
	for _, k := range r.t.adminKeys {
		if k.IsActive {
			result = append(result, &k)
		}
	}
	slices.SortFunc(result, func(a, b *models.AdminKey) int {
		return cmp.Compare(a.KeyID, b.KeyID)
	})
	return result, nil
}

func (r adminKeyRepo) HasActiveForAccount(ctx context.Context, adminAccount string) (bool, error) {
	for _, k := range r.t.adminKeys {
		if k.AdminAccount == adminAccount && k.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (r adminKeyRepo) Deactivate(ctx context.Context, keyID uint64) error {
	k, ok := r.t.adminKeys[keyID]
	if !ok {
		return ledgererr.ErrNotFound
	}
	k.IsActive = false
	r.t.adminKeys[keyID] = k
	return nil
}

// --- access logs ---

type accessLogRepo struct{ t *tables }

func (r accessLogRepo) NextLogID(ctx context.Context) (uint64, error) {
	next := uint64(1)
	for id := range r.t.accessLogs {
		if id >= next {
			next = id + 1
		}
	}
	return next, nil
}

func (r accessLogRepo) Create(ctx context.Context, l *models.AccessLog) error {
	if _, ok := r.t.accessLogs[l.LogID]; ok {
		return ledgererr.ErrAlreadyExists
	}
	r.t.accessLogs[l.LogID] = *l
	return nil
}

func (r accessLogRepo) ListByFile(ctx context.Context, fileID uint64) ([]*models.AccessLog, error) {
	var result []*models.AccessLog
	for _, l := range r.t.accessLogs {
		if l.FileID == fileID {
			result = append(result, &l)
		}
	}
	slices.SortFunc(result, func(a, b *models.AccessLog) int {
		return cmp.Compare(a.LogID, b.LogID)
	})
	return result, nil
}
