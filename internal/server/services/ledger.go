package services

import (
	"context"
	"fmt"

	"github.com/verarta/artledger/internal/ledgererr"
	"github.com/verarta/artledger/internal/logging"
	"github.com/verarta/artledger/internal/server/auth"
	"github.com/verarta/artledger/internal/server/models"
	"github.com/verarta/artledger/internal/server/repositories/repomanager"
)

// LedgerService owns the artwork → file → chunk lifecycle. It consults the
// quota engine before admitting a new file and the escrow manager for the
// creation-time parity check; everything an operation touches commits in
// one transaction or not at all.
type LedgerService struct {
	store  repomanager.Store
	quota  *QuotaService
	logger logging.Logger
	now    func() int64
}

func NewLedgerService(store repomanager.Store, quota *QuotaService, logger logging.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		quota:  quota,
		logger: logger.With("module", "ledger_service"),
		now:    unixNow,
	}
}

// CreateArtworkParams carries the fields of a new artwork record.
type CreateArtworkParams struct {
	ArtworkID         uint64
	Owner             string
	TitleCipher       string
	DescriptionCipher string
	MetadataCipher    string
	CreatorPublicKey  string
}

// CreateArtwork inserts a new artwork with zero files. Owner-only.
func (s *LedgerService) CreateArtwork(ctx context.Context, caller auth.Caller, p CreateArtworkParams) (*models.Artwork, error) {
	if !caller.Is(p.Owner) {
		return nil, fmt.Errorf("artworks are created by their owner: %w", ledgererr.ErrPermissionDenied)
	}
	if p.ArtworkID == 0 {
		return nil, fmt.Errorf("artwork_id must be positive: %w", ledgererr.ErrInvalidArgument)
	}
	if len(p.TitleCipher) == 0 {
		return nil, fmt.Errorf("title_cipher cannot be empty: %w", ledgererr.ErrInvalidArgument)
	}
	if len(p.TitleCipher) > maxTitleCipherLen {
		return nil, fmt.Errorf("title_cipher too long: %w", ledgererr.ErrInvalidArgument)
	}
	if len(p.DescriptionCipher) > maxDescriptionCipherLen {
		return nil, fmt.Errorf("description_cipher too long: %w", ledgererr.ErrInvalidArgument)
	}
	if len(p.MetadataCipher) > maxMetadataCipherLen {
		return nil, fmt.Errorf("metadata_cipher too long: %w", ledgererr.ErrInvalidArgument)
	}
	if len(p.CreatorPublicKey) != publicKeyLen {
		return nil, fmt.Errorf("invalid X25519 public key length: %w", ledgererr.ErrInvalidArgument)
	}

	now := s.now()

	var artwork *models.Artwork
	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		if _, err := r.Artworks().Get(ctx, p.ArtworkID); err == nil {
			return fmt.Errorf("artwork_id already exists: %w", ledgererr.ErrAlreadyExists)
		}

		artwork = &models.Artwork{
			ArtworkID:         p.ArtworkID,
			Owner:             p.Owner,
			TitleCipher:       p.TitleCipher,
			DescriptionCipher: p.DescriptionCipher,
			MetadataCipher:    p.MetadataCipher,
			CreatorPublicKey:  p.CreatorPublicKey,
			CreatedAt:         now,
		}
		return r.Artworks().Create(ctx, artwork)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "artwork created", "artwork_id", p.ArtworkID, "owner", p.Owner)
	return artwork, nil
}

// UpdateArtwork replaces the description and metadata ciphertexts.
// Owner-or-service; identity fields change only via TransferArtwork.
func (s *LedgerService) UpdateArtwork(ctx context.Context, caller auth.Caller, artworkID uint64, owner, descriptionCipher, metadataCipher string) error {
	if !caller.IsOrService(owner) {
		return fmt.Errorf("missing required authority: %w", ledgererr.ErrPermissionDenied)
	}
	if artworkID == 0 {
		return fmt.Errorf("artwork_id must be positive: %w", ledgererr.ErrInvalidArgument)
	}
	if len(descriptionCipher) > maxDescriptionCipherLen {
		return fmt.Errorf("description_cipher too long: %w", ledgererr.ErrInvalidArgument)
	}
	if len(metadataCipher) > maxMetadataCipherLen {
		return fmt.Errorf("metadata_cipher too long: %w", ledgererr.ErrInvalidArgument)
	}

	return s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		a, err := r.Artworks().Get(ctx, artworkID)
		if err != nil {
			return fmt.Errorf("artwork: %w", err)
		}
		if a.Owner != owner {
			return fmt.Errorf("artwork owner mismatch: %w", ledgererr.ErrPermissionDenied)
		}
		return r.Artworks().UpdateCiphers(ctx, artworkID, descriptionCipher, metadataCipher)
	})
}

// AddFileParams carries the fields of a new file record.
type AddFileParams struct {
	FileID             uint64
	ArtworkID          uint64
	Owner              string
	FilenameCipher     string
	MimeType           string
	FileSize           uint64
	ContentHash        string
	UserEncryptedDEK   string
	AdminEncryptedDEKs []string
	IV                 string
	AuthTag            string
	IsThumbnail        bool
}

// AddFile inserts an empty file record under an artwork. Owner-only. The
// quota engine is consulted before any record is written, and the escrow
// set must contain exactly one entry per currently active admin key.
func (s *LedgerService) AddFile(ctx context.Context, caller auth.Caller, p AddFileParams) (*models.File, error) {
	if !caller.Is(p.Owner) {
		return nil, fmt.Errorf("files are added by their owner: %w", ledgererr.ErrPermissionDenied)
	}
	if p.FileID == 0 {
		return nil, fmt.Errorf("file_id must be positive: %w", ledgererr.ErrInvalidArgument)
	}
	if p.ArtworkID == 0 {
		return nil, fmt.Errorf("artwork_id must be positive: %w", ledgererr.ErrInvalidArgument)
	}
	if len(p.FilenameCipher) == 0 {
		return nil, fmt.Errorf("filename_cipher cannot be empty: %w", ledgererr.ErrInvalidArgument)
	}
	if len(p.FilenameCipher) > maxFilenameCipherLen {
		return nil, fmt.Errorf("filename_cipher too long: %w", ledgererr.ErrInvalidArgument)
	}
	if len(p.MimeType) == 0 || len(p.MimeType) > maxMimeTypeLen {
		return nil, fmt.Errorf("invalid mime_type: %w", ledgererr.ErrInvalidArgument)
	}
	if p.FileSize == 0 {
		return nil, fmt.Errorf("file_size must be positive: %w", ledgererr.ErrInvalidArgument)
	}
	if p.FileSize > maxFileSize {
		return nil, fmt.Errorf("file_size exceeds 100MB limit: %w", ledgererr.ErrInvalidArgument)
	}
	if len(p.ContentHash) != contentHashLen {
		return nil, fmt.Errorf("content_hash must be a hex-encoded SHA-256 digest: %w", ledgererr.ErrInvalidArgument)
	}
	if p.UserEncryptedDEK == "" {
		return nil, fmt.Errorf("encrypted_dek cannot be empty: %w", ledgererr.ErrInvalidArgument)
	}
	if p.IV == "" {
		return nil, fmt.Errorf("iv cannot be empty: %w", ledgererr.ErrInvalidArgument)
	}
	if p.AuthTag == "" {
		return nil, fmt.Errorf("auth_tag cannot be empty: %w", ledgererr.ErrInvalidArgument)
	}

	now := s.now()

	var file *models.File
	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		// Quota admission comes first; any later abort in this transaction
		// also rolls the consumed quota back.
		if err := s.quota.Admit(ctx, r, p.Owner, p.FileSize, now); err != nil {
			return err
		}

		a, err := r.Artworks().Get(ctx, p.ArtworkID)
		if err != nil {
			return fmt.Errorf("artwork: %w", err)
		}
		if a.Owner != p.Owner {
			return fmt.Errorf("artwork owner mismatch: %w", ledgererr.ErrPermissionDenied)
		}

		if _, err := r.Files().Get(ctx, p.FileID); err == nil {
			return fmt.Errorf("file_id already exists: %w", ledgererr.ErrAlreadyExists)
		}

		active, err := r.AdminKeys().CountActive(ctx)
		if err != nil {
			return err
		}
		if len(p.AdminEncryptedDEKs) != active {
			return fmt.Errorf("admin_encrypted_deks count must match active admin keys: %w", ledgererr.ErrInvalidArgument)
		}

		file = &models.File{
			FileID:             p.FileID,
			ArtworkID:          p.ArtworkID,
			Owner:              p.Owner,
			FilenameCipher:     p.FilenameCipher,
			MimeType:           p.MimeType,
			FileSize:           p.FileSize,
			ContentHash:        p.ContentHash,
			UserEncryptedDEK:   p.UserEncryptedDEK,
			AdminEncryptedDEKs: p.AdminEncryptedDEKs,
			IV:                 p.IV,
			AuthTag:            p.AuthTag,
			IsThumbnail:        p.IsThumbnail,
			CreatedAt:          now,
		}
		if err := r.Files().Create(ctx, file); err != nil {
			return err
		}
		return r.Artworks().IncrementFileCount(ctx, p.ArtworkID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "file added", "file_id", p.FileID, "artwork_id", p.ArtworkID, "owner", p.Owner)
	return file, nil
}

// UploadChunkParams carries one encrypted chunk.
type UploadChunkParams struct {
	ChunkID    uint64
	FileID     uint64
	Owner      string
	ChunkIndex uint32
	Payload    string
	ChunkSize  uint32
}

// UploadChunk inserts one chunk and bumps the file's uploaded counter.
// Owner-or-service. A (file, index) position is claimed at most once and a
// completed file admits no further chunks.
func (s *LedgerService) UploadChunk(ctx context.Context, caller auth.Caller, p UploadChunkParams) error {
	if !caller.IsOrService(p.Owner) {
		return fmt.Errorf("missing required authority: %w", ledgererr.ErrPermissionDenied)
	}
	if p.ChunkID == 0 {
		return fmt.Errorf("chunk_id must be positive: %w", ledgererr.ErrInvalidArgument)
	}
	if p.FileID == 0 {
		return fmt.Errorf("file_id must be positive: %w", ledgererr.ErrInvalidArgument)
	}
	if len(p.Payload) == 0 {
		return fmt.Errorf("chunk_data cannot be empty: %w", ledgererr.ErrInvalidArgument)
	}
	if len(p.Payload) > maxChunkPayloadLen {
		return fmt.Errorf("chunk_data too large (max ~350KB base64): %w", ledgererr.ErrInvalidArgument)
	}
	if p.ChunkSize == 0 || p.ChunkSize > maxChunkSize {
		return fmt.Errorf("invalid chunk_size (max 256KB): %w", ledgererr.ErrInvalidArgument)
	}

	now := s.now()

	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		f, err := r.Files().Get(ctx, p.FileID)
		if err != nil {
			return fmt.Errorf("file: %w", err)
		}
		if f.Owner != p.Owner {
			return fmt.Errorf("file owner mismatch: %w", ledgererr.ErrPermissionDenied)
		}
		if f.UploadComplete {
			return fmt.Errorf("file upload already complete: %w", ledgererr.ErrConflict)
		}

		exists, err := r.Chunks().Exists(ctx, p.ChunkID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("chunk_id already exists: %w", ledgererr.ErrConflict)
		}

		taken, err := r.Chunks().ExistsAtIndex(ctx, p.FileID, p.ChunkIndex)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("chunk_index already uploaded for this file: %w", ledgererr.ErrConflict)
		}

		if err := r.Chunks().Create(ctx, &models.Chunk{
			ChunkID:    p.ChunkID,
			FileID:     p.FileID,
			Owner:      p.Owner,
			ChunkIndex: p.ChunkIndex,
			Payload:    p.Payload,
			ChunkSize:  p.ChunkSize,
			UploadedAt: now,
		}); err != nil {
			return err
		}
		return r.Files().IncrementUploadedChunks(ctx, p.FileID)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "chunk uploaded", "chunk_id", p.ChunkID, "file_id", p.FileID, "chunk_index", p.ChunkIndex)
	return nil
}

// CompleteFile transitions a file to its terminal complete state.
// Owner-or-service. The declared total must equal the counted chunks
// exactly; completion happens once and cannot be reopened.
func (s *LedgerService) CompleteFile(ctx context.Context, caller auth.Caller, fileID uint64, owner string, totalChunks uint32) error {
	if !caller.IsOrService(owner) {
		return fmt.Errorf("missing required authority: %w", ledgererr.ErrPermissionDenied)
	}
	if fileID == 0 {
		return fmt.Errorf("file_id must be positive: %w", ledgererr.ErrInvalidArgument)
	}
	if totalChunks == 0 {
		return fmt.Errorf("total_chunks must be positive: %w", ledgererr.ErrInvalidArgument)
	}

	now := s.now()

	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		f, err := r.Files().Get(ctx, fileID)
		if err != nil {
			return fmt.Errorf("file: %w", err)
		}
		if f.Owner != owner {
			return fmt.Errorf("file owner mismatch: %w", ledgererr.ErrPermissionDenied)
		}
		if f.UploadComplete {
			return fmt.Errorf("file already marked complete: %w", ledgererr.ErrConflict)
		}
		if f.UploadedChunks != totalChunks {
			return fmt.Errorf("not all chunks uploaded: %w", ledgererr.ErrFailedPrecondition)
		}
		return r.Files().MarkComplete(ctx, fileID, totalChunks, now)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "file completed", "file_id", fileID, "total_chunks", totalChunks)
	return nil
}

// TransferArtworkParams moves an artwork (and the listed files) to a new
// owner. NewUserEncryptedDEKs and NewAuthTags are parallel to FileIDs: the
// re-wrapped per-file key material produced by the recipient.
type TransferArtworkParams struct {
	ArtworkID           uint64
	From                string
	To                  string
	FileIDs             []uint64
	NewUserEncryptedDEKs []string
	NewAuthTags         []string
	Memo                string
}

// TransferArtwork reassigns the artwork and every listed file to the new
// owner in one transaction; a partial transfer is never observable. Files
// omitted from the list keep their old owner and key material — they stay
// behind until a later transfer lists them with matching ownership.
func (s *LedgerService) TransferArtwork(ctx context.Context, caller auth.Caller, p TransferArtworkParams) error {
	if !caller.Is(p.From) {
		return fmt.Errorf("artworks are transferred by their owner: %w", ledgererr.ErrPermissionDenied)
	}
	if p.From == p.To {
		return fmt.Errorf("cannot transfer to self: %w", ledgererr.ErrInvalidArgument)
	}
	if p.To == "" {
		return fmt.Errorf("recipient cannot be empty: %w", ledgererr.ErrInvalidArgument)
	}
	if len(p.FileIDs) != len(p.NewUserEncryptedDEKs) {
		return fmt.Errorf("file_ids and new_encrypted_deks size mismatch: %w", ledgererr.ErrInvalidArgument)
	}
	if len(p.FileIDs) != len(p.NewAuthTags) {
		return fmt.Errorf("file_ids and new_auth_tags size mismatch: %w", ledgererr.ErrInvalidArgument)
	}

	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		a, err := r.Artworks().Get(ctx, p.ArtworkID)
		if err != nil {
			return fmt.Errorf("artwork: %w", err)
		}
		if a.Owner != p.From {
			return fmt.Errorf("artwork owner mismatch: %w", ledgererr.ErrPermissionDenied)
		}

		for i, fileID := range p.FileIDs {
			f, err := r.Files().Get(ctx, fileID)
			if err != nil {
				return fmt.Errorf("file: %w", err)
			}
			if f.ArtworkID != p.ArtworkID {
				return fmt.Errorf("file does not belong to artwork: %w", ledgererr.ErrNotFound)
			}
			if f.Owner != p.From {
				return fmt.Errorf("file owner mismatch: %w", ledgererr.ErrPermissionDenied)
			}
			if err := r.Files().Transfer(ctx, fileID, p.To, p.NewUserEncryptedDEKs[i], p.NewAuthTags[i]); err != nil {
				return err
			}
		}

		return r.Artworks().SetOwner(ctx, p.ArtworkID, p.To)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "artwork transferred",
		"artwork_id", p.ArtworkID, "from", p.From, "to", p.To, "files", len(p.FileIDs), "memo", p.Memo)
	return nil
}

// DeleteFile removes one file and all of its chunks, and decrements the
// artwork's file count (floored at zero). Privileged-service-only.
func (s *LedgerService) DeleteFile(ctx context.Context, caller auth.Caller, fileID, artworkID uint64, owner string) error {
	if !caller.IsService {
		return fmt.Errorf("files are deleted by the service identity only: %w", ledgererr.ErrPermissionDenied)
	}
	if fileID == 0 {
		return fmt.Errorf("file_id must be positive: %w", ledgererr.ErrInvalidArgument)
	}
	if artworkID == 0 {
		return fmt.Errorf("artwork_id must be positive: %w", ledgererr.ErrInvalidArgument)
	}

	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		a, err := r.Artworks().Get(ctx, artworkID)
		if err != nil {
			return fmt.Errorf("artwork: %w", err)
		}
		if a.Owner != owner {
			return fmt.Errorf("artwork owner mismatch: %w", ledgererr.ErrPermissionDenied)
		}

		f, err := r.Files().Get(ctx, fileID)
		if err != nil {
			return fmt.Errorf("file: %w", err)
		}
		if f.ArtworkID != artworkID {
			return fmt.Errorf("file does not belong to artwork: %w", ledgererr.ErrNotFound)
		}
		if f.Owner != owner {
			return fmt.Errorf("file owner mismatch: %w", ledgererr.ErrPermissionDenied)
		}

		if _, err := r.Chunks().DeleteByFile(ctx, fileID); err != nil {
			return err
		}
		if err := r.Artworks().DecrementFileCount(ctx, artworkID); err != nil {
			return err
		}
		return r.Files().Delete(ctx, fileID)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "file deleted", "file_id", fileID, "artwork_id", artworkID)
	return nil
}

// DeleteArtwork cascades over every file of the artwork and every chunk of
// those files, then removes the artwork itself. Owner-only. The whole
// cascade is one transaction, so partial deletion is never observable.
func (s *LedgerService) DeleteArtwork(ctx context.Context, caller auth.Caller, artworkID uint64, owner string) error {
	if !caller.Is(owner) {
		return fmt.Errorf("artworks are deleted by their owner: %w", ledgererr.ErrPermissionDenied)
	}

	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		a, err := r.Artworks().Get(ctx, artworkID)
		if err != nil {
			return fmt.Errorf("artwork: %w", err)
		}
		if a.Owner != owner {
			return fmt.Errorf("artwork owner mismatch: %w", ledgererr.ErrPermissionDenied)
		}

		files, err := r.Files().ListByArtwork(ctx, artworkID)
		if err != nil {
			return err
		}
		for _, f := range files {
			if _, err := r.Chunks().DeleteByFile(ctx, f.FileID); err != nil {
				return err
			}
			if err := r.Files().Delete(ctx, f.FileID); err != nil {
				return err
			}
		}

		return r.Artworks().Delete(ctx, artworkID)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "artwork deleted", "artwork_id", artworkID, "owner", owner)
	return nil
}

// GetArtwork returns one artwork record.
func (s *LedgerService) GetArtwork(ctx context.Context, artworkID uint64) (*models.Artwork, error) {
	var a *models.Artwork
	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		var err error
		a, err = r.Artworks().Get(ctx, artworkID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListFiles returns the artwork's file records in file id order.
func (s *LedgerService) ListFiles(ctx context.Context, artworkID uint64) ([]*models.File, error) {
	var files []*models.File
	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		if _, err := r.Artworks().Get(ctx, artworkID); err != nil {
			return fmt.Errorf("artwork: %w", err)
		}
		var err error
		files, err = r.Files().ListByArtwork(ctx, artworkID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// GetFile returns one file record.
func (s *LedgerService) GetFile(ctx context.Context, fileID uint64) (*models.File, error) {
	var f *models.File
	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		var err error
		f, err = r.Files().Get(ctx, fileID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ChunkPayload returns one chunk's base64 ciphertext.
func (s *LedgerService) ChunkPayload(ctx context.Context, chunkID uint64) (string, error) {
	var payload string
	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		var err error
		payload, err = r.Chunks().GetPayload(ctx, chunkID)
		return err
	})
	if err != nil {
		return "", err
	}
	return payload, nil
}

// ChunkManifest returns the file's chunks in index order, payloads omitted.
func (s *LedgerService) ChunkManifest(ctx context.Context, fileID uint64) ([]*models.Chunk, error) {
	var chunks []*models.Chunk
	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		if _, err := r.Files().Get(ctx, fileID); err != nil {
			return fmt.Errorf("file: %w", err)
		}
		var err error
		chunks, err = r.Chunks().ListByFile(ctx, fileID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}
