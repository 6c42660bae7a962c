package httpapi

import "github.com/verarta/artledger/internal/server/models"

// Response DTOs. The HTTP layer owns the wire shape; models stay tag-free.

type artworkDTO struct {
	ArtworkID         uint64 `json:"artwork_id"`
	Owner             string `json:"owner"`
	TitleCipher       string `json:"title_cipher"`
	DescriptionCipher string `json:"description_cipher"`
	MetadataCipher    string `json:"metadata_cipher"`
	CreatorPublicKey  string `json:"creator_public_key"`
	CreatedAt         int64  `json:"created_at"`
	FileCount         uint32 `json:"file_count"`
}

func toArtworkDTO(a *models.Artwork) artworkDTO {
	return artworkDTO{
		ArtworkID:         a.ArtworkID,
		Owner:             a.Owner,
		TitleCipher:       a.TitleCipher,
		DescriptionCipher: a.DescriptionCipher,
		MetadataCipher:    a.MetadataCipher,
		CreatorPublicKey:  a.CreatorPublicKey,
		CreatedAt:         a.CreatedAt,
		FileCount:         a.FileCount,
	}
}

type fileDTO struct {
	FileID             uint64   `json:"file_id"`
	ArtworkID          uint64   `json:"artwork_id"`
	Owner              string   `json:"owner"`
	FilenameCipher     string   `json:"filename_cipher"`
	MimeType           string   `json:"mime_type"`
	FileSize           uint64   `json:"file_size"`
	ContentHash        string   `json:"content_hash"`
	UserEncryptedDEK   string   `json:"encrypted_dek"`
	AdminEncryptedDEKs []string `json:"admin_encrypted_deks"`
	IV                 string   `json:"iv"`
	AuthTag            string   `json:"auth_tag"`
	IsThumbnail        bool     `json:"is_thumbnail"`
	TotalChunks        uint32   `json:"total_chunks"`
	UploadedChunks     uint32   `json:"uploaded_chunks"`
	UploadComplete     bool     `json:"upload_complete"`
	CreatedAt          int64    `json:"created_at"`
	CompletedAt        int64    `json:"completed_at"`
}

func toFileDTO(f *models.File) fileDTO {
	return fileDTO{
		FileID:             f.FileID,
		ArtworkID:          f.ArtworkID,
		Owner:              f.Owner,
		FilenameCipher:     f.FilenameCipher,
		MimeType:           f.MimeType,
		FileSize:           f.FileSize,
		ContentHash:        f.ContentHash,
		UserEncryptedDEK:   f.UserEncryptedDEK,
		AdminEncryptedDEKs: f.AdminEncryptedDEKs,
		IV:                 f.IV,
		AuthTag:            f.AuthTag,
		IsThumbnail:        f.IsThumbnail,
		TotalChunks:        f.TotalChunks,
		UploadedChunks:     f.UploadedChunks,
		UploadComplete:     f.UploadComplete,
		CreatedAt:          f.CreatedAt,
		CompletedAt:        f.CompletedAt,
	}
}

// chunkManifestDTO lists chunk positions without payloads; payloads are
// fetched one chunk at a time.
type chunkManifestDTO struct {
	ChunkID    uint64 `json:"chunk_id"`
	ChunkIndex uint32 `json:"chunk_index"`
	ChunkSize  uint32 `json:"chunk_size"`
	UploadedAt int64  `json:"uploaded_at"`
}

func toChunkManifestDTO(ch *models.Chunk) chunkManifestDTO {
	return chunkManifestDTO{
		ChunkID:    ch.ChunkID,
		ChunkIndex: ch.ChunkIndex,
		ChunkSize:  ch.ChunkSize,
		UploadedAt: ch.UploadedAt,
	}
}

type quotaDTO struct {
	Account         string `json:"account"`
	Tier            uint8  `json:"tier"`
	DailyFileLimit  uint32 `json:"daily_file_limit"`
	DailySizeLimit  uint64 `json:"daily_size_limit"`
	DailyFilesUsed  uint32 `json:"daily_files_used"`
	DailySizeUsed   uint64 `json:"daily_size_used"`
	DailyResetAt    int64  `json:"daily_reset_at"`
	WeeklyFileLimit uint32 `json:"weekly_file_limit"`
	WeeklySizeLimit uint64 `json:"weekly_size_limit"`
	WeeklyFilesUsed uint32 `json:"weekly_files_used"`
	WeeklySizeUsed  uint64 `json:"weekly_size_used"`
	WeeklyResetAt   int64  `json:"weekly_reset_at"`
}

func toQuotaDTO(q *models.UsageQuota) quotaDTO {
	return quotaDTO{
		Account:         q.Account,
		Tier:            q.Tier,
		DailyFileLimit:  q.DailyFileLimit,
		DailySizeLimit:  q.DailySizeLimit,
		DailyFilesUsed:  q.DailyFilesUsed,
		DailySizeUsed:   q.DailySizeUsed,
		DailyResetAt:    q.DailyResetAt,
		WeeklyFileLimit: q.WeeklyFileLimit,
		WeeklySizeLimit: q.WeeklySizeLimit,
		WeeklyFilesUsed: q.WeeklyFilesUsed,
		WeeklySizeUsed:  q.WeeklySizeUsed,
		WeeklyResetAt:   q.WeeklyResetAt,
	}
}

type adminKeyDTO struct {
	KeyID        uint64 `json:"key_id"`
	AdminAccount string `json:"admin_account"`
	PublicKey    string `json:"public_key"`
	Description  string `json:"description"`
	AddedAt      int64  `json:"added_at"`
	IsActive     bool   `json:"is_active"`
}

func toAdminKeyDTO(k *models.AdminKey) adminKeyDTO {
	return adminKeyDTO{
		KeyID:        k.KeyID,
		AdminAccount: k.AdminAccount,
		PublicKey:    k.PublicKey,
		Description:  k.Description,
		AddedAt:      k.AddedAt,
		IsActive:     k.IsActive,
	}
}

type accessLogDTO struct {
	LogID        uint64 `json:"log_id"`
	AdminAccount string `json:"admin_account"`
	FileID       uint64 `json:"file_id"`
	Reason       string `json:"reason"`
	AccessedAt   int64  `json:"accessed_at"`
}

func toAccessLogDTO(l *models.AccessLog) accessLogDTO {
	return accessLogDTO{
		LogID:        l.LogID,
		AdminAccount: l.AdminAccount,
		FileID:       l.FileID,
		Reason:       l.Reason,
		AccessedAt:   l.AccessedAt,
	}
}
