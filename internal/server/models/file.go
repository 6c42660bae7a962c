package models

// File holds the metadata and wrapped keys for one encrypted artwork file.
// The ciphertext itself arrives in chunks (see Chunk).
//
// AdminEncryptedDEKs is the escrow set: one wrapped copy of the file's DEK
// per administrator key that was active when the entry was produced. Its
// length must equal the active-key count at creation time and may only grow
// afterwards, one catch-up append at a time.
type File struct {
	FileID    uint64
	ArtworkID uint64
	Owner     string

	FilenameCipher string
	// MimeType is kept in plaintext for filtering.
	MimeType string
	FileSize uint64
	// ContentHash is the SHA-256 digest of the complete plaintext, hex encoded.
	ContentHash string

	UserEncryptedDEK   string
	AdminEncryptedDEKs []string
	IV                 string
	AuthTag            string

	IsThumbnail    bool
	TotalChunks    uint32
	UploadedChunks uint32
	UploadComplete bool
	CreatedAt      int64
	CompletedAt    int64
}

// Chunk is one encrypted slice of a file's content. A (FileID, ChunkIndex)
// pair is claimed at most once; chunks are never mutated after insert.
type Chunk struct {
	ChunkID    uint64
	FileID     uint64
	Owner      string
	ChunkIndex uint32
	// Payload is the base64-encoded ciphertext of this slice.
	Payload    string
	ChunkSize  uint32
	UploadedAt int64
}
