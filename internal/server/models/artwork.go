// Package models defines the ledger records persisted in the keyed store.
// Ciphertext fields are opaque to the ledger; it never inspects or decrypts
// content.
package models

// Artwork is the root entity of the ledger. FileCount mirrors the number of
// live File records referencing it and is maintained transactionally.
type Artwork struct {
	ArtworkID         uint64
	Owner             string
	TitleCipher       string
	DescriptionCipher string
	MetadataCipher    string
	// CreatorPublicKey is the creator's X25519 public key, base64 (44 chars).
	CreatorPublicKey string
	CreatedAt        int64
	FileCount        uint32
}
