package models

// AdminKey is one administrator escrow key. Keys are never deleted, only
// deactivated, so escrow entries issued against them keep their historical
// meaning for audit correlation.
type AdminKey struct {
	KeyID        uint64
	AdminAccount string
	// PublicKey is the admin's X25519 public key, base64 (44 chars).
	PublicKey   string
	Description string
	AddedAt     int64
	IsActive    bool
}

// AccessLog is one append-only record of an administrator's claimed access
// to a file. It is advisory: it gates nothing and performs no decryption.
type AccessLog struct {
	LogID        uint64
	AdminAccount string
	FileID       uint64
	Reason       string
	AccessedAt   int64
}
