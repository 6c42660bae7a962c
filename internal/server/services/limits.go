// Package services implements the ledger's business rules. Every exported
// operation runs as one atomic store transaction with a single "now"
// observed throughout, and aborts with a wrapped ledgererr sentinel on the
// first failed precondition.
package services

import "time"

// Field bounds, matching the wire contract exactly.
const (
	maxTitleCipherLen       = 1024
	maxDescriptionCipherLen = 10240
	maxMetadataCipherLen    = 10240
	maxFilenameCipherLen    = 512
	maxMimeTypeLen          = 128
	maxKeyDescriptionLen    = 256
	maxReasonLen            = 512

	// publicKeyLen is the length of a base64-encoded 32-byte X25519 key.
	publicKeyLen = 44

	// contentHashLen is the length of a hex-encoded SHA-256 digest.
	contentHashLen = 64

	// maxFileSize is 100 MiB of plaintext per file.
	maxFileSize = 104857600

	// maxChunkSize bounds the decoded chunk size (256 KiB);
	// maxChunkPayloadLen bounds the base64-encoded payload.
	maxChunkSize       = 262144
	maxChunkPayloadLen = 350000
)

// Default free-tier limits applied when an account uploads before any
// explicit quota was set.
const (
	defaultDailyFileLimit  = 10
	defaultDailySizeLimit  = 26214400 // 25 MiB
	defaultWeeklyFileLimit = 40
	defaultWeeklySizeLimit = 104857600 // 100 MiB
)

// unixNow is the default clock; services capture one value per operation.
func unixNow() int64 { return time.Now().Unix() }
