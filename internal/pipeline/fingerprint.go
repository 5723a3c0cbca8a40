package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint computes the content hash used for duplicate detection,
// taken over the original (pre-normalization) bytes. It is never used as
// a record identifier: ids are random UUIDs so public URLs do not leak
// content hashes.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
