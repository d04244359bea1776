package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
)

// Sum returns a stable hex-encoded digest of content. Two documents with the
// same content share a fingerprint regardless of source or metadata. The
// digest is used only for equality, never for security.
func Sum(content string) string {
	h := md5.Sum([]byte(content))
	return hex.EncodeToString(h[:])
}
