package hasher

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/satriahrh/model-compare/domain"
)

// NewETag returns a domain.Hasher that produces quoted strong ETags from the
// first 16 bytes of a SHA-256 digest.
func NewETag() domain.Hasher { return etagHasher{} }

type etagHasher struct{}

func (etagHasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
