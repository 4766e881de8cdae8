package domain

// Hasher is the core port for any hashing strategy. The HTTP layer uses it to
// derive page ETags.
type Hasher interface {
	Hash(data []byte) string
}
