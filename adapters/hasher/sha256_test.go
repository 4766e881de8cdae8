package hasher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestETagHasher(t *testing.T) {
	h := NewETag()

	a := h.Hash([]byte("<html>one</html>"))
	b := h.Hash([]byte("<html>one</html>"))
	c := h.Hash([]byte("<html>two</html>"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 34)
	assert.Equal(t, byte('"'), a[0])
	assert.Equal(t, byte('"'), a[len(a)-1])
}
