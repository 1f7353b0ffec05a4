package studenthash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	h := New("secret")

	a := h.Hash(42)
	assert.Len(t, a, Length)
	assert.Equal(t, a, h.Hash(42))
	assert.NotEqual(t, a, h.Hash(43))
	assert.NotEqual(t, a, New("other").Hash(42))

	assert.True(t, h.Match(42, a))
	assert.False(t, h.Match(43, a))
	assert.False(t, h.Match(42, ""))
}
