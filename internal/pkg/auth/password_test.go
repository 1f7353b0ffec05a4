package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hashed, err := h.Hash("student99")
	require.NoError(t, err)
	assert.NotEqual(t, "student99", hashed)
	assert.True(t, h.Verify(hashed, "student99"))
	assert.False(t, h.Verify(hashed, "student98"))
	assert.False(t, h.Verify("not-a-hash", "student99"))
}

func TestPasswordHasher_MaxLength(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	limit := strings.Repeat("a", MaxPasswordBytes)

	hashed, err := h.Hash(limit)
	require.NoError(t, err)
	assert.True(t, h.Verify(hashed, limit))

	_, err = h.Hash(limit + "1")
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.False(t, h.Verify(hashed, limit+"1"), "bytes past the limit must not be ignored")

	// Cyrillic letters take two bytes each.
	_, err = h.Hash(strings.Repeat("я", MaxPasswordBytes/2+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNewPasswordHasher_Cost(t *testing.T) {
	tests := []struct {
		name string
		cost int
		want int
	}{
		{name: "configured", cost: 10, want: 10},
		{name: "zero", cost: 0, want: DefaultBcryptCost},
		{name: "below min", cost: bcrypt.MinCost - 1, want: DefaultBcryptCost},
		{name: "above max", cost: bcrypt.MaxCost + 1, want: DefaultBcryptCost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPasswordHasher(tt.cost).Cost())
		})
	}
}

func TestPasswordHasher_NeedsRehash(t *testing.T) {
	cheap := NewPasswordHasher(bcrypt.MinCost)
	hashed, err := cheap.Hash("student99")
	require.NoError(t, err)

	assert.False(t, cheap.NeedsRehash(hashed))
	assert.True(t, NewPasswordHasher(bcrypt.MinCost+1).NeedsRehash(hashed))
	assert.True(t, cheap.NeedsRehash("garbage"))
}
