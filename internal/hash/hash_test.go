package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	h, err := HashPassword("password123")
	require.NoError(t, err)
	require.NotEqual(t, "password123", h)

	require.True(t, CheckPassword(h, "password123"))
	require.False(t, CheckPassword(h, "password124"))
	require.False(t, CheckPassword("not-a-hash", "password123"))
}
