package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRoomCode(t *testing.T) {
	t.Run("Code is four uppercase letters", func(t *testing.T) {
		// Given: a seeded source
		src := NewSource(7)

		for range 200 {
			// When: generating a room code
			code := GenerateRoomCode(src)

			// Then: it has the expected shape
			require.Len(t, code, RoomCodeLength)
			for _, r := range code {
				assert.True(t, r >= 'A' && r <= 'Z', "unexpected rune %q in %s", r, code)
			}
		}
	})

	t.Run("Same seed gives the same codes", func(t *testing.T) {
		// Given: two sources with the same seed
		a, b := NewSource(42), NewSource(42)

		// Then: they produce the same sequence
		for range 10 {
			assert.Equal(t, GenerateRoomCode(a), GenerateRoomCode(b))
		}
	})
}

func TestGenerateSessionID(t *testing.T) {
	// When: generating two handles
	first, second := GenerateSessionID(), GenerateSessionID()

	// Then: they are non-empty and distinct
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
