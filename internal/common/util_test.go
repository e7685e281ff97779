package common

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"refresh token", 32},
		{"odd", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := MakeRandHexString(tt.size)
			require.NoError(t, err)
			assert.Len(t, s, tt.size*2)

			raw, err := hex.DecodeString(s)
			require.NoError(t, err)
			assert.Len(t, raw, tt.size)
		})
	}
}

func TestMakeRandHexString_Distinct(t *testing.T) {
	seen := map[string]struct{}{}
	for range 16 {
		s, err := MakeRandHexString(32)
		require.NoError(t, err)
		_, dup := seen[s]
		require.False(t, dup, "token repeated: %s", s)
		seen[s] = struct{}{}
	}
}

func TestGenerateRandByteArray(t *testing.T) {
	a := GenerateRandByteArray(16)
	b := GenerateRandByteArray(16)

	assert.Len(t, a, 16)
	assert.Len(t, b, 16)
	assert.NotEqual(t, a, b)
	assert.Empty(t, GenerateRandByteArray(0))
}

func TestWipeByteArray(t *testing.T) {
	buf := []byte("secret")
	WipeByteArray(buf)
	assert.Equal(t, make([]byte, 6), buf)

	assert.NotPanics(t, func() { WipeByteArray(nil) })
}
