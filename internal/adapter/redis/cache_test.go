package redis

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorCodec(t *testing.T) {
	vec := []float32{0, 1.5, -2.25, math.MaxFloat32, float32(math.Inf(-1))}

	b := EncodeVector(vec)
	assert.Len(t, b, 4*len(vec))

	got, err := DecodeVector(b)
	require.NoError(t, err)
	assert.Equal(t, vec, got)

	t.Run("Empty", func(t *testing.T) {
		got, err := DecodeVector(EncodeVector(nil))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := DecodeVector(b[:5])
		assert.ErrorIs(t, err, ErrCorruptVector)
	})
}

func TestConnect_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rdb, err := Connect(ctx, "127.0.0.1:1")
	assert.Error(t, err)
	assert.Nil(t, rdb)
	assert.Contains(t, err.Error(), "redis ping")
}
