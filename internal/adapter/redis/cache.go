package redis

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var ErrCorruptVector = errors.New("corrupt cached vector")

// Connect opens a client and verifies it with PING.
func Connect(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// VectorCache stores embeddings as little-endian float32 blobs.
type VectorCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewVectorCache(rdb *goredis.Client, ttl time.Duration) *VectorCache {
	return &VectorCache{rdb: rdb, ttl: ttl}
}

func (c *VectorCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vec, err := DecodeVector(b)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

func (c *VectorCache) Set(ctx context.Context, key string, vec []float32) error {
	return c.rdb.Set(ctx, key, EncodeVector(vec), c.ttl).Err()
}

func EncodeVector(vec []float32) []byte {
	b := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(v))
	}
	return b
}

func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorruptVector, len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return vec, nil
}
