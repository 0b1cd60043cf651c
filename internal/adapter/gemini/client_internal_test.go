package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDynamicClient_ClientSwitching(t *testing.T) {
	c := NewDynamicClient(nil, Config{})
	defer c.Close()

	ctx := context.Background()

	client1, err := c.getClient(ctx, "key1")
	assert.NoError(t, err)
	assert.NotNil(t, client1)
	assert.Equal(t, "key1", c.currentKey)

	client2, err := c.getClient(ctx, "key1")
	assert.NoError(t, err)
	assert.Same(t, client1, client2)

	client3, err := c.getClient(ctx, "key2")
	assert.NoError(t, err)
	assert.NotSame(t, client1, client3)
	assert.Equal(t, "key2", c.currentKey)
}
