package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemory_SetGet(t *testing.T) {
	c := NewMemory(10)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Minute)

	val, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), val)

	_, ok = c.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory(10)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_EvictsLRUAtBudget(t *testing.T) {
	c := NewMemory(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), time.Minute)
		time.Sleep(time.Millisecond)
	}

	// Touch k0 so k1 becomes the least recently used.
	c.Get(ctx, "k0")
	time.Sleep(time.Millisecond)
	c.Get(ctx, "k2")
	time.Sleep(time.Millisecond)

	c.Set(ctx, "k3", []byte("v"), time.Minute)

	_, ok := c.Get(ctx, "k1")
	assert.False(t, ok, "expected k1 to be evicted")
	for _, key := range []string{"k0", "k2", "k3"} {
		_, ok := c.Get(ctx, key)
		assert.True(t, ok, "expected %s to survive", key)
	}
}

func TestMemory_OverwriteDoesNotEvict(t *testing.T) {
	c := NewMemory(2)
	ctx := context.Background()

	c.Set(ctx, "a", []byte("1"), time.Minute)
	c.Set(ctx, "b", []byte("2"), time.Minute)
	c.Set(ctx, "a", []byte("3"), time.Minute)

	val, ok := c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, []byte("3"), val)

	_, ok = c.Get(ctx, "b")
	assert.True(t, ok)
}
