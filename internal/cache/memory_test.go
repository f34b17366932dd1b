package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	c := NewMemory(8, true)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("bills", []byte(`{"count":2}`), time.Minute)
	got, ok := c.Get("bills")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"count":2}`), got)
}

func TestMemoryExpiredReadRemovesEntry(t *testing.T) {
	c := NewMemory(8, true)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", []byte("v"), time.Second)
	require.Equal(t, 1, c.Len())

	// Advance past the deadline; the read must miss and drop the entry.
	now = now.Add(2 * time.Second)
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryDisabledIsNoOp(t *testing.T) {
	c := NewMemory(8, false)
	c.Set("k", []byte("v"), time.Minute)
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCapacityEvictsExpiredFirst(t *testing.T) {
	c := NewMemory(3, true)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("short", []byte("a"), time.Second)
	c.Set("long1", []byte("b"), time.Hour)
	c.Set("long2", []byte("c"), time.Hour)

	now = now.Add(5 * time.Second)
	c.Set("new", []byte("d"), time.Hour)

	// The expired entry made room; the fresh ones survive.
	assert.Equal(t, 3, c.Len())
	_, ok := c.Get("long1")
	assert.True(t, ok)
	_, ok = c.Get("long2")
	assert.True(t, ok)
	_, ok = c.Get("new")
	assert.True(t, ok)
}

func TestMemoryCapacityEvictsArbitraryWhenNoneExpired(t *testing.T) {
	c := NewMemory(2, true)
	c.Set("a", []byte("1"), time.Hour)
	c.Set("b", []byte("2"), time.Hour)
	c.Set("c", []byte("3"), time.Hour)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("c")
	assert.True(t, ok, "newly written entry must be present")
}

func TestMemoryOverwriteDoesNotEvict(t *testing.T) {
	c := NewMemory(2, true)
	c.Set("a", []byte("1"), time.Hour)
	c.Set("b", []byte("2"), time.Hour)
	c.Set("a", []byte("updated"), time.Hour)

	assert.Equal(t, 2, c.Len())
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("updated"), got)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestMemoryConcurrentSameKey(t *testing.T) {
	c := NewMemory(64, true)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set("hot", []byte(fmt.Sprintf("v%d", i)), time.Minute)
			c.Get("hot")
		}(i)
	}
	wg.Wait()

	got, ok := c.Get("hot")
	require.True(t, ok)
	assert.NotEmpty(t, got)
	assert.Equal(t, 1, c.Len())
}
