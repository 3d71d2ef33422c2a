package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryResultCache_SetGet(t *testing.T) {
	c := NewMemoryResultCache()
	require := assert.New(t)

	require.NoError(c.Set("host-resource", 42, time.Minute))
	v, ok := c.Get("host-resource")
	require.True(ok)
	require.Equal(42, v)
}

func TestMemoryResultCache_ExpiredEntryIsNotReturned(t *testing.T) {
	c := NewMemoryResultCache()
	assert.NoError(t, c.Set("k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestMemoryResultCache_EmptyKeyIsIgnored(t *testing.T) {
	c := NewMemoryResultCache()
	assert.NoError(t, c.Set("", "v", time.Minute))

	_, ok := c.Get("")
	assert.False(t, ok)
}
