package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_Namespaced(t *testing.T) {
	a := Key("reddit", "https://example.com/a")
	b := Key("reddit", "https://example.com/b")
	s := Key("sentiment", "https://example.com/a")

	assert.Regexp(t, `^painscope:v1:reddit:`, a)
	assert.NotEqual(t, a, b, "different inputs produced the same key")
	assert.NotEqual(t, a, s, "different namespaces produced the same key")
	assert.NotEqual(t, Key("x", "ab", "c"), Key("x", "a", "bc"), "part boundaries must affect the key")
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	_ = c.Delete("k")
	_, ok = c.Get("k")
	assert.False(t, ok, "expected miss after delete")
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok, "expected entry to expire")
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := Key("reddit", "listing")

	require.NoError(t, c.Set(key, []byte(`{"ok":true}`), 0))
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.JSONEq(t, `{"ok":true}`, string(got))

	require.NoError(t, c.Set(key, []byte("stale"), time.Nanosecond))
	time.Sleep(5 * time.Millisecond)
	_, ok = c.Get(key)
	assert.False(t, ok, "expected expired entry to miss")

	assert.NoError(t, c.Delete(key), "deleting a missing key should not fail")
}

func TestLayeredCache_PromotesSlowHits(t *testing.T) {
	fast := NewMemoryCache(time.Minute, time.Minute)
	slow := NewDiskCache(t.TempDir(), time.Hour)
	c := NewLayers(fast, slow)

	_ = slow.Set("k", []byte("v"), 0)

	_, ok := fast.Get("k")
	require.False(t, ok, "fast layer should start empty")

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	_, ok = fast.Get("k")
	assert.True(t, ok, "expected slow hit to be promoted to fast layer")

	_ = c.Clear()
	_, ok = c.Get("k")
	assert.False(t, ok, "expected miss after clear")
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	_ = c.Set("k", []byte("v"), 0)
	_, ok := c.Get("k")
	assert.False(t, ok, "Nop cache should never hit")
}
