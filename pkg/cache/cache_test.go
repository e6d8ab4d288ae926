package cache

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestLayoutKey(t *testing.T) {
	k1 := LayoutKey("graph-a", 80.0, 40.0)
	k2 := LayoutKey("graph-a", 80.0, 40.0)
	if k1 != k2 {
		t.Error("LayoutKey should be deterministic")
	}

	if !strings.HasPrefix(k1, "layout:") {
		t.Errorf("LayoutKey should carry the layout prefix, got %s", k1)
	}

	k3 := LayoutKey("graph-a", 80.0, 60.0)
	if k1 == k3 {
		t.Error("Different options should produce different keys")
	}
}

// roundTrip exercises the shared Cache contract against a backend.
func roundTrip(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	// Miss before Set
	if _, hit, err := c.Get(ctx, "k"); err != nil || hit {
		t.Fatalf("Get before Set: hit=%v err=%v", hit, err)
	}

	// Set then Get
	if err := c.Set(ctx, "k", []byte("payload"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit || !bytes.Equal(data, []byte("payload")) {
		t.Fatalf("Get = %q hit=%v, want payload", data, hit)
	}

	// Overwrite
	if err := c.Set(ctx, "k", []byte("v2"), 0); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}
	data, _, _ = c.Get(ctx, "k")
	if string(data) != "v2" {
		t.Errorf("overwritten value = %q, want v2", data)
	}

	// Expired entries report as misses
	if err := c.Set(ctx, "ttl", []byte("soon gone"), -time.Second); err != nil {
		t.Fatalf("Set with ttl error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "ttl"); hit {
		t.Error("expired entry should be a miss")
	}

	// Delete is idempotent
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted entry should be a miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("double Delete error: %v", err)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	roundTrip(t, c)
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	roundTrip(t, c)
}

func TestFileCacheCorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("ok"), 0); err != nil {
		t.Fatal(err)
	}

	// Truncate the entry on disk and confirm it degrades to a miss.
	fc := c.(*FileCache)
	if err := os.WriteFile(fc.path("k"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); err != nil || hit {
		t.Fatalf("corrupt entry: hit=%v err=%v, want miss", hit, err)
	}
}
