package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
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

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "graph:1", []byte(`{"nodes":[]}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "graph:1")
	if err != nil || !hit {
		t.Fatalf("Get = hit %v, err %v", hit, err)
	}
	if string(data) != `{"nodes":[]}` {
		t.Errorf("Get data = %q", data)
	}

	if err := c.Delete(ctx, "graph:1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "graph:1"); hit {
		t.Error("entry should be gone after Delete")
	}
	if err := c.Delete(ctx, "graph:1"); err != nil {
		t.Errorf("Delete(missing) = %v, want nil", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed from disk")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero ttl entry should never expire")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get(corrupt) = hit %v, err %v, want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := c.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, hit, _ := c.Get(ctx, fmt.Sprintf("k%d", i)); hit {
			t.Errorf("k%d survived Clear", i)
		}
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("cache dir missing after Clear: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}

	a, err := HashJSON(map[string]int{"a": 1, "b": 2})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := HashJSON(map[string]int{"b": 2, "a": 1})
	if a != b {
		t.Error("HashJSON should not depend on map insertion order")
	}
	if _, err := HashJSON(func() {}); err == nil {
		t.Error("HashJSON(func) should fail")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"graph opts", k.GraphKey("h", GraphKeyOpts{}), k.GraphKey("h", GraphKeyOpts{Pattern: "api"}), false},
		{"graph hash", k.GraphKey("h1", GraphKeyOpts{}), k.GraphKey("h2", GraphKeyOpts{}), false},
		{"graph stable", k.GraphKey("h", GraphKeyOpts{Pattern: "api"}), k.GraphKey("h", GraphKeyOpts{Pattern: "api"}), true},
		{"layout seed", k.LayoutKey("h", LayoutKeyOpts{Seed: 1}), k.LayoutKey("h", LayoutKeyOpts{Seed: 2}), false},
		{"layout size", k.LayoutKey("h", LayoutKeyOpts{Width: 800}), k.LayoutKey("h", LayoutKeyOpts{Width: 1200}), false},
		{"artifact format", k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}), k.ArtifactKey("h", ArtifactKeyOpts{Format: "png"}), false},
		{"kinds differ", k.GraphKey("h", GraphKeyOpts{}), k.LayoutKey("h", LayoutKeyOpts{}), false},
	}
	for _, tt := range tests {
		if (tt.a == tt.b) != tt.same {
			t.Errorf("%s: keys %q and %q, same = %v, want %v", tt.name, tt.a, tt.b, tt.a == tt.b, tt.same)
		}
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	k := NewScopedKeyer(nil, "api:")

	want := "api:" + inner.LayoutKey("h", LayoutKeyOpts{Seed: 42})
	if got := k.LayoutKey("h", LayoutKeyOpts{Seed: 42}); got != want {
		t.Errorf("LayoutKey = %q, want %q", got, want)
	}
	if got := k.GraphKey("h", GraphKeyOpts{}); got != "api:"+inner.GraphKey("h", GraphKeyOpts{}) {
		t.Errorf("GraphKey = %q", got)
	}
	if got := k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}); got != "api:"+inner.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}) {
		t.Errorf("ArtifactKey = %q", got)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	RetryDelay = time.Millisecond
	defer func() { RetryDelay = 100 * time.Millisecond }()

	ctx := context.Background()
	boom := errors.New("boom")

	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"success", 0, true, 1, false},
		{"permanent", 5, false, 1, true},
		{"transient then ok", 2, true, 3, false},
		{"exhausted", 5, true, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls <= tt.failures {
					if tt.retryable {
						return Retryable(boom)
					}
					return boom
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && IsRetryable(err) {
				t.Error("returned error should not carry the retry marker")
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithBackoff(ctx, func() error { return Retryable(errors.New("down")) })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
