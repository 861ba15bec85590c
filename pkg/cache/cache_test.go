package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testBackend(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	// Miss on unknown key.
	_, ok, err := c.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Errorf("Get(missing) ok = true, want false")
	}

	// Round trip.
	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, ok, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok || string(data) != "value" {
		t.Errorf("Get(key) = (%q, %v), want (value, true)", data, ok)
	}

	// Delete, including a missing key.
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Errorf("Get() after Delete() ok = true, want false")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete(missing) error = %v, want nil", err)
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()
	testBackend(t, c)
}

func TestFileCacheExpiry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "key", []byte("value"), time.Nanosecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Errorf("Get() after expiry ok = true, want false")
	}
}

func TestMemoryCache(t *testing.T) {
	testBackend(t, NewMemoryCache())
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	if err := c.Set(ctx, "key", []byte("value"), time.Nanosecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Errorf("Get() after expiry ok = true, want false")
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()
	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Errorf("Get() after Set() ok = true, want false for null cache")
	}
}

func TestDefaultKeyerDeterminism(t *testing.T) {
	k := NewDefaultKeyer()

	a := k.DeploymentKey("abc", DeploymentKeyOpts{Transformers: []string{"scopes"}})
	b := k.DeploymentKey("abc", DeploymentKeyOpts{Transformers: []string{"scopes"}})
	if a != b {
		t.Errorf("DeploymentKey() not deterministic: %q != %q", a, b)
	}

	c := k.DeploymentKey("abc", DeploymentKeyOpts{Transformers: []string{"bindings"}})
	if a == c {
		t.Errorf("DeploymentKey() = %q for different options, want distinct keys", a)
	}

	if k.IndexKey("abc") == k.RenderKey("abc", RenderKeyOpts{}) {
		t.Errorf("IndexKey and RenderKey collide for the same hash")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "app:orders:")

	got := scoped.IndexKey("abc")
	want := "app:orders:" + inner.IndexKey("abc")
	if got != want {
		t.Errorf("IndexKey() = %q, want %q", got, want)
	}
}

func TestHashStable(t *testing.T) {
	a := Hash([]byte("payload"))
	b := Hash([]byte("payload"))
	if a != b {
		t.Errorf("Hash() not deterministic: %q != %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("len(Hash()) = %d, want 64", len(a))
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	// Non-retryable errors fail immediately.
	calls := 0
	permanent := errors.New("permanent")
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Errorf("RetryWithBackoff() error = %v, want %v", err, permanent)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}

	// Retryable errors eventually succeed.
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(errors.New("transient"))
		}
		return nil
	})
	if err != nil {
		t.Errorf("RetryWithBackoff() error = %v, want nil", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
