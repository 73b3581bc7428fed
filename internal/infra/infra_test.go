package infra

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache(1 * time.Second)

	c.Set("key1", "value1")
	v, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if v != "value1" {
		t.Fatalf("got %v, want value1", v)
	}
}

func TestCacheMiss(t *testing.T) {
	c := NewCache(1 * time.Second)
	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(1 * time.Millisecond)
	c.Set("key", "val")

	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get("key")
	if ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestCacheOverwrite(t *testing.T) {
	c := NewCache(1 * time.Hour)
	key := CacheKey("fundamentals", "AAPL")
	c.Set(key, "old")
	c.Set(key, "new")
	v, ok := c.Get(key)
	if !ok || v != "new" {
		t.Fatalf("expected overwritten value, got %v", v)
	}
}

func TestCacheKey(t *testing.T) {
	if got := CacheKey("marketcap", "IBM"); got != "marketcap:IBM" {
		t.Fatalf("CacheKey = %q", got)
	}
}

func TestCacheInvalidateAndFlush(t *testing.T) {
	c := NewCache(1 * time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss after invalidation")
	}
	c.Flush()
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected miss after flush")
	}
}

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(3, time.Second)
	ctx := context.Background()

	// Should allow 3 immediate calls.
	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait() #%d failed: %v", i, err)
		}
	}
}

func TestRateLimiterCancelledContext(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour) // 1 token, very slow refill.
	ctx := context.Background()

	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("first Wait() failed: %v", err)
	}

	ctx2, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := rl.Wait(ctx2)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestDoGetNoCacheHeaders(t *testing.T) {
	var gotCacheControl string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCacheControl = r.Header.Get("Cache-Control")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	body, status, err := DoGet(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("DoGet failed: %v", err)
	}
	defer body.Close()
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if gotCacheControl == "" {
		t.Error("expected no-cache header on request")
	}
	data, _ := io.ReadAll(body)
	if string(data) != `{"ok":true}` {
		t.Errorf("body = %s", data)
	}
}

func TestDoGetErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, status, err := DoGet(context.Background(), srv.URL, nil)
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
	if status != http.StatusForbidden {
		t.Fatalf("status = %d", status)
	}
	httpErr, ok := err.(*ErrHTTP)
	if !ok {
		t.Fatalf("expected *ErrHTTP, got %T", err)
	}
	if httpErr.StatusCode != http.StatusForbidden {
		t.Errorf("ErrHTTP.StatusCode = %d", httpErr.StatusCode)
	}
}

func TestErrHTTPError(t *testing.T) {
	e := &ErrHTTP{StatusCode: 404, Status: "404 Not Found", Body: "page not found"}
	if e.Error() != "HTTP 404 404 Not Found: page not found" {
		t.Fatalf("unexpected error message: %s", e.Error())
	}
}
