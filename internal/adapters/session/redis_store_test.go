package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/ogurasousui/taskvault/internal/core/apperr"
	"github.com/ogurasousui/taskvault/internal/core/role"
)

func setupTestRedis(t *testing.T, opts ...Option) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), "redis://"+s.Addr(), opts...)
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, s
}

func TestNewRedisStore_InvalidURL(t *testing.T) {
	if _, err := NewRedisStore(context.Background(), "://bad"); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestOverrideLifecycle(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	if _, ok, err := store.GetOverride(ctx, "s1"); err != nil || ok {
		t.Fatalf("expected no override, got ok=%v err=%v", ok, err)
	}

	if err := store.SetOverride(ctx, "s1", role.RoleManager); err != nil {
		t.Fatalf("SetOverride failed: %v", err)
	}

	got, ok, err := store.GetOverride(ctx, "s1")
	if err != nil || !ok || got != role.RoleManager {
		t.Fatalf("expected MANAGER override, got %q ok=%v err=%v", got, ok, err)
	}

	if err := store.ClearOverride(ctx, "s1"); err != nil {
		t.Fatalf("ClearOverride failed: %v", err)
	}
	if _, ok, _ := store.GetOverride(ctx, "s1"); ok {
		t.Fatal("override should be cleared")
	}
}

func TestOverrideExpires(t *testing.T) {
	store, s := setupTestRedis(t, WithSessionTTL(time.Minute))
	ctx := context.Background()

	if err := store.SetOverride(ctx, "s1", role.RoleAdmin); err != nil {
		t.Fatalf("SetOverride failed: %v", err)
	}

	s.FastForward(2 * time.Minute)

	if _, ok, _ := store.GetOverride(ctx, "s1"); ok {
		t.Fatal("override should have expired")
	}
}

func TestOverrideIgnoresUnknownValue(t *testing.T) {
	store, s := setupTestRedis(t)

	if err := s.Set(overridePrefix+"s1", "ROOT"); err != nil {
		t.Fatalf("failed to seed value: %v", err)
	}

	if _, ok, err := store.GetOverride(context.Background(), "s1"); err != nil || ok {
		t.Fatalf("expected unknown value to be ignored, got ok=%v err=%v", ok, err)
	}
}

func TestRoleCache(t *testing.T) {
	store, s := setupTestRedis(t, WithRoleCacheTTL(30*time.Second))
	ctx := context.Background()

	if _, ok := store.GetRole(ctx, "42"); ok {
		t.Fatal("expected cache miss")
	}

	store.SetRole(ctx, "42", role.RoleAdmin)

	got, ok := store.GetRole(ctx, "42")
	if !ok || got != role.RoleAdmin {
		t.Fatalf("expected cached ADMIN, got %q ok=%v", got, ok)
	}

	if ttl := s.TTL(rolePrefix + "42"); ttl != 30*time.Second {
		t.Fatalf("unexpected ttl: %v", ttl)
	}
}

func TestStoreUnavailable(t *testing.T) {
	store, s := setupTestRedis(t)
	s.Close()

	err := store.SetOverride(context.Background(), "s1", role.RoleAdmin)
	if !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}

	if _, ok := store.GetRole(context.Background(), "42"); ok {
		t.Fatal("expected cache miss when redis is down")
	}
}

func TestPingReportsReachability(t *testing.T) {
	store, s := setupTestRedis(t)
	ctx := context.Background()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("expected ping to succeed, got %v", err)
	}

	s.Close()
	if err := store.Ping(ctx); err == nil {
		t.Fatal("expected ping to fail after redis stopped")
	}
}
