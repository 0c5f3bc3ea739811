package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"mithai/internal/domain"
)

func setupRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store, err := NewRedisStore("redis://"+mr.Addr(), time.Hour)
	if err != nil {
		t.Fatalf("new redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore_SessionCRUD(t *testing.T) {
	ctx := context.Background()
	store, _ := setupRedis(t)

	s := domain.Session{ID: "s1", IsOnboarding: true, Cart: []domain.CartItem{
		{Product: domain.Product{ID: "p1", Name: "Kaju Katli", Price: 450}, Quantity: 2},
	}}
	if err := store.Put(ctx, &s); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "s1" || !got.IsOnboarding {
		t.Fatalf("session fields lost: %+v", got)
	}
	if len(got.Cart) != 1 || got.Cart[0].Quantity != 2 {
		t.Fatalf("cart not round-tripped: %+v", got.Cart)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatalf("updated_at not set")
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := store.Delete(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on double delete, got %v", err)
	}
}

func TestRedisStore_GetMissing(t *testing.T) {
	store, _ := setupRedis(t)
	if _, err := store.Get(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRedisStore_Update(t *testing.T) {
	ctx := context.Background()
	store, _ := setupRedis(t)

	if err := store.Put(ctx, &domain.Session{ID: "s1"}); err != nil {
		t.Fatal(err)
	}

	out, err := store.Update(ctx, "s1", func(s *domain.Session) error {
		s.IsAuthenticated = true
		s.Token = "tok"
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !out.IsAuthenticated || out.Token != "tok" {
		t.Fatalf("update result not applied: %+v", out)
	}

	got, _ := store.Get(ctx, "s1")
	if !got.IsAuthenticated || got.Token != "tok" {
		t.Fatalf("update not persisted")
	}
}

func TestRedisStore_UpdateErrorDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	store, _ := setupRedis(t)

	if err := store.Put(ctx, &domain.Session{ID: "s1", Token: "orig"}); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	if _, err := store.Update(ctx, "s1", func(s *domain.Session) error {
		s.Token = "changed"
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	got, _ := store.Get(ctx, "s1")
	if got.Token != "orig" {
		t.Fatalf("failed update leaked changes: %v", got.Token)
	}
}

func TestRedisStore_UpdateMissing(t *testing.T) {
	store, _ := setupRedis(t)
	if _, err := store.Update(context.Background(), "ghost", func(s *domain.Session) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRedisStore_SessionExpires(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedis(t)

	if err := store.Put(ctx, &domain.Session{ID: "s1"}); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL("mithai:session:s1"); ttl <= 0 {
		t.Fatalf("no ttl set on session key, got %v", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired session to be gone, got %v", err)
	}
}

func TestRedisStore_InvalidURL(t *testing.T) {
	if _, err := NewRedisStore("not-a-url", time.Hour); err == nil {
		t.Fatalf("expected error for invalid redis URL")
	}
}
