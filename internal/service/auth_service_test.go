package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mithai/internal/backend"
	"mithai/internal/domain"
	"mithai/internal/repository"
)

func setupAuth(t *testing.T) (*AuthService, *repository.MemoryStore) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/Token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("password") != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","expires_in":3600}`))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	store := repository.NewMemoryStore()
	if err := store.Put(context.Background(), &domain.Session{ID: "s1", IsOnboarding: true}); err != nil {
		t.Fatal(err)
	}
	return NewAuthService(store, backend.NewClient(ts.URL, 5*time.Second)), store
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	auth, store := setupAuth(t)

	sess, err := auth.Login(ctx, "s1", "+91 98765 43210", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !sess.IsAuthenticated || sess.Token != "tok-123" {
		t.Fatalf("session not authenticated: %+v", sess)
	}
	if sess.User == nil || sess.User.ID != "9876543210" {
		t.Fatalf("user id expected normalized phone, got %+v", sess.User)
	}

	stored, _ := store.Get(ctx, "s1")
	if stored.Token != "tok-123" {
		t.Fatalf("token not persisted")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	ctx := context.Background()
	auth, store := setupAuth(t)

	if _, err := auth.Login(ctx, "s1", "9876543210", "wrong"); !errors.Is(err, backend.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	// failed login leaves the session untouched
	sess, _ := store.Get(ctx, "s1")
	if sess.IsAuthenticated || sess.Token != "" {
		t.Fatalf("failed login mutated session: %+v", sess)
	}
}

func TestLogin_InvalidInput(t *testing.T) {
	auth, _ := setupAuth(t)
	if _, err := auth.Login(context.Background(), "s1", "", "secret"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := auth.Login(context.Background(), "s1", "9876543210", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	auth, _ := setupAuth(t)

	if _, err := auth.Login(ctx, "s1", "9876543210", "secret"); err != nil {
		t.Fatal(err)
	}
	sess, err := auth.UpdateProfile(ctx, "s1", "Asha", "asha@example.com")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if sess.User.Name != "Asha" || sess.User.Email != "asha@example.com" {
		t.Fatalf("profile not updated: %+v", sess.User)
	}
}

func TestUpdateProfile_RequiresNameAndUser(t *testing.T) {
	ctx := context.Background()
	auth, _ := setupAuth(t)

	if _, err := auth.UpdateProfile(ctx, "s1", "  ", "a@b.c"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank name, got %v", err)
	}
	// no user on the session yet
	if _, err := auth.UpdateProfile(ctx, "s1", "Asha", ""); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected not authenticated, got %v", err)
	}
}

func TestLogout_ClearsSessionState(t *testing.T) {
	ctx := context.Background()
	auth, store := setupAuth(t)

	if _, err := auth.Login(ctx, "s1", "9876543210", "secret"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Update(ctx, "s1", func(s *domain.Session) error {
		s.Cart = []domain.CartItem{{Product: sweet("p1", 450), Quantity: 1}}
		s.AppliedCoupon = &domain.AppliedCoupon{Code: "X", DiscountAmount: 10}
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	sess, err := auth.Logout(ctx, "s1")
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if sess.IsAuthenticated || sess.Token != "" || sess.User != nil {
		t.Fatalf("identity survived logout: %+v", sess)
	}
	if len(sess.Cart) != 0 || sess.AppliedCoupon != nil {
		t.Fatalf("cart state survived logout")
	}
}
