package service

import (
	"context"
	"strings"

	"mithai/internal/backend"
	"mithai/internal/domain"
	"mithai/internal/repository"
)

// AuthService вход и выход покупателя; токен хранится в сессии как
// непрозрачная строка
type AuthService struct {
	sessions repository.SessionRepository
	api      *backend.Client
}

func NewAuthService(sessions repository.SessionRepository, api *backend.Client) *AuthService {
	return &AuthService{sessions: sessions, api: api}
}

// Login обменивает номер и пароль на токен и помечает сессию
// аутентифицированной
func (s *AuthService) Login(ctx context.Context, sessionID, mobileNumber, password string) (*domain.Session, error) {
	mobileNumber = strings.TrimSpace(mobileNumber)
	if mobileNumber == "" || password == "" {
		return nil, ErrInvalidInput
	}

	tok, err := s.api.Login(ctx, mobileNumber, password)
	if err != nil {
		return nil, err
	}

	phone := NormalizeTo10Digits(mobileNumber)
	return s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
		sess.User = &domain.User{ID: phone, LoginID: mobileNumber}
		sess.IsAuthenticated = true
		sess.Token = tok.AccessToken
		return nil
	})
}

// UpdateProfile дозаполняет контактные данные; без имени оформление
// заказа блокируется
func (s *AuthService) UpdateProfile(ctx context.Context, sessionID, name, email string) (*domain.Session, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, ErrInvalidInput
	}
	return s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
		if sess.User == nil {
			return ErrNotAuthenticated
		}
		sess.User.Name = name
		sess.User.Email = email
		return nil
	})
}

// Logout сбрасывает пользователя, токен и корзину
func (s *AuthService) Logout(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
		sess.User = nil
		sess.IsAuthenticated = false
		sess.Token = ""
		sess.Cart = nil
		sess.AppliedCoupon = nil
		return nil
	})
}
