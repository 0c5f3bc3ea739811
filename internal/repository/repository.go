package repository

import (
	"context"
	"errors"

	"mithai/internal/domain"
)

// ErrNotFound возвращается, когда сессия не найдена
var ErrNotFound = errors.New("not found")

// SessionRepository интерфейс хранилища клиентского состояния.
// Update выполняет атомарное чтение-изменение-запись.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Put(ctx context.Context, s *domain.Session) error
	Update(ctx context.Context, id string, fn func(s *domain.Session) error) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}
