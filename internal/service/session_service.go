package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"mithai/internal/domain"
	"mithai/internal/repository"
)

// SessionService управляет жизненным циклом клиентской сессии
type SessionService struct {
	sessions repository.SessionRepository
}

func NewSessionService(sessions repository.SessionRepository) *SessionService {
	return &SessionService{sessions: sessions}
}

// Ensure возвращает существующую сессию либо лениво создаёт новую.
// Неизвестный id сохраняется за клиентом, пустой заменяется на uuid.
func (s *SessionService) Ensure(ctx context.Context, id string) (*domain.Session, error) {
	if id != "" {
		sess, err := s.sessions.Get(ctx, id)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	sess := &domain.Session{ID: id, IsOnboarding: true}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// CompleteOnboarding сбрасывает флаг первого запуска
func (s *SessionService) CompleteOnboarding(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
		sess.IsOnboarding = false
		return nil
	})
}
