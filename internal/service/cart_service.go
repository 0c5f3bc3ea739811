package service

import (
	"context"
	"errors"
	"log"

	"mithai/internal/domain"
	"mithai/internal/repository"
)

var ErrInvalidInput = errors.New("invalid input")

// CartService реализует операции над корзиной сессии
type CartService struct {
	sessions repository.SessionRepository
}

func NewCartService(sessions repository.SessionRepository) *CartService {
	return &CartService{sessions: sessions}
}

// AddToCart добавляет товар; при совпадении id количество суммируется.
// Верхней границы нет: доступность запаса проверяет бэкенд при заказе.
func (s *CartService) AddToCart(ctx context.Context, sessionID string, product domain.Product, quantity int) (*domain.Session, error) {
	if product.ID == "" || quantity < 1 {
		return nil, ErrInvalidInput
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range sess.Cart {
		if sess.Cart[i].ID == product.ID {
			sess.Cart[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		sess.Cart = append(sess.Cart, domain.CartItem{Product: product, Quantity: quantity})
	}

	s.persist(ctx, sess)
	return sess, nil
}

// RemoveFromCart удаляет позицию; отсутствие позиции не ошибка
func (s *CartService) RemoveFromCart(ctx context.Context, sessionID, productID string) (*domain.Session, error) {
	if productID == "" {
		return nil, ErrInvalidInput
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.Cart = removeItem(sess.Cart, productID)
	s.persist(ctx, sess)
	return sess, nil
}

// UpdateQuantity выставляет количество точно; нулевое и отрицательное
// количество равносильно удалению
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*domain.Session, error) {
	if productID == "" {
		return nil, ErrInvalidInput
	}
	if quantity <= 0 {
		return s.RemoveFromCart(ctx, sessionID, productID)
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	for i := range sess.Cart {
		if sess.Cart[i].ID == productID {
			sess.Cart[i].Quantity = quantity
			break
		}
	}
	s.persist(ctx, sess)
	return sess, nil
}

// ClearCart безусловно опустошает корзину
func (s *CartService) ClearCart(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.Cart = nil
	s.persist(ctx, sess)
	return sess, nil
}

// persist сохраняет сессию best-effort: сбой записи логируется и не
// прерывает операцию
func (s *CartService) persist(ctx context.Context, sess *domain.Session) {
	if err := s.sessions.Put(ctx, sess); err != nil {
		log.Printf("failed to persist session %s: %v", sess.ID, err)
	}
}

func removeItem(cart []domain.CartItem, productID string) []domain.CartItem {
	out := cart[:0]
	for _, it := range cart {
		if it.ID != productID {
			out = append(out, it)
		}
	}
	return out
}

// CartTotal сумма текущих (уценённых) цен по количеству
func CartTotal(cart []domain.CartItem) float64 {
	total := 0.0
	for _, it := range cart {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// CartItemsCount общее число единиц товара, не число строк
func CartItemsCount(cart []domain.CartItem) int {
	count := 0
	for _, it := range cart {
		count += it.Quantity
	}
	return count
}
