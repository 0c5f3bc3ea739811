package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mithai/internal/backend"
	"mithai/internal/domain"
	"mithai/internal/repository"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrOrderInFlight    = errors.New("order already in flight")
	ErrNoValidItems     = errors.New("no valid items in cart")
)

// PrunedItemsError из корзины удалены некорректные позиции; оформление
// прервано, пользователь должен перепроверить корзину
type PrunedItemsError struct {
	Removed int
}

func (e *PrunedItemsError) Error() string {
	return fmt.Sprintf("removed %d invalid item(s) from cart, review and try again", e.Removed)
}

// PlaceOrderInput выбор пользователя на экране оформления
type PlaceOrderInput struct {
	AddressID     string `json:"addressId"`
	SlotID        int64  `json:"slotId"`
	PaymentMethod string `json:"paymentMethod"`
}

// CheckoutService сборка и отправка заказа, работа с купонами
type CheckoutService struct {
	sessions    repository.SessionRepository
	api         *backend.Client
	deliveryFee float64

	// per-session latch: не более одной отправки заказа одновременно
	mu       sync.Mutex
	inFlight map[string]bool
}

func NewCheckoutService(sessions repository.SessionRepository, api *backend.Client, deliveryFee float64) *CheckoutService {
	if deliveryFee <= 0 {
		deliveryFee = DefaultDeliveryFee
	}
	return &CheckoutService{
		sessions:    sessions,
		api:         api,
		deliveryFee: deliveryFee,
		inFlight:    make(map[string]bool),
	}
}

// Quote раскладка стоимости текущей корзины с учётом купона
func (s *CheckoutService) Quote(ctx context.Context, sessionID string) (*domain.PricingBreakdown, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	b := ComputeBreakdown(sess.Cart, sess.AppliedCoupon, s.deliveryFee)
	return &b, nil
}

// ApplyCoupon проверяет код на бэкенде и сохраняет разрешённую сервером
// абсолютную скидку. Любой сбой оставляет сессию без купона.
func (s *CheckoutService) ApplyCoupon(ctx context.Context, sessionID, code string) (*domain.Session, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("%w: coupon code is required", ErrInvalidInput)
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Token == "" {
		return nil, ErrNotAuthenticated
	}

	// order amount as the validator expects it: after product savings, with delivery
	b := ComputeBreakdown(sess.Cart, nil, s.deliveryFee)
	orderAmount := b.TotalAfterProductSavings + b.DeliveryFee

	row, err := s.api.ValidateCoupon(ctx, sess.Token, code, orderAmount)
	if err != nil {
		// no partial coupon state on failure
		s.clearCoupon(ctx, sessionID)
		return nil, err
	}

	discount := row.Amount()
	display := discount
	if row.Type() == domain.DiscountPercentage {
		display = row.Value()
	}

	return s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
		sess.AppliedCoupon = &domain.AppliedCoupon{
			Code:           code,
			Discount:       display,
			DiscountType:   row.Type(),
			DiscountAmount: discount,
			Message:        row.Message,
		}
		return nil
	})
}

// RemoveCoupon снимает применённый купон
func (s *CheckoutService) RemoveCoupon(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
		sess.AppliedCoupon = nil
		return nil
	})
}

// ListCoupons доступные купоны для витрины
func (s *CheckoutService) ListCoupons(ctx context.Context, sessionID string) ([]backend.CouponListing, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Token == "" {
		return nil, ErrNotAuthenticated
	}
	return s.api.GetCoupons(ctx, sess.Token)
}

// DeliverySlots активные окна доставки
func (s *CheckoutService) DeliverySlots(ctx context.Context, sessionID string) ([]domain.DeliverySlot, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Token == "" {
		return nil, ErrNotAuthenticated
	}
	return s.api.GetDeliverySlots(ctx, sess.Token)
}

// Addresses адреса текущего пользователя
func (s *CheckoutService) Addresses(ctx context.Context, sessionID string) ([]domain.Address, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Token == "" || sess.User == nil {
		return nil, ErrNotAuthenticated
	}
	return s.api.GetAddresses(ctx, sess.Token, sess.User.ID)
}

// PlaceOrder полный цикл оформления: предусловия, чистка корзины,
// пересчёт, сборка запроса, валидация, отправка, локальная запись
func (s *CheckoutService) PlaceOrder(ctx context.Context, sessionID string, in PlaceOrderInput) (*domain.Order, error) {
	if !s.acquire(sessionID) {
		return nil, ErrOrderInFlight
	}
	defer s.release(sessionID)

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.IsAuthenticated || sess.Token == "" || sess.User == nil {
		return nil, ErrNotAuthenticated
	}
	if strings.TrimSpace(sess.User.Name) == "" || strings.TrimSpace(sess.User.ID) == "" {
		return nil, fmt.Errorf("%w: complete your contact information", ErrInvalidInput)
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return nil, fmt.Errorf("%w: payment method is required", ErrInvalidInput)
	}

	userID, err := ToBackendID(sess.User.ID)
	if err != nil {
		return nil, err
	}

	slot, err := s.resolveSlot(ctx, sess.Token, in.SlotID)
	if err != nil {
		return nil, err
	}
	address, err := s.resolveAddress(ctx, sess, in.AddressID)
	if err != nil {
		return nil, err
	}

	validItems, removed := pruneInvalidItems(sess.Cart)
	if removed > 0 {
		// the prune is a real cart mutation, persisted even though we abort
		if _, uerr := s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
			sess.Cart = validItems
			return nil
		}); uerr != nil {
			log.Printf("failed to persist pruned cart for session %s: %v", sessionID, uerr)
		}
		if len(validItems) == 0 {
			return nil, ErrNoValidItems
		}
		return nil, &PrunedItemsError{Removed: removed}
	}
	if len(validItems) == 0 {
		return nil, ErrNoValidItems
	}

	// figures computed against the unpruned cart are discarded
	breakdown := ComputeBreakdown(validItems, sess.AppliedCoupon, s.deliveryFee)

	orderItems, err := buildOrderItems(validItems)
	if err != nil {
		return nil, err
	}

	paymentStatus := domain.PaymentStatusPaid
	if strings.ToLower(strings.TrimSpace(in.PaymentMethod)) == "cod" {
		paymentStatus = domain.PaymentStatusUnpaid
	}

	estimatedDelivery := time.Now().UTC().Add(30 * time.Minute)

	req := &backend.PlaceOrderRequest{
		UserID:            userID,
		SlotID:            slot.ID,
		PaymentMethod:     strings.TrimSpace(in.PaymentMethod),
		PaymentStatus:     string(paymentStatus),
		Subtotal:          clampNonNegative(breakdown.BaseTotal),
		DeliveryFee:       clampNonNegative(breakdown.DeliveryFee),
		Savings:           clampNonNegative(breakdown.ProductSavings),
		Total:             clampNonNegative(breakdown.FinalTotal),
		DeliveryAddressID: address.ID,
		EstimatedDelivery: estimatedDelivery.Format(time.RFC3339),
		Items:             orderItems,
	}
	if sess.AppliedCoupon != nil && strings.TrimSpace(sess.AppliedCoupon.Code) != "" {
		req.CouponCode = strings.TrimSpace(sess.AppliedCoupon.Code)
		req.CouponDiscount = clampNonNegative(breakdown.CouponDiscount)
	}

	if err := validateOrderRequest(req); err != nil {
		return nil, err
	}

	res, err := s.api.PlaceOrder(ctx, sess.Token, req)
	if err != nil {
		// cart stays intact, user retries manually
		return nil, err
	}

	orderID := res.OrderID
	if orderID == "" {
		orderID = "ORDER_" + uuid.NewString()
	}
	order := domain.Order{
		ID:                orderID,
		Items:             validItems,
		Total:             breakdown.FinalTotal,
		Status:            domain.OrderStatusProcessing,
		PaymentStatus:     paymentStatus,
		PaymentMethod:     req.PaymentMethod,
		DeliveryAddress:   *address,
		DeliverySlot:      slot.DisplayText,
		CreatedAt:         time.Now().UTC(),
		EstimatedDelivery: estimatedDelivery,
	}

	if _, uerr := s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
		sess.Orders = append(sess.Orders, order)
		sess.Cart = nil
		sess.AppliedCoupon = nil
		return nil
	}); uerr != nil {
		// order is already placed remotely, losing the local record is non-fatal
		log.Printf("failed to record order %s for session %s: %v", order.ID, sessionID, uerr)
	}

	return &order, nil
}

// Orders локальная история заказов
func (s *CheckoutService) Orders(ctx context.Context, sessionID string) ([]domain.Order, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Orders, nil
}

func (s *CheckoutService) acquire(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[sessionID] {
		return false
	}
	s.inFlight[sessionID] = true
	return true
}

func (s *CheckoutService) release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, sessionID)
}

func (s *CheckoutService) clearCoupon(ctx context.Context, sessionID string) {
	if _, err := s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
		sess.AppliedCoupon = nil
		return nil
	}); err != nil {
		log.Printf("failed to clear coupon for session %s: %v", sessionID, err)
	}
}

func (s *CheckoutService) resolveSlot(ctx context.Context, token string, slotID int64) (*domain.DeliverySlot, error) {
	if slotID <= 0 {
		return nil, fmt.Errorf("%w: select a delivery slot", ErrInvalidInput)
	}
	slots, err := s.api.GetDeliverySlots(ctx, token)
	if err != nil {
		return nil, err
	}
	for i := range slots {
		if slots[i].ID == slotID {
			return &slots[i], nil
		}
	}
	return nil, fmt.Errorf("%w: invalid delivery slot", ErrInvalidInput)
}

// resolveAddress выбранный адрес, иначе адрес по умолчанию, иначе первый
func (s *CheckoutService) resolveAddress(ctx context.Context, sess *domain.Session, addressID string) (*domain.Address, error) {
	addrs, err := s.api.GetAddresses(ctx, sess.Token, sess.User.ID)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: add a delivery address", ErrInvalidInput)
	}
	for i := range addrs {
		if addrs[i].ID == addressID {
			return &addrs[i], nil
		}
	}
	for i := range addrs {
		if addrs[i].IsDefault {
			return &addrs[i], nil
		}
	}
	return &addrs[0], nil
}

// pruneInvalidItems позиция корректна, когда name, unit, category и image
// непустые; остальное вычищается
func pruneInvalidItems(cart []domain.CartItem) ([]domain.CartItem, int) {
	valid := make([]domain.CartItem, 0, len(cart))
	for _, it := range cart {
		if strings.TrimSpace(it.Name) == "" ||
			strings.TrimSpace(it.Unit) == "" ||
			strings.TrimSpace(it.Category) == "" ||
			strings.TrimSpace(it.Image) == "" {
			continue
		}
		valid = append(valid, it)
	}
	return valid, len(cart) - len(valid)
}

// buildOrderItems маппинг в формат бэкенда; опциональные поля всегда
// присутствуют с пустыми значениями вместо null
func buildOrderItems(items []domain.CartItem) ([]backend.OrderItem, error) {
	out := make([]backend.OrderItem, 0, len(items))
	for i, it := range items {
		productID := strings.TrimSpace(it.ID)
		productName := strings.TrimSpace(it.Name)
		unit := strings.TrimSpace(it.Unit)
		category := strings.TrimSpace(it.Category)
		image := strings.TrimSpace(it.Image)

		switch {
		case productID == "":
			return nil, fmt.Errorf("%w: cart item %d: product id is missing", ErrInvalidInput, i+1)
		case productName == "":
			return nil, fmt.Errorf("%w: cart item %d: product name is missing", ErrInvalidInput, i+1)
		case unit == "":
			return nil, fmt.Errorf("%w: cart item %d: unit is missing", ErrInvalidInput, i+1)
		case category == "":
			return nil, fmt.Errorf("%w: cart item %d: category is missing", ErrInvalidInput, i+1)
		case image == "":
			return nil, fmt.Errorf("%w: cart item %d: image is missing", ErrInvalidInput, i+1)
		case it.Price <= 0:
			return nil, fmt.Errorf("%w: cart item %d: price must be greater than 0", ErrInvalidInput, i+1)
		case it.Quantity <= 0:
			return nil, fmt.Errorf("%w: cart item %d: quantity must be greater than 0", ErrInvalidInput, i+1)
		}

		oi := backend.OrderItem{
			ProductID:   productID,
			ProductName: productName,
			Unit:        unit,
			Price:       it.Price,
			Quantity:    it.Quantity,
			Category:    category,
			Image:       image,
			VariantID:   "",
			Tags:        joinTags(it.Tags),
		}
		if it.Variant != nil && strings.TrimSpace(it.Variant.ID) != "" {
			oi.VariantID = strings.TrimSpace(it.Variant.ID)
		}
		if it.OriginalPrice > 0 && it.OriginalPrice != it.Price {
			oi.OriginalPrice = it.OriginalPrice
		}
		out = append(out, oi)
	}
	return out, nil
}

func joinTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if s := strings.TrimSpace(t); s != "" {
			clean = append(clean, s)
		}
	}
	return strings.Join(clean, ", ")
}

// validateOrderRequest последний рубеж перед сетью: каждое обязательное
// поле запроса и каждой позиции должно быть заполнено
func validateOrderRequest(req *backend.PlaceOrderRequest) error {
	switch {
	case req.UserID <= 0:
		return fmt.Errorf("%w: invalid UserId", ErrInvalidInput)
	case req.SlotID <= 0:
		return fmt.Errorf("%w: invalid SlotId", ErrInvalidInput)
	case strings.TrimSpace(req.PaymentMethod) == "":
		return fmt.Errorf("%w: invalid PaymentMethod", ErrInvalidInput)
	case req.PaymentStatus != string(domain.PaymentStatusPaid) && req.PaymentStatus != string(domain.PaymentStatusUnpaid):
		return fmt.Errorf("%w: invalid PaymentStatus", ErrInvalidInput)
	case strings.TrimSpace(req.DeliveryAddressID) == "":
		return fmt.Errorf("%w: invalid DeliveryAddressId", ErrInvalidInput)
	case strings.TrimSpace(req.EstimatedDelivery) == "":
		return fmt.Errorf("%w: invalid EstimatedDelivery", ErrInvalidInput)
	case len(req.Items) == 0:
		return fmt.Errorf("%w: order must contain at least one item", ErrInvalidInput)
	}
	for i, it := range req.Items {
		switch {
		case it.ProductID == "", it.ProductName == "", it.Unit == "", it.Category == "", it.Image == "":
			return fmt.Errorf("%w: order item %d has a missing required field", ErrInvalidInput, i+1)
		case it.Price <= 0 || it.Quantity <= 0:
			return fmt.Errorf("%w: order item %d has a non-positive amount", ErrInvalidInput, i+1)
		}
	}
	return nil
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
