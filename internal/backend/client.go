package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mithai/internal/domain"
)

// ErrUnauthorized токен отсутствует или истёк; оформление требует повторного входа
var ErrUnauthorized = errors.New("unauthorized")

// APIError ошибка уровня API: бэкенд ответил, но со статусом неуспеха
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}

// Client клиент удалённого commerce-бэкенда. Все вызовы ограничены
// таймаутом клиента и передают Bearer-токен, если он есть.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// looseNumber бэкенд отдаёт числовые поля то числом, то строкой
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid numeric value %q", s)
	}
	*n = looseNumber(v)
	return nil
}

// envelope общий конверт ответов API
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// TokenResponse ответ эндпоинта Token (OAuth2 password grant)
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// CouponValidation одна строка результата проверки купона
type CouponValidation struct {
	DiscountAmount looseNumber `json:"DiscountAmount"`
	DiscountType   string      `json:"DiscountType"`
	DiscountValue  looseNumber `json:"DiscountValue"`
	Message        string      `json:"Message"`
}

// Amount абсолютная сумма скидки, разрешённая сервером
func (v CouponValidation) Amount() float64 {
	a := float64(v.DiscountAmount)
	if a < 0 {
		a = -a
	}
	return a
}

// Value величина скидки для отображения (процент либо сумма)
func (v CouponValidation) Value() float64 {
	a := float64(v.DiscountValue)
	if a < 0 {
		a = -a
	}
	return a
}

// Type классификация типа скидки по подстроке в метке
func (v CouponValidation) Type() domain.DiscountType {
	if strings.Contains(strings.ToLower(v.DiscountType), "percentage") {
		return domain.DiscountPercentage
	}
	return domain.DiscountFixed
}

// CouponListing купон из списка доступных
type CouponListing struct {
	ID                 int64       `json:"Id"`
	CouponCode         string      `json:"CouponCode"`
	Message            string      `json:"Message"`
	MinimumOrderAmount looseNumber `json:"MinimumOrderAmount"`
	MaxDiscountAmount  looseNumber `json:"MaxDiscountAmount"`
}

// OrderItem позиция заказа в формате бэкенда. Опциональные поля
// передаются пустой строкой, а не null: принимающая сторона null не терпит.
type OrderItem struct {
	ProductID     string  `json:"ProductId"`
	ProductName   string  `json:"ProductName"`
	Unit          string  `json:"Unit"`
	Price         float64 `json:"Price"`
	Quantity      int     `json:"Quantity"`
	Category      string  `json:"Category"`
	Image         string  `json:"Image"`
	VariantID     string  `json:"VariantId"`
	OriginalPrice float64 `json:"OriginalPrice,omitempty"`
	Tags          string  `json:"Tags"`
}

// PlaceOrderRequest запрос на оформление заказа
type PlaceOrderRequest struct {
	UserID            int64       `json:"UserId"`
	SlotID            int64       `json:"SlotId"`
	PaymentMethod     string      `json:"PaymentMethod"`
	PaymentStatus     string      `json:"PaymentStatus"`
	Subtotal          float64     `json:"Subtotal"`
	DeliveryFee       float64     `json:"DeliveryFee"`
	Savings           float64     `json:"Savings"`
	Total             float64     `json:"Total"`
	DeliveryAddressID string      `json:"DeliveryAddressId"`
	EstimatedDelivery string      `json:"EstimatedDelivery"`
	Items             []OrderItem `json:"Items"`
	CouponCode        string      `json:"CouponCode,omitempty"`
	CouponDiscount    float64     `json:"CouponDiscount,omitempty"`
}

// PlaceOrderResult серверный идентификатор созданного заказа
type PlaceOrderResult struct {
	OrderID string `json:"OrderId"`
}

// Login обменивает логин/пароль на токен (form-encoded password grant)
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("grant_type", "password")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/Token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Message: "token endpoint failed"}
	}

	var tok TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, ErrUnauthorized
	}
	return &tok, nil
}

// ValidateCoupon проверяет код купона для указанной суммы заказа
func (c *Client) ValidateCoupon(ctx context.Context, token, code string, orderAmount float64) (*CouponValidation, error) {
	body := map[string]any{"code": code, "orderAmount": orderAmount}
	env, err := c.postJSON(ctx, token, "/api/ValidateCouponCode", body)
	if err != nil {
		return nil, err
	}
	var rows []CouponValidation
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode coupon data: %w", err)
	}
	if len(rows) == 0 {
		return nil, &APIError{Status: env.Status, Message: "invalid coupon code"}
	}
	return &rows[0], nil
}

// GetCoupons возвращает список доступных купонов
func (c *Client) GetCoupons(ctx context.Context, token string) ([]CouponListing, error) {
	env, err := c.getJSON(ctx, token, "/api/GetCouponCodes")
	if err != nil {
		return nil, err
	}
	var rows []CouponListing
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &rows); err != nil {
			return nil, fmt.Errorf("failed to decode coupons: %w", err)
		}
	}
	return rows, nil
}

// GetDeliverySlots возвращает активные окна доставки
func (c *Client) GetDeliverySlots(ctx context.Context, token string) ([]domain.DeliverySlot, error) {
	env, err := c.getJSON(ctx, token, "/api/GetDeliverySlots")
	if err != nil {
		return nil, err
	}
	var slots []domain.DeliverySlot
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &slots); err != nil {
			return nil, fmt.Errorf("failed to decode delivery slots: %w", err)
		}
	}
	return slots, nil
}

// GetAddresses возвращает адреса пользователя; "no record" — не ошибка
func (c *Client) GetAddresses(ctx context.Context, token, userID string) ([]domain.Address, error) {
	env, err := c.getJSON(ctx, token, "/api/GetUserAddress?userId="+url.QueryEscape(userID))
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && strings.Contains(strings.ToLower(apiErr.Message), "no record") {
			return nil, nil
		}
		return nil, err
	}
	var addrs []domain.Address
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &addrs); err != nil {
			return nil, fmt.Errorf("failed to decode addresses: %w", err)
		}
	}
	return addrs, nil
}

// GetProducts возвращает каталог товаров
func (c *Client) GetProducts(ctx context.Context, token string) ([]domain.Product, error) {
	env, err := c.getJSON(ctx, token, "/api/GetProducts")
	if err != nil {
		return nil, err
	}
	var products []domain.Product
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &products); err != nil {
			return nil, fmt.Errorf("failed to decode products: %w", err)
		}
	}
	return products, nil
}

// GetCategories возвращает категории каталога
func (c *Client) GetCategories(ctx context.Context, token string) ([]domain.Category, error) {
	env, err := c.getJSON(ctx, token, "/api/GetCategories")
	if err != nil {
		return nil, err
	}
	var cats []domain.Category
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &cats); err != nil {
			return nil, fmt.Errorf("failed to decode categories: %w", err)
		}
	}
	return cats, nil
}

// PlaceOrder отправляет собранный заказ
func (c *Client) PlaceOrder(ctx context.Context, token string, order *PlaceOrderRequest) (*PlaceOrderResult, error) {
	env, err := c.postJSON(ctx, token, "/api/PlaceOrder", order)
	if err != nil {
		return nil, err
	}
	var res PlaceOrderResult
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &res); err != nil {
			return nil, fmt.Errorf("failed to decode order response: %w", err)
		}
	}
	return &res, nil
}

func (c *Client) getJSON(ctx context.Context, token, endpoint string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req, token)
}

func (c *Client) postJSON(ctx context.Context, token, endpoint string, body any) (*envelope, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, token)
}

func (c *Client) do(req *http.Request, token string) (*envelope, error) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Status != 0 {
		return nil, &APIError{Status: env.Status, Message: env.Message}
	}
	return &env, nil
}
