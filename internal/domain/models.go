package domain

import "time"

// Product представляет сладость в каталоге магазина
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"originalPrice,omitempty"`
	Image         string   `json:"image"`
	Category      string   `json:"category"`
	Unit          string   `json:"unit"`
	InStock       bool     `json:"inStock"`
	Rating        float64  `json:"rating"`
	ReviewCount   int      `json:"reviewCount"`
	Discount      float64  `json:"discount,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// Category категория витрины
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	Description string `json:"description,omitempty"`
}

// Variant вариант товара (размер/фасовка)
type Variant struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Size string `json:"size,omitempty"`
	Unit string `json:"unit,omitempty"`
}

// CartItem позиция корзины: товар плюс количество
type CartItem struct {
	Product
	Quantity int      `json:"quantity"`
	Variant  *Variant `json:"variant,omitempty"`
}

// User данные покупателя
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	LoginID string `json:"loginId"`
	Role    string `json:"role,omitempty"`
}

// DiscountType тип скидки купона
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// AppliedCoupon купон, применённый к текущей сессии оформления
type AppliedCoupon struct {
	Code           string       `json:"code"`
	Discount       float64      `json:"discount"`
	DiscountType   DiscountType `json:"discountType"`
	DiscountAmount float64      `json:"discountAmount"`
	Message        string       `json:"message,omitempty"`
}

// Address адрес доставки покупателя
type Address struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	FullAddress string `json:"fullAddress"`
	Street      string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Pincode     string `json:"pincode,omitempty"`
	Landmark    string `json:"landmark,omitempty"`
	IsDefault   bool   `json:"isDefault"`
}

// DeliverySlot окно доставки, выбирается один раз при оформлении
type DeliverySlot struct {
	ID          int64  `json:"id"`
	DisplayText string `json:"displayText"`
	Name        string `json:"name,omitempty"`
}

// OrderStatus статус локальной записи заказа
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
)

// PaymentStatus статус оплаты, выводится из способа оплаты
type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "Paid"
	PaymentStatusUnpaid PaymentStatus = "Unpaid"
)

// Order локальная запись оформленного заказа
type Order struct {
	ID                string        `json:"id"`
	Items             []CartItem    `json:"items"`
	Total             float64       `json:"total"`
	Status            OrderStatus   `json:"status"`
	PaymentStatus     PaymentStatus `json:"paymentStatus"`
	PaymentMethod     string        `json:"paymentMethod"`
	DeliveryAddress   Address       `json:"deliveryAddress"`
	DeliverySlot      string        `json:"deliverySlot"`
	CreatedAt         time.Time     `json:"createdAt"`
	EstimatedDelivery time.Time     `json:"estimatedDelivery"`
}

// Session всё клиентское состояние, переживающее перезагрузку:
// пользователь, токен, корзина, флаг онбординга и история заказов
type Session struct {
	ID              string         `json:"id"`
	User            *User          `json:"user,omitempty"`
	IsAuthenticated bool           `json:"isAuthenticated"`
	Token           string         `json:"token,omitempty"`
	Cart            []CartItem     `json:"cart"`
	AppliedCoupon   *AppliedCoupon `json:"appliedCoupon,omitempty"`
	IsOnboarding    bool           `json:"isOnboarding"`
	Orders          []Order        `json:"orders,omitempty"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// PricingBreakdown результат расчёта стоимости корзины, каждое поле
// вычисляется из предыдущего
type PricingBreakdown struct {
	BaseTotal                float64 `json:"baseTotal"`
	ProductSavings           float64 `json:"productSavings"`
	TotalAfterProductSavings float64 `json:"totalAfterProductSavings"`
	DeliveryFee              float64 `json:"deliveryFee"`
	CouponDiscount           float64 `json:"couponDiscount"`
	TotalAfterCoupon         float64 `json:"totalAfterCoupon"`
	FinalTotal               float64 `json:"finalTotal"`
}
