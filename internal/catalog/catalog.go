package catalog

import (
	"context"
	"errors"
	"strings"

	"mithai/internal/backend"
	"mithai/internal/domain"
)

// ErrNotFound товар не найден
var ErrNotFound = errors.New("product not found")

// Provider источник каталога: удалённый бэкенд либо встроенный мок
type Provider interface {
	Products(ctx context.Context, category string) ([]domain.Product, error)
	ProductByID(ctx context.Context, id string) (*domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}

// Remote каталог с удалённого бэкенда; эндпоинты публичные, токен не нужен
type Remote struct {
	api *backend.Client
}

func NewRemote(api *backend.Client) *Remote {
	return &Remote{api: api}
}

var _ Provider = (*Remote)(nil)

func (r *Remote) Products(ctx context.Context, category string) ([]domain.Product, error) {
	products, err := r.api.GetProducts(ctx, "")
	if err != nil {
		return nil, err
	}
	return filterByCategory(products, category), nil
}

func (r *Remote) ProductByID(ctx context.Context, id string) (*domain.Product, error) {
	products, err := r.api.GetProducts(ctx, "")
	if err != nil {
		return nil, err
	}
	return findByID(products, id)
}

func (r *Remote) Categories(ctx context.Context) ([]domain.Category, error) {
	return r.api.GetCategories(ctx, "")
}

// Mock встроенный каталог; используется, когда удалённый не настроен
type Mock struct {
	products   []domain.Product
	categories []domain.Category
}

func NewMock() *Mock {
	return &Mock{products: mockSweets(), categories: mockCategories()}
}

var _ Provider = (*Mock)(nil)

func (m *Mock) Products(ctx context.Context, category string) ([]domain.Product, error) {
	return filterByCategory(m.products, category), nil
}

func (m *Mock) ProductByID(ctx context.Context, id string) (*domain.Product, error) {
	return findByID(m.products, id)
}

func (m *Mock) Categories(ctx context.Context) ([]domain.Category, error) {
	out := make([]domain.Category, len(m.categories))
	copy(out, m.categories)
	return out, nil
}

func filterByCategory(products []domain.Product, category string) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if category == "" || strings.EqualFold(p.Category, category) {
			out = append(out, copyProduct(p))
		}
	}
	return out
}

func findByID(products []domain.Product, id string) (*domain.Product, error) {
	for _, p := range products {
		if p.ID == id {
			cp := copyProduct(p)
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// copyProduct клонирует и слайс тегов, иначе копии делят память с каталогом
func copyProduct(p domain.Product) domain.Product {
	if len(p.Tags) > 0 {
		tags := make([]string, len(p.Tags))
		copy(tags, p.Tags)
		p.Tags = tags
	}
	return p
}

func mockCategories() []domain.Category {
	return []domain.Category{
		{ID: "traditional-mithai", Name: "Traditional Mithai", Image: "/categories/TraditionalMithai.jpg", Description: "Classic Indian sweets"},
		{ID: "sugar-free", Name: "Sugar-Free Delights", Image: "/categories/SugarFreeDelights.webp", Description: "Mindful indulgence"},
		{ID: "premium-sweets", Name: "Premium Sweets", Image: "/categories/PremiumSweets.jpg", Description: "Premium sweets"},
		{ID: "dry-fruits", Name: "Dry Fruit Specials", Image: "/categories/DryFruitSpecials.jpg", Description: "Premium dry fruits"},
		{ID: "gift-boxes", Name: "Gift Hampers", Image: "/categories/GiftHampers.jpg", Description: "Curated gift hampers"},
	}
}

func mockSweets() []domain.Product {
	return []domain.Product{
		{
			ID: "1", Name: "Kaju Katli", Description: "Soft, rich & melt-in-mouth",
			Price: 450, OriginalPrice: 500, Unit: "500g",
			Image:    "/products/kaju-katli.jpg",
			Category: "traditional-mithai", InStock: true,
			Rating: 4.8, ReviewCount: 124, Discount: 10,
			Tags: []string{"popular", "gift"},
		},
		{
			ID: "2", Name: "Gulab Jamun", Description: "Soft, syrupy & perfectly sweet",
			Price: 300, Unit: "1kg",
			Image:    "/products/gulab-jamun.jpg",
			Category: "traditional-mithai", InStock: true,
			Rating: 4.7, ReviewCount: 89,
			Tags: []string{"popular"},
		},
		{
			ID: "3", Name: "Rasgulla", Description: "Spongy, light & refreshing",
			Price: 280, Unit: "1kg",
			Image:    "/products/rasgulla.jpg",
			Category: "traditional-mithai", InStock: true,
			Rating: 4.6, ReviewCount: 67,
		},
		{
			ID: "4", Name: "Sugar-Free Anjeer Barfi", Description: "Fig sweetness, no added sugar",
			Price: 520, OriginalPrice: 580, Unit: "250g",
			Image:    "/products/anjeer-barfi.jpg",
			Category: "sugar-free", InStock: true,
			Rating: 4.5, ReviewCount: 41, Discount: 10,
			Tags: []string{"sugar-free"},
		},
		{
			ID: "5", Name: "Premium Motichoor Ladoo", Description: "Fine boondi, slow-roasted in ghee",
			Price: 380, Unit: "500g",
			Image:    "/products/motichoor-ladoo.jpg",
			Category: "premium-sweets", InStock: true,
			Rating: 4.9, ReviewCount: 203,
			Tags: []string{"popular", "festive"},
		},
		{
			ID: "6", Name: "Roasted Almond Box", Description: "Salted premium almonds",
			Price: 650, OriginalPrice: 720, Unit: "400g",
			Image:    "/products/almond-box.jpg",
			Category: "dry-fruits", InStock: false,
			Rating: 4.4, ReviewCount: 28, Discount: 10,
			Tags: []string{"gift"},
		},
		{
			ID: "7", Name: "Festive Gift Hamper", Description: "Assorted mithai & dry fruits",
			Price: 1200, OriginalPrice: 1400, Unit: "1 box",
			Image:    "/products/gift-hamper.jpg",
			Category: "gift-boxes", InStock: true,
			Rating: 4.7, ReviewCount: 52, Discount: 14,
			Tags: []string{"gift", "festive"},
		},
	}
}
