package service

import "mithai/internal/domain"

// DefaultDeliveryFee плоская стоимость доставки; от суммы заказа не зависит
const DefaultDeliveryFee = 29.0

// ComputeBreakdown чистая функция (корзина, купон) -> раскладка стоимости.
// Порядок: базовая сумма -> скидки товаров -> скидка купона -> доставка.
func ComputeBreakdown(cart []domain.CartItem, coupon *domain.AppliedCoupon, deliveryFee float64) domain.PricingBreakdown {
	baseTotal := 0.0
	for _, it := range cart {
		originalPrice := it.OriginalPrice
		if originalPrice == 0 {
			originalPrice = it.Price
		}
		baseTotal += originalPrice * float64(it.Quantity)
	}

	productSavings := 0.0
	for _, it := range cart {
		if it.OriginalPrice > it.Price {
			productSavings += (it.OriginalPrice - it.Price) * float64(it.Quantity)
		}
	}

	totalAfterProductSavings := baseTotal - productSavings

	couponDiscount := 0.0
	if coupon != nil {
		couponDiscount = coupon.DiscountAmount
	}

	totalAfterCoupon := totalAfterProductSavings - couponDiscount

	finalTotal := totalAfterCoupon + deliveryFee
	if finalTotal < 0 {
		finalTotal = 0
	}

	return domain.PricingBreakdown{
		BaseTotal:                baseTotal,
		ProductSavings:           productSavings,
		TotalAfterProductSavings: totalAfterProductSavings,
		DeliveryFee:              deliveryFee,
		CouponDiscount:           couponDiscount,
		TotalAfterCoupon:         totalAfterCoupon,
		FinalTotal:               finalTotal,
	}
}
