package services

import (
	"designcraft/internal/apperror"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PricingService рассчитывает итоговую стоимость заказа с учётом скидки.
type PricingService struct{}

// NewPricingService создаёт калькулятор цены.
func NewPricingService() *PricingService {
	return &PricingService{}
}

// ComputeFinalPrice возвращает base - round(base*percent/100).
// Скидка округляется до целой денежной единицы, половина - вверх.
func (s *PricingService) ComputeFinalPrice(base decimal.Decimal, percent int) (decimal.Decimal, error) {
	if !base.IsPositive() {
		return decimal.Zero, apperror.Validation("service price must be positive", nil)
	}
	if percent < 0 || percent > 100 {
		return decimal.Zero, apperror.Validation("discount percent must be between 0 and 100", nil)
	}
	if percent == 0 {
		return base, nil
	}

	discount := base.Mul(decimal.NewFromInt(int64(percent))).Div(hundred).Round(0)
	// дробная цена при 100% могла бы округлиться выше себя самой
	if discount.GreaterThan(base) {
		discount = base
	}
	return base.Sub(discount), nil
}
