package models

import (
	"time"

	"github.com/google/uuid"
)

// Coupon представляет купон со скидкой в процентах
type Coupon struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	Discount  int       `json:"discount" db:"discount"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CouponDiscount - результат успешной проверки купона
type CouponDiscount struct {
	Discount  int       `json:"discount"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CreateCouponRequest описывает запрос на создание купона.
// ExpiresAt принимает RFC3339 или дату YYYY-MM-DD (полночь UTC).
type CreateCouponRequest struct {
	Code      string `json:"code"`
	Discount  int    `json:"discount"`
	ExpiresAt string `json:"expiresAt"`
}

// ApplyCouponRequest описывает запрос на проверку купона
type ApplyCouponRequest struct {
	Code string `json:"code"`
}
