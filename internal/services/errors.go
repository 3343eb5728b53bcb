package services

import "designcraft/internal/apperror"

// Доменные ошибки, сравниваемые через errors.Is.
var (
	ErrCouponNotFound = apperror.NotFound("coupon not found", nil)
	ErrCouponExpired  = apperror.Expired("coupon has expired", nil)
	ErrOrderNotFound  = apperror.NotFound("order not found", nil)
	ErrInvalidStatus  = apperror.Validation("invalid order status", nil)
	ErrEmptyFeedback  = apperror.Validation("feedback text or voice note is required", nil)
)
