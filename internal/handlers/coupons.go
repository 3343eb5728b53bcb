package handlers

import (
	"net/http"

	"designcraft/internal/logger"
	"designcraft/internal/models"
)

// CouponHandler обслуживает проверку купонов и их администрирование
type CouponHandler struct {
	coupons CouponService
	log     *logger.Logger
}

// NewCouponHandler создает обработчик купонов
func NewCouponHandler(coupons CouponService, log *logger.Logger) *CouponHandler {
	return &CouponHandler{coupons: coupons, log: log}
}

// ApplyCoupon проверяет код и возвращает скидку без побочных эффектов
func (h *CouponHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.ApplyCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	discount, err := h.coupons.Validate(r.Context(), req.Code)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to apply coupon")
		return
	}
	writeJSONResponse(w, http.StatusOK, discount)
}

// CreateCoupon создает купон
func (h *CouponHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CreateCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	coupon, err := h.coupons.CreateCoupon(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create coupon")
		return
	}
	writeJSONResponse(w, http.StatusCreated, coupon)
}

// ListCoupons возвращает все купоны
func (h *CouponHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	coupons, err := h.coupons.ListCoupons(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list coupons")
		return
	}
	writeJSONResponse(w, http.StatusOK, coupons)
}

// GetCoupon возвращает купон по ID
func (h *CouponHandler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/coupons/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid coupon ID")
		return
	}

	coupon, err := h.coupons.GetCoupon(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get coupon")
		return
	}
	writeJSONResponse(w, http.StatusOK, coupon)
}

// DeleteCoupon удаляет купон
func (h *CouponHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/coupons/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid coupon ID")
		return
	}

	if err := h.coupons.DeleteCoupon(r.Context(), id); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete coupon")
		return
	}
	writeJSONResponse(w, http.StatusOK, MessageResponse{Message: "Coupon deleted successfully"})
}
