package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"designcraft/internal/logger"
	"designcraft/internal/services"
)

// MiddlewareLimiter описывает контракт для rate limiter.
type MiddlewareLimiter interface {
	Allow(ctx context.Context, key string) (services.RateDecision, error)
	Enabled() bool
	Limit() int64
}

// RateLimitStatusProvider расширяет интерфейс для эндпоинта статуса.
type RateLimitStatusProvider interface {
	MiddlewareLimiter
	Usage(ctx context.Context, key string) (services.RateUsage, error)
	Window() time.Duration
}

// RateLimitHandler отвечает за статус лимита.
type RateLimitHandler struct {
	limiter RateLimitStatusProvider
	log     *logger.Logger
}

// NewRateLimitHandler создает новый RateLimitHandler.
func NewRateLimitHandler(limiter RateLimitStatusProvider, log *logger.Logger) *RateLimitHandler {
	return &RateLimitHandler{limiter: limiter, log: log}
}

// Status возвращает текущие значения лимита для клиента.
func (h *RateLimitHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if h.limiter == nil || !h.limiter.Enabled() {
		writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"enabled": false,
		})
		return
	}

	key := services.ExtractClientIP(r)
	usage, err := h.limiter.Usage(r.Context(), key)
	if err != nil {
		h.log.WithError(err).Error("Failed to fetch rate limit usage")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to fetch rate limit usage")
		return
	}

	resp := map[string]interface{}{
		"enabled":        true,
		"limit":          h.limiter.Limit(),
		"window_seconds": int64(h.limiter.Window().Seconds()),
		"used":           usage.Used,
		"remaining":      usage.Remaining,
		"key":            key,
	}
	if usage.ResetAt != nil {
		resp["reset_at"] = usage.ResetAt.Format(time.RFC3339)
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// RateLimitMiddleware применяет rate limiting к хендлеру.
// Ошибка хранилища счётчиков не блокирует запрос.
func RateLimitMiddleware(limiter MiddlewareLimiter, log *logger.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if limiter == nil || !limiter.Enabled() {
			next(w, r)
			return
		}

		key := services.ExtractClientIP(r)
		decision, err := limiter.Allow(r.Context(), key)
		if err != nil {
			log.WithError(err).WithField("client", key).Warn("Rate limiter unavailable, request allowed")
			next(w, r)
			return
		}

		// Заголовки совместимые с common rate limit policy
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limiter.Limit(), 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		if !decision.ResetAt.IsZero() {
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
		}

		if !decision.Allowed {
			if !decision.ResetAt.IsZero() {
				retry := int64(time.Until(decision.ResetAt).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))
			}
			writeErrorResponse(w, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}

		next(w, r)
	}
}
