package main

import (
	"net/http"
	"strings"

	"designcraft/internal/config"
	"designcraft/internal/handlers"
	"designcraft/internal/logger"
)

// routeHandlers собирает HTTP-обработчики приложения
type routeHandlers struct {
	orders     *handlers.OrderHandler
	coupons    *handlers.CouponHandler
	catalog    *handlers.CatalogHandler
	auth       *handlers.AuthHandler
	newsletter *handlers.NewsletterHandler
	content    *handlers.ContentHandler
	health     *handlers.HealthHandler
	rateLimit  *handlers.RateLimitHandler
}

// middlewareDeps - зависимости общей цепочки API
type middlewareDeps struct {
	tokens         handlers.TokenParser
	cookieName     string
	allowedOrigins []string
	limiter        handlers.MiddlewareLimiter
	log            *logger.Logger
}

// setupRoutes настраивает маршруты HTTP сервера
func setupRoutes(h routeHandlers, deps middlewareDeps, storage config.StorageConfig) *http.ServeMux {
	mux := http.NewServeMux()

	applyAPI := func(next http.HandlerFunc) http.HandlerFunc {
		return handlers.CORSMiddleware(deps.allowedOrigins,
			handlers.RateLimitMiddleware(deps.limiter, deps.log,
				handlers.Authenticate(deps.tokens, deps.cookieName, next)))
	}
	cors := func(next http.HandlerFunc) http.HandlerFunc {
		return handlers.CORSMiddleware(deps.allowedOrigins, next)
	}

	// Health check endpoints
	mux.HandleFunc("/health", cors(h.health.Health))
	mux.HandleFunc("/health/readiness", cors(h.health.Readiness))
	mux.HandleFunc("/health/liveness", cors(h.health.Liveness))

	// Order endpoints
	mux.HandleFunc("/api/orders", applyAPI(byMethod(map[string]http.HandlerFunc{
		http.MethodGet:  handlers.RequireAdmin(h.orders.ListOrders),
		http.MethodPost: h.orders.CreateOrder,
	})))
	mux.HandleFunc("/api/orders/summary", applyAPI(handlers.RequireAdmin(h.orders.Summary)))
	mux.HandleFunc("/api/orders/client/", applyAPI(handlers.RequireAuth(h.orders.GetClientOrders)))
	mux.HandleFunc("/api/orders/", applyAPI(handleOrderRoute(h.orders)))

	// Coupon endpoints
	mux.HandleFunc("/api/coupons/apply", applyAPI(h.coupons.ApplyCoupon))
	mux.HandleFunc("/api/coupons", applyAPI(handlers.RequireAdmin(byMethod(map[string]http.HandlerFunc{
		http.MethodGet:  h.coupons.ListCoupons,
		http.MethodPost: h.coupons.CreateCoupon,
	}))))
	mux.HandleFunc("/api/coupons/", applyAPI(handlers.RequireAdmin(byMethod(map[string]http.HandlerFunc{
		http.MethodGet:    h.coupons.GetCoupon,
		http.MethodDelete: h.coupons.DeleteCoupon,
	}))))

	// Service catalog endpoints
	mux.HandleFunc("/api/services", applyAPI(byMethod(map[string]http.HandlerFunc{
		http.MethodGet:  h.catalog.ListServices,
		http.MethodPost: handlers.RequireAdmin(h.catalog.CreateService),
	})))
	mux.HandleFunc("/api/services/", applyAPI(byMethod(map[string]http.HandlerFunc{
		http.MethodGet:    h.catalog.GetService,
		http.MethodPut:    handlers.RequireAdmin(h.catalog.UpdateService),
		http.MethodDelete: handlers.RequireAdmin(h.catalog.DeleteService),
	})))

	// Auth endpoints
	mux.HandleFunc("/api/auth/register", applyAPI(h.auth.Register))
	mux.HandleFunc("/api/auth/login", applyAPI(h.auth.Login))
	mux.HandleFunc("/api/auth/logout", applyAPI(h.auth.Logout))
	mux.HandleFunc("/api/auth/profile", applyAPI(handlers.RequireAuth(h.auth.Profile)))

	// Newsletter endpoints
	mux.HandleFunc("/api/newsletter", applyAPI(byMethod(map[string]http.HandlerFunc{
		http.MethodGet:  handlers.RequireAdmin(h.newsletter.ListSubscribers),
		http.MethodPost: h.newsletter.Subscribe,
	})))
	mux.HandleFunc("/api/newsletter/unsubscribe/", applyAPI(h.newsletter.Unsubscribe))
	mux.HandleFunc("/api/newsletter/analytics", applyAPI(handlers.RequireAdmin(h.newsletter.Analytics)))
	mux.HandleFunc("/api/newsletter/campaign", applyAPI(handlers.RequireAdmin(h.newsletter.SendCampaign)))
	mux.HandleFunc("/api/newsletter/", applyAPI(handlers.RequireAdmin(h.newsletter.DeleteSubscriber)))

	// Banner endpoints
	mux.HandleFunc("/api/banners", applyAPI(byMethod(map[string]http.HandlerFunc{
		http.MethodGet:  h.content.ListBanners,
		http.MethodPost: handlers.RequireAdmin(h.content.CreateBanner),
	})))
	mux.HandleFunc("/api/banners/", applyAPI(handlers.RequireAdmin(h.content.DeleteBanner)))

	// Portfolio endpoints
	mux.HandleFunc("/api/portfolio", applyAPI(byMethod(map[string]http.HandlerFunc{
		http.MethodGet:  h.content.ListPortfolio,
		http.MethodPost: handlers.RequireAdmin(h.content.CreatePortfolioItem),
	})))
	mux.HandleFunc("/api/portfolio/", applyAPI(byMethod(map[string]http.HandlerFunc{
		http.MethodGet:    h.content.GetPortfolioItem,
		http.MethodPut:    handlers.RequireAdmin(h.content.UpdatePortfolioItem),
		http.MethodDelete: handlers.RequireAdmin(h.content.DeletePortfolioItem),
	})))

	// Sketch feedback endpoints
	mux.HandleFunc("/api/sketch-feedback", applyAPI(byMethod(map[string]http.HandlerFunc{
		http.MethodGet:  handlers.RequireAdmin(h.content.ListSketchFeedback),
		http.MethodPost: h.content.SubmitSketchFeedback,
	})))
	mux.HandleFunc("/api/sketch-feedback/", applyAPI(handlers.RequireAdmin(h.content.DeleteSketchFeedback)))

	// Rate limit status
	mux.HandleFunc("/api/rate-limit/status", applyAPI(h.rateLimit.Status))

	// Загруженные файлы
	uploadsPrefix := "/" + strings.Trim(storage.PublicPrefix, "/") + "/"
	mux.Handle(uploadsPrefix, handlers.UploadsHandler(storage.Dir, storage.PublicPrefix))

	return mux
}

// byMethod выбирает обработчик по HTTP-методу
func byMethod(routes map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if next, ok := routes[r.Method]; ok {
			next(w, r)
			return
		}
		handlers.WriteMethodNotAllowed(w)
	}
}

// handleOrderRoute обрабатывает маршруты для отдельного заказа
func handleOrderRoute(handler *handlers.OrderHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/status"):
			// Обновление статуса заказа
			handlers.RequireAdmin(handler.UpdateOrderStatus)(w, r)
		case strings.HasSuffix(r.URL.Path, "/feedback"):
			// Отзыв клиента по заказу
			handlers.RequireAuth(handler.SubmitFeedback)(w, r)
		case r.Method == http.MethodDelete:
			handlers.RequireAdmin(handler.DeleteOrder)(w, r)
		case r.Method == http.MethodGet:
			handlers.RequireAuth(handler.GetOrder)(w, r)
		default:
			handlers.WriteMethodNotAllowed(w)
		}
	}
}
