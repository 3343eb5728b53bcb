package handlers

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"designcraft/internal/auth"
	"designcraft/internal/logger"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// Authenticate извлекает личность из cookie или заголовка Bearer.
// Отсутствующий или недействительный токен не прерывает запрос: личность просто не устанавливается.
func Authenticate(tokens TokenParser, cookieName string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tokens == nil {
			next(w, r)
			return
		}
		raw := tokenFromRequest(r, cookieName)
		if raw == "" {
			next(w, r)
			return
		}
		identity, err := tokens.Parse(raw)
		if err != nil {
			next(w, r)
			return
		}
		next(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	}
}

func tokenFromRequest(r *http.Request, cookieName string) string {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}
	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireAuth пропускает только аутентифицированные запросы
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.IdentityFrom(r.Context()); !ok {
			writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r)
	}
}

// RequireAdmin пропускает только администраторов
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFrom(r.Context())
		if !ok {
			writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !identity.IsAdmin() {
			writeErrorResponse(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	}
}

// CORSMiddleware разрешает запросы только с перечисленных источников, с передачей cookie
func CORSMiddleware(allowedOrigins []string, next http.HandlerFunc) http.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}

	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// statusRecorder запоминает код ответа для логирования
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLogger присваивает запросу идентификатор и пишет итог в лог
func RequestLogger(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		log.WithRequestID(requestID).WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("HTTP request")
	})
}

// Recovery перехватывает панику обработчика и отвечает 500
func Recovery(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithFields(map[string]interface{}{
					"panic": fmt.Sprint(rec),
					"path":  r.URL.Path,
					"stack": string(debug.Stack()),
				}).Error("Handler panicked")
				writeErrorResponse(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// identityFrom возвращает личность запроса или nil
func identityFrom(r *http.Request) *auth.Identity {
	identity, _ := auth.IdentityFrom(r.Context())
	return identity
}
