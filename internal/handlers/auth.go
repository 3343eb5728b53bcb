package handlers

import (
	"net/http"
	"time"

	"designcraft/internal/logger"
	"designcraft/internal/models"
)

// CookieConfig задаёт параметры сессионной cookie
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler обслуживает регистрацию, вход и профиль
type AuthHandler struct {
	auth   AuthService
	cookie CookieConfig
	log    *logger.Logger
	now    func() time.Time
}

// NewAuthHandler создает обработчик аутентификации
func NewAuthHandler(authService AuthService, cookie CookieConfig, log *logger.Logger) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	return &AuthHandler{auth: authService, cookie: cookie, log: log, now: time.Now}
}

// authResponse возвращает пользователя и токен для клиентов с заголовком Bearer
type authResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(expiresAt.Sub(h.now()).Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, status int, result *models.AuthResult) {
	h.setSessionCookie(w, result.Token, result.ExpiresAt)
	writeJSONResponse(w, status, authResponse{User: result.User, Token: result.Token, ExpiresAt: result.ExpiresAt})
}

// Register создает пользователя и сразу открывает сессию
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to register user")
		return
	}
	h.writeSession(w, http.StatusCreated, result)
}

// Login проверяет учётные данные и выдаёт сессию
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to log in")
		return
	}
	h.writeSession(w, http.StatusOK, result)
}

// Logout сбрасывает сессионную cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSONResponse(w, http.StatusOK, MessageResponse{Message: "Logged out"})
}

// Profile возвращает (GET) или обновляет (PUT) профиль текущего пользователя
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	if identity == nil {
		writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := h.auth.GetProfile(r.Context(), identity.UserID)
		if err != nil {
			writeServiceError(w, h.log, err, "Failed to get profile")
			return
		}
		writeJSONResponse(w, http.StatusOK, user)
	case http.MethodPut:
		var req models.UpdateProfileRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		user, err := h.auth.UpdateProfile(r.Context(), identity.UserID, &req)
		if err != nil {
			writeServiceError(w, h.log, err, "Failed to update profile")
			return
		}
		writeJSONResponse(w, http.StatusOK, user)
	default:
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
