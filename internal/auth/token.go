package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"designcraft/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	purposeSession     = "session"
	purposeUnsubscribe = "unsubscribe"

	defaultTokenTTL       = 7 * 24 * time.Hour
	defaultUnsubscribeTTL = 365 * 24 * time.Hour
)

var (
	ErrMissingSecret = errors.New("jwt secret is not configured")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

// Claims описывает полезную нагрузку токенов DesignCraft.
type Claims struct {
	Email   string      `json:"email"`
	Role    models.Role `json:"role,omitempty"`
	Purpose string      `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenManager выпускает и проверяет HS256 токены.
type TokenManager struct {
	secret         []byte
	ttl            time.Duration
	unsubscribeTTL time.Duration
	now            func() time.Time
}

// NewTokenManager создаёт менеджер токенов; ttl <= 0 означает 7 дней.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenManager{
		secret:         []byte(secret),
		ttl:            ttl,
		unsubscribeTTL: defaultUnsubscribeTTL,
		now:            time.Now,
	}, nil
}

// TTL возвращает срок жизни сессионного токена.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue выпускает сессионный токен для пользователя.
func (m *TokenManager) Issue(user *models.User) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := Claims{
		Email:   user.Email,
		Role:    user.Role,
		Purpose: purposeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := m.sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Parse проверяет сессионный токен и возвращает личность владельца.
func (m *TokenManager) Parse(raw string) (*Identity, error) {
	claims, err := m.parse(raw, purposeSession)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Identity{UserID: userID, Email: claims.Email, Role: claims.Role}, nil
}

// IssueUnsubscribe выпускает токен отписки от рассылки.
func (m *TokenManager) IssueUnsubscribe(email string) (string, error) {
	now := m.now()
	return m.sign(Claims{
		Email:   email,
		Purpose: purposeUnsubscribe,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.unsubscribeTTL)),
		},
	})
}

// ParseUnsubscribe возвращает email из токена отписки.
func (m *TokenManager) ParseUnsubscribe(raw string) (string, error) {
	claims, err := m.parse(raw, purposeUnsubscribe)
	if err != nil {
		return "", err
	}
	if claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

func (m *TokenManager) sign(claims Claims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (m *TokenManager) parse(raw, purpose string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
