package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"designcraft/internal/apperror"
	"designcraft/internal/auth"
	"designcraft/internal/database"
	"designcraft/internal/logger"
	"designcraft/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const minPasswordLength = 6

var (
	ErrUserNotFound       = apperror.NotFound("user not found", nil)
	ErrUserExists         = apperror.Conflict("user already exists", nil)
	ErrInvalidCredentials = apperror.Unauthorized("invalid email or password", nil)
)

// TokenIssuer выпускает сессионные токены.
type TokenIssuer interface {
	Issue(user *models.User) (string, time.Time, error)
}

// AuthService регистрирует пользователей и выдаёт сессии.
type AuthService struct {
	db          *database.DB
	log         *logger.Logger
	tokens      TokenIssuer
	adminEmails map[string]struct{}
	bcryptCost  int
	now         func() time.Time
}

// NewAuthService создаёт сервис аутентификации. Роль admin получают адреса из adminEmails.
func NewAuthService(db *database.DB, log *logger.Logger, tokens TokenIssuer, adminEmails []string, bcryptCost int) *AuthService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		if email = normalizeEmail(email); email != "" {
			admins[email] = struct{}{}
		}
	}
	return &AuthService{
		db:          db,
		log:         log,
		tokens:      tokens,
		adminEmails: admins,
		bcryptCost:  bcryptCost,
		now:         time.Now,
	}
}

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperror.Validation("email is required", nil)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperror.Validation("invalid email address", err)
	}
	return nil
}

func (s *AuthService) roleFor(email string) models.Role {
	if _, ok := s.adminEmails[email]; ok {
		return models.RoleAdmin
	}
	return models.RoleClient
}

// Register создаёт пользователя и открывает для него сессию.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResult, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" {
		return nil, apperror.Validation("name is required", nil)
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperror.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength), nil)
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         s.roleFor(email),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := s.db.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User registered")

	return s.issue(user)
}

// Login проверяет пароль и открывает сессию.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperror.Validation("email and password are required", nil)
	}

	user, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	// роль синхронизируется со списком администраторов при каждом входе
	if role := s.roleFor(user.Email); role != user.Role {
		if _, err := s.db.ExecContext(ctx, `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`, role, s.now(), user.ID); err != nil {
			return nil, fmt.Errorf("failed to update user role: %w", err)
		}
		user.Role = role
	}

	s.log.WithField("user_id", user.ID).Info("User logged in")
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*models.AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// GetProfile возвращает профиль пользователя.
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfile частично обновляет имя, email и пароль.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error) {
	var name, email, hash *string
	if req.Name != nil {
		if v := strings.TrimSpace(*req.Name); v != "" {
			name = &v
		}
	}
	if req.Email != nil {
		if v := normalizeEmail(*req.Email); v != "" {
			if err := validateEmail(v); err != nil {
				return nil, err
			}
			email = &v
		}
	}
	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < minPasswordLength {
			return nil, apperror.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength), nil)
		}
		h, err := auth.HashPassword(*req.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		hash = &h
	}

	query := `
		UPDATE users
		SET name = COALESCE($1, name),
		    email = COALESCE($2, email),
		    password_hash = COALESCE($3, password_hash),
		    updated_at = $4
		WHERE id = $5
		RETURNING ` + userColumns
	user, err := scanUser(s.db.QueryRowContext(ctx, query, name, email, hash, s.now(), userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, apperror.Conflict("email is already in use", err)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.log.WithField("user_id", userID).Info("User profile updated")
	return user, nil
}
