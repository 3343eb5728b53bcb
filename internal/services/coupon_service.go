package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"designcraft/internal/apperror"
	"designcraft/internal/database"
	"designcraft/internal/logger"
	"designcraft/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const maxCouponCodeLength = 64

// rowQuerier покрывает *sql.DB и *sql.Tx для одиночных выборок.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// CouponService проверяет купоны и управляет их жизненным циклом.
type CouponService struct {
	db  *database.DB
	log *logger.Logger
	now func() time.Time
}

// NewCouponService создаёт сервис купонов.
func NewCouponService(db *database.DB, log *logger.Logger) *CouponService {
	return &CouponService{
		db:  db,
		log: log,
		now: time.Now,
	}
}

// NormalizeCouponCode приводит код к каноническому виду: без пробелов по краям, в верхнем регистре.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate проверяет существование и срок действия купона. Купон не помечается использованным.
func (s *CouponService) Validate(ctx context.Context, code string) (*models.CouponDiscount, error) {
	return s.validate(ctx, s.db, code, false)
}

// ValidateWithTx проверяет купон внутри транзакции создания заказа, блокируя строку от изменения.
func (s *CouponService) ValidateWithTx(ctx context.Context, tx *sql.Tx, code string) (*models.CouponDiscount, error) {
	return s.validate(ctx, tx, code, true)
}

func (s *CouponService) validate(ctx context.Context, q rowQuerier, code string, lock bool) (*models.CouponDiscount, error) {
	normalized := NormalizeCouponCode(code)
	if normalized == "" {
		return nil, apperror.Validation("coupon code is required", nil)
	}

	query := `SELECT discount, expires_at FROM coupons WHERE code = $1`
	if lock {
		query += ` FOR SHARE`
	}

	result := &models.CouponDiscount{}
	if err := q.QueryRowContext(ctx, query, normalized).Scan(&result.Discount, &result.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}

	if result.ExpiresAt.Before(s.now()) {
		return nil, ErrCouponExpired
	}

	return result, nil
}

// CreateCoupon создаёт купон; код сохраняется в нормализованном виде.
func (s *CouponService) CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, error) {
	code := NormalizeCouponCode(req.Code)
	if code == "" {
		return nil, apperror.Validation("coupon code is required", nil)
	}
	if len(code) > maxCouponCodeLength {
		return nil, apperror.Validation(fmt.Sprintf("coupon code must be at most %d characters", maxCouponCodeLength), nil)
	}
	if req.Discount < 1 || req.Discount > 100 {
		return nil, apperror.Validation("discount must be between 1 and 100", nil)
	}
	expiresAt, err := ParseExpiry(req.ExpiresAt)
	if err != nil {
		return nil, err
	}

	now := s.now()
	coupon := &models.Coupon{
		ID:        uuid.New(),
		Code:      code,
		Discount:  req.Discount,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO coupons (id, code, discount, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.db.ExecContext(ctx, query, coupon.ID, coupon.Code, coupon.Discount, coupon.ExpiresAt, coupon.CreatedAt, coupon.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, apperror.Conflict("coupon code already exists", err)
		}
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"coupon_code": coupon.Code,
		"discount":    coupon.Discount,
	}).Info("Coupon created")
	return coupon, nil
}

// GetCoupon возвращает купон по ID.
func (s *CouponService) GetCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	query := `
		SELECT id, code, discount, expires_at, created_at, updated_at
		FROM coupons
		WHERE id = $1
	`
	c := &models.Coupon{}
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Code, &c.Discount, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	return c, nil
}

// ListCoupons возвращает все купоны, новые первыми.
func (s *CouponService) ListCoupons(ctx context.Context) ([]*models.Coupon, error) {
	query := `
		SELECT id, code, discount, expires_at, created_at, updated_at
		FROM coupons
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []*models.Coupon{}
	for rows.Next() {
		c := &models.Coupon{}
		if err := rows.Scan(&c.ID, &c.Code, &c.Discount, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate coupons: %w", err)
	}
	return coupons, nil
}

// DeleteCoupon удаляет купон. Снимки купона в заказах не затрагиваются.
func (s *CouponService) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM coupons WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrCouponNotFound
	}
	s.log.WithField("coupon_id", id).Info("Coupon deleted")
	return nil
}

// ParseExpiry разбирает дату истечения: RFC3339 или YYYY-MM-DD (полночь UTC).
func ParseExpiry(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, apperror.Validation("expiresAt is required", nil)
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, apperror.Validation("expiresAt must be RFC3339 or YYYY-MM-DD", err)
	}
	return t.UTC(), nil
}
