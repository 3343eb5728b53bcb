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
)

const (
	defaultOrdersLimit = 50
	maxOrdersLimit     = 200
)

const orderColumns = `id, client_name, client_email, service_id, service_name, service_price,
	coupon_code, discount_percent, final_price, status, feedback, voice_note, created_at, updated_at`

// VoiceNoteChecker проверяет сохранённую голосовую заметку перед привязкой к заказу.
type VoiceNoteChecker interface {
	Check(ctx context.Context, file *models.StoredFile) error
}

// OrderOptions задаёт политики сервиса заказов.
type OrderOptions struct {
	Policy           StatusPolicy
	RevalidateCoupon bool
	VoiceGate        VoiceNoteChecker
	Files            FileRemover
}

// OrderService представляет сервис для работы с заказами
type OrderService struct {
	db               *database.DB
	log              *logger.Logger
	pricing          *PricingService
	coupons          *CouponService
	policy           StatusPolicy
	revalidateCoupon bool
	voiceGate        VoiceNoteChecker
	files            FileRemover
	now              func() time.Time
}

// NewOrderService создает новый экземпляр сервиса заказов
func NewOrderService(db *database.DB, log *logger.Logger, pricing *PricingService, coupons *CouponService, opts OrderOptions) *OrderService {
	policy := opts.Policy
	if policy == nil {
		policy = PermissiveStatusPolicy{}
	}
	return &OrderService{
		db:               db,
		log:              log,
		pricing:          pricing,
		coupons:          coupons,
		policy:           policy,
		revalidateCoupon: opts.RevalidateCoupon,
		voiceGate:        opts.VoiceGate,
		files:            opts.Files,
		now:              time.Now,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	o := &models.Order{}
	if err := row.Scan(
		&o.ID, &o.ClientName, &o.ClientEmail, &o.ServiceID, &o.ServiceName, &o.ServicePrice,
		&o.CouponCode, &o.DiscountPercent, &o.FinalPrice, &o.Status, &o.Feedback, &o.VoiceNote,
		&o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return o, nil
}

// CreateOrder создает новый заказ в статусе Pending со снимком цены и купона
func (s *OrderService) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	if err := validateCreateOrderRequest(req); err != nil {
		return nil, err
	}

	var couponCode *string
	if req.CouponCode != nil {
		if code := NormalizeCouponCode(*req.CouponCode); code != "" {
			couponCode = &code
		}
	}
	discount := 0
	if req.DiscountPercent != nil {
		discount = *req.DiscountPercent
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if s.revalidateCoupon {
		switch {
		case couponCode != nil:
			validated, err := s.coupons.ValidateWithTx(ctx, tx, *couponCode)
			if err != nil {
				return nil, err
			}
			discount = validated.Discount
		case discount != 0:
			return nil, apperror.Validation("discountPercent requires a couponCode", nil)
		}
	}

	finalPrice, err := s.pricing.ComputeFinalPrice(req.ServicePrice, discount)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		ID:              uuid.New(),
		ClientName:      strings.TrimSpace(req.ClientName),
		ClientEmail:     strings.TrimSpace(req.ClientEmail),
		ServiceID:       req.ServiceID,
		ServiceName:     strings.TrimSpace(req.ServiceName),
		ServicePrice:    req.ServicePrice,
		CouponCode:      couponCode,
		DiscountPercent: discount,
		FinalPrice:      finalPrice,
		Status:          models.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	query := `
		INSERT INTO orders (id, client_name, client_email, service_id, service_name, service_price,
			coupon_code, discount_percent, final_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if _, err := tx.ExecContext(ctx, query, order.ID, order.ClientName, order.ClientEmail, order.ServiceID,
		order.ServiceName, order.ServicePrice, order.CouponCode, order.DiscountPercent, order.FinalPrice,
		order.Status, order.CreatedAt, order.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"order_id":         order.ID,
		"service_id":       order.ServiceID,
		"discount_percent": order.DiscountPercent,
		"final_price":      order.FinalPrice.String(),
	}).Info("Order created successfully")

	return order, nil
}

func validateCreateOrderRequest(req *models.CreateOrderRequest) error {
	if req == nil {
		return apperror.Validation("request body is required", nil)
	}
	if strings.TrimSpace(req.ClientName) == "" {
		return apperror.Validation("clientName is required", nil)
	}
	if strings.TrimSpace(req.ClientEmail) == "" {
		return apperror.Validation("clientEmail is required", nil)
	}
	if req.ServiceID == uuid.Nil {
		return apperror.Validation("serviceId is required", nil)
	}
	if strings.TrimSpace(req.ServiceName) == "" {
		return apperror.Validation("serviceName is required", nil)
	}
	if !req.ServicePrice.IsPositive() {
		return apperror.Validation("servicePrice must be positive", nil)
	}
	if req.DiscountPercent != nil && (*req.DiscountPercent < 0 || *req.DiscountPercent > 100) {
		return apperror.Validation("discountPercent must be between 0 and 100", nil)
	}
	return nil
}

// GetOrder получает заказ по ID
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(s.db.QueryRowContext(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// GetOrdersByClientEmail возвращает заказы клиента (email без учёта регистра), новые первыми
func (s *OrderService) GetOrdersByClientEmail(ctx context.Context, email string) ([]*models.Order, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.Validation("email is required", nil)
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE LOWER(client_email) = LOWER($1) ORDER BY created_at DESC`
	return s.queryOrders(ctx, query, email)
}

// ListOrders возвращает заказы для оператора с фильтром по статусу, новые первыми
func (s *OrderService) ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.Status != nil {
		if !filter.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultOrdersLimit
	}
	if limit > maxOrdersLimit {
		limit = maxOrdersLimit
	}
	query += fmt.Sprintf(" LIMIT $%d", argIndex)
	args = append(args, limit)
	argIndex++

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	return s.queryOrders(ctx, query, args...)
}

func (s *OrderService) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus меняет статус заказа и возвращает обновлённый заказ и предыдущий статус
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) (*models.Order, models.OrderStatus, error) {
	if !status.Valid() {
		return nil, "", ErrInvalidStatus
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current models.OrderStatus
	if err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrOrderNotFound
		}
		return nil, "", fmt.Errorf("failed to fetch order status: %w", err)
	}

	if err := s.policy.Allow(current, status); err != nil {
		return nil, "", err
	}

	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 RETURNING ` + orderColumns
	order, err := scanOrder(tx.QueryRowContext(ctx, query, status, s.now(), orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrOrderNotFound
		}
		return nil, "", fmt.Errorf("failed to update order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, "", fmt.Errorf("failed to commit order status update: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"order_id":   orderID,
		"old_status": current,
		"new_status": status,
	}).Info("Order status updated")

	return order, current, nil
}

// Summarize считает заказы по статусам и количество заказов с текстовым отзывом
func (s *OrderService) Summarize(ctx context.Context) (*models.OrderSummary, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'Pending'),
		       COUNT(*) FILTER (WHERE status = 'Completed'),
		       COUNT(*) FILTER (WHERE status = 'Cancelled'),
		       COUNT(*) FILTER (WHERE feedback IS NOT NULL)
		FROM orders
	`
	summary := &models.OrderSummary{}
	if err := s.db.QueryRowContext(ctx, query).Scan(
		&summary.TotalOrders, &summary.PendingOrders, &summary.CompletedOrders,
		&summary.CancelledOrders, &summary.TotalFeedback,
	); err != nil {
		return nil, fmt.Errorf("failed to summarize orders: %w", err)
	}
	return summary, nil
}

// DeleteOrder безвозвратно удаляет заказ и его голосовую заметку
func (s *OrderService) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	var voiceNote sql.NullString
	err := s.db.QueryRowContext(ctx, `DELETE FROM orders WHERE id = $1 RETURNING voice_note`, orderID).Scan(&voiceNote)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}

	if voiceNote.Valid {
		s.removeURL(voiceNote.String)
	}

	s.log.WithField("order_id", orderID).Info("Order deleted")
	return nil
}

// AttachFeedback привязывает текст и/или голосовую заметку к заказу. Статус не меняется.
// При любой ошибке сохранённый файл удаляется.
func (s *OrderService) AttachFeedback(ctx context.Context, orderID uuid.UUID, sub models.FeedbackSubmission) (order *models.Order, err error) {
	voice := sub.VoiceNote
	defer func() {
		if err != nil && voice != nil {
			s.removeFile(voice)
		}
	}()

	var text *string
	if sub.Text != nil {
		if trimmed := strings.TrimSpace(*sub.Text); trimmed != "" {
			text = &trimmed
		}
	}
	if text == nil && voice == nil {
		return nil, ErrEmptyFeedback
	}

	if voice != nil {
		if s.voiceGate == nil {
			return nil, apperror.Validation("voice notes are not supported", nil)
		}
		if err := s.voiceGate.Check(ctx, voice); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var previousVoice sql.NullString
	if err := tx.QueryRowContext(ctx, `SELECT voice_note FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&previousVoice); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order for feedback: %w", err)
	}

	var voiceURL *string
	if voice != nil {
		voiceURL = &voice.URL
	}

	query := `
		UPDATE orders
		SET feedback = COALESCE($1, feedback), voice_note = COALESCE($2, voice_note), updated_at = $3
		WHERE id = $4
		RETURNING ` + orderColumns
	order, err = scanOrder(tx.QueryRowContext(ctx, query, text, voiceURL, s.now(), orderID))
	if err != nil {
		return nil, fmt.Errorf("failed to attach feedback: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit feedback: %w", err)
	}

	if voice != nil && previousVoice.Valid && previousVoice.String != voice.URL {
		s.removeURL(previousVoice.String)
	}

	s.log.WithFields(map[string]interface{}{
		"order_id":   orderID,
		"has_text":   text != nil,
		"has_voice":  voice != nil,
		"voice_size": voiceSize(voice),
	}).Info("Order feedback attached")

	return order, nil
}

func voiceSize(f *models.StoredFile) int64 {
	if f == nil {
		return 0
	}
	return f.Size
}

func (s *OrderService) removeFile(f *models.StoredFile) {
	removeStored(s.files, s.log, f)
}

func (s *OrderService) removeURL(url string) {
	removeStoredURL(s.files, s.log, url)
}
