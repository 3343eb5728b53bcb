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

// ErrServiceNotFound возвращается, если услуга отсутствует в каталоге.
var ErrServiceNotFound = apperror.NotFound("service not found", nil)

// CatalogService управляет каталогом услуг.
type CatalogService struct {
	db  *database.DB
	log *logger.Logger
	now func() time.Time
}

// NewCatalogService создаёт сервис каталога.
func NewCatalogService(db *database.DB, log *logger.Logger) *CatalogService {
	return &CatalogService{db: db, log: log, now: time.Now}
}

const serviceColumns = `id, title, description, price, created_at, updated_at`

func scanService(row rowScanner) (*models.Service, error) {
	svc := &models.Service{}
	if err := row.Scan(&svc.ID, &svc.Title, &svc.Description, &svc.Price, &svc.CreatedAt, &svc.UpdatedAt); err != nil {
		return nil, err
	}
	return svc, nil
}

// CreateService добавляет услугу в каталог.
func (s *CatalogService) CreateService(ctx context.Context, req *models.CreateServiceRequest) (*models.Service, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return nil, apperror.Validation("title and description are required", nil)
	}
	if !req.Price.IsPositive() {
		return nil, apperror.Validation("price must be positive", nil)
	}

	now := s.now()
	svc := &models.Service{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Price:       req.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `INSERT INTO services (` + serviceColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.db.ExecContext(ctx, query, svc.ID, svc.Title, svc.Description, svc.Price, svc.CreatedAt, svc.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	s.log.WithField("service_id", svc.ID).Info("Service created")
	return svc, nil
}

// ListServices возвращает все услуги, новые первыми.
func (s *CatalogService) ListServices(ctx context.Context) ([]*models.Service, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	services := []*models.Service{}
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate services: %w", err)
	}
	return services, nil
}

// GetService возвращает услугу по ID.
func (s *CatalogService) GetService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	svc, err := scanService(s.db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return svc, nil
}

// UpdateService частично обновляет услугу: пустые поля сохраняют прежние значения.
func (s *CatalogService) UpdateService(ctx context.Context, id uuid.UUID, req *models.UpdateServiceRequest) (*models.Service, error) {
	var title, description *string
	if req.Title != nil {
		if v := strings.TrimSpace(*req.Title); v != "" {
			title = &v
		}
	}
	if req.Description != nil {
		if v := strings.TrimSpace(*req.Description); v != "" {
			description = &v
		}
	}
	if req.Price != nil && !req.Price.IsPositive() {
		return nil, apperror.Validation("price must be positive", nil)
	}

	query := `
		UPDATE services
		SET title = COALESCE($1, title),
		    description = COALESCE($2, description),
		    price = COALESCE($3, price),
		    updated_at = $4
		WHERE id = $5
		RETURNING ` + serviceColumns
	svc, err := scanService(s.db.QueryRowContext(ctx, query, title, description, req.Price, s.now(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to update service: %w", err)
	}

	s.log.WithField("service_id", id).Info("Service updated")
	return svc, nil
}

// DeleteService удаляет услугу. Снимки услуги в заказах не затрагиваются.
func (s *CatalogService) DeleteService(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrServiceNotFound
	}
	s.log.WithField("service_id", id).Info("Service deleted")
	return nil
}
