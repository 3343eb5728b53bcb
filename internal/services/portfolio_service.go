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

// ErrPortfolioItemNotFound возвращается, если работа отсутствует в портфолио.
var ErrPortfolioItemNotFound = apperror.NotFound("portfolio item not found", nil)

const portfolioColumns = `id, title, description, category, image_url, owner_id, created_at, updated_at`

// PortfolioService управляет работами портфолио.
type PortfolioService struct {
	db    *database.DB
	log   *logger.Logger
	files FileRemover
	now   func() time.Time
}

// NewPortfolioService создаёт сервис портфолио.
func NewPortfolioService(db *database.DB, log *logger.Logger, files FileRemover) *PortfolioService {
	return &PortfolioService{db: db, log: log, files: files, now: time.Now}
}

func scanPortfolioItem(row rowScanner) (*models.PortfolioItem, error) {
	item := &models.PortfolioItem{}
	var owner uuid.NullUUID
	if err := row.Scan(&item.ID, &item.Title, &item.Description, &item.Category, &item.ImageURL, &owner, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	if owner.Valid {
		item.OwnerID = &owner.UUID
	}
	return item, nil
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func nonEmpty(p *string) *string {
	if v := trimmed(p); v != "" {
		return &v
	}
	return nil
}

// CreateItem добавляет работу. Название и изображение обязательны.
func (s *PortfolioService) CreateItem(ctx context.Context, in models.PortfolioInput) (item *models.PortfolioItem, err error) {
	defer func() {
		if err != nil {
			removeStored(s.files, s.log, in.Image)
		}
	}()

	title := trimmed(in.Title)
	if title == "" || in.Image == nil {
		return nil, apperror.Validation("title and image are required", nil)
	}

	now := s.now()
	item = &models.PortfolioItem{
		ID:          uuid.New(),
		Title:       title,
		Description: trimmed(in.Description),
		Category:    trimmed(in.Category),
		ImageURL:    in.Image.URL,
		OwnerID:     in.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `INSERT INTO portfolio_items (` + portfolioColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := s.db.ExecContext(ctx, query, item.ID, item.Title, item.Description, item.Category,
		item.ImageURL, item.OwnerID, item.CreatedAt, item.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create portfolio item: %w", err)
	}

	s.log.WithField("portfolio_id", item.ID).Info("Portfolio item created")
	return item, nil
}

// ListItems возвращает работы, новые первыми; пустая категория означает все.
func (s *PortfolioService) ListItems(ctx context.Context, category string) ([]*models.PortfolioItem, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolio_items`
	args := []interface{}{}
	if category = strings.TrimSpace(category); category != "" {
		query += ` WHERE LOWER(category) = LOWER($1)`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolio items: %w", err)
	}
	defer rows.Close()

	items := []*models.PortfolioItem{}
	for rows.Next() {
		item, err := scanPortfolioItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate portfolio items: %w", err)
	}
	return items, nil
}

// GetItem возвращает работу по ID.
func (s *PortfolioService) GetItem(ctx context.Context, id uuid.UUID) (*models.PortfolioItem, error) {
	item, err := scanPortfolioItem(s.db.QueryRowContext(ctx, `SELECT `+portfolioColumns+` FROM portfolio_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPortfolioItemNotFound
		}
		return nil, fmt.Errorf("failed to get portfolio item: %w", err)
	}
	return item, nil
}

// UpdateItem частично обновляет работу. Новое изображение заменяет старое, старый файл удаляется.
func (s *PortfolioService) UpdateItem(ctx context.Context, id uuid.UUID, in models.PortfolioInput) (item *models.PortfolioItem, err error) {
	defer func() {
		if err != nil {
			removeStored(s.files, s.log, in.Image)
		}
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var previousImage string
	if err := tx.QueryRowContext(ctx, `SELECT image_url FROM portfolio_items WHERE id = $1 FOR UPDATE`, id).Scan(&previousImage); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPortfolioItemNotFound
		}
		return nil, fmt.Errorf("failed to fetch portfolio item: %w", err)
	}

	var imageURL *string
	if in.Image != nil {
		imageURL = &in.Image.URL
	}

	query := `
		UPDATE portfolio_items
		SET title = COALESCE($1, title),
		    description = COALESCE($2, description),
		    category = COALESCE($3, category),
		    image_url = COALESCE($4, image_url),
		    updated_at = $5
		WHERE id = $6
		RETURNING ` + portfolioColumns
	item, err = scanPortfolioItem(tx.QueryRowContext(ctx, query,
		nonEmpty(in.Title), nonEmpty(in.Description), nonEmpty(in.Category), imageURL, s.now(), id))
	if err != nil {
		return nil, fmt.Errorf("failed to update portfolio item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit portfolio update: %w", err)
	}

	if in.Image != nil && previousImage != in.Image.URL {
		removeStoredURL(s.files, s.log, previousImage)
	}

	s.log.WithField("portfolio_id", id).Info("Portfolio item updated")
	return item, nil
}

// DeleteItem удаляет работу вместе с изображением.
func (s *PortfolioService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	var imageURL string
	if err := s.db.QueryRowContext(ctx, `DELETE FROM portfolio_items WHERE id = $1 RETURNING image_url`, id).Scan(&imageURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPortfolioItemNotFound
		}
		return fmt.Errorf("failed to delete portfolio item: %w", err)
	}

	removeStoredURL(s.files, s.log, imageURL)
	s.log.WithField("portfolio_id", id).Info("Portfolio item deleted")
	return nil
}
