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
	defaultBannersLimit = 10
	maxBannersLimit     = 100
)

// ErrBannerNotFound возвращается, если баннер отсутствует.
var ErrBannerNotFound = apperror.NotFound("banner not found", nil)

// BannerService управляет баннерами главной страницы.
type BannerService struct {
	db    *database.DB
	log   *logger.Logger
	files FileRemover
	now   func() time.Time
}

// NewBannerService создаёт сервис баннеров.
func NewBannerService(db *database.DB, log *logger.Logger, files FileRemover) *BannerService {
	return &BannerService{db: db, log: log, files: files, now: time.Now}
}

// CreateBanner сохраняет баннер. При ошибке загруженное изображение удаляется.
func (s *BannerService) CreateBanner(ctx context.Context, title, subtitle string, image *models.StoredFile) (banner *models.Banner, err error) {
	defer func() {
		if err != nil {
			removeStored(s.files, s.log, image)
		}
	}()

	title = strings.TrimSpace(title)
	subtitle = strings.TrimSpace(subtitle)
	if title == "" || subtitle == "" || image == nil {
		return nil, apperror.Validation("title, subtitle and image are required", nil)
	}

	banner = &models.Banner{
		ID:        uuid.New(),
		Title:     title,
		Subtitle:  subtitle,
		ImageURL:  image.URL,
		CreatedAt: s.now(),
	}
	query := `INSERT INTO banners (id, title, subtitle, image_url, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.db.ExecContext(ctx, query, banner.ID, banner.Title, banner.Subtitle, banner.ImageURL, banner.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create banner: %w", err)
	}

	s.log.WithField("banner_id", banner.ID).Info("Banner created")
	return banner, nil
}

// ListBanners возвращает страницу баннеров, новые первыми.
func (s *BannerService) ListBanners(ctx context.Context, page, limit int) (*models.BannerPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > maxBannersLimit {
		limit = defaultBannersLimit
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM banners`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count banners: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, subtitle, image_url, created_at
		FROM banners
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list banners: %w", err)
	}
	defer rows.Close()

	banners := []*models.Banner{}
	for rows.Next() {
		b := &models.Banner{}
		if err := rows.Scan(&b.ID, &b.Title, &b.Subtitle, &b.ImageURL, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan banner: %w", err)
		}
		banners = append(banners, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate banners: %w", err)
	}

	return &models.BannerPage{
		Banners:     banners,
		Total:       total,
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit,
	}, nil
}

// DeleteBanner удаляет баннер вместе с изображением.
func (s *BannerService) DeleteBanner(ctx context.Context, id uuid.UUID) error {
	var imageURL string
	if err := s.db.QueryRowContext(ctx, `DELETE FROM banners WHERE id = $1 RETURNING image_url`, id).Scan(&imageURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBannerNotFound
		}
		return fmt.Errorf("failed to delete banner: %w", err)
	}

	removeStoredURL(s.files, s.log, imageURL)
	s.log.WithField("banner_id", id).Info("Banner deleted")
	return nil
}
