package models

import (
	"time"

	"github.com/google/uuid"
)

// Banner представляет рекламный баннер на главной странице
type Banner struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Subtitle  string    `json:"subtitle" db:"subtitle"`
	ImageURL  string    `json:"imageUrl" db:"image_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// BannerPage - страница баннеров
type BannerPage struct {
	Banners     []*Banner `json:"banners"`
	Total       int       `json:"total"`
	CurrentPage int       `json:"currentPage"`
	TotalPages  int       `json:"totalPages"`
}

// PortfolioItem представляет работу из портфолио
type PortfolioItem struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Category    string     `json:"category" db:"category"`
	ImageURL    string     `json:"imageUrl" db:"image_url"`
	OwnerID     *uuid.UUID `json:"ownerId,omitempty" db:"owner_id"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// PortfolioInput описывает создание или частичное обновление работы
type PortfolioInput struct {
	Title       *string
	Description *string
	Category    *string
	Image       *StoredFile
	OwnerID     *uuid.UUID
}

// SketchFeedback представляет отзыв, оставленный через скетч-доску
type SketchFeedback struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Feedback       string     `json:"feedback" db:"feedback"`
	SketchImageURL *string    `json:"sketchImageUrl,omitempty" db:"sketch_image_url"`
	VoiceNoteURL   *string    `json:"voiceNoteUrl,omitempty" db:"voice_note_url"`
	UserID         *uuid.UUID `json:"userId,omitempty" db:"user_id"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
}

// SketchSubmission описывает новый скетч-отзыв
type SketchSubmission struct {
	Feedback  string
	Sketch    *StoredFile
	VoiceNote *StoredFile
	UserID    *uuid.UUID
}
