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

var (
	ErrSketchFeedbackNotFound = apperror.NotFound("feedback not found", nil)
	ErrSketchFeedbackRequired = apperror.Validation("feedback text is required", nil)
)

const sketchColumns = `id, feedback, sketch_image_url, voice_note_url, user_id, created_at`

// SketchFeedbackService хранит отзывы со скетч-доски.
type SketchFeedbackService struct {
	db        *database.DB
	log       *logger.Logger
	voiceGate VoiceNoteChecker
	files     FileRemover
	now       func() time.Time
}

// NewSketchFeedbackService создаёт сервис скетч-отзывов.
func NewSketchFeedbackService(db *database.DB, log *logger.Logger, voiceGate VoiceNoteChecker, files FileRemover) *SketchFeedbackService {
	return &SketchFeedbackService{db: db, log: log, voiceGate: voiceGate, files: files, now: time.Now}
}

func scanSketchFeedback(row rowScanner) (*models.SketchFeedback, error) {
	fb := &models.SketchFeedback{}
	var user uuid.NullUUID
	if err := row.Scan(&fb.ID, &fb.Feedback, &fb.SketchImageURL, &fb.VoiceNoteURL, &user, &fb.CreatedAt); err != nil {
		return nil, err
	}
	if user.Valid {
		fb.UserID = &user.UUID
	}
	return fb, nil
}

// Submit сохраняет отзыв. Голосовая заметка проходит ту же проверку, что и у заказов.
// При любой ошибке загруженные файлы удаляются.
func (s *SketchFeedbackService) Submit(ctx context.Context, sub models.SketchSubmission) (fb *models.SketchFeedback, err error) {
	defer func() {
		if err != nil {
			removeStored(s.files, s.log, sub.Sketch, sub.VoiceNote)
		}
	}()

	text := strings.TrimSpace(sub.Feedback)
	if text == "" {
		return nil, ErrSketchFeedbackRequired
	}

	if sub.VoiceNote != nil {
		if s.voiceGate == nil {
			return nil, apperror.Validation("voice notes are not supported", nil)
		}
		if err := s.voiceGate.Check(ctx, sub.VoiceNote); err != nil {
			return nil, err
		}
	}

	fb = &models.SketchFeedback{
		ID:        uuid.New(),
		Feedback:  text,
		UserID:    sub.UserID,
		CreatedAt: s.now(),
	}
	if sub.Sketch != nil {
		fb.SketchImageURL = &sub.Sketch.URL
	}
	if sub.VoiceNote != nil {
		fb.VoiceNoteURL = &sub.VoiceNote.URL
	}

	query := `INSERT INTO sketch_feedback (` + sketchColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.db.ExecContext(ctx, query, fb.ID, fb.Feedback, fb.SketchImageURL, fb.VoiceNoteURL, fb.UserID, fb.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to save sketch feedback: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"feedback_id": fb.ID,
		"has_sketch":  sub.Sketch != nil,
		"has_voice":   sub.VoiceNote != nil,
	}).Info("Sketch feedback submitted")
	return fb, nil
}

// List возвращает все скетч-отзывы, новые первыми.
func (s *SketchFeedbackService) List(ctx context.Context) ([]*models.SketchFeedback, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sketchColumns+` FROM sketch_feedback ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sketch feedback: %w", err)
	}
	defer rows.Close()

	list := []*models.SketchFeedback{}
	for rows.Next() {
		fb, err := scanSketchFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sketch feedback: %w", err)
		}
		list = append(list, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sketch feedback: %w", err)
	}
	return list, nil
}

// Delete удаляет отзыв вместе с прикреплёнными файлами.
func (s *SketchFeedbackService) Delete(ctx context.Context, id uuid.UUID) error {
	var sketchURL, voiceURL sql.NullString
	err := s.db.QueryRowContext(ctx, `DELETE FROM sketch_feedback WHERE id = $1 RETURNING sketch_image_url, voice_note_url`, id).
		Scan(&sketchURL, &voiceURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSketchFeedbackNotFound
		}
		return fmt.Errorf("failed to delete sketch feedback: %w", err)
	}

	removeStoredURL(s.files, s.log, sketchURL.String, voiceURL.String)
	s.log.WithField("feedback_id", id).Info("Sketch feedback deleted")
	return nil
}
