package media

import (
	"context"
	"time"

	"designcraft/internal/apperror"
	"designcraft/internal/config"
	"designcraft/internal/logger"
	"designcraft/internal/models"
)

var (
	ErrAudioTooLarge   = apperror.Validation("voice note exceeds 5MB limit", nil)
	ErrAudioUnreadable = apperror.Validation("invalid or unreadable audio file", nil)
	ErrAudioTooLong    = apperror.Validation("voice note exceeds 3-minute limit", nil)
)

// DurationProber определяет длительность аудиофайла в секундах.
type DurationProber interface {
	Duration(ctx context.Context, filePath string) (float64, error)
}

// VoiceNoteGate проверяет голосовую заметку: размер, читаемость, длительность.
type VoiceNoteGate struct {
	prober     DurationProber
	maxBytes   int64
	maxSeconds float64
	timeout    time.Duration
	log        *logger.Logger
}

// NewVoiceNoteGate создаёт проверку по настройкам медиа.
func NewVoiceNoteGate(cfg *config.MediaConfig, prober DurationProber, log *logger.Logger) *VoiceNoteGate {
	timeout := time.Duration(cfg.ProbeTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &VoiceNoteGate{
		prober:     prober,
		maxBytes:   cfg.MaxVoiceBytes,
		maxSeconds: float64(cfg.MaxVoiceSeconds),
		timeout:    timeout,
		log:        log,
	}
}

// Check применяет проверки строго в порядке: размер, проба длительности, лимит длительности.
func (g *VoiceNoteGate) Check(ctx context.Context, file *models.StoredFile) error {
	if g.maxBytes > 0 && file.Size > g.maxBytes {
		return ErrAudioTooLarge
	}

	probeCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	seconds, err := g.prober.Duration(probeCtx, file.Path)
	if err != nil {
		if g.log != nil {
			g.log.WithError(err).WithField("file", file.Name).Warn("Voice note probe failed")
		}
		return ErrAudioUnreadable
	}

	if seconds > g.maxSeconds {
		return ErrAudioTooLong
	}
	return nil
}
