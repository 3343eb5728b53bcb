package logger

import (
	"io"
	"os"

	"designcraft/internal/config"

	"github.com/sirupsen/logrus"
)

// Logger оборачивает logrus с настройками приложения
type Logger struct {
	*logrus.Logger
}

// New создает логгер по конфигурации: уровень, формат json|text и необязательный файл
func New(cfg *config.LoggerConfig) *Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "text" {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	log.SetOutput(os.Stdout)
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.WithError(err).Warn("Failed to open log file, using stdout only")
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, file))
		}
	}

	return &Logger{Logger: log}
}

// WithRequestID добавляет идентификатор запроса к записи
func (l *Logger) WithRequestID(requestID string) *logrus.Entry {
	return l.WithField("request_id", requestID)
}
