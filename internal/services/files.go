package services

import (
	"designcraft/internal/logger"
	"designcraft/internal/models"
)

// FileRemover удаляет сохранённые файлы по описанию или публичному URL.
type FileRemover interface {
	RemoveURL(url string) error
	Remove(file *models.StoredFile) error
}

func removeStored(files FileRemover, log *logger.Logger, stored ...*models.StoredFile) {
	if files == nil {
		return
	}
	for _, f := range stored {
		if f == nil {
			continue
		}
		if err := files.Remove(f); err != nil {
			log.WithError(err).WithField("file", f.Name).Warn("Failed to remove stored file")
		}
	}
}

func removeStoredURL(files FileRemover, log *logger.Logger, urls ...string) {
	if files == nil {
		return
	}
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := files.RemoveURL(url); err != nil {
			log.WithError(err).WithField("url", url).Warn("Failed to remove stored file")
		}
	}
}
