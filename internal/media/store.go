package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"designcraft/internal/apperror"
	"designcraft/internal/logger"
	"designcraft/internal/models"

	"github.com/google/uuid"
)

// ErrFileTooLarge возвращается, когда загрузка превышает жёсткий лимит хранилища.
var ErrFileTooLarge = apperror.Validation("uploaded file is too large", nil)

// LocalStore сохраняет загруженные файлы на локальный диск и отдаёт их по публичному префиксу.
type LocalStore struct {
	dir          string
	publicPrefix string
	log          *logger.Logger
	now          func() time.Time
}

// NewLocalStore создаёт хранилище в каталоге dir.
func NewLocalStore(dir, publicPrefix string, log *logger.Logger) *LocalStore {
	return &LocalStore{
		dir:          dir,
		publicPrefix: "/" + strings.Trim(publicPrefix, "/"),
		log:          log,
		now:          time.Now,
	}
}

// Dir возвращает корневой каталог хранилища.
func (s *LocalStore) Dir() string { return s.dir }

// PublicPrefix возвращает URL-префикс, под которым раздаются файлы.
func (s *LocalStore) PublicPrefix() string { return s.publicPrefix }

// Save потоково записывает r в folder под уникальным именем <unixnano>-<uuid><ext>.
// Если данных больше maxBytes, частично записанный файл удаляется.
func (s *LocalStore) Save(ctx context.Context, folder, originalName string, r io.Reader, maxBytes int64) (*models.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	folder = strings.Trim(path.Clean("/"+folder), "/")
	targetDir := filepath.Join(s.dir, filepath.FromSlash(folder))
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := fmt.Sprintf("%d-%s%s", s.now().UnixNano(), uuid.NewString(), safeExt(originalName))
	fullPath := filepath.Join(targetDir, name)

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	written, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		s.removePath(fullPath)
		return nil, fmt.Errorf("failed to write file: %w", copyErr)
	case closeErr != nil:
		s.removePath(fullPath)
		return nil, fmt.Errorf("failed to close file: %w", closeErr)
	case maxBytes > 0 && written > maxBytes:
		s.removePath(fullPath)
		return nil, ErrFileTooLarge
	}

	relName := path.Join(folder, name)
	return &models.StoredFile{
		Name: relName,
		Path: fullPath,
		URL:  s.publicPrefix + "/" + relName,
		Size: written,
	}, nil
}

// Remove удаляет сохранённый файл. Отсутствие файла не считается ошибкой.
func (s *LocalStore) Remove(file *models.StoredFile) error {
	if file == nil {
		return nil
	}
	p := file.Path
	if p == "" {
		resolved, err := s.resolve(file.Name)
		if err != nil {
			return err
		}
		p = resolved
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// RemoveURL удаляет файл по публичному URL (абсолютному или относительному).
func (s *LocalStore) RemoveURL(url string) error {
	name, ok := s.NameFromURL(url)
	if !ok {
		return fmt.Errorf("url %q is outside of the upload prefix", url)
	}
	return s.Remove(&models.StoredFile{Name: name})
}

// NameFromURL возвращает относительное имя файла для URL под публичным префиксом.
func (s *LocalStore) NameFromURL(url string) (string, bool) {
	if i := strings.Index(url, "://"); i >= 0 {
		rest := url[i+3:]
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return "", false
		}
		url = rest[slash:]
	}
	prefix := s.publicPrefix + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(url, prefix)
	if name == "" {
		return "", false
	}
	return name, true
}

func (s *LocalStore) resolve(name string) (string, error) {
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	if clean == "" || clean == "." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}

func (s *LocalStore) removePath(p string) {
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) && s.log != nil {
		s.log.WithError(err).WithField("path", p).Warn("Failed to remove partial upload")
	}
}

func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) > 10 {
		return ""
	}
	for _, r := range ext[min(1, len(ext)):] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
