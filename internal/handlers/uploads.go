package handlers

import (
	"errors"
	"net/http"
	"strings"

	"designcraft/internal/apperror"
	"designcraft/internal/media"
	"designcraft/internal/models"
)

const multipartMemory = 1 << 20

// Папки хранилища по типу загрузки
const (
	folderFeedback  = "feedback"
	folderBanners   = "banners"
	folderPortfolio = "portfolio"
	folderSketches  = "sketches"
)

var (
	errInvalidForm  = apperror.Validation("invalid multipart form", nil)
	errAudioType    = apperror.Validation("only audio files (webm, wav, mp3) are allowed", nil)
	errImageType    = apperror.Validation("only image files (png, jpeg, webp, gif) are allowed", nil)
	errNoFileAccess = errors.New("file storage is not configured")
)

// uploadField описывает одно файловое поле формы
type uploadField struct {
	name    string
	folder  string
	allowed func(contentType string) bool
	typeErr error
}

var voiceNoteField = uploadField{name: "voiceNote", folder: folderFeedback, allowed: media.IsAllowedAudio, typeErr: errAudioType}

func imageField(folder string) uploadField {
	return uploadField{name: "image", folder: folder, allowed: media.IsAllowedImage, typeErr: errImageType}
}

// parseMultipart ограничивает тело запроса и разбирает форму
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if maxBytes > 0 {
		// к лимиту файла добавляется место под текстовые поля
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return media.ErrFileTooLarge
		}
		return errInvalidForm
	}
	return nil
}

// cleanupMultipart удаляет временные файлы разобранной формы
func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// saveFormFile сохраняет файл из поля формы. Отсутствующее поле даёт (nil, nil).
// Недопустимый MIME-тип отклоняется до сохранения.
func saveFormFile(r *http.Request, store FileStore, field uploadField, maxBytes int64) (*models.StoredFile, error) {
	file, header, err := r.FormFile(field.name)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, errInvalidForm
	}
	defer file.Close()

	if !field.allowed(header.Header.Get("Content-Type")) {
		return nil, field.typeErr
	}
	if store == nil {
		return nil, errNoFileAccess
	}
	return store.Save(r.Context(), field.folder, header.Filename, file, maxBytes)
}

// formString возвращает обрезанное значение поля; пустое значение даёт nil
func formString(r *http.Request, name string) *string {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return nil
	}
	return &v
}
