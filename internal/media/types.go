package media

import "strings"

var audioTypes = map[string]bool{
	"audio/webm":  true,
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/mpeg":  true,
	"audio/mp3":   true,
}

var imageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/gif":  true,
}

func baseType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// IsAllowedAudio сообщает, принимается ли MIME-тип голосовой заметки.
func IsAllowedAudio(contentType string) bool {
	return audioTypes[baseType(contentType)]
}

// IsAllowedImage сообщает, принимается ли MIME-тип изображения.
func IsAllowedImage(contentType string) bool {
	return imageTypes[baseType(contentType)]
}
