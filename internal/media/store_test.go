package media

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"designcraft/internal/config"
	"designcraft/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	log := logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
	return NewLocalStore(t.TempDir(), "/uploads/", log)
}

func TestLocalStore_SaveAndRemove(t *testing.T) {
	store := newTestStore(t)

	file, err := store.Save(context.Background(), "feedback", "note.WEBM", strings.NewReader("voice"), 1024)
	require.NoError(t, err)

	assert.Equal(t, int64(5), file.Size)
	assert.True(t, strings.HasPrefix(file.Name, "feedback/"))
	assert.True(t, strings.HasSuffix(file.Name, ".webm"))
	assert.Equal(t, "/uploads/"+file.Name, file.URL)

	data, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	assert.Equal(t, "voice", string(data))

	require.NoError(t, store.Remove(file))
	_, err = os.Stat(file.Path)
	assert.True(t, os.IsNotExist(err))

	// повторное удаление не ошибка
	assert.NoError(t, store.Remove(file))
}

func TestLocalStore_UniqueNames(t *testing.T) {
	store := newTestStore(t)

	a, err := store.Save(context.Background(), "feedback", "a.wav", strings.NewReader("1"), 0)
	require.NoError(t, err)
	b, err := store.Save(context.Background(), "feedback", "a.wav", strings.NewReader("2"), 0)
	require.NoError(t, err)

	assert.NotEqual(t, a.Name, b.Name)
}

func TestLocalStore_SaveTooLargeLeavesNothing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save(context.Background(), "banners", "big.png", bytes.NewReader(make([]byte, 2048)), 1024)
	require.ErrorIs(t, err, ErrFileTooLarge)

	entries, err := os.ReadDir(filepath.Join(store.Dir(), "banners"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStore_SaveCancelledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Save(ctx, "feedback", "a.wav", strings.NewReader("1"), 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalStore_FolderTraversalIsContained(t *testing.T) {
	store := newTestStore(t)

	file, err := store.Save(context.Background(), "../../etc", "x.txt", strings.NewReader("1"), 0)
	require.NoError(t, err)

	rel, err := filepath.Rel(store.Dir(), file.Path)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(rel, ".."))
}

func TestLocalStore_RemoveURL(t *testing.T) {
	store := newTestStore(t)

	file, err := store.Save(context.Background(), "portfolio", "shot.jpg", strings.NewReader("img"), 0)
	require.NoError(t, err)

	require.NoError(t, store.RemoveURL("http://localhost:5050"+file.URL))
	_, err = os.Stat(file.Path)
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, store.RemoveURL("https://cdn.example.com/other/file.jpg"))
}

func TestLocalStore_NameFromURL(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		url    string
		name   string
		wantOK bool
	}{
		{"/uploads/feedback/a.webm", "feedback/a.webm", true},
		{"http://api.example.com/uploads/banners/b.png", "banners/b.png", true},
		{"/uploads/", "", false},
		{"/static/a.png", "", false},
		{"http://host", "", false},
	}

	for _, tt := range tests {
		name, ok := store.NameFromURL(tt.url)
		assert.Equal(t, tt.wantOK, ok, tt.url)
		assert.Equal(t, tt.name, name, tt.url)
	}
}

func TestSafeExt(t *testing.T) {
	assert.Equal(t, ".mp3", safeExt("Song.MP3"))
	assert.Equal(t, "", safeExt("noext"))
	assert.Equal(t, "", safeExt("evil.ph p"))
	assert.Equal(t, "", safeExt("x.averyveryverylongext"))
}

func TestAllowedTypes(t *testing.T) {
	assert.True(t, IsAllowedAudio("audio/webm;codecs=opus"))
	assert.True(t, IsAllowedAudio("audio/x-wav"))
	assert.False(t, IsAllowedAudio("video/mp4"))
	assert.True(t, IsAllowedImage("image/PNG"))
	assert.False(t, IsAllowedImage("image/svg+xml"))
}
