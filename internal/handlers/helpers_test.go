package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"designcraft/internal/auth"
	"designcraft/internal/config"
	"designcraft/internal/logger"
	"designcraft/internal/models"

	"github.com/google/uuid"
)

func newTestLogger() *logger.Logger {
	return logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
}

func clientIdentity(email string) *auth.Identity {
	return &auth.Identity{UserID: uuid.New(), Email: email, Role: models.RoleClient}
}

func adminIdentity() *auth.Identity {
	return &auth.Identity{UserID: uuid.New(), Email: "admin@designcraft.com", Role: models.RoleAdmin}
}

func withIdentity(r *http.Request, identity *auth.Identity) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), identity))
}

type testFile struct {
	field       string
	name        string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...testFile) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("failed to create part: %v", err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("failed to write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dest); err != nil {
		t.Fatalf("failed to decode body %q: %v", rr.Body.String(), err)
	}
}

// stubFiles сохраняет файлы в памяти
type stubFiles struct {
	saved   []*models.StoredFile
	removed []string
	err     error
}

func (s *stubFiles) Save(ctx context.Context, folder, originalName string, r io.Reader, maxBytes int64) (*models.StoredFile, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, _ := io.ReadAll(r)
	name := folder + "/" + originalName
	f := &models.StoredFile{Name: name, URL: "/uploads/" + name, Size: int64(len(data))}
	s.saved = append(s.saved, f)
	return f, nil
}

func (s *stubFiles) Remove(file *models.StoredFile) error {
	s.removed = append(s.removed, file.Name)
	return nil
}

// stubRedis - кеш заказов в памяти
type stubRedis struct {
	items   map[string][]byte
	sets    int
	deletes []string
}

func newStubRedis() *stubRedis {
	return &stubRedis{items: map[string][]byte{}}
}

func (s *stubRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.items[key] = data
	s.sets++
	return nil
}

func (s *stubRedis) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := s.items[key]
	if !ok {
		return errors.New("cache miss")
	}
	return json.Unmarshal(data, dest)
}

func (s *stubRedis) Delete(ctx context.Context, key string) error {
	delete(s.items, key)
	s.deletes = append(s.deletes, key)
	return nil
}

var (
	_ RedisClient = (*stubRedis)(nil)
	_ FileStore   = (*stubFiles)(nil)
)
