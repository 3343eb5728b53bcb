package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"designcraft/internal/apperror"
)

func TestExtractUUIDFromPath(t *testing.T) {
	id := "123e4567-e89b-12d3-a456-426614174000"
	parsed, err := extractUUIDFromPath("/api/orders/"+id+"/feedback", "/api/orders/")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if parsed.String() != id {
		t.Fatalf("unexpected id: %s", parsed)
	}

	if _, err := extractUUIDFromPath("/wrong/path", "/api/orders/"); err == nil {
		t.Fatalf("expected error for invalid path")
	}
	if _, err := extractUUIDFromPath("/api/orders/", "/api/orders/"); err == nil {
		t.Fatalf("expected error for missing id")
	}
}

func TestWriteJSONResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSONResponse(rr, http.StatusOK, map[string]string{"ok": "true"})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content-type: %s", ct)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dest struct {
		Code string `json:"code"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"code":"SAVE10"}`))
	if err := decodeJSON(req, &dest); err != nil || dest.Code != "SAVE10" {
		t.Fatalf("expected decode, got %v %+v", err, dest)
	}

	for _, body := range []string{`{"code":"A","extra":1}`, `{"code":"A"}{"code":"B"}`, `nope`} {
		req = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
		if err := decodeJSON(req, &dest); err == nil {
			t.Fatalf("expected error for %s", body)
		}
	}
}

func TestQueryIntAndDateParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=-1&bad=x", nil)
	if queryInt(req, "page", 1) != 3 || queryInt(req, "limit", 10) != 10 || queryInt(req, "bad", 7) != 7 {
		t.Fatalf("unexpected query parsing")
	}

	d, err := parseDateParam("2026-03-01")
	if err != nil || !d.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v %v", d, err)
	}
	if d, err := parseDateParam(""); d != nil || err != nil {
		t.Fatalf("empty date must be nil")
	}
	if _, err := parseDateParam("01/03/2026"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestWriteServiceError_Mapping(t *testing.T) {
	cases := map[int]error{
		http.StatusNotFound:            apperror.NotFound("x", nil),
		http.StatusBadRequest:          apperror.Expired("x", nil),
		http.StatusConflict:            apperror.Conflict("x", nil),
		http.StatusUnauthorized:        apperror.Unauthorized("x", nil),
		http.StatusForbidden:           apperror.Forbidden("x", nil),
		http.StatusInternalServerError: errors.New("x"),
	}
	for want, err := range cases {
		rr := httptest.NewRecorder()
		writeServiceError(rr, newTestLogger(), err, "internal")
		if rr.Code != want {
			t.Fatalf("error %v: expected %d, got %d", err, want, rr.Code)
		}
	}
}
