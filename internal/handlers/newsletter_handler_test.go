package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"designcraft/internal/apperror"
	"designcraft/internal/models"

	"github.com/google/uuid"
)

type stubNewsletterService struct {
	err      error
	email    string
	filter   models.SubscriberFilter
	token    string
	rng      models.AnalyticsRange
	campaign *models.CampaignRequest
}

func (s *stubNewsletterService) Subscribe(ctx context.Context, email string) (*models.Subscriber, error) {
	s.email = email
	if s.err != nil {
		return nil, s.err
	}
	return &models.Subscriber{ID: uuid.New(), Email: email}, nil
}

func (s *stubNewsletterService) ListSubscribers(ctx context.Context, filter models.SubscriberFilter) (*models.SubscriberPage, error) {
	s.filter = filter
	return &models.SubscriberPage{CurrentPage: filter.Page}, s.err
}

func (s *stubNewsletterService) DeleteSubscriber(ctx context.Context, id uuid.UUID) error {
	return s.err
}

func (s *stubNewsletterService) Unsubscribe(ctx context.Context, token string) error {
	s.token = token
	return s.err
}

func (s *stubNewsletterService) Analytics(ctx context.Context, rng models.AnalyticsRange) (*models.SubscriptionAnalytics, error) {
	s.rng = rng
	return &models.SubscriptionAnalytics{Range: rng}, s.err
}

func (s *stubNewsletterService) SendCampaign(ctx context.Context, req *models.CampaignRequest) (*models.CampaignResult, error) {
	s.campaign = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.CampaignResult{Recipients: 2, Sent: 2}, nil
}

func TestNewsletterSubscribe(t *testing.T) {
	svc := &stubNewsletterService{}
	h := NewNewsletterHandler(svc, newTestLogger())

	rr := httptest.NewRecorder()
	h.Subscribe(rr, httptest.NewRequest(http.MethodPost, "/api/newsletter/subscribe", bytes.NewBufferString(`{"email":"ann@example.com"}`)))
	if rr.Code != http.StatusCreated || svc.email != "ann@example.com" {
		t.Fatalf("expected 201 for ann, got %d %q", rr.Code, svc.email)
	}

	svc.err = apperror.Conflict("email already subscribed", nil)
	rr = httptest.NewRecorder()
	h.Subscribe(rr, httptest.NewRequest(http.MethodPost, "/api/newsletter/subscribe", bytes.NewBufferString(`{"email":"ann@example.com"}`)))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestNewsletterListSubscribers_PassesFilter(t *testing.T) {
	svc := &stubNewsletterService{}
	h := NewNewsletterHandler(svc, newTestLogger())

	rr := httptest.NewRecorder()
	h.ListSubscribers(rr, httptest.NewRequest(http.MethodGet, "/api/newsletter?domain=gmail.com&start=2026-01-01&end=2026-02-01&page=2&limit=5", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	f := svc.filter
	if f.Domain != "gmail.com" || f.Page != 2 || f.Limit != 5 {
		t.Fatalf("unexpected filter %+v", f)
	}
	if f.Start == nil || !f.Start.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) || f.End == nil {
		t.Fatalf("unexpected date range %+v", f)
	}

	rr = httptest.NewRecorder()
	h.ListSubscribers(rr, httptest.NewRequest(http.MethodGet, "/api/newsletter?start=yesterday", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rr.Code)
	}
}

func TestNewsletterUnsubscribe(t *testing.T) {
	svc := &stubNewsletterService{}
	h := NewNewsletterHandler(svc, newTestLogger())

	rr := httptest.NewRecorder()
	h.Unsubscribe(rr, httptest.NewRequest(http.MethodGet, "/api/newsletter/unsubscribe/abc.def.ghi", nil))
	if rr.Code != http.StatusOK || svc.token != "abc.def.ghi" {
		t.Fatalf("expected token to reach service, got %d %q", rr.Code, svc.token)
	}

	rr = httptest.NewRecorder()
	h.Unsubscribe(rr, httptest.NewRequest(http.MethodGet, "/api/newsletter/unsubscribe/", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without token, got %d", rr.Code)
	}

	svc.err = apperror.Unauthorized("invalid unsubscribe token", nil)
	rr = httptest.NewRecorder()
	h.Unsubscribe(rr, httptest.NewRequest(http.MethodGet, "/api/newsletter/unsubscribe/forged", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestNewsletterAnalyticsAndCampaign(t *testing.T) {
	svc := &stubNewsletterService{}
	h := NewNewsletterHandler(svc, newTestLogger())

	rr := httptest.NewRecorder()
	h.Analytics(rr, httptest.NewRequest(http.MethodGet, "/api/newsletter/analytics", nil))
	if rr.Code != http.StatusOK || svc.rng != models.AnalyticsRangeDaily {
		t.Fatalf("expected daily default, got %d %q", rr.Code, svc.rng)
	}

	rr = httptest.NewRecorder()
	h.Analytics(rr, httptest.NewRequest(http.MethodGet, "/api/newsletter/analytics?range=WEEKLY", nil))
	if svc.rng != models.AnalyticsRangeWeekly {
		t.Fatalf("expected weekly, got %q", svc.rng)
	}

	rr = httptest.NewRecorder()
	h.SendCampaign(rr, httptest.NewRequest(http.MethodPost, "/api/newsletter/campaign", bytes.NewBufferString(`{"subject":"News","content":"<p>Hi</p>"}`)))
	if rr.Code != http.StatusOK || svc.campaign == nil || svc.campaign.Subject != "News" {
		t.Fatalf("unexpected campaign result %d %+v", rr.Code, svc.campaign)
	}
	var result models.CampaignResult
	decodeBody(t, rr, &result)
	if result.Sent != 2 {
		t.Fatalf("unexpected result %+v", result)
	}

	rr = httptest.NewRecorder()
	h.DeleteSubscriber(rr, httptest.NewRequest(http.MethodDelete, "/api/newsletter/bad-id", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
