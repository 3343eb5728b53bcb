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
	"github.com/shopspring/decimal"
)

type stubCouponService struct {
	discount  *models.CouponDiscount
	coupon    *models.Coupon
	err       error
	code      string
	deletedID uuid.UUID
}

func (s *stubCouponService) Validate(ctx context.Context, code string) (*models.CouponDiscount, error) {
	s.code = code
	return s.discount, s.err
}

func (s *stubCouponService) CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Coupon{ID: uuid.New(), Code: req.Code, Discount: req.Discount}, nil
}

func (s *stubCouponService) ListCoupons(ctx context.Context) ([]*models.Coupon, error) {
	return []*models.Coupon{s.coupon}, s.err
}

func (s *stubCouponService) GetCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	return s.coupon, s.err
}

func (s *stubCouponService) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	s.deletedID = id
	return s.err
}

func TestApplyCoupon(t *testing.T) {
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := &stubCouponService{discount: &models.CouponDiscount{Discount: 15, ExpiresAt: expires}}
	h := NewCouponHandler(svc, newTestLogger())

	rr := httptest.NewRecorder()
	h.ApplyCoupon(rr, httptest.NewRequest(http.MethodPost, "/api/coupons/apply", bytes.NewBufferString(`{"code":" save15 "}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body models.CouponDiscount
	decodeBody(t, rr, &body)
	if body.Discount != 15 || !body.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected discount %+v", body)
	}
	if svc.code != " save15 " {
		t.Fatalf("code normalisation belongs to the service, got %q", svc.code)
	}
}

func TestApplyCoupon_Errors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		body string
		want int
	}{
		{"unknown", apperror.NotFound("coupon not found", nil), `{"code":"NOPE"}`, http.StatusNotFound},
		{"expired", apperror.Expired("coupon has expired", nil), `{"code":"OLD"}`, http.StatusBadRequest},
		{"bad json", nil, `{"code":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		h := NewCouponHandler(&stubCouponService{err: tc.err}, newTestLogger())
		rr := httptest.NewRecorder()
		h.ApplyCoupon(rr, httptest.NewRequest(http.MethodPost, "/api/coupons/apply", bytes.NewBufferString(tc.body)))
		if rr.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rr.Code)
		}
	}

	h := NewCouponHandler(&stubCouponService{}, newTestLogger())
	rr := httptest.NewRecorder()
	h.ApplyCoupon(rr, httptest.NewRequest(http.MethodGet, "/api/coupons/apply", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestCouponAdminEndpoints(t *testing.T) {
	coupon := &models.Coupon{ID: uuid.New(), Code: "SAVE10", Discount: 10}
	svc := &stubCouponService{coupon: coupon}
	h := NewCouponHandler(svc, newTestLogger())

	rr := httptest.NewRecorder()
	h.CreateCoupon(rr, httptest.NewRequest(http.MethodPost, "/api/coupons", bytes.NewBufferString(`{"code":"SAVE10","discount":10,"expiresAt":"2030-01-01"}`)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.GetCoupon(rr, httptest.NewRequest(http.MethodGet, "/api/coupons/"+coupon.ID.String(), nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.GetCoupon(rr, httptest.NewRequest(http.MethodGet, "/api/coupons/not-a-uuid", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.DeleteCoupon(rr, httptest.NewRequest(http.MethodDelete, "/api/coupons/"+coupon.ID.String(), nil))
	if rr.Code != http.StatusOK || svc.deletedID != coupon.ID {
		t.Fatalf("expected delete of %s, got %d %s", coupon.ID, rr.Code, svc.deletedID)
	}

	svc.err = apperror.Conflict("coupon code already exists", nil)
	rr = httptest.NewRecorder()
	h.CreateCoupon(rr, httptest.NewRequest(http.MethodPost, "/api/coupons", bytes.NewBufferString(`{"code":"SAVE10","discount":10,"expiresAt":"2030-01-01"}`)))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

type stubCatalogService struct {
	service *models.Service
	err     error
	update  *models.UpdateServiceRequest
}

func (s *stubCatalogService) CreateService(ctx context.Context, req *models.CreateServiceRequest) (*models.Service, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Service{ID: uuid.New(), Title: req.Title, Price: req.Price}, nil
}

func (s *stubCatalogService) ListServices(ctx context.Context) ([]*models.Service, error) {
	return []*models.Service{s.service}, s.err
}

func (s *stubCatalogService) GetService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	return s.service, s.err
}

func (s *stubCatalogService) UpdateService(ctx context.Context, id uuid.UUID, req *models.UpdateServiceRequest) (*models.Service, error) {
	s.update = req
	return s.service, s.err
}

func (s *stubCatalogService) DeleteService(ctx context.Context, id uuid.UUID) error {
	return s.err
}

func TestCatalogHandler(t *testing.T) {
	service := &models.Service{ID: uuid.New(), Title: "Logo", Price: decimal.NewFromInt(300)}
	svc := &stubCatalogService{service: service}
	h := NewCatalogHandler(svc, newTestLogger())

	rr := httptest.NewRecorder()
	h.CreateService(rr, httptest.NewRequest(http.MethodPost, "/api/services", bytes.NewBufferString(`{"title":"Logo","description":"d","price":"300"}`)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ListServices(rr, httptest.NewRequest(http.MethodGet, "/api/services", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.UpdateService(rr, httptest.NewRequest(http.MethodPut, "/api/services/"+service.ID.String(), bytes.NewBufferString(`{"title":"Brand book"}`)))
	if rr.Code != http.StatusOK || svc.update == nil || svc.update.Title == nil || *svc.update.Title != "Brand book" {
		t.Fatalf("unexpected update result %d %+v", rr.Code, svc.update)
	}

	svc.err = apperror.NotFound("service not found", nil)
	rr = httptest.NewRecorder()
	h.GetService(rr, httptest.NewRequest(http.MethodGet, "/api/services/"+service.ID.String(), nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.DeleteService(rr, httptest.NewRequest(http.MethodPost, "/api/services/"+service.ID.String(), nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
