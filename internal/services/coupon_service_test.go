package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"designcraft/internal/apperror"
	"designcraft/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

func newTestCouponService(t *testing.T, now time.Time) (*CouponService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewCouponService(db, newTestLogger())
	svc.now = func() time.Time { return now }
	return svc, mock
}

func TestCouponService_Validate_CaseInsensitive(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, mock := newTestCouponService(t, now)

	mock.ExpectQuery("SELECT discount, expires_at FROM coupons").
		WithArgs("SAVE10").
		WillReturnRows(sqlmock.NewRows([]string{"discount", "expires_at"}).AddRow(10, now.Add(24*time.Hour)))

	got, err := svc.Validate(context.Background(), "  save10 ")
	if err != nil {
		t.Fatalf("expected valid coupon, got %v", err)
	}
	if got.Discount != 10 {
		t.Fatalf("expected discount 10, got %d", got.Discount)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCouponService_Validate_ExpiredYesterday(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, mock := newTestCouponService(t, now)

	mock.ExpectQuery("SELECT discount, expires_at FROM coupons").
		WithArgs("OLD").
		WillReturnRows(sqlmock.NewRows([]string{"discount", "expires_at"}).AddRow(15, now.Add(-24*time.Hour)))

	_, err := svc.Validate(context.Background(), "old")
	if !errors.Is(err, ErrCouponExpired) {
		t.Fatalf("expected ErrCouponExpired, got %v", err)
	}
	if !apperror.Is(err, apperror.KindExpired) {
		t.Fatalf("expected expired kind")
	}
}

func TestCouponService_Validate_ExpiringExactlyNowIsValid(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, mock := newTestCouponService(t, now)

	mock.ExpectQuery("SELECT discount, expires_at FROM coupons").
		WithArgs("EDGE").
		WillReturnRows(sqlmock.NewRows([]string{"discount", "expires_at"}).AddRow(5, now))

	if _, err := svc.Validate(context.Background(), "EDGE"); err != nil {
		t.Fatalf("expected coupon expiring now to be valid, got %v", err)
	}
}

func TestCouponService_Validate_NotFound(t *testing.T) {
	svc, mock := newTestCouponService(t, time.Now())

	mock.ExpectQuery("SELECT discount, expires_at FROM coupons").
		WithArgs("NOPE").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Validate(context.Background(), "nope")
	if !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound, got %v", err)
	}
}

func TestCouponService_Validate_EmptyCode(t *testing.T) {
	svc, _ := newTestCouponService(t, time.Now())
	if _, err := svc.Validate(context.Background(), "   "); !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCouponService_ValidateWithTx_LocksRow(t *testing.T) {
	now := time.Now()
	svc, mock := newTestCouponService(t, now)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT discount, expires_at FROM coupons WHERE code = \\$1 FOR SHARE").
		WithArgs("SAVE20").
		WillReturnRows(sqlmock.NewRows([]string{"discount", "expires_at"}).AddRow(20, now.Add(time.Hour)))
	mock.ExpectRollback()

	tx, err := svc.db.Begin()
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	got, err := svc.ValidateWithTx(context.Background(), tx, "save20")
	if err != nil {
		t.Fatalf("expected valid coupon, got %v", err)
	}
	if got.Discount != 20 {
		t.Fatalf("expected discount 20, got %d", got.Discount)
	}
	_ = tx.Rollback()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCouponService_CreateCoupon(t *testing.T) {
	svc, mock := newTestCouponService(t, time.Now())

	mock.ExpectExec("INSERT INTO coupons").
		WithArgs(sqlmock.AnyArg(), "WELCOME", 25, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	coupon, err := svc.CreateCoupon(context.Background(), &models.CreateCouponRequest{
		Code:      " welcome ",
		Discount:  25,
		ExpiresAt: "2026-12-31",
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if coupon.Code != "WELCOME" || coupon.ID == uuid.Nil {
		t.Fatalf("unexpected coupon: %+v", coupon)
	}
	if !coupon.ExpiresAt.Equal(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected expiry: %s", coupon.ExpiresAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCouponService_CreateCoupon_Duplicate(t *testing.T) {
	svc, mock := newTestCouponService(t, time.Now())

	mock.ExpectExec("INSERT INTO coupons").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := svc.CreateCoupon(context.Background(), &models.CreateCouponRequest{
		Code:      "SAVE10",
		Discount:  10,
		ExpiresAt: "2026-12-31T23:59:59Z",
	})
	if !apperror.Is(err, apperror.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCouponService_CreateCoupon_Validation(t *testing.T) {
	svc, _ := newTestCouponService(t, time.Now())

	cases := []*models.CreateCouponRequest{
		{Code: "", Discount: 10, ExpiresAt: "2026-12-31"},
		{Code: "ZERO", Discount: 0, ExpiresAt: "2026-12-31"},
		{Code: "OVER", Discount: 101, ExpiresAt: "2026-12-31"},
		{Code: "NODATE", Discount: 10},
		{Code: "BADDATE", Discount: 10, ExpiresAt: "31/12/2026"},
	}
	for _, req := range cases {
		if _, err := svc.CreateCoupon(context.Background(), req); !apperror.Is(err, apperror.KindValidation) {
			t.Fatalf("expected validation error for %+v, got %v", req, err)
		}
	}
}

func TestCouponService_ListCoupons(t *testing.T) {
	svc, mock := newTestCouponService(t, time.Now())
	now := time.Now()

	mock.ExpectQuery("SELECT id, code, discount, expires_at, created_at, updated_at FROM coupons").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "discount", "expires_at", "created_at", "updated_at"}).
			AddRow(uuid.New(), "A", 10, now, now, now).
			AddRow(uuid.New(), "B", 20, now, now, now))

	coupons, err := svc.ListCoupons(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(coupons) != 2 {
		t.Fatalf("expected 2 coupons, got %d", len(coupons))
	}
}

func TestCouponService_DeleteCoupon_NotFound(t *testing.T) {
	svc, mock := newTestCouponService(t, time.Now())
	id := uuid.New()

	mock.ExpectExec("DELETE FROM coupons").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := svc.DeleteCoupon(context.Background(), id); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound, got %v", err)
	}
}

func TestParseExpiry(t *testing.T) {
	got, err := ParseExpiry("2026-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected midnight UTC, got %s", got)
	}

	got, err = ParseExpiry("2026-01-15T10:00:00+05:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(time.Date(2026, 1, 15, 4, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected instant: %s", got)
	}
}
