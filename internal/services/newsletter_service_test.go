package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"designcraft/internal/apperror"
	"designcraft/internal/config"
	"designcraft/internal/models"
	"designcraft/internal/notify"
	"designcraft/internal/redis"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type fakeUnsubscribeTokens struct{}

func (fakeUnsubscribeTokens) IssueUnsubscribe(email string) (string, error) {
	return "tok:" + email, nil
}

func (fakeUnsubscribeTokens) ParseUnsubscribe(raw string) (string, error) {
	if !strings.HasPrefix(raw, "tok:") {
		return "", errors.New("bad token")
	}
	return strings.TrimPrefix(raw, "tok:"), nil
}

type recordingMailer struct {
	mu     sync.Mutex
	sent   []notify.Message
	failTo map[string]bool
}

func (m *recordingMailer) Send(ctx context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo[msg.To] {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newTestNewsletterService(t *testing.T, mailer notify.Sender, cache *redis.Client) (*NewsletterService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewNewsletterService(db, newTestLogger(), NewsletterOptions{
		Sender:      mailer,
		Templates:   notify.NewTemplates("DesignCraft", "http://front", "http://api"),
		Tokens:      fakeUnsubscribeTokens{},
		Cache:       cache,
		Concurrency: 2,
	})
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc, mock
}

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.Connect(&config.RedisConfig{Host: mr.Host(), Port: mr.Port()}, newTestLogger())
	if err != nil {
		t.Fatalf("failed to connect to miniredis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewsletterService_Subscribe(t *testing.T) {
	mailer := &recordingMailer{}
	svc, mock := newTestNewsletterService(t, mailer, nil)

	mock.ExpectExec("INSERT INTO subscribers").
		WithArgs(sqlmock.AnyArg(), "reader@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	sub, err := svc.Subscribe(context.Background(), " Reader@Example.com ")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if sub.Email != "reader@example.com" {
		t.Fatalf("expected normalized email, got %s", sub.Email)
	}
	if len(mailer.sent) != 1 || !strings.Contains(mailer.sent[0].HTML, "/api/newsletter/unsubscribe/tok:reader@example.com") {
		t.Fatalf("expected welcome email with unsubscribe link, got %+v", mailer.sent)
	}
}

func TestNewsletterService_Subscribe_Duplicate(t *testing.T) {
	svc, mock := newTestNewsletterService(t, &recordingMailer{}, nil)

	mock.ExpectExec("INSERT INTO subscribers").WillReturnError(&pq.Error{Code: "23505"})

	if _, err := svc.Subscribe(context.Background(), "reader@example.com"); !errors.Is(err, ErrAlreadySubscribed) {
		t.Fatalf("expected ErrAlreadySubscribed, got %v", err)
	}
}

func TestNewsletterService_Subscribe_InvalidEmail(t *testing.T) {
	svc, _ := newTestNewsletterService(t, &recordingMailer{}, nil)

	for _, email := range []string{"", "nope", "a@"} {
		if _, err := svc.Subscribe(context.Background(), email); !apperror.Is(err, apperror.KindValidation) {
			t.Fatalf("expected validation error for %q, got %v", email, err)
		}
	}
}

func TestNewsletterService_Subscribe_MailFailureIgnored(t *testing.T) {
	mailer := &recordingMailer{failTo: map[string]bool{"reader@example.com": true}}
	svc, mock := newTestNewsletterService(t, mailer, nil)

	mock.ExpectExec("INSERT INTO subscribers").WillReturnResult(sqlmock.NewResult(1, 1))

	if _, err := svc.Subscribe(context.Background(), "reader@example.com"); err != nil {
		t.Fatalf("mail failure must not fail subscription, got %v", err)
	}
}

func TestNewsletterService_ListSubscribers_Filters(t *testing.T) {
	svc, mock := newTestNewsletterService(t, nil, nil)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM subscribers WHERE 1=1 AND LOWER\\(email\\) LIKE \\$1 (.+) AND subscribed_at >= \\$2 AND subscribed_at <= \\$3").
		WithArgs("%@gmail.com", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery("SELECT id, email, subscribed_at FROM subscribers (.+) ORDER BY subscribed_at DESC LIMIT \\$4 OFFSET \\$5").
		WithArgs("%@gmail.com", start, end, 5, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "subscribed_at"}).
			AddRow(uuid.New(), "a@gmail.com", end).
			AddRow(uuid.New(), "b@gmail.com", start))

	page, err := svc.ListSubscribers(context.Background(), models.SubscriberFilter{
		Domain: "@Gmail.com", Start: &start, End: &end, Page: 2, Limit: 5,
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if page.Total != 12 || page.TotalPages != 3 || page.CurrentPage != 2 || len(page.Subscribers) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNewsletterService_ListSubscribers_Defaults(t *testing.T) {
	svc, mock := newTestNewsletterService(t, nil, nil)

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT id, email, subscribed_at FROM subscribers").
		WithArgs(defaultSubscribersLimit, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "subscribed_at"}))

	page, err := svc.ListSubscribers(context.Background(), models.SubscriberFilter{Page: -3, Limit: 0})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if page.CurrentPage != 1 || page.TotalPages != 0 || page.Subscribers == nil {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`a_b%c\d`); got != `a\_b\%c\\d` {
		t.Fatalf("unexpected escape %q", got)
	}
}

func TestNewsletterService_DeleteSubscriber(t *testing.T) {
	svc, mock := newTestNewsletterService(t, nil, nil)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM subscribers WHERE id").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := svc.DeleteSubscriber(context.Background(), id); !errors.Is(err, ErrSubscriberNotFound) {
		t.Fatalf("expected ErrSubscriberNotFound, got %v", err)
	}
}

func TestNewsletterService_Unsubscribe(t *testing.T) {
	svc, mock := newTestNewsletterService(t, nil, nil)

	mock.ExpectExec("DELETE FROM subscribers WHERE email").
		WithArgs("reader@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := svc.Unsubscribe(context.Background(), "tok:reader@example.com"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if err := svc.Unsubscribe(context.Background(), "garbage"); !errors.Is(err, ErrInvalidUnsubscribe) {
		t.Fatalf("expected ErrInvalidUnsubscribe, got %v", err)
	}
}

func TestNewsletterService_Analytics_CachedUntilInvalidated(t *testing.T) {
	cache, _ := newTestRedis(t)
	svc, mock := newTestNewsletterService(t, nil, cache)
	ctx := context.Background()

	mock.ExpectQuery("to_char\\(subscribed_at AT TIME ZONE 'UTC', 'YYYY-MM-DD'\\)").
		WillReturnRows(sqlmock.NewRows([]string{"period", "count"}).
			AddRow("2026-03-01", 2).
			AddRow("2026-03-02", 5))

	first, err := svc.Analytics(ctx, models.AnalyticsRangeDaily)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(first.Stats) != 2 || first.Stats[1].Count != 5 {
		t.Fatalf("unexpected stats %+v", first.Stats)
	}

	second, err := svc.Analytics(ctx, models.AnalyticsRangeDaily)
	if err != nil {
		t.Fatalf("expected cached result, got %v", err)
	}
	if len(second.Stats) != 2 {
		t.Fatalf("unexpected cached stats %+v", second.Stats)
	}

	mock.ExpectExec("INSERT INTO subscribers").WillReturnResult(sqlmock.NewResult(1, 1))
	if _, err := svc.Subscribe(ctx, "new@example.com"); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	mock.ExpectQuery("to_char").
		WillReturnRows(sqlmock.NewRows([]string{"period", "count"}).AddRow("2026-03-10", 1))
	third, err := svc.Analytics(ctx, models.AnalyticsRangeDaily)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(third.Stats) != 1 {
		t.Fatalf("expected fresh stats after invalidation, got %+v", third.Stats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNewsletterService_Analytics_WeeklyAndInvalid(t *testing.T) {
	svc, mock := newTestNewsletterService(t, nil, nil)

	mock.ExpectQuery(`IYYY-"W"IW`).
		WillReturnRows(sqlmock.NewRows([]string{"period", "count"}).AddRow("2026-W10", 3))

	res, err := svc.Analytics(context.Background(), models.AnalyticsRangeWeekly)
	if err != nil || len(res.Stats) != 1 || res.Stats[0].Period != "2026-W10" {
		t.Fatalf("unexpected weekly analytics %+v err=%v", res, err)
	}

	if _, err := svc.Analytics(context.Background(), "monthly"); !errors.Is(err, ErrInvalidAnalytics) {
		t.Fatalf("expected ErrInvalidAnalytics, got %v", err)
	}
}

func TestNewsletterService_SendCampaign(t *testing.T) {
	mailer := &recordingMailer{failTo: map[string]bool{"c@example.com": true}}
	svc, mock := newTestNewsletterService(t, mailer, nil)

	rows := sqlmock.NewRows([]string{"email"})
	for _, e := range []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"} {
		rows.AddRow(e)
	}
	mock.ExpectQuery("SELECT email FROM subscribers").WillReturnRows(rows)

	res, err := svc.SendCampaign(context.Background(), &models.CampaignRequest{Subject: "Spring sale", Content: "20% off"})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if res.Recipients != 4 || res.Sent != 3 || res.Failed != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	for _, msg := range mailer.sent {
		if msg.Subject != "Spring sale" || !strings.Contains(msg.HTML, fmt.Sprintf("tok:%s", msg.To)) {
			t.Fatalf("unexpected campaign message %+v", msg)
		}
	}
}

func TestNewsletterService_SendCampaign_Validation(t *testing.T) {
	svc, _ := newTestNewsletterService(t, &recordingMailer{}, nil)

	if _, err := svc.SendCampaign(context.Background(), &models.CampaignRequest{Subject: " ", Content: "x"}); !errors.Is(err, ErrCampaignIncomplete) {
		t.Fatalf("expected ErrCampaignIncomplete, got %v", err)
	}
}
