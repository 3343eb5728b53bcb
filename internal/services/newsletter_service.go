package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"designcraft/internal/apperror"
	"designcraft/internal/database"
	"designcraft/internal/logger"
	"designcraft/internal/models"
	"designcraft/internal/notify"
	"designcraft/internal/redis"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

const (
	defaultSubscribersLimit = 10
	maxSubscribersLimit     = 100
	defaultStatsCacheTTL    = 10 * time.Minute
	defaultMailConcurrency  = 4
)

var (
	ErrAlreadySubscribed  = apperror.Conflict("already subscribed", nil)
	ErrSubscriberNotFound = apperror.NotFound("subscriber not found", nil)
	ErrInvalidUnsubscribe = apperror.Validation("invalid or expired token", nil)
	ErrInvalidAnalytics   = apperror.Validation("range must be daily or weekly", nil)
	ErrCampaignIncomplete = apperror.Validation("subject and content are required", nil)
)

// UnsubscribeTokens выпускает и проверяет токены отписки.
type UnsubscribeTokens interface {
	IssueUnsubscribe(email string) (string, error)
	ParseUnsubscribe(raw string) (string, error)
}

// statsCache - часть Redis-клиента, нужная для кеша аналитики.
type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// NewsletterOptions задаёт зависимости рассылки.
type NewsletterOptions struct {
	Sender      notify.Sender
	Templates   *notify.Templates
	Tokens      UnsubscribeTokens
	Cache       *redis.Client
	CacheTTL    time.Duration
	Concurrency int
}

// NewsletterService управляет подписчиками, аналитикой подписок и рассылками.
type NewsletterService struct {
	db          *database.DB
	log         *logger.Logger
	sender      notify.Sender
	templates   *notify.Templates
	tokens      UnsubscribeTokens
	cache       statsCache
	cacheTTL    time.Duration
	concurrency int
	now         func() time.Time
}

// NewNewsletterService создаёт сервис рассылки.
func NewNewsletterService(db *database.DB, log *logger.Logger, opts NewsletterOptions) *NewsletterService {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultStatsCacheTTL
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultMailConcurrency
	}
	s := &NewsletterService{
		db:          db,
		log:         log,
		sender:      opts.Sender,
		templates:   opts.Templates,
		tokens:      opts.Tokens,
		cacheTTL:    ttl,
		concurrency: concurrency,
		now:         time.Now,
	}
	if opts.Cache != nil {
		s.cache = opts.Cache
	}
	return s
}

// Subscribe добавляет адрес в рассылку и отправляет приветствие.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) (*models.Subscriber, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	sub := &models.Subscriber{ID: uuid.New(), Email: email, SubscribedAt: s.now()}
	query := `INSERT INTO subscribers (id, email, subscribed_at) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, query, sub.ID, sub.Email, sub.SubscribedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrAlreadySubscribed
		}
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	s.invalidateStats(ctx)
	s.log.WithField("subscriber_id", sub.ID).Info("Newsletter subscription created")

	if err := s.sendWelcome(ctx, sub.Email); err != nil {
		s.log.WithError(err).WithField("subscriber_id", sub.ID).Error("Failed to send welcome email")
	}
	return sub, nil
}

func (s *NewsletterService) sendWelcome(ctx context.Context, email string) error {
	if s.sender == nil || s.templates == nil || s.tokens == nil {
		return nil
	}
	token, err := s.tokens.IssueUnsubscribe(email)
	if err != nil {
		return err
	}
	msg, err := s.templates.Welcome(email, token)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, msg)
}

// ListSubscribers возвращает страницу подписчиков с фильтрами по домену и дате подписки, новые первыми.
func (s *NewsletterService) ListSubscribers(ctx context.Context, filter models.SubscriberFilter) (*models.SubscriberPage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSubscribersLimit
	}
	if limit > maxSubscribersLimit {
		limit = maxSubscribersLimit
	}

	where := " WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if domain := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(filter.Domain), "@")); domain != "" {
		where += fmt.Sprintf(" AND LOWER(email) LIKE $%d ESCAPE '\\'", argIndex)
		args = append(args, "%@"+escapeLike(domain))
		argIndex++
	}
	if filter.Start != nil {
		where += fmt.Sprintf(" AND subscribed_at >= $%d", argIndex)
		args = append(args, *filter.Start)
		argIndex++
	}
	if filter.End != nil {
		where += fmt.Sprintf(" AND subscribed_at <= $%d", argIndex)
		args = append(args, *filter.End)
		argIndex++
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscribers`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count subscribers: %w", err)
	}

	query := `SELECT id, email, subscribed_at FROM subscribers` + where +
		fmt.Sprintf(" ORDER BY subscribed_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	subscribers := []*models.Subscriber{}
	for rows.Next() {
		sub := &models.Subscriber{}
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.SubscribedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subscribers = append(subscribers, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscribers: %w", err)
	}

	return &models.SubscriberPage{
		Subscribers: subscribers,
		Total:       total,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
	}, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// DeleteSubscriber удаляет подписчика по ID.
func (s *NewsletterService) DeleteSubscriber(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM subscribers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subscriber: %w", err)
	}
	return s.afterDelete(ctx, result.RowsAffected, "subscriber_id", id.String())
}

// Unsubscribe удаляет подписчика по токену отписки.
func (s *NewsletterService) Unsubscribe(ctx context.Context, token string) error {
	if s.tokens == nil {
		return ErrInvalidUnsubscribe
	}
	email, err := s.tokens.ParseUnsubscribe(token)
	if err != nil {
		return ErrInvalidUnsubscribe
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM subscribers WHERE email = $1`, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return s.afterDelete(ctx, result.RowsAffected, "email", email)
}

func (s *NewsletterService) afterDelete(ctx context.Context, rowsAffected func() (int64, error), field, value string) error {
	rows, err := rowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrSubscriberNotFound
	}
	s.invalidateStats(ctx)
	s.log.WithField(field, value).Info("Newsletter subscriber removed")
	return nil
}

// Analytics возвращает количество подписок по дням (YYYY-MM-DD) или ISO-неделям (YYYY-Www) по возрастанию.
func (s *NewsletterService) Analytics(ctx context.Context, rng models.AnalyticsRange) (*models.SubscriptionAnalytics, error) {
	var format string
	switch rng {
	case models.AnalyticsRangeDaily:
		format = `YYYY-MM-DD`
	case models.AnalyticsRangeWeekly:
		format = `IYYY-"W"IW`
	default:
		return nil, ErrInvalidAnalytics
	}

	cacheKey := redis.GenerateKey(redis.KeyPrefixNewsletterStats, string(rng))
	var cached models.SubscriptionAnalytics
	if s.tryGetFromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	query := `
		SELECT to_char(subscribed_at AT TIME ZONE 'UTC', '` + format + `') AS period, COUNT(*)
		FROM subscribers
		GROUP BY period
		ORDER BY period ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscription analytics: %w", err)
	}
	defer rows.Close()

	stats := []models.SubscriptionStat{}
	for rows.Next() {
		var stat models.SubscriptionStat
		if err := rows.Scan(&stat.Period, &stat.Count); err != nil {
			return nil, fmt.Errorf("failed to scan subscription stat: %w", err)
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscription stats: %w", err)
	}

	result := &models.SubscriptionAnalytics{Range: rng, Stats: stats, GeneratedAt: s.now().UTC()}
	s.saveToCache(ctx, cacheKey, result)
	return result, nil
}

func (s *NewsletterService) tryGetFromCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	return s.cache.Get(ctx, key, dest) == nil
}

func (s *NewsletterService) saveToCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Failed to cache newsletter analytics")
	}
}

func (s *NewsletterService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPrefix(ctx, redis.KeyPrefixNewsletterStats); err != nil {
		s.log.WithError(err).Warn("Failed to invalidate newsletter analytics cache")
	}
}

// SendCampaign рассылает письмо всем подписчикам, не более concurrency писем одновременно.
func (s *NewsletterService) SendCampaign(ctx context.Context, req *models.CampaignRequest) (*models.CampaignResult, error) {
	subject := strings.TrimSpace(req.Subject)
	content := strings.TrimSpace(req.Content)
	if subject == "" || content == "" {
		return nil, ErrCampaignIncomplete
	}
	if s.sender == nil || s.templates == nil || s.tokens == nil {
		return nil, errors.New("newsletter mailer is not configured")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT email FROM subscribers ORDER BY subscribed_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscribers: %w", err)
	}
	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan subscriber email: %w", err)
		}
		emails = append(emails, email)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscribers: %w", err)
	}

	var sent, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, email := range emails {
		g.Go(func() error {
			if err := s.sendCampaignTo(gctx, email, subject, content); err != nil {
				failed.Add(1)
				s.log.WithError(err).WithField("email", email).Warn("Failed to send campaign email")
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	result := &models.CampaignResult{
		Recipients: len(emails),
		Sent:       int(sent.Load()),
		Failed:     int(failed.Load()),
	}
	s.log.WithFields(map[string]interface{}{
		"recipients": result.Recipients,
		"sent":       result.Sent,
		"failed":     result.Failed,
	}).Info("Newsletter campaign finished")
	return result, nil
}

func (s *NewsletterService) sendCampaignTo(ctx context.Context, email, subject, content string) error {
	token, err := s.tokens.IssueUnsubscribe(email)
	if err != nil {
		return err
	}
	msg, err := s.templates.Campaign(email, subject, content, token)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, msg)
}
