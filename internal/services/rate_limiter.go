package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"designcraft/internal/config"
	"designcraft/internal/logger"
	"designcraft/internal/redis"
)

// RateDecision - результат проверки лимита для одного запроса.
type RateDecision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// RateUsage - текущее состояние окна для клиента.
type RateUsage struct {
	Used      int64
	Remaining int64
	ResetAt   *time.Time
}

// RateLimiter ограничивает число запросов в фиксированном окне на ключ (IP клиента).
type RateLimiter struct {
	redis   rateRedis
	log     *logger.Logger
	enabled bool
	limit   int64
	window  time.Duration
	prefix  string
	now     func() time.Time
}

type rateRedis interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	GetInt(ctx context.Context, key string) (int64, error)
}

// NewRateLimiter создаёт rate limiter. Без Redis или конфигурации лимит отключён.
func NewRateLimiter(redisClient *redis.Client, log *logger.Logger, cfg *config.RateLimitConfig) *RateLimiter {
	if redisClient == nil || cfg == nil || !cfg.Enabled || cfg.Requests <= 0 || cfg.WindowSeconds <= 0 {
		return &RateLimiter{enabled: false, log: log, now: time.Now}
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "ratelimit"
	}

	return &RateLimiter{
		redis:   redisClient,
		log:     log,
		enabled: true,
		limit:   int64(cfg.Requests),
		window:  time.Duration(cfg.WindowSeconds) * time.Second,
		prefix:  prefix,
		now:     time.Now,
	}
}

// Allow учитывает запрос и решает, пропускать ли его.
// При ошибке Redis решение разрешающее, ошибка возвращается для логирования.
func (r *RateLimiter) Allow(ctx context.Context, key string) (RateDecision, error) {
	now := r.now()
	if !r.enabled {
		return RateDecision{Allowed: true, Limit: r.limit, Remaining: r.limit}, nil
	}

	redisKey := r.makeKey(key)
	count, err := r.redis.Incr(ctx, redisKey)
	if err != nil {
		return RateDecision{Allowed: true, Limit: r.limit, Remaining: r.limit},
			fmt.Errorf("rate limiter incr failed: %w", err)
	}

	if count == 1 {
		if err := r.redis.Expire(ctx, redisKey, r.window); err != nil {
			r.log.WithError(err).WithField("key", redisKey).Warn("Failed to set rate limit ttl")
		}
	}

	ttl, err := r.redis.TTL(ctx, redisKey)
	if err != nil || ttl <= 0 {
		if err != nil {
			r.log.WithError(err).WithField("key", redisKey).Warn("Failed to get rate limit ttl")
		}
		ttl = r.window
	}

	return RateDecision{
		Allowed:   count <= r.limit,
		Limit:     r.limit,
		Remaining: max(r.limit-count, 0),
		ResetAt:   now.Add(ttl),
	}, nil
}

// Usage возвращает состояние окна без учёта нового запроса.
func (r *RateLimiter) Usage(ctx context.Context, key string) (RateUsage, error) {
	if !r.enabled {
		return RateUsage{Remaining: r.limit}, nil
	}

	redisKey := r.makeKey(key)
	count, err := r.redis.GetInt(ctx, redisKey)
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return RateUsage{Remaining: r.limit}, nil
		}
		return RateUsage{}, fmt.Errorf("failed to read rate limit usage: %w", err)
	}

	usage := RateUsage{Used: count, Remaining: max(r.limit-count, 0)}
	if ttl, err := r.redis.TTL(ctx, redisKey); err != nil {
		r.log.WithError(err).WithField("key", redisKey).Warn("Failed to get rate limit ttl")
	} else if ttl > 0 {
		resetAt := r.now().Add(ttl)
		usage.ResetAt = &resetAt
	}
	return usage, nil
}

func (r *RateLimiter) makeKey(key string) string {
	return fmt.Sprintf("%s:%s", r.prefix, strings.ReplaceAll(key, ":", "_"))
}

// Limit возвращает лимит запросов в окне.
func (r *RateLimiter) Limit() int64 { return r.limit }

// Window возвращает длительность окна.
func (r *RateLimiter) Window() time.Duration { return r.window }

// Enabled сообщает, включён ли лимит.
func (r *RateLimiter) Enabled() bool { return r.enabled }

// ExtractClientIP получает IP клиента из X-Real-IP, X-Forwarded-For или RemoteAddr.
func ExtractClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
