package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"designcraft/internal/auth"
	"designcraft/internal/config"
	"designcraft/internal/database"
	"designcraft/internal/handlers"
	"designcraft/internal/kafka"
	"designcraft/internal/logger"
	"designcraft/internal/media"
	"designcraft/internal/models"
	"designcraft/internal/notify"
	"designcraft/internal/redis"
	"designcraft/internal/services"

	"github.com/shopspring/decimal"
)

const (
	shutdownTimeout     = 30 * time.Second
	migrationTimeout    = time.Minute
	newsletterStatsTTL  = 10 * time.Minute
	defaultTokenTTLHour = 7 * 24
)

// Фабричные функции для подключения внешних сервисов (подменяемые в тестах).
var (
	dbConnect        = database.Connect
	redisConnect     = redis.Connect
	newKafkaProducer = kafka.NewProducer
	newKafkaConsumer = kafka.NewConsumer
	kafkaHealthCheck = handlers.CheckKafkaHealth
	loadConfig       = config.Load
	newLogger        = logger.New
)

// application агрегирует собранные зависимости.
type application struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	producer *kafka.Producer
	consumer *kafka.Consumer
	server   *http.Server
}

func main() {
	app, err := buildApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build app: %v\n", err)
		os.Exit(1)
	}
	app.log.Info("Starting DesignCraft API server...")

	go func() {
		app.log.WithField("address", app.server.Addr).Info("HTTP server starting")
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("Server forced to shutdown")
	}
	app.close()
	app.log.Info("Server exited")
}

// close освобождает внешние подключения в обратном порядке
func (a *application) close() {
	if a.consumer != nil {
		_ = a.consumer.Stop()
	}
	if a.producer != nil {
		_ = a.producer.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

// buildApplication создает все зависимости (подменяемые в тестах).
func buildApplication() (app *application, err error) {
	// деньги сериализуются числами, а не строками
	decimal.MarshalJSONWithoutQuotes = true

	cfg := loadConfig()
	log := newLogger(&cfg.Logger)
	app = &application{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			app.close()
			app = nil
		}
	}()

	if app.db, err = dbConnect(&cfg.Database, log); err != nil {
		return app, fmt.Errorf("db connect: %w", err)
	}
	migrateCtx, cancel := context.WithTimeout(context.Background(), migrationTimeout)
	defer cancel()
	if err = app.db.Migrate(migrateCtx, log); err != nil {
		return app, fmt.Errorf("db migrate: %w", err)
	}

	if app.redis, err = redisConnect(&cfg.Redis, log); err != nil {
		return app, fmt.Errorf("redis connect: %w", err)
	}
	if app.producer, err = newKafkaProducer(&cfg.Kafka, log); err != nil {
		return app, fmt.Errorf("kafka producer: %w", err)
	}
	if app.consumer, err = newKafkaConsumer(&cfg.Kafka, log); err != nil {
		return app, fmt.Errorf("kafka consumer: %w", err)
	}

	ttlHours := cfg.Auth.TokenTTLHours
	if ttlHours <= 0 {
		ttlHours = defaultTokenTTLHour
	}
	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(ttlHours)*time.Hour)
	if err != nil {
		return app, fmt.Errorf("token manager: %w", err)
	}

	policy, err := services.NewStatusPolicy(cfg.Orders.StatusPolicy)
	if err != nil {
		return app, err
	}

	store := media.NewLocalStore(cfg.Storage.Dir, cfg.Storage.PublicPrefix, log)
	voiceGate := media.NewVoiceNoteGate(&cfg.Media, media.NewFFProbe(cfg.Media.FFProbePath), log)

	sender := notify.NewSender(&cfg.Mail, log)
	templates := notify.NewTemplates(cfg.Mail.BrandingName, cfg.Mail.FrontendURL, cfg.Server.PublicURL)

	pricingService := services.NewPricingService()
	couponService := services.NewCouponService(app.db, log)
	orderService := services.NewOrderService(app.db, log, pricingService, couponService, services.OrderOptions{
		Policy:           policy,
		RevalidateCoupon: cfg.Orders.RevalidateCoupon,
		VoiceGate:        voiceGate,
		Files:            store,
	})
	catalogService := services.NewCatalogService(app.db, log)
	authService := services.NewAuthService(app.db, log, tokens, cfg.Auth.AdminEmails, cfg.Auth.BcryptCost)
	newsletterService := services.NewNewsletterService(app.db, log, services.NewsletterOptions{
		Sender:      sender,
		Templates:   templates,
		Tokens:      tokens,
		Cache:       app.redis,
		CacheTTL:    newsletterStatsTTL,
		Concurrency: cfg.Mail.Concurrency,
	})
	bannerService := services.NewBannerService(app.db, log, store)
	portfolioService := services.NewPortfolioService(app.db, log, store)
	sketchService := services.NewSketchFeedbackService(app.db, log, voiceGate, store)
	rateLimiter := services.NewRateLimiter(app.redis, log, &cfg.RateLimit)

	h := routeHandlers{
		orders: handlers.NewOrderHandler(orderService, app.producer, app.redis, store, log, handlers.OrderHandlerConfig{
			CacheTTL:       time.Duration(cfg.Cache.OrderTTLMinutes) * time.Minute,
			MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		}),
		coupons:    handlers.NewCouponHandler(couponService, log),
		catalog:    handlers.NewCatalogHandler(catalogService, log),
		auth:       handlers.NewAuthHandler(authService, handlers.CookieConfig{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure}, log),
		newsletter: handlers.NewNewsletterHandler(newsletterService, log),
		content:    handlers.NewContentHandler(bannerService, portfolioService, sketchService, store, log, cfg.Storage.MaxUploadBytes),
		health:     handlers.NewHealthHandler(app.db, app.redis, cfg.Kafka.Brokers, kafkaHealthCheck),
		rateLimit:  handlers.NewRateLimitHandler(rateLimiter, log),
	}

	notifier := notify.NewOrderNotifier(sender, templates, log)
	registerEventHandlers(app.consumer, notifier, log)
	if err = app.consumer.Start(); err != nil {
		return app, fmt.Errorf("kafka consumer start: %w", err)
	}

	mux := setupRoutes(h, middlewareDeps{
		tokens:         tokens,
		cookieName:     cfg.Auth.CookieName,
		allowedOrigins: cfg.CORS.AllowedOrigins,
		limiter:        rateLimiter,
		log:            log,
	}, cfg.Storage)

	app.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      handlers.Recovery(log, handlers.RequestLogger(log, mux)),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}
	return app, nil
}

// registerEventHandlers регистрирует обработчики событий Kafka
func registerEventHandlers(consumer *kafka.Consumer, notifier *notify.OrderNotifier, log *logger.Logger) {
	consumer.RegisterHandler(models.EventTypeOrderCreated, notifier.HandleOrderCreated)

	consumer.RegisterHandler(models.EventTypeOrderStatusChanged, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing order status changed event")
		return nil
	})
	consumer.RegisterHandler(models.EventTypeOrderFeedbackSubmitted, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing order feedback event")
		return nil
	})
}
