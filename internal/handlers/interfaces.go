package handlers

import (
	"context"
	"io"
	"time"

	"designcraft/internal/auth"
	"designcraft/internal/models"

	"github.com/google/uuid"
)

// ----- Orders -----

type OrderService interface {
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetOrdersByClientEmail(ctx context.Context, email string) ([]*models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) (*models.Order, models.OrderStatus, error)
	Summarize(ctx context.Context) (*models.OrderSummary, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
	AttachFeedback(ctx context.Context, orderID uuid.UUID, sub models.FeedbackSubmission) (*models.Order, error)
}

type EventProducer interface {
	PublishOrderCreated(order *models.Order) error
	PublishOrderStatusChanged(orderID uuid.UUID, oldStatus, newStatus models.OrderStatus) error
	PublishFeedbackSubmitted(order *models.Order) error
	PublishOrderDeleted(orderID uuid.UUID) error
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
}

// ----- Files -----

type FileStore interface {
	Save(ctx context.Context, folder, originalName string, r io.Reader, maxBytes int64) (*models.StoredFile, error)
	Remove(file *models.StoredFile) error
}

// ----- Coupons & catalog -----

type CouponService interface {
	Validate(ctx context.Context, code string) (*models.CouponDiscount, error)
	CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, error)
	ListCoupons(ctx context.Context) ([]*models.Coupon, error)
	GetCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	DeleteCoupon(ctx context.Context, id uuid.UUID) error
}

type CatalogService interface {
	CreateService(ctx context.Context, req *models.CreateServiceRequest) (*models.Service, error)
	ListServices(ctx context.Context) ([]*models.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (*models.Service, error)
	UpdateService(ctx context.Context, id uuid.UUID, req *models.UpdateServiceRequest) (*models.Service, error)
	DeleteService(ctx context.Context, id uuid.UUID) error
}

// ----- Auth -----

type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResult, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error)
}

type TokenParser interface {
	Parse(raw string) (*auth.Identity, error)
}

// ----- Newsletter -----

type NewsletterService interface {
	Subscribe(ctx context.Context, email string) (*models.Subscriber, error)
	ListSubscribers(ctx context.Context, filter models.SubscriberFilter) (*models.SubscriberPage, error)
	DeleteSubscriber(ctx context.Context, id uuid.UUID) error
	Unsubscribe(ctx context.Context, token string) error
	Analytics(ctx context.Context, rng models.AnalyticsRange) (*models.SubscriptionAnalytics, error)
	SendCampaign(ctx context.Context, req *models.CampaignRequest) (*models.CampaignResult, error)
}

// ----- Content -----

type BannerService interface {
	CreateBanner(ctx context.Context, title, subtitle string, image *models.StoredFile) (*models.Banner, error)
	ListBanners(ctx context.Context, page, limit int) (*models.BannerPage, error)
	DeleteBanner(ctx context.Context, id uuid.UUID) error
}

type PortfolioService interface {
	CreateItem(ctx context.Context, in models.PortfolioInput) (*models.PortfolioItem, error)
	ListItems(ctx context.Context, category string) ([]*models.PortfolioItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.PortfolioItem, error)
	UpdateItem(ctx context.Context, id uuid.UUID, in models.PortfolioInput) (*models.PortfolioItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

type SketchFeedbackService interface {
	Submit(ctx context.Context, sub models.SketchSubmission) (*models.SketchFeedback, error)
	List(ctx context.Context) ([]*models.SketchFeedback, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ----- Health -----

type DBHealth interface {
	Health() error
}

type RedisHealth interface {
	Health(ctx context.Context) error
}
