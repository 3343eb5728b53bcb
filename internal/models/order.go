package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus представляет статус заказа
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusInProgress OrderStatus = "In Progress"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// OrderStatuses перечисляет все допустимые статусы заказа
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusInProgress,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// Valid сообщает, является ли статус одним из допустимых значений
func (s OrderStatus) Valid() bool {
	for _, st := range OrderStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Order представляет заказ клиента со снимком услуги и купона
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	ClientName      string          `json:"clientName" db:"client_name"`
	ClientEmail     string          `json:"clientEmail" db:"client_email"`
	ServiceID       uuid.UUID       `json:"serviceId" db:"service_id"`
	ServiceName     string          `json:"serviceName" db:"service_name"`
	ServicePrice    decimal.Decimal `json:"servicePrice" db:"service_price"`
	CouponCode      *string         `json:"couponCode,omitempty" db:"coupon_code"`
	DiscountPercent int             `json:"discountPercent" db:"discount_percent"`
	FinalPrice      decimal.Decimal `json:"finalPrice" db:"final_price"`
	Status          OrderStatus     `json:"status" db:"status"`
	Feedback        *string         `json:"feedback,omitempty" db:"feedback"`
	VoiceNote       *string         `json:"voiceNote,omitempty" db:"voice_note"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// CreateOrderRequest представляет запрос на создание заказа
type CreateOrderRequest struct {
	ClientName      string          `json:"clientName"`
	ClientEmail     string          `json:"clientEmail"`
	ServiceID       uuid.UUID       `json:"serviceId"`
	ServiceName     string          `json:"serviceName"`
	ServicePrice    decimal.Decimal `json:"servicePrice"`
	CouponCode      *string         `json:"couponCode,omitempty"`
	DiscountPercent *int            `json:"discountPercent,omitempty"`
}

// UpdateOrderStatusRequest представляет запрос на обновление статуса заказа
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// OrderFilter задаёт фильтр списка заказов для оператора
type OrderFilter struct {
	Status *OrderStatus
	Limit  int
	Offset int
}

// OrderSummary агрегирует количество заказов по статусам
type OrderSummary struct {
	TotalOrders     int `json:"totalOrders"`
	PendingOrders   int `json:"pendingOrders"`
	CompletedOrders int `json:"completedOrders"`
	CancelledOrders int `json:"cancelledOrders"`
	TotalFeedback   int `json:"totalFeedback"`
}

// FeedbackSubmission описывает отзыв клиента: текст и/или сохранённая голосовая заметка
type FeedbackSubmission struct {
	Text      *string
	VoiceNote *StoredFile
}

// StoredFile описывает файл, сохранённый в локальном хранилище
type StoredFile struct {
	Name string `json:"name"`
	Path string `json:"-"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}
