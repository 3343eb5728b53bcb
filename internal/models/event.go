package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType представляет тип события
type EventType string

const (
	EventTypeOrderCreated           EventType = "order.created"
	EventTypeOrderStatusChanged     EventType = "order.status_changed"
	EventTypeOrderFeedbackSubmitted EventType = "order.feedback_submitted"
	EventTypeOrderDeleted           EventType = "order.deleted"
)

// Event представляет событие, публикуемое в Kafka
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      EventType       `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewEvent создает событие с сериализованными данными
func NewEvent(eventType EventType, data interface{}) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		Source:    "designcraft-api",
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}, nil
}

// DecodeData десериализует данные события в dest
func (e *Event) DecodeData(dest interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no data", e.ID)
	}
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return fmt.Errorf("failed to decode event data: %w", err)
	}
	return nil
}

// OrderCreatedData - данные события создания заказа
type OrderCreatedData struct {
	OrderID         uuid.UUID       `json:"orderId"`
	ClientName      string          `json:"clientName"`
	ClientEmail     string          `json:"clientEmail"`
	ServiceName     string          `json:"serviceName"`
	ServicePrice    decimal.Decimal `json:"servicePrice"`
	CouponCode      *string         `json:"couponCode,omitempty"`
	DiscountPercent int             `json:"discountPercent"`
	FinalPrice      decimal.Decimal `json:"finalPrice"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// OrderStatusChangedData - данные события смены статуса
type OrderStatusChangedData struct {
	OrderID   uuid.UUID   `json:"orderId"`
	OldStatus OrderStatus `json:"oldStatus"`
	NewStatus OrderStatus `json:"newStatus"`
}

// OrderFeedbackData - данные события отзыва по заказу
type OrderFeedbackData struct {
	OrderID      uuid.UUID `json:"orderId"`
	HasText      bool      `json:"hasText"`
	HasVoiceNote bool      `json:"hasVoiceNote"`
}

// OrderDeletedData - данные события удаления заказа
type OrderDeletedData struct {
	OrderID uuid.UUID `json:"orderId"`
}
