package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscriber представляет подписчика рассылки
type Subscriber struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	SubscribedAt time.Time `json:"subscribedAt" db:"subscribed_at"`
}

// SubscriberFilter задаёт фильтр и пагинацию списка подписчиков
type SubscriberFilter struct {
	Domain string
	Start  *time.Time
	End    *time.Time
	Page   int
	Limit  int
}

// SubscriberPage - страница подписчиков
type SubscriberPage struct {
	Subscribers []*Subscriber `json:"subscribers"`
	Total       int           `json:"total"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
}

// AnalyticsRange описывает группировку аналитики подписок
type AnalyticsRange string

const (
	AnalyticsRangeDaily  AnalyticsRange = "daily"
	AnalyticsRangeWeekly AnalyticsRange = "weekly"
)

// SubscriptionStat - количество подписок за период
type SubscriptionStat struct {
	Period string `json:"period"`
	Count  int    `json:"count"`
}

// SubscriptionAnalytics - результат аналитики подписок
type SubscriptionAnalytics struct {
	Range       AnalyticsRange     `json:"range"`
	Stats       []SubscriptionStat `json:"stats"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// CampaignRequest описывает запрос на рассылку
type CampaignRequest struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// CampaignResult - итог рассылки
type CampaignResult struct {
	Recipients int `json:"recipients"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
}
