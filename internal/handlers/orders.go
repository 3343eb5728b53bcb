package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"designcraft/internal/auth"
	"designcraft/internal/logger"
	"designcraft/internal/models"
	"designcraft/internal/redis"

	"github.com/google/uuid"
)

// OrderHandlerConfig задаёт TTL кеша и лимит загрузки голосовой заметки
type OrderHandlerConfig struct {
	CacheTTL       time.Duration
	MaxUploadBytes int64
}

// OrderHandler представляет обработчик заказов
type OrderHandler struct {
	orderService OrderService
	producer     EventProducer
	redisClient  RedisClient
	files        FileStore
	log          *logger.Logger
	cacheTTL     time.Duration
	maxUpload    int64
}

// NewOrderHandler создает новый обработчик заказов
func NewOrderHandler(orderService OrderService, producer EventProducer, redisClient RedisClient, files FileStore, log *logger.Logger, cfg OrderHandlerConfig) *OrderHandler {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	return &OrderHandler{
		orderService: orderService,
		producer:     producer,
		redisClient:  redisClient,
		files:        files,
		log:          log,
		cacheTTL:     cfg.CacheTTL,
		maxUpload:    cfg.MaxUploadBytes,
	}
}

// canAccess: администратор видит все заказы, клиент только свои
func canAccess(identity *auth.Identity, order *models.Order) bool {
	if identity.IsAdmin() {
		return true
	}
	return identity != nil && strings.EqualFold(identity.Email, order.ClientEmail)
}

// CreateOrder создает новый заказ
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.orderService.CreateOrder(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create order")
		return
	}

	// Публикация события в Kafka; заказ уже сохранён, поэтому ошибка только логируется
	if err := h.producer.PublishOrderCreated(order); err != nil {
		h.log.WithError(err).WithField("order_id", order.ID).Error("Failed to publish order created event")
	}
	h.cacheOrder(r.Context(), order)

	h.log.WithField("order_id", order.ID).Info("Order created successfully")
	writeJSONResponse(w, http.StatusCreated, order)
}

// GetOrder получает заказ по ID
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	orderID, err := extractUUIDFromPath(r.URL.Path, "/api/orders/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.loadOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get order")
		return
	}
	if !canAccess(identityFrom(r), order) {
		writeErrorResponse(w, http.StatusForbidden, "You can only view your own orders")
		return
	}

	writeJSONResponse(w, http.StatusOK, order)
}

// GetClientOrders возвращает заказы клиента по email, новые первыми
func (h *OrderHandler) GetClientOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	segment, err := extractSegment(r.URL.Path, "/api/orders/client/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Client email is required")
		return
	}
	email, err := url.PathUnescape(segment)
	if err != nil || strings.TrimSpace(email) == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid client email")
		return
	}

	identity := identityFrom(r)
	if !identity.IsAdmin() && (identity == nil || !strings.EqualFold(identity.Email, email)) {
		writeErrorResponse(w, http.StatusForbidden, "You can only view your own orders")
		return
	}

	orders, err := h.orderService.GetOrdersByClientEmail(r.Context(), email)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get client orders")
		return
	}
	writeJSONResponse(w, http.StatusOK, orders)
}

// ListOrders возвращает заказы для оператора с фильтром по статусу
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	filter := models.OrderFilter{
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.OrderStatus(raw)
		if !status.Valid() {
			writeErrorResponse(w, http.StatusBadRequest, "invalid order status")
			return
		}
		filter.Status = &status
	}

	orders, err := h.orderService.ListOrders(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get orders")
		return
	}
	writeJSONResponse(w, http.StatusOK, orders)
}

// Summary возвращает агрегаты по заказам
func (h *OrderHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	summary, err := h.orderService.Summarize(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to summarize orders")
		return
	}
	writeJSONResponse(w, http.StatusOK, summary)
}

// UpdateOrderStatus обновляет статус заказа
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	orderID, err := extractUUIDFromPath(r.URL.Path, "/api/orders/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, oldStatus, err := h.orderService.UpdateOrderStatus(r.Context(), orderID, req.Status)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update order status")
		return
	}

	if err := h.producer.PublishOrderStatusChanged(orderID, oldStatus, order.Status); err != nil {
		h.log.WithError(err).WithField("order_id", orderID).Error("Failed to publish order status changed event")
	}
	h.invalidateOrder(r.Context(), orderID)

	h.log.WithFields(map[string]interface{}{
		"order_id":   orderID,
		"old_status": oldStatus,
		"new_status": order.Status,
	}).Info("Order status updated")
	writeJSONResponse(w, http.StatusOK, order)
}

// DeleteOrder удаляет заказ
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	orderID, err := extractUUIDFromPath(r.URL.Path, "/api/orders/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	if err := h.orderService.DeleteOrder(r.Context(), orderID); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete order")
		return
	}

	if err := h.producer.PublishOrderDeleted(orderID); err != nil {
		h.log.WithError(err).WithField("order_id", orderID).Error("Failed to publish order deleted event")
	}
	h.invalidateOrder(r.Context(), orderID)

	writeJSONResponse(w, http.StatusOK, MessageResponse{Message: "Order deleted successfully"})
}

// SubmitFeedback принимает multipart-форму с текстом feedback и/или файлом voiceNote
func (h *OrderHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	orderID, err := extractUUIDFromPath(r.URL.Path, "/api/orders/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	// Права проверяются до сохранения каких-либо файлов
	order, err := h.loadOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get order")
		return
	}
	if !canAccess(identityFrom(r), order) {
		writeErrorResponse(w, http.StatusForbidden, "You can only leave feedback on your own orders")
		return
	}

	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		writeServiceError(w, h.log, err, "Failed to read feedback form")
		return
	}
	defer cleanupMultipart(r)

	voiceNote, err := saveFormFile(r, h.files, voiceNoteField, h.maxUpload)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to store voice note")
		return
	}

	updated, err := h.orderService.AttachFeedback(r.Context(), orderID, models.FeedbackSubmission{
		Text:      formString(r, "feedback"),
		VoiceNote: voiceNote,
	})
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to submit feedback")
		return
	}

	if err := h.producer.PublishFeedbackSubmitted(updated); err != nil {
		h.log.WithError(err).WithField("order_id", orderID).Error("Failed to publish feedback submitted event")
	}
	h.invalidateOrder(r.Context(), orderID)

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message": "Feedback submitted successfully",
		"order":   updated,
	})
}

// loadOrder читает заказ из кеша, при промахе из базы с последующим кешированием
func (h *OrderHandler) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	cacheKey := redis.GenerateKey(redis.KeyPrefixOrder, orderID.String())
	var cached models.Order
	if err := h.redisClient.Get(ctx, cacheKey, &cached); err == nil {
		h.log.WithField("order_id", orderID).Debug("Order retrieved from cache")
		return &cached, nil
	}

	order, err := h.orderService.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	h.cacheOrder(ctx, order)
	return order, nil
}

func (h *OrderHandler) cacheOrder(ctx context.Context, order *models.Order) {
	cacheKey := redis.GenerateKey(redis.KeyPrefixOrder, order.ID.String())
	if err := h.redisClient.Set(ctx, cacheKey, order, h.cacheTTL); err != nil {
		h.log.WithError(err).WithField("order_id", order.ID).Error("Failed to cache order")
	}
}

func (h *OrderHandler) invalidateOrder(ctx context.Context, orderID uuid.UUID) {
	cacheKey := redis.GenerateKey(redis.KeyPrefixOrder, orderID.String())
	if err := h.redisClient.Delete(ctx, cacheKey); err != nil {
		h.log.WithError(err).WithField("order_id", orderID).Error("Failed to invalidate order cache")
	}
}
