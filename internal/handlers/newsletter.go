package handlers

import (
	"net/http"
	"strings"

	"designcraft/internal/logger"
	"designcraft/internal/models"
)

// NewsletterHandler обслуживает подписку, отписку, аналитику и рассылки
type NewsletterHandler struct {
	newsletter NewsletterService
	log        *logger.Logger
}

// NewNewsletterHandler создает обработчик рассылки
func NewNewsletterHandler(newsletter NewsletterService, log *logger.Logger) *NewsletterHandler {
	return &NewsletterHandler{newsletter: newsletter, log: log}
}

type subscribeRequest struct {
	Email string `json:"email"`
}

// Subscribe добавляет адрес в рассылку
func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub, err := h.newsletter.Subscribe(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to subscribe")
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"message":    "Subscribed successfully",
		"subscriber": sub,
	})
}

// ListSubscribers возвращает страницу подписчиков: domain, start, end, page, limit
func (h *NewsletterHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	query := r.URL.Query()
	start, err := parseDateParam(query.Get("start"))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid start date")
		return
	}
	end, err := parseDateParam(query.Get("end"))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid end date")
		return
	}

	page, err := h.newsletter.ListSubscribers(r.Context(), models.SubscriberFilter{
		Domain: strings.TrimSpace(query.Get("domain")),
		Start:  start,
		End:    end,
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 0),
	})
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list subscribers")
		return
	}
	writeJSONResponse(w, http.StatusOK, page)
}

// DeleteSubscriber удаляет подписчика по ID
func (h *NewsletterHandler) DeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/newsletter/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid subscriber ID")
		return
	}

	if err := h.newsletter.DeleteSubscriber(r.Context(), id); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete subscriber")
		return
	}
	writeJSONResponse(w, http.StatusOK, MessageResponse{Message: "Subscriber deleted successfully"})
}

// Unsubscribe отписывает по подписанному токену из письма
func (h *NewsletterHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	token, err := extractSegment(r.URL.Path, "/api/newsletter/unsubscribe/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Unsubscribe token is required")
		return
	}

	if err := h.newsletter.Unsubscribe(r.Context(), token); err != nil {
		writeServiceError(w, h.log, err, "Failed to unsubscribe")
		return
	}
	writeJSONResponse(w, http.StatusOK, MessageResponse{Message: "You have been unsubscribed"})
}

// Analytics возвращает подписки по дням или неделям (?range=daily|weekly)
func (h *NewsletterHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rng := models.AnalyticsRange(strings.ToLower(r.URL.Query().Get("range")))
	if rng == "" {
		rng = models.AnalyticsRangeDaily
	}

	stats, err := h.newsletter.Analytics(r.Context(), rng)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load newsletter analytics")
		return
	}
	writeJSONResponse(w, http.StatusOK, stats)
}

// SendCampaign рассылает письмо всем подписчикам
func (h *NewsletterHandler) SendCampaign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CampaignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.newsletter.SendCampaign(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to send campaign")
		return
	}
	writeJSONResponse(w, http.StatusOK, result)
}
