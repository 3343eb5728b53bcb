package handlers

import (
	"net/http"

	"designcraft/internal/logger"
	"designcraft/internal/models"
)

// ContentHandler обслуживает баннеры, портфолио и скетч-отзывы
type ContentHandler struct {
	banners   BannerService
	portfolio PortfolioService
	sketches  SketchFeedbackService
	files     FileStore
	log       *logger.Logger
	maxUpload int64
}

// NewContentHandler создает обработчик контента
func NewContentHandler(banners BannerService, portfolio PortfolioService, sketches SketchFeedbackService, files FileStore, log *logger.Logger, maxUploadBytes int64) *ContentHandler {
	return &ContentHandler{
		banners:   banners,
		portfolio: portfolio,
		sketches:  sketches,
		files:     files,
		log:       log,
		maxUpload: maxUploadBytes,
	}
}

// ----- Banners -----

// CreateBanner принимает multipart-форму title, subtitle, image
func (h *ContentHandler) CreateBanner(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		writeServiceError(w, h.log, err, "Failed to read banner form")
		return
	}
	defer cleanupMultipart(r)

	image, err := saveFormFile(r, h.files, imageField(folderBanners), h.maxUpload)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to store banner image")
		return
	}

	banner, err := h.banners.CreateBanner(r.Context(), r.FormValue("title"), r.FormValue("subtitle"), image)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create banner")
		return
	}
	writeJSONResponse(w, http.StatusCreated, banner)
}

// ListBanners возвращает страницу баннеров (?page, ?limit)
func (h *ContentHandler) ListBanners(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	page, err := h.banners.ListBanners(r.Context(), queryInt(r, "page", 1), queryInt(r, "limit", 0))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list banners")
		return
	}
	writeJSONResponse(w, http.StatusOK, page)
}

func (h *ContentHandler) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/banners/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid banner ID")
		return
	}

	if err := h.banners.DeleteBanner(r.Context(), id); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete banner")
		return
	}
	writeJSONResponse(w, http.StatusOK, MessageResponse{Message: "Banner deleted successfully"})
}

// ----- Portfolio -----

func (h *ContentHandler) portfolioInput(w http.ResponseWriter, r *http.Request) (models.PortfolioInput, bool) {
	image, err := saveFormFile(r, h.files, imageField(folderPortfolio), h.maxUpload)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to store portfolio image")
		return models.PortfolioInput{}, false
	}
	in := models.PortfolioInput{
		Title:       formString(r, "title"),
		Description: formString(r, "description"),
		Category:    formString(r, "category"),
		Image:       image,
	}
	if identity := identityFrom(r); identity != nil {
		owner := identity.UserID
		in.OwnerID = &owner
	}
	return in, true
}

// CreatePortfolioItem принимает multipart-форму title, description, category, image
func (h *ContentHandler) CreatePortfolioItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		writeServiceError(w, h.log, err, "Failed to read portfolio form")
		return
	}
	defer cleanupMultipart(r)

	in, ok := h.portfolioInput(w, r)
	if !ok {
		return
	}
	item, err := h.portfolio.CreateItem(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create portfolio item")
		return
	}
	writeJSONResponse(w, http.StatusCreated, item)
}

// ListPortfolio возвращает работы (?category)
func (h *ContentHandler) ListPortfolio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	items, err := h.portfolio.ListItems(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list portfolio")
		return
	}
	writeJSONResponse(w, http.StatusOK, items)
}

func (h *ContentHandler) GetPortfolioItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/portfolio/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid portfolio item ID")
		return
	}

	item, err := h.portfolio.GetItem(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get portfolio item")
		return
	}
	writeJSONResponse(w, http.StatusOK, item)
}

// UpdatePortfolioItem частично обновляет работу; новое изображение заменяет старое
func (h *ContentHandler) UpdatePortfolioItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/portfolio/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid portfolio item ID")
		return
	}

	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		writeServiceError(w, h.log, err, "Failed to read portfolio form")
		return
	}
	defer cleanupMultipart(r)

	in, ok := h.portfolioInput(w, r)
	if !ok {
		return
	}
	// владелец при обновлении не меняется
	in.OwnerID = nil

	item, err := h.portfolio.UpdateItem(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update portfolio item")
		return
	}
	writeJSONResponse(w, http.StatusOK, item)
}

func (h *ContentHandler) DeletePortfolioItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/portfolio/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid portfolio item ID")
		return
	}

	if err := h.portfolio.DeleteItem(r.Context(), id); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete portfolio item")
		return
	}
	writeJSONResponse(w, http.StatusOK, MessageResponse{Message: "Portfolio item deleted successfully"})
}

// ----- Sketch feedback -----

// SubmitSketchFeedback принимает multipart-форму feedback, image (скетч) и voiceNote
func (h *ContentHandler) SubmitSketchFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		writeServiceError(w, h.log, err, "Failed to read feedback form")
		return
	}
	defer cleanupMultipart(r)

	sketch, err := saveFormFile(r, h.files, imageField(folderSketches), h.maxUpload)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to store sketch")
		return
	}
	voiceNote, err := saveFormFile(r, h.files, voiceNoteField, h.maxUpload)
	if err != nil {
		if sketch != nil {
			if rmErr := h.files.Remove(sketch); rmErr != nil {
				h.log.WithError(rmErr).WithField("file", sketch.Name).Warn("Failed to remove stored file")
			}
		}
		writeServiceError(w, h.log, err, "Failed to store voice note")
		return
	}

	sub := models.SketchSubmission{
		Feedback:  r.FormValue("feedback"),
		Sketch:    sketch,
		VoiceNote: voiceNote,
	}
	if identity := identityFrom(r); identity != nil {
		user := identity.UserID
		sub.UserID = &user
	}

	fb, err := h.sketches.Submit(r.Context(), sub)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to submit feedback")
		return
	}
	writeJSONResponse(w, http.StatusCreated, fb)
}

func (h *ContentHandler) ListSketchFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	list, err := h.sketches.List(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list feedback")
		return
	}
	writeJSONResponse(w, http.StatusOK, list)
}

func (h *ContentHandler) DeleteSketchFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/sketch-feedback/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid feedback ID")
		return
	}

	if err := h.sketches.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete feedback")
		return
	}
	writeJSONResponse(w, http.StatusOK, MessageResponse{Message: "Feedback deleted successfully"})
}
