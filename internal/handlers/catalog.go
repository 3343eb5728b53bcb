package handlers

import (
	"net/http"

	"designcraft/internal/logger"
	"designcraft/internal/models"
)

// CatalogHandler обслуживает каталог услуг
type CatalogHandler struct {
	catalog CatalogService
	log     *logger.Logger
}

// NewCatalogHandler создает обработчик каталога
func NewCatalogHandler(catalog CatalogService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, log: log}
}

func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	list, err := h.catalog.ListServices(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list services")
		return
	}
	writeJSONResponse(w, http.StatusOK, list)
}

func (h *CatalogHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CreateServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	svc, err := h.catalog.CreateService(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create service")
		return
	}
	writeJSONResponse(w, http.StatusCreated, svc)
}

func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/services/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid service ID")
		return
	}

	svc, err := h.catalog.GetService(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get service")
		return
	}
	writeJSONResponse(w, http.StatusOK, svc)
}

// UpdateService частично обновляет услугу
func (h *CatalogHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/services/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid service ID")
		return
	}

	var req models.UpdateServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	svc, err := h.catalog.UpdateService(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update service")
		return
	}
	writeJSONResponse(w, http.StatusOK, svc)
}

func (h *CatalogHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/services/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid service ID")
		return
	}

	if err := h.catalog.DeleteService(r.Context(), id); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete service")
		return
	}
	writeJSONResponse(w, http.StatusOK, MessageResponse{Message: "Service deleted successfully"})
}
