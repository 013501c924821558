package httpd

import (
	"net/http"

	"github.com/gcek-placements/placement-portal/internal/middleware"
	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/gcek-placements/placement-portal/pkg/utils"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	account := middleware.AccountFromContext(r.Context())

	var req models.CreateEventRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event, err := h.eventService.CreateEvent(r.Context(), account.ID, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    event,
	})
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.CreateEventRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event, err := h.eventService.UpdateEvent(r.Context(), id, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, event)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	event, err := h.eventService.GetEvent(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, event)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	events, err := h.eventService.ListUpcoming(r.Context(), page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, events)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.eventService.DeleteEvent(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, map[string]string{"id": id})
}
