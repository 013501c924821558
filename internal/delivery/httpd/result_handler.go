package httpd

import (
	"net/http"

	"github.com/gcek-placements/placement-portal/internal/middleware"
	"github.com/gcek-placements/placement-portal/pkg/utils"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	account := middleware.AccountFromContext(r.Context())

	result, err := h.resultService.GetResult(r.Context(), account.ID, account.Role, id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, result)
}

func (h *Handler) GetResultByAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID := chi.URLParam(r, "id")
	account := middleware.AccountFromContext(r.Context())

	result, err := h.resultService.GetResultByAttempt(r.Context(), account.ID, account.Role, attemptID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, result)
}
