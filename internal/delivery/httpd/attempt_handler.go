package httpd

import (
	"net/http"

	"github.com/gcek-placements/placement-portal/internal/middleware"
	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/gcek-placements/placement-portal/pkg/utils"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	testID := chi.URLParam(r, "id")
	account := middleware.AccountFromContext(r.Context())

	response, err := h.attemptService.StartAttempt(r.Context(), account.ID, testID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, response)
}

func (h *Handler) SaveAnswers(w http.ResponseWriter, r *http.Request) {
	attemptID := chi.URLParam(r, "id")
	account := middleware.AccountFromContext(r.Context())

	var req models.SaveAnswersRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.attemptService.SaveAnswers(r.Context(), account.ID, attemptID, req.Answers); err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, map[string]string{"attempt_id": attemptID})
}

func (h *Handler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID := chi.URLParam(r, "id")
	account := middleware.AccountFromContext(r.Context())

	var req models.SubmitAttemptRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.attemptService.Submit(r.Context(), account.ID, attemptID, req.Answers)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, result)
}
