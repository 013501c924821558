package httpd

import (
	"net/http"

	"github.com/gcek-placements/placement-portal/internal/middleware"
	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/gcek-placements/placement-portal/pkg/utils"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) CreateTest(w http.ResponseWriter, r *http.Request) {
	account := middleware.AccountFromContext(r.Context())

	var req models.CreateTestRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	test, err := h.testService.CreateTest(r.Context(), account.ID, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    test,
	})
}

func (h *Handler) UpdateTest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.CreateTestRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	test, err := h.testService.UpdateTest(r.Context(), id, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, test)
}

func (h *Handler) GetTest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	account := middleware.AccountFromContext(r.Context())

	// Staff see the answer key, students do not.
	includeAnswers := account != nil && models.IsStaffRole(account.Role)

	test, err := h.testService.GetTest(r.Context(), id, includeAnswers)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, test)
}

func (h *Handler) ListTests(w http.ResponseWriter, r *http.Request) {
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	tests, err := h.testService.ListTests(r.Context(), page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, tests)
}

func (h *Handler) DeleteTest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.testService.DeleteTest(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, map[string]string{"id": id})
}
