package httpd

import (
	"net/http"

	"github.com/gcek-placements/placement-portal/pkg/utils"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) TestReport(w http.ResponseWriter, r *http.Request) {
	testID := chi.URLParam(r, "id")

	stats, err := h.reportService.TestReport(r.Context(), testID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, stats)
}

func (h *Handler) SummaryReport(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reportService.Summary(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, summary)
}
