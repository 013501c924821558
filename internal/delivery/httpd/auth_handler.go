package httpd

import (
	"net/http"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/gcek-placements/placement-portal/pkg/utils"
)

func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req models.RegistrationRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	response, err := h.registrationService.SendOTP(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, response)
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyOTPRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.registrationService.VerifyAndRegister(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    account,
	})
}
