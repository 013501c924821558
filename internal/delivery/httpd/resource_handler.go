package httpd

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gcek-placements/placement-portal/internal/middleware"
	"github.com/gcek-placements/placement-portal/pkg/utils"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) UploadResource(w http.ResponseWriter, r *http.Request) {
	account := middleware.AccountFromContext(r.Context())

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	title := r.FormValue("title")
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	resource, err := h.resourceService.Upload(r.Context(), account.ID, title, header.Filename, contentType, content)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    resource,
	})
}

func (h *Handler) DownloadResource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	resource, content, err := h.resourceService.Download(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", resource.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resource.FileName))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(content)))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	resources, err := h.resourceService.List(r.Context(), page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, resources)
}

func (h *Handler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.resourceService.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, map[string]string{"id": id})
}
