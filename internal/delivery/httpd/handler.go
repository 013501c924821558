package httpd

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gcek-placements/placement-portal/internal/middleware"
	"github.com/gcek-placements/placement-portal/internal/service"
	"github.com/gcek-placements/placement-portal/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type Handler struct {
	registrationService service.RegistrationService
	testService         service.TestService
	attemptService      service.AttemptService
	resultService       service.ResultService
	eventService        service.EventService
	resourceService     service.ResourceService
	reportService       service.ReportService
	auth                *middleware.Auth
	logger              zerolog.Logger
}

func NewHandler(
	registrationService service.RegistrationService,
	testService service.TestService,
	attemptService service.AttemptService,
	resultService service.ResultService,
	eventService service.EventService,
	resourceService service.ResourceService,
	reportService service.ReportService,
	auth *middleware.Auth,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		registrationService: registrationService,
		testService:         testService,
		attemptService:      attemptService,
		resultService:       resultService,
		eventService:        eventService,
		resourceService:     resourceService,
		reportService:       reportService,
		auth:                auth,
		logger:              logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", func(r chi.Router) {
			r.Post("/send-otp", h.SendOTP)
			r.Post("/verify-otp", h.VerifyOTP)
		})

		api.Group(func(private chi.Router) {
			private.Use(h.auth.Authenticator)

			private.Route("/tests", func(r chi.Router) {
				r.Get("/", h.ListTests)
				r.Get("/{id}", h.GetTest)
				r.Post("/{id}/attempts", h.StartAttempt)

				r.Group(func(staff chi.Router) {
					staff.Use(h.auth.RequireStaff)
					staff.Post("/", h.CreateTest)
					staff.Put("/{id}", h.UpdateTest)
					staff.Delete("/{id}", h.DeleteTest)
				})
			})

			private.Route("/attempts", func(r chi.Router) {
				r.Put("/{id}/answers", h.SaveAnswers)
				r.Post("/{id}/submit", h.SubmitAttempt)
				r.Get("/{id}/result", h.GetResultByAttempt)
			})

			private.Get("/results/{id}", h.GetResult)

			private.Route("/events", func(r chi.Router) {
				r.Get("/", h.ListEvents)
				r.Get("/{id}", h.GetEvent)

				r.Group(func(staff chi.Router) {
					staff.Use(h.auth.RequireStaff)
					staff.Post("/", h.CreateEvent)
					staff.Put("/{id}", h.UpdateEvent)
					staff.Delete("/{id}", h.DeleteEvent)
				})
			})

			private.Route("/resources", func(r chi.Router) {
				r.Get("/", h.ListResources)
				r.Get("/{id}/download", h.DownloadResource)

				r.Group(func(staff chi.Router) {
					staff.Use(h.auth.RequireStaff)
					staff.Post("/", h.UploadResource)
					staff.Delete("/{id}", h.DeleteResource)
				})
			})

			private.Route("/reports", func(r chi.Router) {
				r.Use(h.auth.RequireStaff)
				r.Get("/tests/{id}", h.TestReport)
				r.Get("/summary", h.SummaryReport)
			})
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "placement-portal",
		"timestamp": time.Now().UTC(),
	})
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// handleServiceError maps the service error taxonomy onto HTTP codes.
func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		utils.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   http.StatusText(http.StatusBadRequest),
			"message": "validation failed",
			"issues":  ve.Issues,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrCodeMismatch),
		errors.Is(err, service.ErrDataMismatch):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTicketExpired):
		utils.WriteError(w, http.StatusGone, err.Error())
	case errors.Is(err, service.ErrDuplicateAccount),
		errors.Is(err, service.ErrSubmissionConflict),
		errors.Is(err, service.ErrTestLocked):
		utils.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrTestNotFound),
		errors.Is(err, service.ErrAttemptNotFound),
		errors.Is(err, service.ErrResultNotFound),
		errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrResourceNotFound):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAttemptExpired),
		errors.Is(err, service.ErrTestClosed):
		utils.WriteError(w, http.StatusGone, err.Error())
	case errors.Is(err, service.ErrForbidden):
		utils.WriteError(w, http.StatusForbidden, err.Error())
	default:
		h.logger.Error().Err(err).Msg("Service error")
		utils.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
