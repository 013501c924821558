package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/gcek-placements/placement-portal/internal/repository"
	"github.com/gcek-placements/placement-portal/internal/service/integration"
	"github.com/gcek-placements/placement-portal/pkg/utils"
	"github.com/rs/zerolog"
)

type contextKey string

const accountContextKey contextKey = "account"

// AccountFromContext returns the authenticated account set by Authenticator,
// or nil on unauthenticated routes.
func AccountFromContext(ctx context.Context) *models.Account {
	account, _ := ctx.Value(accountContextKey).(*models.Account)
	return account
}

type Auth struct {
	identity    integration.IdentityClient
	accountRepo repository.AccountRepository
	logger      zerolog.Logger
}

func NewAuth(identity integration.IdentityClient, accountRepo repository.AccountRepository, logger zerolog.Logger) *Auth {
	return &Auth{
		identity:    identity,
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// Authenticator verifies the bearer token with the identity provider and
// resolves it to a portal account.
func (a *Auth) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			utils.WriteError(w, http.StatusUnauthorized, "authorization token is required")
			return
		}

		identity, err := a.identity.VerifyToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, integration.ErrInvalidToken) {
				utils.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			a.logger.Error().Err(err).Msg("Token verification failed")
			utils.WriteError(w, http.StatusServiceUnavailable, "authentication temporarily unavailable")
			return
		}

		account, err := a.accountRepo.GetByEmail(r.Context(), identity.Email)
		if err != nil {
			a.logger.Error().Err(err).Msg("Account lookup failed")
			utils.WriteError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if account == nil {
			utils.WriteError(w, http.StatusUnauthorized, "no account for this identity")
			return
		}

		ctx := context.WithValue(r.Context(), accountContextKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireStaff gates authoring endpoints to coordinators and advisors.
func (a *Auth) RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := AccountFromContext(r.Context())
		if account == nil {
			utils.WriteError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !models.IsStaffRole(account.Role) {
			utils.WriteError(w, http.StatusForbidden, "staff role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
