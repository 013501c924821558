package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/gcek-placements/placement-portal/internal/repository"
	"github.com/gcek-placements/placement-portal/internal/service/integration"
	"github.com/gcek-placements/placement-portal/internal/service/otp"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type RegistrationService interface {
	SendOTP(ctx context.Context, req *models.RegistrationRequest) (*models.SendOTPResponse, error)
	VerifyAndRegister(ctx context.Context, req *models.VerifyOTPRequest) (*models.AccountResponse, error)
}

type registrationService struct {
	accountRepo repository.AccountRepository
	cache       repository.SessionCache
	signer      *otp.Signer
	ticketTTL   time.Duration
	mailer      integration.MailSender
	identity    integration.IdentityClient
	publisher   integration.EventPublisher
	logger      zerolog.Logger
	now         func() time.Time
}

func NewRegistrationService(
	accountRepo repository.AccountRepository,
	cache repository.SessionCache,
	signer *otp.Signer,
	ticketTTL time.Duration,
	mailer integration.MailSender,
	identity integration.IdentityClient,
	publisher integration.EventPublisher,
	logger zerolog.Logger,
) RegistrationService {
	return &registrationService{
		accountRepo: accountRepo,
		cache:       cache,
		signer:      signer,
		ticketTTL:   ticketTTL,
		mailer:      mailer,
		identity:    identity,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *registrationService) SendOTP(ctx context.Context, req *models.RegistrationRequest) (*models.SendOTPResponse, error) {
	if issues := validateRegistration(req); len(issues) > 0 {
		return nil, NewValidationError(issues...)
	}

	exists, err := s.accountRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check account existence: %w", err)
	}
	if exists {
		return nil, ErrDuplicateAccount
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := otp.GenerateCode()
	if err != nil {
		return nil, err
	}

	ticket, err := s.signer.Issue(req, string(passwordHash), code)
	if err != nil {
		return nil, err
	}

	// Overwriting the marker invalidates any earlier ticket for this email.
	if err := s.cache.SetTicket(ctx, req.Email, ticket.ID, s.ticketTTL); err != nil {
		return nil, fmt.Errorf("failed to record outstanding ticket: %w", err)
	}

	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your verification code for the GCEK placement portal is <b>%s</b>.</p><p>The code expires in %d minutes.</p>",
		req.Name, ticket.Code, int(s.ticketTTL.Minutes()),
	)
	if err := s.mailer.Send(req.Email, "Placement portal verification code", body); err != nil {
		return nil, fmt.Errorf("failed to send otp mail: %w", err)
	}

	s.logger.Info().
		Str("email", req.Email).
		Str("ticket_id", ticket.ID).
		Time("expires_at", ticket.ExpiresAt).
		Msg("OTP issued")

	return &models.SendOTPResponse{
		Ticket:    ticket.Token,
		ExpiresAt: ticket.ExpiresAt,
	}, nil
}

func (s *registrationService) VerifyAndRegister(ctx context.Context, req *models.VerifyOTPRequest) (*models.AccountResponse, error) {
	if issues := validateRegistration(&req.RegistrationRequest); len(issues) > 0 {
		return nil, NewValidationError(issues...)
	}
	if strings.TrimSpace(req.Ticket) == "" {
		return nil, NewValidationError("ticket is required")
	}
	if len(req.Code) != 6 {
		return nil, NewValidationError("code must be 6 digits")
	}

	claims, err := s.signer.Parse(req.Ticket)
	if err != nil {
		if errors.Is(err, otp.ErrExpired) {
			return nil, ErrTicketExpired
		}
		return nil, NewValidationError("ticket is malformed")
	}

	// Only the most recently issued ticket for the email is usable. A
	// superseded ticket is dead the same way an expired one is, so this
	// runs before the code and field comparisons. The lookup keys off the
	// email inside the ticket, not the resubmitted one.
	liveTicket, err := s.cache.GetTicket(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, repository.ErrCacheMiss) {
			return nil, ErrTicketExpired
		}
		return nil, fmt.Errorf("failed to read outstanding ticket: %w", err)
	}
	if liveTicket != claims.ID {
		return nil, ErrTicketExpired
	}

	if err := s.signer.Check(claims, req.Code, &req.RegistrationRequest); err != nil {
		switch {
		case errors.Is(err, otp.ErrCodeMismatch):
			return nil, ErrCodeMismatch
		case errors.Is(err, otp.ErrDataMismatch):
			return nil, ErrDataMismatch
		default:
			return nil, err
		}
	}

	// The password travels as plaintext in both requests and as a bcrypt
	// hash inside the ticket, so equality is checked by comparison.
	if bcrypt.CompareHashAndPassword([]byte(claims.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrDataMismatch
	}

	// Re-checked here, not just at issuance, to close the race between two
	// concurrent registrations for the same email.
	exists, err := s.accountRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check account existence: %w", err)
	}
	if exists {
		return nil, ErrDuplicateAccount
	}

	uid, err := s.identity.CreateUser(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, integration.ErrDuplicateEmail) {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("failed to create identity user: %w", err)
	}

	now := s.now()
	account := &models.Account{
		ID:                 uuid.New().String(),
		Name:               claims.Name,
		Email:              claims.Email,
		RegistrationNumber: claims.RegNumber,
		Year:               claims.Year,
		Branch:             claims.Branch,
		Role:               claims.Role,
		PasswordHash:       claims.PasswordHash,
		IdentityUID:        uid,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		// Compensate the identity-provider side so no orphaned login exists.
		if delErr := s.identity.DeleteUser(ctx, uid); delErr != nil {
			s.logger.Error().Err(delErr).
				Str("uid", uid).
				Str("email", req.Email).
				Msg("Failed to delete identity user after local insert failure; needs manual cleanup")
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if err := s.cache.DeleteTicket(ctx, req.Email); err != nil {
		s.logger.Error().Err(err).Str("email", req.Email).Msg("Failed to delete ticket marker")
	}

	event := &models.RegistrationCompletedEvent{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
		Branch:    account.Branch,
		Year:      account.Year,
		Timestamp: now.Unix(),
	}
	if err := s.publisher.PublishRegistrationCompleted(ctx, event); err != nil {
		s.logger.Error().Err(err).Msg("Failed to publish registration completed event")
	}

	s.logger.Info().
		Str("account_id", account.ID).
		Str("email", account.Email).
		Str("role", account.Role).
		Msg("Account registered")

	return &models.AccountResponse{
		ID:                 account.ID,
		Name:               account.Name,
		Email:              account.Email,
		RegistrationNumber: account.RegistrationNumber,
		Year:               account.Year,
		Branch:             account.Branch,
		Role:               account.Role,
	}, nil
}

func validateRegistration(req *models.RegistrationRequest) []string {
	var issues []string

	if strings.TrimSpace(req.Name) == "" {
		issues = append(issues, "name is required")
	}
	if req.Year < 1 || req.Year > 5 {
		issues = append(issues, "year must be between 1 and 5")
	}
	if strings.TrimSpace(req.Branch) == "" {
		issues = append(issues, "branch is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		issues = append(issues, "email is not a valid address")
	}
	if len(req.Password) < 8 {
		issues = append(issues, "password must be at least 8 characters")
	}
	if !models.IsValidRole(req.Role) {
		issues = append(issues, "role must be one of student, alumni, coordinator, advisor")
	}

	return issues
}
