package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/gcek-placements/placement-portal/internal/service/otp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type registrationFixture struct {
	service   RegistrationService
	accounts  *fakeAccountRepo
	cache     *fakeSessionCache
	mailer    *fakeMailSender
	identity  *fakeIdentityClient
	publisher *fakePublisher
}

func newRegistrationFixture(t *testing.T, ttl time.Duration) *registrationFixture {
	t.Helper()

	f := &registrationFixture{
		accounts:  newFakeAccountRepo(),
		cache:     newFakeSessionCache(),
		mailer:    &fakeMailSender{},
		identity:  &fakeIdentityClient{},
		publisher: &fakePublisher{},
	}

	signer := otp.NewSigner([]byte("test-key"), ttl)
	f.service = NewRegistrationService(
		f.accounts, f.cache, signer, ttl, f.mailer, f.identity, f.publisher, zerolog.Nop(),
	)
	return f
}

func validRegistration() *models.RegistrationRequest {
	return &models.RegistrationRequest{
		Name:     "Arun Nair",
		Year:     4,
		Branch:   "ECE",
		Email:    "arun@example.com",
		Password: "long-enough-password",
		Role:     "student",
	}
}

func TestSendOTPHappyPath(t *testing.T) {
	f := newRegistrationFixture(t, 10*time.Minute)

	resp, err := f.service.SendOTP(context.Background(), validRegistration())
	require.NoError(t, err)
	require.NotEmpty(t, resp.Ticket)
	require.True(t, resp.ExpiresAt.After(time.Now()))

	require.Equal(t, []string{"arun@example.com"}, f.mailer.sent)

	_, err = f.cache.GetTicket(context.Background(), "arun@example.com")
	require.NoError(t, err)
}

func TestSendOTPValidation(t *testing.T) {
	f := newRegistrationFixture(t, 10*time.Minute)

	req := validRegistration()
	req.Name = ""
	req.Email = "not-an-address"
	req.Password = "short"
	req.Role = "admin"

	_, err := f.service.SendOTP(context.Background(), req)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Issues, 4)
	require.Empty(t, f.mailer.sent)
}

func TestSendOTPDuplicateAccount(t *testing.T) {
	f := newRegistrationFixture(t, 10*time.Minute)
	f.accounts.byEmail["arun@example.com"] = &models.Account{ID: "a1", Email: "arun@example.com"}

	_, err := f.service.SendOTP(context.Background(), validRegistration())
	require.ErrorIs(t, err, ErrDuplicateAccount)
}

func (f *registrationFixture) verifyRequest(t *testing.T, ticket, code string) *models.VerifyOTPRequest {
	t.Helper()
	return &models.VerifyOTPRequest{
		RegistrationRequest: *validRegistration(),
		Ticket:              ticket,
		Code:                code,
	}
}

func issueTicket(t *testing.T, f *registrationFixture) (string, string) {
	t.Helper()

	// Issue through a signer sharing the service key so the test knows the
	// code; SendOTP never returns it.
	signer := otp.NewSigner([]byte("test-key"), 10*time.Minute)
	code, err := otp.GenerateCode()
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("long-enough-password"), bcrypt.MinCost)
	require.NoError(t, err)

	ticket, err := signer.Issue(validRegistration(), string(hash), code)
	require.NoError(t, err)

	require.NoError(t, f.cache.SetTicket(context.Background(), "arun@example.com", ticket.ID, 10*time.Minute))
	return ticket.Token, code
}

func TestVerifyAndRegisterHappyPath(t *testing.T) {
	f := newRegistrationFixture(t, 10*time.Minute)
	token, code := issueTicket(t, f)

	account, err := f.service.VerifyAndRegister(context.Background(), f.verifyRequest(t, token, code))
	require.NoError(t, err)
	require.Equal(t, "arun@example.com", account.Email)
	require.Equal(t, "student", account.Role)

	stored, err := f.accounts.GetByEmail(context.Background(), "arun@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotEmpty(t, stored.PasswordHash)
	require.NotEqual(t, "long-enough-password", stored.PasswordHash)

	// Marker consumed, completion event out.
	_, err = f.cache.GetTicket(context.Background(), "arun@example.com")
	require.Error(t, err)
	require.Len(t, f.publisher.registeredEvents, 1)
}

func TestVerifyAndRegisterWrongCode(t *testing.T) {
	f := newRegistrationFixture(t, 10*time.Minute)
	token, _ := issueTicket(t, f)

	_, err := f.service.VerifyAndRegister(context.Background(), f.verifyRequest(t, token, "000000"))
	require.ErrorIs(t, err, ErrCodeMismatch)
}

func TestVerifyAndRegisterChangedData(t *testing.T) {
	f := newRegistrationFixture(t, 10*time.Minute)
	token, code := issueTicket(t, f)

	req := f.verifyRequest(t, token, code)
	req.Branch = "CSE"

	_, err := f.service.VerifyAndRegister(context.Background(), req)
	require.ErrorIs(t, err, ErrDataMismatch)
}

func TestVerifyAndRegisterWrongPassword(t *testing.T) {
	f := newRegistrationFixture(t, 10*time.Minute)
	token, code := issueTicket(t, f)

	req := f.verifyRequest(t, token, code)
	req.Password = "different-password"

	_, err := f.service.VerifyAndRegister(context.Background(), req)
	require.ErrorIs(t, err, ErrDataMismatch)
}

func TestVerifyAndRegisterExpiredTicket(t *testing.T) {
	f := newRegistrationFixture(t, time.Nanosecond)

	resp, err := f.service.SendOTP(context.Background(), validRegistration())
	require.NoError(t, err)

	req := f.verifyRequest(t, resp.Ticket, "123456")
	_, err = f.service.VerifyAndRegister(context.Background(), req)
	require.ErrorIs(t, err, ErrTicketExpired)
}

func TestVerifyAndRegisterSupersededTicket(t *testing.T) {
	f := newRegistrationFixture(t, 10*time.Minute)
	firstToken, firstCode := issueTicket(t, f)

	// A later request replaces the live marker; the first ticket dies even
	// though its own expiry has not passed.
	_, err := f.service.SendOTP(context.Background(), validRegistration())
	require.NoError(t, err)

	_, err = f.service.VerifyAndRegister(context.Background(), f.verifyRequest(t, firstToken, firstCode))
	require.ErrorIs(t, err, ErrTicketExpired)
}

func TestVerifyAndRegisterSupersededBeatsWrongCode(t *testing.T) {
	f := newRegistrationFixture(t, 10*time.Minute)
	firstToken, _ := issueTicket(t, f)

	_, err := f.service.SendOTP(context.Background(), validRegistration())
	require.NoError(t, err)

	// The ticket is dead before the code is even looked at, so a wrong
	// code on a superseded ticket still reads as expiry.
	_, err = f.service.VerifyAndRegister(context.Background(), f.verifyRequest(t, firstToken, "000000"))
	require.ErrorIs(t, err, ErrTicketExpired)
}

func TestVerifyAndRegisterDuplicateAtProvider(t *testing.T) {
	f := newRegistrationFixture(t, 10*time.Minute)
	token, code := issueTicket(t, f)
	f.identity.duplicates = true

	_, err := f.service.VerifyAndRegister(context.Background(), f.verifyRequest(t, token, code))
	require.ErrorIs(t, err, ErrDuplicateAccount)
}

func TestVerifyAndRegisterCompensatesIdentityOnInsertFailure(t *testing.T) {
	f := newRegistrationFixture(t, 10*time.Minute)
	token, code := issueTicket(t, f)
	f.accounts.failCreate = errors.New("insert failed")

	_, err := f.service.VerifyAndRegister(context.Background(), f.verifyRequest(t, token, code))
	require.Error(t, err)

	// The identity-provider user must not outlive the failed local insert.
	require.Equal(t, []string{"arun@example.com-uid"}, f.identity.deleted)
}

func TestVerifyAndRegisterMissingTicket(t *testing.T) {
	f := newRegistrationFixture(t, 10*time.Minute)

	req := f.verifyRequest(t, "", "123456")
	_, err := f.service.VerifyAndRegister(context.Background(), req)
	require.True(t, IsValidationError(err))
}
