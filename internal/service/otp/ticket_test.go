package otp

import (
	"testing"
	"time"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/stretchr/testify/require"
)

func testRequest() *models.RegistrationRequest {
	return &models.RegistrationRequest{
		Name:     "Anjali Menon",
		Year:     4,
		Branch:   "CSE",
		Email:    "anjali@example.com",
		Password: "secret-password",
		Role:     "student",
	}
}

func newTestSigner(t *testing.T, ttl time.Duration) (*Signer, time.Time) {
	t.Helper()
	issued := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	signer := NewSigner([]byte("test-signing-key"), ttl)
	signer.now = func() time.Time { return issued }
	return signer, issued
}

func TestIssueAndVerify(t *testing.T) {
	signer, _ := newTestSigner(t, 10*time.Minute)
	req := testRequest()

	ticket, err := signer.Issue(req, "bcrypt-hash", "123456")
	require.NoError(t, err)
	require.NotEmpty(t, ticket.Token)
	require.Len(t, ticket.Code, 6)

	claims, err := signer.Verify(ticket.Token, ticket.Code, req)
	require.NoError(t, err)
	require.Equal(t, req.Email, claims.Email)
	require.Equal(t, "bcrypt-hash", claims.PasswordHash)
}

func TestVerifyExpiredTicket(t *testing.T) {
	signer, issued := newTestSigner(t, 600*time.Second)
	req := testRequest()

	ticket, err := signer.Issue(req, "hash", "123456")
	require.NoError(t, err)

	// One second past the TTL is already too late.
	signer.now = func() time.Time { return issued.Add(601 * time.Second) }

	_, err = signer.Verify(ticket.Token, ticket.Code, req)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyJustBeforeExpiry(t *testing.T) {
	signer, issued := newTestSigner(t, 600*time.Second)
	req := testRequest()

	ticket, err := signer.Issue(req, "hash", "123456")
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(599 * time.Second) }

	_, err = signer.Verify(ticket.Token, ticket.Code, req)
	require.NoError(t, err)
}

func TestVerifyWrongCode(t *testing.T) {
	signer, _ := newTestSigner(t, 10*time.Minute)
	req := testRequest()

	ticket, err := signer.Issue(req, "hash", "123456")
	require.NoError(t, err)

	_, err = signer.Verify(ticket.Token, "654321", req)
	require.ErrorIs(t, err, ErrCodeMismatch)
}

func TestVerifyChangedField(t *testing.T) {
	signer, _ := newTestSigner(t, 10*time.Minute)
	req := testRequest()

	ticket, err := signer.Issue(req, "hash", "123456")
	require.NoError(t, err)

	changed := *req
	changed.Email = "someone-else@example.com"

	_, err = signer.Verify(ticket.Token, ticket.Code, &changed)
	require.ErrorIs(t, err, ErrDataMismatch)
}

func TestVerifyExpiryBeatsCodeCheck(t *testing.T) {
	signer, issued := newTestSigner(t, 10*time.Minute)
	req := testRequest()

	ticket, err := signer.Issue(req, "hash", "123456")
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(11 * time.Minute) }

	// Expired wins even when the code is also wrong.
	_, err = signer.Verify(ticket.Token, "000000", req)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyTamperedToken(t *testing.T) {
	signer, _ := newTestSigner(t, 10*time.Minute)
	req := testRequest()

	ticket, err := signer.Issue(req, "hash", "123456")
	require.NoError(t, err)

	tampered := ticket.Token[:len(ticket.Token)-3] + "abc"

	_, err = signer.Verify(tampered, ticket.Code, req)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestVerifyWrongKey(t *testing.T) {
	signer, _ := newTestSigner(t, 10*time.Minute)
	req := testRequest()

	ticket, err := signer.Issue(req, "hash", "123456")
	require.NoError(t, err)

	other := NewSigner([]byte("different-key"), 10*time.Minute)
	_, err = other.Verify(ticket.Token, ticket.Code, req)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestGenerateCodeShape(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		require.GreaterOrEqual(t, code, "100000")
		require.LessOrEqual(t, code, "999999")
	}
}

func TestTicketsAreSingleUseDistinct(t *testing.T) {
	signer, _ := newTestSigner(t, 10*time.Minute)
	req := testRequest()

	first, err := signer.Issue(req, "hash", "123456")
	require.NoError(t, err)
	second, err := signer.Issue(req, "hash", "123456")
	require.NoError(t, err)

	// Same fields, fresh id: the code digest is salted per ticket.
	require.NotEqual(t, first.ID, second.ID)
	require.NotEqual(t, first.Token, second.Token)
}
