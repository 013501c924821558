// Package otp issues and verifies the signed registration ticket. The
// ticket is the only server state: it carries the pending registration
// fields, a digest of the one-time code and its own expiry, all under an
// HMAC signature. Verification needs nothing but the ticket, the submitted
// code and the resubmitted fields.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMalformed    = errors.New("ticket is malformed or has a bad signature")
	ErrExpired      = errors.New("ticket has expired")
	ErrCodeMismatch = errors.New("code does not match ticket")
	ErrDataMismatch = errors.New("registration fields do not match ticket")
)

type Claims struct {
	jwt.RegisteredClaims
	Name         string `json:"name"`
	RegNumber    string `json:"registration_number,omitempty"`
	Year         int    `json:"year"`
	Branch       string `json:"branch"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	PasswordHash string `json:"password_hash"`
	CodeDigest   string `json:"code_digest"`
}

// Ticket is the issued credential plus the fields the issuer derived from
// the request. The raw code is never embedded in the token.
type Ticket struct {
	Token        string
	ID           string
	Code         string
	PasswordHash string
	ExpiresAt    time.Time
}

type Signer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewSigner(key []byte, ttl time.Duration) *Signer {
	return &Signer{
		key: key,
		ttl: ttl,
		now: time.Now,
	}
}

// GenerateCode draws a uniform 6-digit code from crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to draw otp code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Issue signs a ticket binding the registration fields and the code digest
// to a fresh ticket id with the configured expiry. passwordHash must already
// be a bcrypt hash; the plaintext password never enters the token.
func (s *Signer) Issue(req *models.RegistrationRequest, passwordHash, code string) (*Ticket, error) {
	issuedAt := s.now()
	id := uuid.New().String()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
		Name:         req.Name,
		RegNumber:    req.RegistrationNumber,
		Year:         req.Year,
		Branch:       req.Branch,
		Email:        req.Email,
		Role:         req.Role,
		PasswordHash: passwordHash,
		CodeDigest:   digestCode(id, code),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign ticket: %w", err)
	}

	return &Ticket{
		Token:        token,
		ID:           id,
		Code:         code,
		PasswordHash: passwordHash,
		ExpiresAt:    issuedAt.Add(s.ttl),
	}, nil
}

// Verify checks signature, expiry, code and field equality, in that order.
// Password equality is checked by the caller against the returned claims
// since bcrypt comparison needs the plaintext. A ticket issued at T0 with a
// 600s TTL is rejected at T0+601s no matter how well everything else lines
// up.
func (s *Signer) Verify(ticket, code string, req *models.RegistrationRequest) (*Claims, error) {
	claims, err := s.Parse(ticket)
	if err != nil {
		return nil, err
	}
	if err := s.Check(claims, code, req); err != nil {
		return nil, err
	}
	return claims, nil
}

// Parse validates the signature and expiry and returns the claims. Callers
// that track ticket liveness elsewhere (a superseding reissue, for one) can
// fold that in between Parse and Check, keeping every flavor of "this
// ticket is dead" ahead of the code comparison.
func (s *Signer) Parse(ticket string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(ticket, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.key, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrMalformed
	}
	if !token.Valid {
		return nil, ErrMalformed
	}

	return claims, nil
}

// Check compares the submitted code and registration fields against parsed
// claims, code first.
func (s *Signer) Check(claims *Claims, code string, req *models.RegistrationRequest) error {
	if digestCode(claims.ID, code) != claims.CodeDigest {
		return ErrCodeMismatch
	}

	if claims.Name != req.Name ||
		claims.RegNumber != req.RegistrationNumber ||
		claims.Year != req.Year ||
		claims.Branch != req.Branch ||
		claims.Email != req.Email ||
		claims.Role != req.Role {
		return ErrDataMismatch
	}

	return nil
}

func digestCode(ticketID, code string) string {
	sum := sha256.Sum256([]byte(ticketID + ":" + code))
	return hex.EncodeToString(sum[:])
}
