package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrDuplicateEmail = errors.New("identity provider already has this email")
	ErrInvalidToken   = errors.New("identity token is invalid")
)

// Identity is what the provider tells us about a verified token.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IdentityClient fronts the external identity provider. Only the three
// calls the portal needs are modeled; everything else the provider offers
// is out of scope.
type IdentityClient interface {
	CreateUser(ctx context.Context, email, password string) (string, error)
	DeleteUser(ctx context.Context, uid string) error
	VerifyToken(ctx context.Context, token string) (*Identity, error)
}

type identityClient struct {
	baseURL    string
	timeout    time.Duration
	retryCount int
	retryDelay time.Duration
	client     *http.Client
	logger     zerolog.Logger
}

func NewIdentityClient(baseURL string, timeout time.Duration, retryCount int, retryDelay time.Duration, logger zerolog.Logger) IdentityClient {
	return &identityClient{
		baseURL:    baseURL,
		timeout:    timeout,
		retryCount: retryCount,
		retryDelay: retryDelay,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createUserResponse struct {
	UID string `json:"uid"`
}

func (c *identityClient) CreateUser(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(createUserRequest{Email: email, Password: password})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/users", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Creation is not idempotent: a retry after a transport timeout could
	// mint a second provider account that the compensation path never
	// learns about, so this call gets exactly one shot.
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to create identity user: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict:
		return "", ErrDuplicateEmail
	default:
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("identity provider returned status %d: %s", resp.StatusCode, string(payload))
	}

	var created createUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Info().
		Str("uid", created.UID).
		Msg("Identity provider user created")

	return created.UID, nil
}

func (c *identityClient) DeleteUser(ctx context.Context, uid string) error {
	resp, err := c.doWithRetry(ctx, "DELETE", fmt.Sprintf("%s/api/v1/users/%s", c.baseURL, uid), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("identity provider returned status %d: %s", resp.StatusCode, string(payload))
	}

	return nil
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

func (c *identityClient) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	body, err := json.Marshal(verifyTokenRequest{Token: token})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/tokens/verify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Token checks run on every request, no retries.
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrInvalidToken
	default:
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("identity provider returned status %d: %s", resp.StatusCode, string(payload))
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &identity, nil
}

func (c *identityClient) doWithRetry(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var resp *http.Response
	var lastErr error

	for i := 0; i <= c.retryCount; i++ {
		if i > 0 {
			c.logger.Warn().Int("attempt", i).Str("url", url).Msg("Retrying identity provider call")
			time.Sleep(c.retryDelay * time.Duration(i))
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err = c.client.Do(req)
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}

		if resp != nil {
			resp.Body.Close()
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("identity provider returned status %d", resp.StatusCode)
		}
	}

	return nil, fmt.Errorf("identity provider call failed after %d attempts: %w", c.retryCount+1, lastErr)
}
