package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (IdentityClient, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewIdentityClient(srv.URL, time.Second, 2, time.Millisecond, zerolog.Nop()), srv
}

func TestCreateUserDoesNotRetry(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.CreateUser(context.Background(), "arun@example.com", "long-enough-password")
	require.Error(t, err)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestCreateUserDuplicate(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	_, err := client.CreateUser(context.Background(), "arun@example.com", "long-enough-password")
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestCreateUserReturnsUID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"uid":"uid-42"}`))
	})

	uid, err := client.CreateUser(context.Background(), "arun@example.com", "long-enough-password")
	require.NoError(t, err)
	require.Equal(t, "uid-42", uid)
}

func TestDeleteUserRetriesTransientFailures(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	// Deletes are idempotent, so they keep the retry loop.
	require.NoError(t, client.DeleteUser(context.Background(), "uid-42"))
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestVerifyTokenInvalid(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.VerifyToken(context.Background(), "bad-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
