package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/direct-message-service/internal/auth"
	"github.com/iliyamo/direct-message-service/internal/middleware"
	"github.com/iliyamo/direct-message-service/internal/repository"
)

type brokenUserStore struct{}

func (brokenUserStore) Exists(ctx context.Context, username string) (bool, error) {
	return false, errors.New("store down")
}

func newAuthedEcho(tokens *auth.TokenIssuer) *echo.Echo {
	e := echo.New()
	e.GET("/whoami", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"username": middleware.CurrentUsername(c)})
	}, middleware.BearerAuth(tokens))
	return e
}

func doGet(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBearerAuth_ValidToken(t *testing.T) {
	users := repository.NewMemoryUserStore()
	_, err := users.Create(context.Background(), "alice", "password", 4)
	require.NoError(t, err)

	tokens := auth.NewTokenIssuer("test-secret", 30, users)
	signed, _, err := tokens.Issue("alice")
	require.NoError(t, err)

	rec := doGet(newAuthedEcho(tokens), signed)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"username":"alice"}`, rec.Body.String())
}

func TestBearerAuth_RejectedCredentials(t *testing.T) {
	users := repository.NewMemoryUserStore()
	tokens := auth.NewTokenIssuer("test-secret", 30, users)
	e := newAuthedEcho(tokens)

	// missing header
	rec := doGet(e, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// garbage token
	rec = doGet(e, "not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"invalid token"}`, rec.Body.String())

	// valid signature but the subject is gone from the store
	signed, _, err := tokens.Issue("ghost")
	require.NoError(t, err)
	rec = doGet(e, signed)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"invalid token"}`, rec.Body.String())
}

func TestBearerAuth_StoreFailureIsNotUnauthorized(t *testing.T) {
	// a failing credential store must not masquerade as a rejected token:
	// the caller's credentials were never checked
	tokens := auth.NewTokenIssuer("test-secret", 30, brokenUserStore{})
	signed, _, err := tokens.Issue("alice")
	require.NoError(t, err)

	rec := doGet(newAuthedEcho(tokens), signed)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"auth check failed"}`, rec.Body.String())
}
