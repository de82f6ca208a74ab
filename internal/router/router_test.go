package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"eventhub/internal/auth"
)

// stubTokenStore is an in-memory TokenStoreInterface for middleware tests.
type stubTokenStore struct {
	blacklisted map[string]bool
}

func (s *stubTokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uint, email string, ttl time.Duration) error {
	return nil
}

func (s *stubTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uint, string, error) {
	return 0, "", nil
}

func (s *stubTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return nil
}

func (s *stubTokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	s.blacklisted[tokenID] = true
	return nil
}

func (s *stubTokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	return s.blacklisted[tokenID], nil
}

func newAuthedContext(t *testing.T, jti string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user", &jwt.Token{Claims: &auth.Claims{
		UserID:           11,
		Email:            "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{ID: jti},
	}})
	return c, rec
}

func TestRejectBlacklisted(t *testing.T) {
	store := &stubTokenStore{blacklisted: map[string]bool{"revoked-jti": true}}
	mw := rejectBlacklisted(store)
	next := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	t.Run("revoked token is refused", func(t *testing.T) {
		c, _ := newAuthedContext(t, "revoked-jti")

		err := mw(next)(c)

		var httpErr *echo.HTTPError
		assert.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})

	t.Run("live token passes through", func(t *testing.T) {
		c, rec := newAuthedContext(t, "live-jti")

		err := mw(next)(c)

		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token in context is refused", func(t *testing.T) {
		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

		err := mw(next)(c)

		var httpErr *echo.HTTPError
		assert.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})
}
