package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/dashboard/internal/authz"
	"github.com/mkravets/dashboard/internal/tokens"
)

func newTestAuth() *Auth {
	return NewAuth(&tokens.Codec{
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
}

func invoke(t *testing.T, mw echo.MiddlewareFunc, setup func(*http.Request, echo.Context)) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(req, c)
	}

	nextCalled := false
	handler := mw(func(c echo.Context) error {
		nextCalled = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, nextCalled
}

func bodyCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestRequireAuth_MissingToken(t *testing.T) {
	t.Parallel()

	rec, nextCalled := invoke(t, newTestAuth().RequireAuth, nil)

	assert.False(t, nextCalled)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeUnauthorized, bodyCode(t, rec))
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	t.Parallel()

	auth := newTestAuth()
	expired := *auth.Codec
	expired.AccessTTL = -time.Minute
	token, _, err := expired.SignAccess(uuid.New(), "a@x.com", "USER")
	require.NoError(t, err)

	rec, nextCalled := invoke(t, auth.RequireAuth, func(req *http.Request, _ echo.Context) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})

	assert.False(t, nextCalled)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeTokenExpired, bodyCode(t, rec))
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	t.Parallel()

	rec, nextCalled := invoke(t, newTestAuth().RequireAuth, func(req *http.Request, _ echo.Context) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-valid-jwt")
	})

	assert.False(t, nextCalled)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeInvalidToken, bodyCode(t, rec))
}

func TestRequireAuth_ValidToken_SetsIdentity(t *testing.T) {
	t.Parallel()

	auth := newTestAuth()
	userID := uuid.New()
	token, _, err := auth.Codec.SignAccess(userID, "a@x.com", "ADMIN")
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := auth.RequireAuth(func(c echo.Context) error {
		assert.Equal(t, userID.String(), c.Get("user_id"))
		assert.Equal(t, "a@x.com", c.Get("email"))
		assert.Equal(t, authz.RoleAdmin, c.Get("role"))
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_CookieFallback(t *testing.T) {
	t.Parallel()

	auth := newTestAuth()
	token, _, err := auth.Codec.SignAccess(uuid.New(), "a@x.com", "USER")
	require.NoError(t, err)

	rec, nextCalled := invoke(t, auth.RequireAuth, func(req *http.Request, _ echo.Context) {
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: token})
	})

	assert.True(t, nextCalled)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePermission(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		role       any
		module     authz.Module
		action     authz.Action
		wantStatus int
		wantNext   bool
	}{
		{name: "allowed", role: authz.RoleUser, module: authz.ModuleNotes, action: authz.ActionCreate, wantStatus: http.StatusOK, wantNext: true},
		{name: "readonly denied write", role: authz.RoleReadOnly, module: authz.ModuleNotes, action: authz.ActionCreate, wantStatus: http.StatusForbidden},
		{name: "user denied users module", role: authz.RoleUser, module: authz.ModuleUsers, action: authz.ActionRead, wantStatus: http.StatusForbidden},
		{name: "no identity", role: nil, module: authz.ModuleNotes, action: authz.ActionRead, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mw := newTestAuth().RequirePermission(tt.module, tt.action)
			rec, nextCalled := invoke(t, mw, func(_ *http.Request, c echo.Context) {
				if tt.role != nil {
					c.Set("role", tt.role)
				}
			})

			assert.Equal(t, tt.wantNext, nextCalled)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusForbidden {
				assert.Equal(t, CodeForbidden, bodyCode(t, rec))
			}
		})
	}
}
