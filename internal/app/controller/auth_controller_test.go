package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	apperrors "github.com/ikkim/littlelemon-backend/internal/errors"
	"github.com/ikkim/littlelemon-backend/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mountAuth(e *testEnv) {
	ctrl := NewAuthController(e.auth)
	authenticate := middleware.NewAuthMiddleware(e.auth).Authenticate()
	e.router.POST("/api/api-token-auth", ctrl.Login)
	e.router.POST("/api/auth/register", ctrl.Register)
	e.router.GET("/api/auth/me", authenticate, ctrl.Me)
}

func TestAuthController_RegisterCreatesCustomer(t *testing.T) {
	env := newTestEnv(t)
	mountAuth(env)

	w := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, []interface{}{model.GroupCustomer}, body["groups"])
	assert.NotContains(t, body, "password")

	w = env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.AuthUsernameExists, errorCode(t, w))
}

func TestAuthController_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	mountAuth(env)

	w := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "bob",
		"password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["fields"], "password")
}

func TestAuthController_LoginThenMe(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "mario", model.GroupManager)
	mountAuth(env)

	w := env.do(t, http.MethodPost, "/api/api-token-auth", map[string]string{
		"username": "mario",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Token "+token)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me := decode(t, w)
	assert.Equal(t, "mario", me["username"])
	assert.Equal(t, []interface{}{model.GroupManager}, me["groups"])
}

func TestAuthController_LoginAcceptsForm(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "mario")
	mountAuth(env)

	form := url.Values{"username": {"mario"}, "password": {"secret123"}}
	req := httptest.NewRequest(http.MethodPost, "/api/api-token-auth", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode(t, w)["token"])
}

func TestAuthController_LoginRejectsBadPassword(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "mario")
	mountAuth(env)

	w := env.do(t, http.MethodPost, "/api/api-token-auth", map[string]string{
		"username": "mario",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.AuthInvalidCredentials, errorCode(t, w))
}

func TestAuthController_MeRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	mountAuth(env)

	w := env.do(t, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestDiagnosticsController_Health(t *testing.T) {
	env := newTestEnv(t)
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	env.router.GET("/ok", NewDiagnosticsController(map[string]Pinger{"database": up}).Health)
	env.router.GET("/degraded", NewDiagnosticsController(map[string]Pinger{"database": up, "redis": down}).Health)

	w := env.do(t, http.MethodGet, "/ok", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	w = env.do(t, http.MethodGet, "/degraded", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode(t, w)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]interface{}{"database": "up", "redis": "down"}, body["checks"])
}
