package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/app/service"
	apperrors "github.com/ikkim/littlelemon-backend/internal/errors"
	"github.com/ikkim/littlelemon-backend/internal/permission"
	"github.com/ikkim/littlelemon-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuthenticator maps token strings to callers or errors
type fakeAuthenticator struct {
	principals map[string]*permission.Principal
	errs       map[string]error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*permission.Principal, *util.Claims, error) {
	if err, ok := f.errs[token]; ok {
		return nil, nil, err
	}
	if p, ok := f.principals[token]; ok {
		return p, &util.Claims{UserID: p.UserID, Username: p.Username}, nil
	}
	return nil, nil, util.ErrInvalidToken
}

func setupMiddlewareTest() (*gin.Engine, *AuthMiddleware) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	auth := &fakeAuthenticator{
		principals: map[string]*permission.Principal{
			"customer-token": {UserID: 7, Username: "alice", Groups: []string{model.GroupCustomer}},
			"manager-token":  {UserID: 1, Username: "boss", Groups: []string{model.GroupManager}},
		},
		errs: map[string]error{
			"expired-token": util.ErrExpiredToken,
			"revoked-token": service.ErrTokenRevoked,
		},
	}
	return router, NewAuthMiddleware(auth)
}

func whoAmI(c *gin.Context) {
	p := GetPrincipal(c)
	if p == nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": p.Username})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthMiddleware_AcceptsTokenAndBearerSchemes(t *testing.T) {
	router, auth := setupMiddlewareTest()
	router.GET("/me", auth.Authenticate(), whoAmI)

	for _, header := range []string{"Token customer-token", "Bearer customer-token", "token customer-token"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, header)
		assert.JSONEq(t, `{"user":"alice"}`, w.Body.String())
	}
}

func TestAuthMiddleware_QueryToken(t *testing.T) {
	router, auth := setupMiddlewareTest()
	router.GET("/ws", auth.Authenticate(), whoAmI)

	req := httptest.NewRequest(http.MethodGet, "/ws?token=manager-token", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"boss"}`, w.Body.String())
}

func TestAuthMiddleware_Failures(t *testing.T) {
	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing", "", apperrors.AuthUnauthorized},
		{"bad scheme", "Basic abc", apperrors.AuthTokenInvalid},
		{"no token", "Bearer", apperrors.AuthTokenInvalid},
		{"unknown token", "Token nope", apperrors.AuthTokenInvalid},
		{"expired", "Token expired-token", apperrors.AuthTokenExpired},
		{"revoked", "Token revoked-token", apperrors.AuthTokenRevoked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, auth := setupMiddlewareTest()
			router.GET("/me", auth.Authenticate(), whoAmI)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Error)
		})
	}
}

func TestAuthMiddleware_OptionalAuthenticate(t *testing.T) {
	router, auth := setupMiddlewareTest()
	router.GET("/menu", auth.OptionalAuthenticate(), whoAmI)

	cases := map[string]string{
		"":                     `{"user":null}`,
		"Token nope":           `{"user":null}`,
		"Basic x":              `{"user":null}`,
		"Token customer-token": `{"user":"alice"}`,
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/menu", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, want, w.Body.String(), header)
	}
}

func TestRequire(t *testing.T) {
	router, auth := setupMiddlewareTest()
	router.GET("/manager-view", auth.OptionalAuthenticate(), Require(permission.IsManager), whoAmI)

	send := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/manager-view", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := send("Token manager-token")
	assert.Equal(t, http.StatusOK, w.Code)

	w = send("Token customer-token")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, permission.MsgManagerOnly, decodeError(t, w).Message)

	w = send("")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
