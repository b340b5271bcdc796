package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/littlelemon-backend/internal/app/service"
	apperrors "github.com/ikkim/littlelemon-backend/internal/errors"
	"github.com/ikkim/littlelemon-backend/internal/permission"
	"github.com/ikkim/littlelemon-backend/pkg/util"
)

// Context keys for the authenticated caller
const (
	PrincipalKey = "principal"
	ClaimsKey    = "claims"
)

var errMalformedHeader = errors.New("malformed authorization header")

// Authenticator resolves a bearer token to the current caller
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*permission.Principal, *util.Claims, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// extractToken accepts "Token <t>" and "Bearer <t>", falling back to the
// token query parameter used by websocket clients.
func extractToken(c *gin.Context) (string, error) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return strings.TrimSpace(c.Query("token")), nil
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", errMalformedHeader
	}
	switch strings.ToLower(scheme) {
	case "token", "bearer":
		return strings.TrimSpace(token), nil
	default:
		return "", errMalformedHeader
	}
}

// Authenticate rejects requests without a valid token
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, err := extractToken(c)
		if err != nil {
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid authorization header. Use 'Token <token>'")
			return
		}
		if token == "" {
			log.Warn("Missing authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.Unauthorized(c, "")
			return
		}

		principal, claims, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			respondAuthError(c, err)
			return
		}

		setCaller(c, principal, claims)
		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id": principal.UserID,
			"groups":  principal.Groups,
		})
		c.Next()
	}
}

// OptionalAuthenticate identifies the caller when a valid token is present
// and otherwise continues as anonymous.
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, err := extractToken(c)
		if err != nil || token == "" {
			c.Next()
			return
		}

		principal, claims, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.Debug("Token validation failed - continuing as guest", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.Next()
			return
		}

		setCaller(c, principal, claims)
		c.Next()
	}
}

// Require enforces a permission predicate for every action on the route
func Require(a permission.Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := permission.Enforce(a, permission.Check{
			Principal: GetPrincipal(c),
			Action:    actionFor(c.Request.Method),
		})
		if err == nil {
			c.Next()
			return
		}
		if de, ok := permission.IsDenied(err); ok {
			GetLoggerFromContext(c).Warn("Insufficient permissions", map[string]interface{}{
				"path":   c.Request.URL.Path,
				"reason": de.Reason,
			})
			apperrors.Forbidden(c, de.Reason)
			return
		}
		apperrors.Unauthorized(c, "")
	}
}

func actionFor(method string) permission.Action {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return permission.ActionRetrieve
	case http.MethodPost:
		return permission.ActionCreate
	case http.MethodDelete:
		return permission.ActionDelete
	default:
		return permission.ActionUpdate
	}
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrExpiredToken):
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "Token has expired")
	case errors.Is(err, util.ErrInvalidToken):
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid token")
	case errors.Is(err, service.ErrTokenRevoked):
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenRevoked, "Token has been revoked")
	case errors.Is(err, service.ErrUserInactive):
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthUserInactive, "User inactive or deleted")
	default:
		GetLoggerFromContext(c).Error("Authentication backend failure", err)
		apperrors.InternalError(c, "")
	}
}

func setCaller(c *gin.Context, principal *permission.Principal, claims *util.Claims) {
	c.Set(PrincipalKey, principal)
	c.Set(ClaimsKey, claims)
}

// GetPrincipal returns the caller, nil for anonymous requests
func GetPrincipal(c *gin.Context) *permission.Principal {
	v, exists := c.Get(PrincipalKey)
	if !exists {
		return nil
	}
	p, _ := v.(*permission.Principal)
	return p
}

// GetUserID extracts the caller's user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	p := GetPrincipal(c)
	if p == nil {
		return 0, false
	}
	return p.UserID, true
}

func GetClaims(c *gin.Context) (*util.Claims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*util.Claims)
	return claims, ok
}
