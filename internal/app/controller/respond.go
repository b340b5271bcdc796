package controller

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/app/service"
	apperrors "github.com/ikkim/littlelemon-backend/internal/errors"
	"github.com/ikkim/littlelemon-backend/internal/middleware"
	"github.com/ikkim/littlelemon-backend/internal/permission"
	"github.com/ikkim/littlelemon-backend/pkg/pagination"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// serviceErrors maps sentinel errors onto HTTP responses. Order matters only
// for errors that wrap one another.
var serviceErrors = []errorMapping{
	{service.ErrInvalidCredentials, http.StatusBadRequest, apperrors.AuthInvalidCredentials},
	{service.ErrUserInactive, http.StatusBadRequest, apperrors.AuthUserInactive},
	{service.ErrTokenRevoked, http.StatusUnauthorized, apperrors.AuthTokenRevoked},

	{service.ErrUserNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrCategoryNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrMenuItemNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrCartNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrCartItemNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrOrderNotFound, http.StatusNotFound, apperrors.ResourceNotFound},

	{service.ErrInvalidOrdering, http.StatusBadRequest, apperrors.ValidationInvalidQuery},
	{service.ErrUnknownGroup, http.StatusBadRequest, apperrors.ValidationUnknownGroup},
	{service.ErrUnknownCategory, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrUnknownMenuItem, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrInvalidPrice, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrInvalidQuantity, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrInvalidStatus, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrEmptyCart, http.StatusBadRequest, apperrors.ValidationEmptyCart},
	{service.ErrNotDeliveryCrew, http.StatusBadRequest, apperrors.ValidationNotCrew},
	{service.ErrInvalidImage, http.StatusBadRequest, apperrors.UploadInvalidFileType},
	{service.ErrImageTooLarge, http.StatusRequestEntityTooLarge, apperrors.UploadFileTooLarge},

	{service.ErrUsernameTaken, http.StatusConflict, apperrors.AuthUsernameExists},
	{service.ErrDuplicateCartItem, http.StatusConflict, apperrors.ResourceAlreadyExists},
	{service.ErrDuplicateOrderItem, http.StatusConflict, apperrors.ResourceAlreadyExists},
	{service.ErrCategoryInUse, http.StatusConflict, apperrors.ResourceInUse},

	{service.ErrInvalidTransition, http.StatusUnprocessableEntity, apperrors.OrderInvalidTransition},
	{service.ErrOrderNotPending, http.StatusUnprocessableEntity, apperrors.OrderNotPending},

	{service.ErrStorageDisabled, http.StatusServiceUnavailable, apperrors.InternalConfigError},
}

// deniedCodes picks a more specific code for the role predicates
var deniedCodes = map[string]string{
	permission.MsgManagerOnly:      apperrors.AuthzManagerOnly,
	permission.MsgManagerWrite:     apperrors.AuthzManagerOnly,
	permission.MsgCustomerOnly:     apperrors.AuthzCustomerOnly,
	permission.MsgDeliveryCrewOnly: apperrors.AuthzCrewOnly,
	permission.MsgOwnerOnly:        apperrors.AuthzOwnerOnly,
}

// respondServiceError writes the response for an error returned by a
// service call. Unknown errors are logged and answered with 500.
func respondServiceError(c *gin.Context, err error, action string) {
	log := middleware.GetLoggerFromContext(c)

	if errors.Is(err, permission.ErrAuthenticationRequired) {
		apperrors.Unauthorized(c, "")
		return
	}
	if de, ok := permission.IsDenied(err); ok {
		log.Warn(action+" denied", map[string]interface{}{"reason": de.Reason})
		code, ok := deniedCodes[de.Reason]
		if !ok {
			code = apperrors.AuthzForbidden
		}
		apperrors.RespondWithError(c, http.StatusForbidden, code, de.Reason)
		return
	}
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			if m.status >= http.StatusInternalServerError {
				log.Error(action+" failed", err)
			} else {
				log.Warn(action+" rejected", map[string]interface{}{"error": err.Error()})
			}
			apperrors.RespondWithError(c, m.status, m.code, err.Error())
			return
		}
	}

	log.Error(action+" failed", err)
	apperrors.InternalError(c, "")
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// pageParams reads limit/offset with the configured bounds
func pageParams(c *gin.Context, bounds pagination.Bounds) (pagination.Params, bool) {
	p, err := bounds.Parse(c.Query("limit"), c.Query("offset"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidQuery, err.Error())
		return pagination.Params{}, false
	}
	return p, true
}

// requestURL rebuilds the absolute URL of the current request for next and
// previous links
func requestURL(c *gin.Context) *url.URL {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if fwd := c.GetHeader("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	u := *c.Request.URL
	u.Scheme = scheme
	u.Host = c.Request.Host
	return &u
}

func writePage[T any](c *gin.Context, results []T, count int64, page pagination.Params) {
	c.JSON(http.StatusOK, pagination.NewPage(results, count, page, requestURL(c)))
}

// parseBoolQuery accepts the usual true/false spellings; empty means unset
func parseBoolQuery(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	switch raw {
	case "true", "True", "1":
		v := true
		return &v, true
	case "false", "False", "0":
		v := false
		return &v, true
	}
	apperrors.BadRequest(c, apperrors.ValidationInvalidQuery, "Invalid "+name)
	return nil, false
}

// statusInput converts an optional status string into the domain type
func statusInput(raw *string) *model.OrderStatus {
	if raw == nil {
		return nil
	}
	s := model.OrderStatus(*raw)
	return &s
}
