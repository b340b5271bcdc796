package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/littlelemon-backend/internal/app/service"
	apperrors "github.com/ikkim/littlelemon-backend/internal/errors"
	"github.com/ikkim/littlelemon-backend/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,max=150"`
	Email     string `json:"email" binding:"omitempty,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
}

type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Register creates a customer account
// POST /api/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindError(c, err)
		return
	}

	user, err := ctrl.authService.Register(service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondServiceError(c, err, "Registration")
		return
	}

	log.Info("User registered", map[string]interface{}{
		"user_id": user.ID,
	})
	c.JSON(http.StatusCreated, presentUser(user))
}

// Login exchanges credentials for a bearer token. Form and JSON bodies are
// both accepted.
// POST /api/api-token-auth
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindError(c, err)
		return
	}

	token, user, err := ctrl.authService.Login(req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err, "Login")
		return
	}

	log.Info("Token issued", map[string]interface{}{
		"user_id": user.ID,
	})
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout revokes the presented token
// POST /api/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.authService.Logout(c.Request.Context(), claims); err != nil {
		respondServiceError(c, err, "Logout")
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated caller
// GET /api/auth/me
func (ctrl *AuthController) Me(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	if p == nil {
		apperrors.Unauthorized(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       p.UserID,
		"username": p.Username,
		"groups":   p.Groups,
		"is_staff": p.IsStaff,
	})
}
