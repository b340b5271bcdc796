package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/app/repository"
	"github.com/ikkim/littlelemon-backend/internal/app/service"
	apperrors "github.com/ikkim/littlelemon-backend/internal/errors"
	"github.com/ikkim/littlelemon-backend/internal/middleware"
	"github.com/ikkim/littlelemon-backend/pkg/pagination"
)

type UserController struct {
	userService service.UserService
	bounds      pagination.Bounds
}

func NewUserController(userService service.UserService, bounds pagination.Bounds) *UserController {
	return &UserController{
		userService: userService,
		bounds:      bounds,
	}
}

type CreateUserRequest struct {
	Username  string   `json:"username" binding:"required,max=150"`
	Email     string   `json:"email" binding:"omitempty,email"`
	Password  string   `json:"password" binding:"required,min=6"`
	FirstName string   `json:"first_name" binding:"max=150"`
	LastName  string   `json:"last_name" binding:"max=150"`
	Groups    []string `json:"groups" binding:"omitempty,dive,rolegroup"`
}

type UpdateUserRequest struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	Password  *string `json:"password" binding:"omitempty,min=6"`
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	IsActive  *bool   `json:"is_active"`
}

type GroupNameRequest struct {
	Name string `json:"name" form:"name" binding:"required,rolegroup"`
}

type GroupMemberRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// groupSlugs maps the URL form of a group to its name
var groupSlugs = map[string]string{
	"manager":       model.GroupManager,
	"delivery-crew": model.GroupDeliveryCrew,
	"customer":      model.GroupCustomer,
}

// ListUsers GET /api/users
func (ctrl *UserController) ListUsers(c *gin.Context) {
	page, ok := pageParams(c, ctrl.bounds)
	if !ok {
		return
	}
	filter := repository.UserFilter{
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
	}

	users, count, err := ctrl.userService.List(middleware.GetPrincipal(c), filter, page)
	if err != nil {
		respondServiceError(c, err, "List users")
		return
	}
	writePage(c, presentUsers(users), count, page)
}

// CreateUser POST /api/users
func (ctrl *UserController) CreateUser(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid create user request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindError(c, err)
		return
	}

	user, err := ctrl.userService.Create(middleware.GetPrincipal(c), service.CreateUserInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Groups:    req.Groups,
	})
	if err != nil {
		respondServiceError(c, err, "Create user")
		return
	}
	c.JSON(http.StatusCreated, presentUser(user))
}

// GetUser GET /api/users/:id
func (ctrl *UserController) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := ctrl.userService.Get(middleware.GetPrincipal(c), id)
	if err != nil {
		respondServiceError(c, err, "Get user")
		return
	}
	c.JSON(http.StatusOK, presentUser(user))
}

// UpdateUser PUT|PATCH /api/users/:id
func (ctrl *UserController) UpdateUser(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update user request", map[string]interface{}{
			"user_id": id,
			"error":   err.Error(),
		})
		apperrors.RespondWithBindError(c, err)
		return
	}

	user, err := ctrl.userService.Update(middleware.GetPrincipal(c), id, service.UpdateUserInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsActive:  req.IsActive,
	})
	if err != nil {
		respondServiceError(c, err, "Update user")
		return
	}
	c.JSON(http.StatusOK, presentUser(user))
}

// DeleteUser DELETE /api/users/:id
func (ctrl *UserController) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.userService.Delete(middleware.GetPrincipal(c), id); err != nil {
		respondServiceError(c, err, "Delete user")
		return
	}
	c.Status(http.StatusNoContent)
}

// AddToGroup adds the user to the named group
// POST|PUT /api/users/:id/groups
func (ctrl *UserController) AddToGroup(c *gin.Context) {
	ctrl.changeGroup(c, true)
}

// RemoveFromGroup takes the group name from the body or ?name=
// DELETE /api/users/:id/groups
func (ctrl *UserController) RemoveFromGroup(c *gin.Context) {
	ctrl.changeGroup(c, false)
}

func (ctrl *UserController) changeGroup(c *gin.Context, add bool) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req GroupNameRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Warn("Invalid group request", map[string]interface{}{
			"user_id": id,
			"error":   err.Error(),
		})
		apperrors.RespondWithBindError(c, err)
		return
	}

	p := middleware.GetPrincipal(c)
	var err error
	if add {
		_, err = ctrl.userService.AddToGroup(p, id, req.Name)
	} else {
		_, err = ctrl.userService.RemoveFromGroup(p, id, req.Name)
	}
	if err != nil {
		respondServiceError(c, err, "Change group")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "success"})
}

// ListGroupMembers GET /api/groups/:group/users
func (ctrl *UserController) ListGroupMembers(c *gin.Context) {
	group, ok := ctrl.groupParam(c)
	if !ok {
		return
	}
	page, ok := pageParams(c, ctrl.bounds)
	if !ok {
		return
	}

	users, count, err := ctrl.userService.ListGroupMembers(middleware.GetPrincipal(c), group, page)
	if err != nil {
		respondServiceError(c, err, "List group members")
		return
	}
	writePage(c, presentUsers(users), count, page)
}

// AddGroupMember POST /api/groups/:group/users
func (ctrl *UserController) AddGroupMember(c *gin.Context) {
	group, ok := ctrl.groupParam(c)
	if !ok {
		return
	}

	var req GroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	user, err := ctrl.userService.AddToGroup(middleware.GetPrincipal(c), req.UserID, group)
	if err != nil {
		respondServiceError(c, err, "Add group member")
		return
	}
	c.JSON(http.StatusCreated, presentUser(user))
}

// RemoveGroupMember DELETE /api/groups/:group/users/:id
func (ctrl *UserController) RemoveGroupMember(c *gin.Context) {
	group, ok := ctrl.groupParam(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if _, err := ctrl.userService.RemoveFromGroup(middleware.GetPrincipal(c), id, group); err != nil {
		respondServiceError(c, err, "Remove group member")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "success"})
}

func (ctrl *UserController) groupParam(c *gin.Context) (string, bool) {
	group, ok := groupSlugs[c.Param("group")]
	if !ok {
		apperrors.NotFound(c, apperrors.ResourceNotFound, "Unknown group")
		return "", false
	}
	return group, true
}
