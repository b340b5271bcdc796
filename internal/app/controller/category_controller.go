package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/littlelemon-backend/internal/app/repository"
	"github.com/ikkim/littlelemon-backend/internal/app/service"
	apperrors "github.com/ikkim/littlelemon-backend/internal/errors"
	"github.com/ikkim/littlelemon-backend/internal/middleware"
	"github.com/ikkim/littlelemon-backend/pkg/pagination"
)

type CategoryController struct {
	categoryService service.CategoryService
	bounds          pagination.Bounds
}

func NewCategoryController(categoryService service.CategoryService, bounds pagination.Bounds) *CategoryController {
	return &CategoryController{
		categoryService: categoryService,
		bounds:          bounds,
	}
}

type CategoryRequest struct {
	Title *string `json:"title" binding:"omitempty,min=1,max=255"`
	Slug  *string `json:"slug" binding:"omitempty,max=255"`
}

// ListCategories GET /api/categories
func (ctrl *CategoryController) ListCategories(c *gin.Context) {
	page, ok := pageParams(c, ctrl.bounds)
	if !ok {
		return
	}
	filter := repository.CategoryFilter{
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
	}

	categories, count, err := ctrl.categoryService.List(middleware.GetPrincipal(c), filter, page)
	if err != nil {
		respondServiceError(c, err, "List categories")
		return
	}
	writePage(c, presentCategories(categories), count, page)
}

// GetCategory GET /api/categories/:id
func (ctrl *CategoryController) GetCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	category, err := ctrl.categoryService.Get(middleware.GetPrincipal(c), id)
	if err != nil {
		respondServiceError(c, err, "Get category")
		return
	}
	c.JSON(http.StatusOK, presentCategory(category))
}

// CreateCategory POST /api/categories
func (ctrl *CategoryController) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}
	if req.Title == nil {
		apperrors.RespondWithValidationError(c, map[string]string{"title": "This field is required"})
		return
	}

	category, err := ctrl.categoryService.Create(middleware.GetPrincipal(c), service.CategoryInput{
		Title: req.Title,
		Slug:  req.Slug,
	})
	if err != nil {
		respondServiceError(c, err, "Create category")
		return
	}
	c.JSON(http.StatusCreated, presentCategory(category))
}

// UpdateCategory PUT|PATCH /api/categories/:id
func (ctrl *CategoryController) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}
	if c.Request.Method == http.MethodPut && req.Title == nil {
		apperrors.RespondWithValidationError(c, map[string]string{"title": "This field is required"})
		return
	}

	category, err := ctrl.categoryService.Update(middleware.GetPrincipal(c), id, service.CategoryInput{
		Title: req.Title,
		Slug:  req.Slug,
	})
	if err != nil {
		respondServiceError(c, err, "Update category")
		return
	}
	c.JSON(http.StatusOK, presentCategory(category))
}

// DeleteCategory DELETE /api/categories/:id
func (ctrl *CategoryController) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.categoryService.Delete(middleware.GetPrincipal(c), id); err != nil {
		respondServiceError(c, err, "Delete category")
		return
	}
	c.Status(http.StatusNoContent)
}
