package controller

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/littlelemon-backend/internal/app/repository"
	"github.com/ikkim/littlelemon-backend/internal/app/service"
	apperrors "github.com/ikkim/littlelemon-backend/internal/errors"
	"github.com/ikkim/littlelemon-backend/internal/middleware"
	"github.com/ikkim/littlelemon-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

type MenuItemController struct {
	menuItemService service.MenuItemService
	imageService    service.ImageService
	bounds          pagination.Bounds
}

func NewMenuItemController(menuItemService service.MenuItemService, imageService service.ImageService, bounds pagination.Bounds) *MenuItemController {
	return &MenuItemController{
		menuItemService: menuItemService,
		imageService:    imageService,
		bounds:          bounds,
	}
}

type MenuItemRequest struct {
	Title      *string          `json:"title" binding:"omitempty,min=1,max=255"`
	Price      *decimal.Decimal `json:"price"`
	Featured   *bool            `json:"featured"`
	CategoryID *uint            `json:"category_id"`
}

func (r MenuItemRequest) input() service.MenuItemInput {
	return service.MenuItemInput{
		Title:      r.Title,
		Price:      r.Price,
		Featured:   r.Featured,
		CategoryID: r.CategoryID,
	}
}

// missing lists the fields a full write must carry
func (r MenuItemRequest) missing() map[string]string {
	fields := map[string]string{}
	if r.Title == nil {
		fields["title"] = "This field is required"
	}
	if r.Price == nil {
		fields["price"] = "This field is required"
	}
	if r.CategoryID == nil {
		fields["category_id"] = "This field is required"
	}
	return fields
}

// ListMenuItems supports category, title, search, price, featured and ordering
// GET /api/menu-items
func (ctrl *MenuItemController) ListMenuItems(c *gin.Context) {
	page, ok := pageParams(c, ctrl.bounds)
	if !ok {
		return
	}

	filter := repository.MenuItemFilter{
		CategorySlug: c.Query("category"),
		Title:        c.Query("title"),
		Search:       c.Query("search"),
		Ordering:     c.Query("ordering"),
	}
	if raw := c.Query("price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidQuery, "Invalid price")
			return
		}
		filter.PriceLTE = &price
	}
	featured, ok := parseBoolQuery(c, "featured")
	if !ok {
		return
	}
	filter.Featured = featured

	items, count, err := ctrl.menuItemService.List(middleware.GetPrincipal(c), filter, page)
	if err != nil {
		respondServiceError(c, err, "List menu items")
		return
	}
	writePage(c, presentMenuItems(items), count, page)
}

// GetMenuItem GET /api/menu-items/:id
func (ctrl *MenuItemController) GetMenuItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	item, err := ctrl.menuItemService.Get(middleware.GetPrincipal(c), id)
	if err != nil {
		respondServiceError(c, err, "Get menu item")
		return
	}
	c.JSON(http.StatusOK, presentMenuItem(item))
}

// CreateMenuItem POST /api/menu-items
func (ctrl *MenuItemController) CreateMenuItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid menu item request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindError(c, err)
		return
	}
	if fields := req.missing(); len(fields) > 0 {
		apperrors.RespondWithValidationError(c, fields)
		return
	}

	item, err := ctrl.menuItemService.Create(middleware.GetPrincipal(c), req.input())
	if err != nil {
		respondServiceError(c, err, "Create menu item")
		return
	}
	c.JSON(http.StatusCreated, presentMenuItem(item))
}

// UpdateMenuItem replaces with PUT, patches with PATCH
// PUT|PATCH /api/menu-items/:id
func (ctrl *MenuItemController) UpdateMenuItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}
	if c.Request.Method == http.MethodPut {
		if fields := req.missing(); len(fields) > 0 {
			apperrors.RespondWithValidationError(c, fields)
			return
		}
	}

	item, err := ctrl.menuItemService.Update(middleware.GetPrincipal(c), id, req.input())
	if err != nil {
		respondServiceError(c, err, "Update menu item")
		return
	}
	c.JSON(http.StatusOK, presentMenuItem(item))
}

// DeleteMenuItem DELETE /api/menu-items/:id
func (ctrl *MenuItemController) DeleteMenuItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.menuItemService.Delete(middleware.GetPrincipal(c), id); err != nil {
		respondServiceError(c, err, "Delete menu item")
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadImage stores the multipart "image" file and links it to the item
// POST /api/menu-items/:id/image
func (ctrl *MenuItemController) UploadImage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		apperrors.RespondWithValidationError(c, map[string]string{"image": "This field is required"})
		return
	}
	if header.Size > service.MaxImageSize {
		apperrors.RespondWithError(c, http.StatusRequestEntityTooLarge, apperrors.UploadFileTooLarge, service.ErrImageTooLarge.Error())
		return
	}

	file, err := header.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", err)
		apperrors.RespondWithError(c, http.StatusBadRequest, apperrors.UploadFailed, "Could not read uploaded file")
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, service.MaxImageSize+1))
	if err != nil {
		log.Error("Failed to read uploaded file", err)
		apperrors.RespondWithError(c, http.StatusBadRequest, apperrors.UploadFailed, "Could not read uploaded file")
		return
	}

	item, err := ctrl.imageService.UploadMenuItemImage(c.Request.Context(), middleware.GetPrincipal(c), id, body)
	if err != nil {
		respondServiceError(c, err, "Upload menu item image")
		return
	}

	log.Info("Menu item image uploaded", map[string]interface{}{
		"menu_item_id": id,
		"size":         len(body),
	})
	c.JSON(http.StatusOK, presentMenuItem(item))
}
