package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/littlelemon-backend/internal/app/service"
	apperrors "github.com/ikkim/littlelemon-backend/internal/errors"
	"github.com/ikkim/littlelemon-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	MenuItemID uint `json:"menuitem_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required,min=1,max=32767"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=32767"`
}

// cartOwner resolves the cart owner: the :id path parameter when present,
// otherwise the caller.
func cartOwner(c *gin.Context) (uint, bool) {
	if c.Param("id") != "" {
		return parseID(c, "id")
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return 0, false
	}
	return userID, true
}

// GetCart returns the cart with its items
// GET /api/users/:id/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	userID, ok := cartOwner(c)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.GetCart(middleware.GetPrincipal(c), userID)
	if err != nil {
		respondServiceError(c, err, "Get cart")
		return
	}
	c.JSON(http.StatusOK, presentCart(cart))
}

// ClearCart removes every item and resets the total
// DELETE /api/users/:id/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := cartOwner(c)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.Clear(middleware.GetPrincipal(c), userID)
	if err != nil {
		respondServiceError(c, err, "Clear cart")
		return
	}

	log.Info("Cart cleared", map[string]interface{}{
		"user_id": userID,
		"cart_id": cart.ID,
	})
	c.JSON(http.StatusOK, presentCart(cart))
}

// ListItems GET /api/users/:id/cart/menu-items
func (ctrl *CartController) ListItems(c *gin.Context) {
	userID, ok := cartOwner(c)
	if !ok {
		return
	}

	items, err := ctrl.cartService.ListItems(middleware.GetPrincipal(c), userID)
	if err != nil {
		respondServiceError(c, err, "List cart items")
		return
	}
	c.JSON(http.StatusOK, presentCartItems(items))
}

// AddItem POST /api/users/:id/cart/menu-items
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := cartOwner(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.RespondWithBindError(c, err)
		return
	}

	item, err := ctrl.cartService.AddItem(middleware.GetPrincipal(c), userID, req.MenuItemID, req.Quantity)
	if err != nil {
		respondServiceError(c, err, "Add to cart")
		return
	}
	c.JSON(http.StatusCreated, presentCartItem(item))
}

// GetItem GET /api/users/:id/cart/menu-items/:itemId
func (ctrl *CartController) GetItem(c *gin.Context) {
	userID, ok := cartOwner(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}

	item, err := ctrl.cartService.GetItem(middleware.GetPrincipal(c), userID, itemID)
	if err != nil {
		respondServiceError(c, err, "Get cart item")
		return
	}
	c.JSON(http.StatusOK, presentCartItem(item))
}

// UpdateItem changes the quantity
// PUT /api/users/:id/cart/menu-items/:itemId
func (ctrl *CartController) UpdateItem(c *gin.Context) {
	userID, ok := cartOwner(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	item, err := ctrl.cartService.UpdateItem(middleware.GetPrincipal(c), userID, itemID, req.Quantity)
	if err != nil {
		respondServiceError(c, err, "Update cart item")
		return
	}
	c.JSON(http.StatusAccepted, presentCartItem(item))
}

// RemoveItem DELETE /api/users/:id/cart/menu-items/:itemId
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	userID, ok := cartOwner(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}

	if err := ctrl.cartService.RemoveItem(middleware.GetPrincipal(c), userID, itemID); err != nil {
		respondServiceError(c, err, "Remove cart item")
		return
	}
	c.Status(http.StatusNoContent)
}
