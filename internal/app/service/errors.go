package service

import (
	"errors"

	"github.com/ikkim/littlelemon-backend/internal/app/repository"
)

// Lookups that miss, including rows outside the caller's visible set
var (
	ErrUserNotFound     = repository.ErrUserNotFound
	ErrCategoryNotFound = repository.ErrCategoryNotFound
	ErrMenuItemNotFound = repository.ErrMenuItemNotFound
	ErrCartNotFound     = repository.ErrCartNotFound
	ErrCartItemNotFound = repository.ErrCartItemNotFound
	ErrOrderNotFound    = repository.ErrOrderNotFound
	ErrInvalidOrdering  = repository.ErrInvalidOrdering
)

// Authentication
var (
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrUserInactive       = errors.New("user account is disabled")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// Validation
var (
	ErrUnknownGroup    = errors.New("unknown group")
	ErrUnknownCategory = errors.New("category does not exist")
	ErrUnknownMenuItem = errors.New("menu item does not exist")
	ErrInvalidPrice    = errors.New("price must be between 0 and 9999.99 with at most two decimals")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 32767")
	ErrInvalidStatus   = errors.New("status must be pending or delivered")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrNotDeliveryCrew = errors.New("assignee is not a member of the Delivery Crew group")
	ErrInvalidImage    = errors.New("only JPEG, PNG, GIF and WEBP images are allowed")
	ErrImageTooLarge   = errors.New("image exceeds the maximum allowed size")
)

// Conflicts
var (
	ErrUsernameTaken      = errors.New("a user with that username already exists")
	ErrDuplicateCartItem  = errors.New("menu item is already in the cart")
	ErrDuplicateOrderItem = errors.New("menu item is already in the order")
	ErrCategoryInUse      = errors.New("category is still referenced by menu items")
)

// State
var (
	ErrInvalidTransition = errors.New("order status can only move from pending to delivered")
	ErrOrderNotPending   = errors.New("order is no longer pending")
)

// Configuration
var ErrStorageDisabled = errors.New("object storage is not configured")
