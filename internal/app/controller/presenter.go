package controller

import (
	"time"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
)

// Response shapes. Money is rendered as a fixed two-decimal string.

type UserResponse struct {
	ID         uint       `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	IsActive   bool       `json:"is_active"`
	IsStaff    bool       `json:"is_staff"`
	Groups     []string   `json:"groups"`
	LastLogin  *time.Time `json:"last_login"`
	DateJoined time.Time  `json:"date_joined"`
}

type CategoryResponse struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type MenuItemResponse struct {
	ID            uint             `json:"id"`
	Title         string           `json:"title"`
	Price         string           `json:"price"`
	PriceAfterTax string           `json:"price_after_tax"`
	Featured      bool             `json:"featured"`
	ImageURL      string           `json:"image_url,omitempty"`
	Category      CategoryResponse `json:"category"`
	CategoryID    uint             `json:"category_id"`
}

type CartItemResponse struct {
	ID         uint             `json:"id"`
	MenuItem   MenuItemResponse `json:"menuitem"`
	MenuItemID uint             `json:"menuitem_id"`
	Quantity   int              `json:"quantity"`
	UnitPrice  string           `json:"unit_price"`
	Price      string           `json:"price"`
}

type CartResponse struct {
	ID     uint               `json:"id"`
	UserID uint               `json:"user_id"`
	Total  int                `json:"total"`
	Items  []CartItemResponse `json:"items"`
}

type OrderItemResponse struct {
	ID         uint             `json:"id"`
	OrderID    uint             `json:"order_id"`
	MenuItem   MenuItemResponse `json:"menuitem"`
	MenuItemID uint             `json:"menuitem_id"`
	Quantity   int              `json:"quantity"`
	UnitPrice  string           `json:"unit_price"`
	Price      string           `json:"price"`
}

type OrderResponse struct {
	ID             uint                `json:"id"`
	UserID         uint                `json:"user_id"`
	DeliveryCrewID *uint               `json:"delivery_crew_id"`
	Status         model.OrderStatus   `json:"status"`
	Total          string              `json:"total"`
	DateCreated    time.Time           `json:"date_created"`
	Items          []OrderItemResponse `json:"items"`
}

func presentUser(u *model.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		IsActive:   u.IsActive,
		IsStaff:    u.IsStaff,
		Groups:     u.GroupNames(),
		LastLogin:  u.LastLogin,
		DateJoined: u.CreatedAt,
	}
}

func presentUsers(users []model.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, presentUser(&users[i]))
	}
	return out
}

func presentCategory(c *model.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Title: c.Title, Slug: c.Slug}
}

func presentCategories(categories []model.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, presentCategory(&categories[i]))
	}
	return out
}

func presentMenuItem(m *model.MenuItem) MenuItemResponse {
	return MenuItemResponse{
		ID:            m.ID,
		Title:         m.Title,
		Price:         m.Price.StringFixed(2),
		PriceAfterTax: m.PriceAfterTax().StringFixed(2),
		Featured:      m.Featured,
		ImageURL:      m.ImageURL,
		Category:      presentCategory(&m.Category),
		CategoryID:    m.CategoryID,
	}
}

func presentMenuItems(items []model.MenuItem) []MenuItemResponse {
	out := make([]MenuItemResponse, 0, len(items))
	for i := range items {
		out = append(out, presentMenuItem(&items[i]))
	}
	return out
}

func presentCartItem(it *model.CartItem) CartItemResponse {
	return CartItemResponse{
		ID:         it.ID,
		MenuItem:   presentMenuItem(&it.MenuItem),
		MenuItemID: it.MenuItemID,
		Quantity:   it.Quantity,
		UnitPrice:  it.UnitPrice.StringFixed(2),
		Price:      it.Price.StringFixed(2),
	}
}

func presentCartItems(items []model.CartItem) []CartItemResponse {
	out := make([]CartItemResponse, 0, len(items))
	for i := range items {
		out = append(out, presentCartItem(&items[i]))
	}
	return out
}

func presentCart(c *model.Cart) CartResponse {
	return CartResponse{
		ID:     c.ID,
		UserID: c.UserID,
		Total:  c.Total,
		Items:  presentCartItems(c.Items),
	}
}

func presentOrderItem(it *model.OrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:         it.ID,
		OrderID:    it.OrderID,
		MenuItem:   presentMenuItem(&it.MenuItem),
		MenuItemID: it.MenuItemID,
		Quantity:   it.Quantity,
		UnitPrice:  it.UnitPrice.StringFixed(2),
		Price:      it.Price.StringFixed(2),
	}
}

func presentOrderItems(items []model.OrderItem) []OrderItemResponse {
	out := make([]OrderItemResponse, 0, len(items))
	for i := range items {
		out = append(out, presentOrderItem(&items[i]))
	}
	return out
}

func presentOrder(o *model.Order) OrderResponse {
	return OrderResponse{
		ID:             o.ID,
		UserID:         o.UserID,
		DeliveryCrewID: o.DeliveryCrewID,
		Status:         o.Status,
		Total:          o.Total.StringFixed(2),
		DateCreated:    o.CreatedAt,
		Items:          presentOrderItems(o.Items),
	}
}

func presentOrders(orders []model.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, presentOrder(&orders[i]))
	}
	return out
}
