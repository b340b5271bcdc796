package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/ikkim/littlelemon-backend/internal/app/service"
	apperrors "github.com/ikkim/littlelemon-backend/internal/errors"
	"github.com/ikkim/littlelemon-backend/internal/permission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mountCart(e *testEnv, p *permission.Principal) {
	ctrl := NewCartController(service.NewCartService(e.carts, e.menuItems))
	for _, prefix := range []string{"/api/cart", "/api/users/:id/cart"} {
		g := e.router.Group(prefix, as(p))
		g.GET("", ctrl.GetCart)
		g.DELETE("", ctrl.ClearCart)
		g.GET("/menu-items", ctrl.ListItems)
		g.POST("/menu-items", ctrl.AddItem)
		g.GET("/menu-items/:itemId", ctrl.GetItem)
		g.PUT("/menu-items/:itemId", ctrl.UpdateItem)
		g.DELETE("/menu-items/:itemId", ctrl.RemoveItem)
	}
}

func TestCartController_TotalCountsQuantities(t *testing.T) {
	env := newTestEnv(t)
	_, customer := env.user(t, "customer", "Customer")
	mains := env.category(t, "Mains")
	chicken := env.menuItem(t, mains, "Lemon Chicken", "12.50", false)
	salad := env.menuItem(t, mains, "Greek Salad", "9.00", false)
	mountCart(env, customer)

	w := env.do(t, http.MethodPost, "/api/cart/menu-items", map[string]interface{}{"menuitem_id": chicken.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	added := decode(t, w)
	assert.Equal(t, "12.50", added["unit_price"])
	assert.Equal(t, "25.00", added["price"])

	w = env.do(t, http.MethodPost, "/api/cart/menu-items", map[string]interface{}{"menuitem_id": salad.ID, "quantity": 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cart := decode(t, w)
	assert.EqualValues(t, 5, cart["total"])
	assert.Len(t, cart["items"], 2)
}

func TestCartController_AddValidation(t *testing.T) {
	env := newTestEnv(t)
	_, customer := env.user(t, "customer", "Customer")
	item := env.menuItem(t, env.category(t, "Mains"), "Soup", "4.00", false)
	mountCart(env, customer)

	w := env.do(t, http.MethodPost, "/api/cart/menu-items", map[string]interface{}{"menuitem_id": item.ID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/cart/menu-items", map[string]interface{}{"menuitem_id": item.ID, "quantity": 40000})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/cart/menu-items", map[string]interface{}{"menuitem_id": 999, "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/cart/menu-items", map[string]interface{}{"menuitem_id": item.ID, "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(t, http.MethodPost, "/api/cart/menu-items", map[string]interface{}{"menuitem_id": item.ID, "quantity": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCartController_UpdateAndRemove(t *testing.T) {
	env := newTestEnv(t)
	_, customer := env.user(t, "customer", "Customer")
	item := env.menuItem(t, env.category(t, "Mains"), "Soup", "4.00", false)
	mountCart(env, customer)

	w := env.do(t, http.MethodPost, "/api/cart/menu-items", map[string]interface{}{"menuitem_id": item.ID, "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	cartItemID := uint(decode(t, w)["id"].(float64))
	path := fmt.Sprintf("/api/cart/menu-items/%d", cartItemID)

	w = env.do(t, http.MethodPut, path, map[string]interface{}{"quantity": 4})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	updated := decode(t, w)
	assert.EqualValues(t, 4, updated["quantity"])
	assert.Equal(t, "16.00", updated["price"])

	w = env.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// the running total keeps every quantity written, removals included
	w = env.do(t, http.MethodGet, "/api/cart", nil)
	cart := decode(t, w)
	assert.EqualValues(t, 5, cart["total"])
	assert.Empty(t, cart["items"])
}

func TestCartController_OtherUsersCartIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.user(t, "owner", "Customer")
	_, intruder := env.user(t, "intruder", "Customer")
	mountCart(env, intruder)

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/cart", owner.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperrors.AuthzOwnerOnly, errorCode(t, w))
}

func TestCartController_ManagerHasNoCart(t *testing.T) {
	env := newTestEnv(t)
	_, manager := env.user(t, "manager", "Manager")
	mountCart(env, manager)

	w := env.do(t, http.MethodGet, "/api/cart", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperrors.AuthzCustomerOnly, errorCode(t, w))
}

func TestCartController_AnonymousIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	mountCart(env, nil)

	w := env.do(t, http.MethodGet, "/api/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartController_Clear(t *testing.T) {
	env := newTestEnv(t)
	_, customer := env.user(t, "customer", "Customer")
	item := env.menuItem(t, env.category(t, "Mains"), "Soup", "4.00", false)
	mountCart(env, customer)

	w := env.do(t, http.MethodPost, "/api/cart/menu-items", map[string]interface{}{"menuitem_id": item.ID, "quantity": 3})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodDelete, "/api/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cart := decode(t, w)
	assert.EqualValues(t, 0, cart["total"])
	assert.Empty(t, cart["items"])
}
