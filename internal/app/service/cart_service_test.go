package service

import (
	"testing"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/permission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_AddItemCopiesPrice(t *testing.T) {
	f := newFixture(t)
	svc := NewCartService(f.carts, f.menuItems)
	_, alice := f.user(t, "alice", model.GroupCustomer)
	soup := f.menuItem(t, f.category(t, "Soups"), "Tomato soup", "5.50")

	item, err := svc.AddItem(alice, alice.UserID, soup.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, "5.50", item.UnitPrice.StringFixed(2))
	assert.Equal(t, "16.50", item.Price.StringFixed(2))
	assert.Equal(t, soup.ID, item.MenuItem.ID)

	cart, err := svc.GetCart(alice, alice.UserID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Soups", cart.Items[0].MenuItem.Category.Title)
	assert.Equal(t, "16.50", cart.ItemsTotal().StringFixed(2))
}

func TestCartService_TotalCountsQuantities(t *testing.T) {
	f := newFixture(t)
	svc := NewCartService(f.carts, f.menuItems)
	_, alice := f.user(t, "alice", model.GroupCustomer)
	soups := f.category(t, "Soups")
	soup := f.menuItem(t, soups, "Tomato soup", "5.50")
	bread := f.menuItem(t, soups, "Bread", "3.00")

	item, err := svc.AddItem(alice, alice.UserID, soup.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(alice, alice.UserID, bread.ID, 1)
	require.NoError(t, err)

	cart, err := svc.GetCart(alice, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Total)

	updated, err := svc.UpdateItem(alice, alice.UserID, item.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, "22.00", updated.Price.StringFixed(2))

	cart, err = svc.GetCart(alice, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Total, "updates add the new quantity to the running total")

	require.NoError(t, svc.RemoveItem(alice, alice.UserID, item.ID))
	cart, err = svc.GetCart(alice, alice.UserID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 7, cart.Total, "removal leaves the running total alone")

	cleared, err := svc.Clear(alice, alice.UserID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Items)
	assert.Zero(t, cleared.Total)
}

func TestCartService_Validation(t *testing.T) {
	f := newFixture(t)
	svc := NewCartService(f.carts, f.menuItems)
	_, alice := f.user(t, "alice", model.GroupCustomer)
	soup := f.menuItem(t, f.category(t, "Soups"), "Tomato soup", "5.50")

	for _, q := range []int{0, -1, model.MaxQuantity + 1} {
		_, err := svc.AddItem(alice, alice.UserID, soup.ID, q)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "quantity %d", q)
	}

	_, err := svc.AddItem(alice, alice.UserID, 9999, 1)
	assert.ErrorIs(t, err, ErrUnknownMenuItem)

	_, err = svc.AddItem(alice, alice.UserID, soup.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(alice, alice.UserID, soup.ID, 1)
	assert.ErrorIs(t, err, ErrDuplicateCartItem)

	_, err = svc.GetItem(alice, alice.UserID, 9999)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
	assert.ErrorIs(t, svc.RemoveItem(alice, alice.UserID, 9999), ErrCartItemNotFound)
}

func TestCartService_OwnerCustomerOnly(t *testing.T) {
	f := newFixture(t)
	svc := NewCartService(f.carts, f.menuItems)
	_, alice := f.user(t, "alice", model.GroupCustomer)
	_, bob := f.user(t, "bob", model.GroupCustomer)
	_, manager := f.user(t, "boss", model.GroupManager)

	_, err := svc.GetCart(bob, alice.UserID)
	requireDenied(t, err, permission.MsgOwnerOnly)

	_, err = svc.GetCart(manager, manager.UserID)
	requireDenied(t, err, permission.MsgCustomerOnly)

	_, err = svc.GetCart(nil, alice.UserID)
	assert.ErrorIs(t, err, permission.ErrAuthenticationRequired)
}
