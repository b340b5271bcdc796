package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineSubtotal(t *testing.T) {
	assert.True(t, d("20.00").Equal(LineSubtotal(d("10.00"), 2)))
	assert.True(t, d("0").Equal(LineSubtotal(d("4.99"), 0)))
	assert.Equal(t, "327669672.33", LineSubtotal(d("9999.99"), 32767).StringFixed(2))
}

func TestWithTax(t *testing.T) {
	assert.Equal(t, "11.00", WithTax(d("10")).StringFixed(2))
	assert.Equal(t, "5.49", WithTax(d("4.99")).StringFixed(2))
}

func TestValidPrice(t *testing.T) {
	assert.True(t, ValidPrice(d("0")))
	assert.True(t, ValidPrice(d("9999.99")))
	assert.False(t, ValidPrice(d("10000")))
	assert.False(t, ValidPrice(d("-0.01")))
	assert.False(t, ValidPrice(d("1.005")))
}

func TestCartItemBeforeSaveComputesSubtotal(t *testing.T) {
	it := &CartItem{UnitPrice: d("10.00"), Quantity: 2, Price: d("999")}
	require.NoError(t, it.BeforeSave(nil))
	assert.Equal(t, "20.00", it.Price.StringFixed(2))
}

func TestOrderItemBeforeCreateKeepsProvidedPrice(t *testing.T) {
	provided := &OrderItem{UnitPrice: d("3.00"), Quantity: 3, Price: d("8.00")}
	require.NoError(t, provided.BeforeCreate(nil))
	assert.Equal(t, "8.00", provided.Price.StringFixed(2))

	computed := &OrderItem{UnitPrice: d("3.00"), Quantity: 3}
	require.NoError(t, computed.BeforeCreate(nil))
	assert.Equal(t, "9.00", computed.Price.StringFixed(2))
}

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusDelivered))
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusPending))
	assert.True(t, OrderStatusDelivered.CanTransitionTo(OrderStatusDelivered))
	assert.False(t, OrderStatusDelivered.CanTransitionTo(OrderStatusPending))
	assert.False(t, OrderStatus("cancelled").Valid())
}

func TestCategorySlugDerivedFromTitle(t *testing.T) {
	c := &Category{Title: " Main Course "}
	require.NoError(t, c.BeforeSave(nil))
	assert.Equal(t, "Main Course", c.Title)
	assert.Equal(t, "main-course", c.Slug)

	kept := &Category{Title: "Soups", Slug: "hot-soups"}
	require.NoError(t, kept.BeforeSave(nil))
	assert.Equal(t, "hot-soups", kept.Slug)
}

func TestUserGroups(t *testing.T) {
	u := &User{Groups: []Group{{Name: GroupManager}, {Name: GroupCustomer}}}
	assert.True(t, u.InGroup(GroupManager))
	assert.False(t, u.InGroup(GroupDeliveryCrew))
	assert.Equal(t, []string{GroupManager, GroupCustomer}, u.GroupNames())
	assert.True(t, IsKnownGroup("Delivery Crew"))
	assert.False(t, IsKnownGroup("delivery crew"))
}

func TestCartItemsTotal(t *testing.T) {
	c := &Cart{Items: []CartItem{{Price: d("20.00")}, {Price: d("4.50")}}}
	assert.Equal(t, "24.50", c.ItemsTotal().StringFixed(2))
}
