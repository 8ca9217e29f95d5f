package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusConfirmed, OrderStatusPreparing, true},
		{OrderStatusConfirmed, OrderStatusOutForDelivery, true},
		{OrderStatusOnTheWay, OrderStatusDelivered, true},
		{OrderStatusPreparing, OrderStatusConfirmed, false},
		{OrderStatusConfirmed, OrderStatusConfirmed, false},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusOutForDelivery, OrderStatusCancelled, true},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusConfirmed, false},
		{OrderStatusPending, "teleported", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestSnapshotItems_AndSum(t *testing.T) {
	menu := []MenuItem{
		{ItemID: "i1", Name: "Dal", Price: decimal.RequireFromString("2.50")},
		{ItemID: "i2", Name: "Rice", Price: decimal.RequireFromString("3.00")},
		{ItemID: "i3", Name: "Roti", Price: decimal.RequireFromString("3.50")},
	}

	items := SnapshotItems(menu)

	assert.Len(t, items, 3)
	for _, it := range items {
		assert.Equal(t, 1, it.Quantity)
	}
	assert.True(t, SumItems(items).Equal(decimal.NewFromInt(9)))

	// snapshot is detached from the menu
	menu[0].Price = decimal.NewFromInt(100)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("2.50")))
}

func TestOrderItem_LineTotal(t *testing.T) {
	it := OrderItem{Price: decimal.RequireFromString("1.25"), Quantity: 4}
	assert.True(t, it.LineTotal().Equal(decimal.NewFromInt(5)))
}

func TestOrderStatus_CancellableByCustomer(t *testing.T) {
	assert.True(t, OrderStatusPending.CancellableByCustomer())
	assert.True(t, OrderStatusConfirmed.CancellableByCustomer())
	assert.False(t, OrderStatusPreparing.CancellableByCustomer())
	assert.False(t, OrderStatusDelivered.CancellableByCustomer())
	assert.False(t, OrderStatusCancelled.CancellableByCustomer())
}
