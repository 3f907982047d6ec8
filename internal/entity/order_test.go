package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, StatusOrderPlaced, InitialStatus(OrderTypeDelivery))
	assert.Equal(t, StatusOrderPlaced, InitialStatus(OrderTypePickup))
	assert.Equal(t, StatusInProgress, InitialStatus(OrderTypeDineIn))
}

func TestCompletionStatus(t *testing.T) {
	assert.Equal(t, StatusDelivered, CompletionStatus(OrderTypeDelivery))
	assert.Equal(t, StatusPickedUp, CompletionStatus(OrderTypePickup))
	assert.Equal(t, StatusDelivered, CompletionStatus(OrderTypeDineIn))
}

func TestCanTransition_ForwardAndLateral(t *testing.T) {
	assert.True(t, CanTransition(OrderTypeDelivery, StatusOrderPlaced, StatusPreparing))
	assert.True(t, CanTransition(OrderTypeDelivery, StatusPreparing, StatusOutForDelivery))
	assert.True(t, CanTransition(OrderTypeDelivery, StatusOutForDelivery, StatusDelivered))

	// Admins may also jump ahead or move back within the type's own flow.
	assert.True(t, CanTransition(OrderTypeDelivery, StatusOrderPlaced, StatusDelivered))
	assert.True(t, CanTransition(OrderTypeDelivery, StatusOutForDelivery, StatusPreparing))
}

func TestCanTransition_TerminalStatesAreFrozen(t *testing.T) {
	for _, from := range []Status{StatusDelivered, StatusPickedUp, StatusCancelled} {
		assert.False(t, CanTransition(OrderTypeDelivery, from, StatusPreparing), "from %s", from)
		assert.False(t, CanTransition(OrderTypeDelivery, from, StatusCancelled), "from %s", from)
	}
}

func TestCanTransition_CancelFromAnyLiveState(t *testing.T) {
	assert.True(t, CanTransition(OrderTypeDelivery, StatusOrderPlaced, StatusCancelled))
	assert.True(t, CanTransition(OrderTypeDelivery, StatusOutForDelivery, StatusCancelled))
	assert.True(t, CanTransition(OrderTypePickup, StatusReadyForPickup, StatusCancelled))
	assert.True(t, CanTransition(OrderTypeDineIn, StatusInProgress, StatusCancelled))
}

func TestCanTransition_ForeignVocabularyRejected(t *testing.T) {
	// Pickup orders never go out for delivery and vice versa.
	assert.False(t, CanTransition(OrderTypePickup, StatusPreparing, StatusOutForDelivery))
	assert.False(t, CanTransition(OrderTypeDelivery, StatusPreparing, StatusReadyForPickup))
	assert.False(t, CanTransition(OrderTypeDineIn, StatusInProgress, StatusPreparing))
}

func TestStepActive_PrefixRule(t *testing.T) {
	current := StatusOutForDelivery

	assert.True(t, StepActive(OrderTypeDelivery, StatusOrderPlaced, current))
	assert.True(t, StepActive(OrderTypeDelivery, StatusPreparing, current))
	assert.True(t, StepActive(OrderTypeDelivery, StatusOutForDelivery, current))
	assert.False(t, StepActive(OrderTypeDelivery, StatusDelivered, current))
}

func TestStepActive_UnknownStatus(t *testing.T) {
	assert.False(t, StepActive(OrderTypeDelivery, StatusReadyForPickup, StatusPreparing))
	assert.False(t, StepActive(OrderTypeDelivery, StatusPreparing, StatusCancelled))
}

func TestFormatStatus(t *testing.T) {
	assert.Equal(t, "Order Placed", FormatStatus(StatusOrderPlaced, OrderTypeDelivery))
	assert.Equal(t, "Out for Delivery", FormatStatus(StatusOutForDelivery, OrderTypeDelivery))
	assert.Equal(t, "Ready for Pickup", FormatStatus(StatusReadyForPickup, OrderTypePickup))
	assert.Equal(t, "Delivered", FormatStatus(StatusDelivered, OrderTypeDelivery))

	// Dine-in collapses to a two-state display.
	assert.Equal(t, "Complete", FormatStatus(StatusDelivered, OrderTypeDineIn))
	assert.Equal(t, "In Progress", FormatStatus(StatusInProgress, OrderTypeDineIn))
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	orders := []Order{
		{ID: 1, CreatedAt: base},
		{ID: 2, CreatedAt: base.Add(2 * time.Hour)},
		{ID: 3, CreatedAt: base.Add(time.Hour)},
		{ID: 4, CreatedAt: base.Add(2 * time.Hour)},
	}

	SortNewestFirst(orders)

	assert.Equal(t, 2, orders[0].ID)
	// Equal timestamps keep insertion order.
	assert.Equal(t, 4, orders[1].ID)
	assert.Equal(t, 3, orders[2].ID)
	assert.Equal(t, 1, orders[3].ID)
}

func TestActiveOrders(t *testing.T) {
	orders := []Order{
		{ID: 1, Status: StatusOrderPlaced},
		{ID: 2, Status: StatusDelivered},
		{ID: 3, Status: StatusPreparing},
		{ID: 4, Status: StatusCancelled},
		{ID: 5, Status: StatusPickedUp},
	}

	active := ActiveOrders(orders)

	assert.Len(t, active, 2)
	assert.Equal(t, 1, active[0].ID)
	assert.Equal(t, 3, active[1].ID)
}

func TestOrderItemCount(t *testing.T) {
	o := Order{Items: []OrderItem{{Quantity: 2}, {Quantity: 1}, {Quantity: 3}}}
	assert.Equal(t, 6, o.ItemCount())
}
