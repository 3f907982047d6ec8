package entity

import (
	"fmt"
	"sort"
	"time"
)

type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine-in"
	OrderTypePickup   OrderType = "pickup"
	OrderTypeDelivery OrderType = "delivery"
)

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentGCash PaymentMethod = "gcash"
	PaymentBank  PaymentMethod = "bank"
)

type Status string

const (
	StatusOrderPlaced    Status = "order_placed"
	StatusPreparing      Status = "preparing"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusReadyForPickup Status = "ready_for_pickup"
	StatusPickedUp       Status = "picked_up"
	StatusInProgress     Status = "in_progress"
	StatusCancelled      Status = "cancelled"
)

// DeliveryFee is the flat surcharge applied to delivery orders.
const DeliveryFee = 50.0

type Order struct {
	ID            int           `json:"order_id"`
	OrderNumber   string        `json:"order_number"`
	CustomerName  string        `json:"customer_name"`
	OrderType     OrderType     `json:"order_type"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Status        Status        `json:"status"`
	Items         []OrderItem   `json:"items"`
	TotalAmount   float64       `json:"total_amount"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type OrderItem struct {
	Name      string  `json:"name"`
	Size      string  `json:"size,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"price"`
	LineTotal float64 `json:"total"`
}

func ValidOrderType(t OrderType) bool {
	switch t {
	case OrderTypeDineIn, OrderTypePickup, OrderTypeDelivery:
		return true
	}
	return false
}

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCash, PaymentGCash, PaymentBank:
		return true
	}
	return false
}

// StatusFlow returns the ordered lifecycle steps for an order type, terminal
// state last. Cancellation is not a step; it is reachable from any
// non-terminal state.
func StatusFlow(t OrderType) []Status {
	switch t {
	case OrderTypeDelivery:
		return []Status{StatusOrderPlaced, StatusPreparing, StatusOutForDelivery, StatusDelivered}
	case OrderTypePickup:
		return []Status{StatusOrderPlaced, StatusPreparing, StatusReadyForPickup, StatusPickedUp}
	case OrderTypeDineIn:
		return []Status{StatusInProgress, StatusDelivered}
	}
	return nil
}

// InitialStatus is the status assigned to a freshly placed order.
func InitialStatus(t OrderType) Status {
	return StatusFlow(t)[0]
}

// CompletionStatus is the terminal success state for the order type, used by
// the one-click complete action.
func CompletionStatus(t OrderType) Status {
	flow := StatusFlow(t)
	return flow[len(flow)-1]
}

func IsTerminal(s Status) bool {
	return s == StatusDelivered || s == StatusPickedUp || s == StatusCancelled
}

// CanTransition reports whether an order of the given type may move from one
// status to another. Terminal states are frozen. Any state in the type's own
// vocabulary is reachable while the order is live (admins may move forward or
// laterally), and cancelled is always reachable from a live order.
func CanTransition(t OrderType, from, to Status) bool {
	if IsTerminal(from) {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	for _, s := range StatusFlow(t) {
		if s == to {
			return true
		}
	}
	return false
}

// StepActive implements the progress-step prefix rule: a step is highlighted
// when its index in the flow is at or before the current status index.
func StepActive(t OrderType, step, current Status) bool {
	flow := StatusFlow(t)
	stepIdx, curIdx := -1, -1
	for i, s := range flow {
		if s == step {
			stepIdx = i
		}
		if s == current {
			curIdx = i
		}
	}
	return stepIdx >= 0 && curIdx >= 0 && stepIdx <= curIdx
}

// FormatStatus renders a status as its customer-facing label. Dine-in orders
// collapse to a two-state display, so delivered reads as Complete there.
func FormatStatus(s Status, t OrderType) string {
	if t == OrderTypeDineIn && s == StatusDelivered {
		return "Complete"
	}
	switch s {
	case StatusOrderPlaced:
		return "Order Placed"
	case StatusPreparing:
		return "Preparing Order"
	case StatusOutForDelivery:
		return "Out for Delivery"
	case StatusDelivered:
		return "Delivered"
	case StatusReadyForPickup:
		return "Ready for Pickup"
	case StatusPickedUp:
		return "Picked Up"
	case StatusInProgress:
		return "In Progress"
	case StatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

// SortNewestFirst orders by creation time descending. The sort is stable so
// orders created in the same instant keep their insertion order.
func SortNewestFirst(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

// ActiveOrders filters out orders that reached a terminal state.
func ActiveOrders(orders []Order) []Order {
	active := make([]Order, 0, len(orders))
	for _, o := range orders {
		if !IsTerminal(o.Status) {
			active = append(active, o)
		}
	}
	return active
}

func (o *Order) ItemCount() int {
	count := 0
	for _, it := range o.Items {
		count += it.Quantity
	}
	return count
}

func (o *Order) String() string {
	return fmt.Sprintf("#%d %s (%s, %s)", o.ID, o.CustomerName, o.OrderType, o.Status)
}

/*
MySQL tables

CREATE TABLE orders (
	id INT AUTO_INCREMENT PRIMARY KEY,
	order_number VARCHAR(32) NOT NULL UNIQUE,
	customer_name VARCHAR(255) NOT NULL,
	order_type VARCHAR(20) NOT NULL,
	payment_method VARCHAR(20) NOT NULL,
	status VARCHAR(32) NOT NULL,
	total_amount DOUBLE NOT NULL,
	idempotent_key VARCHAR(255) UNIQUE,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE order_items (
	id INT AUTO_INCREMENT PRIMARY KEY,
	order_id INT NOT NULL REFERENCES orders(id),
	name VARCHAR(255) NOT NULL,
	size VARCHAR(10) NOT NULL DEFAULT '',
	quantity INT NOT NULL,
	unit_price DOUBLE NOT NULL,
	line_total DOUBLE NOT NULL
);
*/
