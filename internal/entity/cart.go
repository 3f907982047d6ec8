package entity

type CartItem struct {
	Name      string  `json:"name"`
	Size      string  `json:"size,omitempty"`
	UnitPrice float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type CartTotals struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"delivery_fee"`
	Total       float64 `json:"total"`
}

// MergeItem adds an item to the cart. A line already holding the same
// (name, size) pair has its quantity incremented instead of a duplicate
// line being appended.
func MergeItem(items []CartItem, item CartItem) []CartItem {
	for i := range items {
		if items[i].Name == item.Name && items[i].Size == item.Size {
			items[i].Quantity += item.Quantity
			return items
		}
	}
	return append(items, item)
}

// AdjustQuantity changes the quantity of the line at index by delta. A
// resulting quantity of zero or less removes the line.
func AdjustQuantity(items []CartItem, index, delta int) ([]CartItem, bool) {
	if index < 0 || index >= len(items) {
		return items, false
	}
	items[index].Quantity += delta
	if items[index].Quantity <= 0 {
		return RemoveAt(items, index), true
	}
	return items, true
}

// RemoveAt drops the line at index.
func RemoveAt(items []CartItem, index int) []CartItem {
	if index < 0 || index >= len(items) {
		return items
	}
	return append(items[:index], items[index+1:]...)
}

// ItemCount sums the quantities of all cart lines.
func ItemCount(items []CartItem) int {
	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	return count
}

// ComputeTotals derives the billing figures from the cart. The subtotal is
// always recomputed from the lines, never stored; the delivery fee applies
// only to delivery orders.
func ComputeTotals(items []CartItem, orderType OrderType) CartTotals {
	totals := CartTotals{}
	for _, it := range items {
		totals.Subtotal += it.UnitPrice * float64(it.Quantity)
	}
	if orderType == OrderTypeDelivery {
		totals.DeliveryFee = DeliveryFee
	}
	totals.Total = totals.Subtotal + totals.DeliveryFee
	return totals
}
