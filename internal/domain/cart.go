package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one priced, quantified entry in a cart, keyed by service and tier.
type LineItem struct {
	ID           string          `json:"id"`
	ServiceID    string          `json:"service_id"`
	TierName     string          `json:"tier_name"`
	ServiceTitle string          `json:"service_title"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	Details      Details         `json:"details"`
	AddedAt      time.Time       `json:"added_at"`
}

// LineTotal returns UnitPrice * Quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Addon is an optional extra selected alongside a tier.
type Addon struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Details carries the known optional attributes of a line item.
type Details struct {
	Pages  string  `json:"pages,omitempty"`
	Addons []Addon `json:"addons,omitempty"`
}

// AddonsTotal sums the add-on prices.
func (d Details) AddonsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, a := range d.Addons {
		total = total.Add(a.Price)
	}
	return total
}

// Normalized returns a copy with negative add-on prices clamped to zero.
func (d Details) Normalized() Details {
	out := Details{Pages: d.Pages}
	if len(d.Addons) > 0 {
		out.Addons = make([]Addon, len(d.Addons))
		for i, a := range d.Addons {
			out.Addons[i] = Addon{Name: a.Name, Price: NonNegative(a.Price)}
		}
	}
	return out
}

// Cart is an ordered sequence of line items for a single scope.
type Cart struct {
	Items []LineItem `json:"items"`
}

// Subtotal returns the sum of unit price times quantity over all items.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ItemCount returns the total number of units in the cart.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItemIndex returns the index of the item matching the service and tier, or -1.
func (c *Cart) FindItemIndex(serviceID, tierName string) int {
	for i := range c.Items {
		if c.Items[i].ServiceID == serviceID && c.Items[i].TierName == tierName {
			return i
		}
	}
	return -1
}

// IndexOf returns the index of the item with the given id, or -1.
func (c *Cart) IndexOf(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// Snapshot returns a deep copy of the items that callers may keep.
func (c *Cart) Snapshot() []LineItem {
	out := make([]LineItem, len(c.Items))
	for i, item := range c.Items {
		out[i] = item
		if item.Details.Addons != nil {
			out[i].Details.Addons = append([]Addon(nil), item.Details.Addons...)
		}
	}
	return out
}
