package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order status values written on creation.
const (
	PaymentPending = "Pending"
	DesignWaiting  = "Waiting"
)

// DesignInstructions is what the customer asks the studio to produce.
type DesignInstructions struct {
	Description     string `json:"description" firestore:"description" validate:"notblank,max=5000"`
	PreferredColors string `json:"preferred_colors,omitempty" firestore:"preferredColors" validate:"max=500"`
	SketchImageURL  string `json:"sketch_image_url,omitempty" firestore:"sketchImageUrl" validate:"omitempty,url"`
}

// Totals are the computed cart amounts at order time.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
}

// Order bundles a cart snapshot with design instructions and the identity key.
type Order struct {
	OrderID       string             `json:"order_id"`
	Items         []LineItem         `json:"items"`
	Instructions  DesignInstructions `json:"design_instructions"`
	Totals        Totals             `json:"totals"`
	ClientKey     string             `json:"client_key"`
	UserID        string             `json:"user_id"`
	UserEmail     string             `json:"user_email,omitempty"`
	PaymentStatus string             `json:"payment_status"`
	DesignStatus  string             `json:"design_status"`
	Progress      int                `json:"progress"`
	AdminNotes    string             `json:"admin_notes"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Synced        bool               `json:"synced"`
	IsLocal       bool               `json:"is_local,omitempty"`
}

// NewOrderID returns "ORD-" followed by the last eight digits of the
// unix-millisecond timestamp.
func NewOrderID(now time.Time) string {
	return fmt.Sprintf("ORD-%08d", now.UnixMilli()%100_000_000)
}
