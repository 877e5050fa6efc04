package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/utafrali/designstudio/internal/domain"
)

// ChangeKind names what happened to a cart.
type ChangeKind string

const (
	ChangeUpdated  ChangeKind = "updated"
	ChangeCleared  ChangeKind = "cleared"
	ChangeMigrated ChangeKind = "migrated"
	// ChangePersistFailed reports a write that did not reach storage. The
	// in-memory cart is still authoritative.
	ChangePersistFailed ChangeKind = "persist_failed"
)

// Change is delivered to observers after every mutation.
type Change struct {
	Kind      ChangeKind
	Scope     domain.Scope
	Items     []domain.LineItem
	Subtotal  decimal.Decimal
	ItemCount int
	Err       error
}

// Observer is notified of cart changes. Implementations must not block.
type Observer interface {
	CartChanged(ctx context.Context, change Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, change Change)

func (f ObserverFunc) CartChanged(ctx context.Context, change Change) { f(ctx, change) }

// TotalPolicy derives the payable total from the subtotal. It is the
// extension point for tax and discounts.
type TotalPolicy interface {
	Total(subtotal decimal.Decimal, items []domain.LineItem) decimal.Decimal
}

// TotalPolicyFunc adapts a function to TotalPolicy.
type TotalPolicyFunc func(subtotal decimal.Decimal, items []domain.LineItem) decimal.Decimal

func (f TotalPolicyFunc) Total(subtotal decimal.Decimal, items []domain.LineItem) decimal.Decimal {
	return f(subtotal, items)
}

// SubtotalPolicy charges exactly the subtotal.
var SubtotalPolicy TotalPolicy = TotalPolicyFunc(func(subtotal decimal.Decimal, _ []domain.LineItem) decimal.Decimal {
	return subtotal
})
