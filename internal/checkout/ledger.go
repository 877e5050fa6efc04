package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/utafrali/designstudio/internal/domain"
	"github.com/utafrali/designstudio/internal/storage"
	apperrors "github.com/utafrali/designstudio/pkg/errors"
)

// Local ledger keys.
const (
	KeyLocalOrders  = "localOrders"
	KeyLastOrderID  = "lastOrderId"
	KeyCurrentOrder = "currentOrder"
)

// recordLocal appends the order to the local order list and marks it as
// the current order for the payment page. Every write is attempted.
func recordLocal(ctx context.Context, kv storage.KV, order *domain.Order) error {
	orders, err := LocalOrders(ctx, kv)
	if err != nil && !apperrors.IsNotFound(err) {
		// An unreadable list is replaced rather than blocking the record.
		orders = nil
	}

	local := *order
	local.IsLocal = true
	orders = append(orders, local)

	var errs []error
	if raw, err := json.Marshal(orders); err != nil {
		errs = append(errs, fmt.Errorf("marshal local orders: %w", err))
	} else if err := kv.Set(ctx, KeyLocalOrders, string(raw)); err != nil {
		errs = append(errs, err)
	}

	if err := kv.Set(ctx, KeyLastOrderID, order.OrderID); err != nil {
		errs = append(errs, err)
	}

	if raw, err := json.Marshal(order); err != nil {
		errs = append(errs, fmt.Errorf("marshal current order: %w", err))
	} else if err := kv.Set(ctx, KeyCurrentOrder, string(raw)); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// LocalOrders returns the locally recorded orders.
func LocalOrders(ctx context.Context, kv storage.KV) ([]domain.Order, error) {
	raw, err := kv.Get(ctx, KeyLocalOrders)
	if err != nil {
		return nil, err
	}
	var orders []domain.Order
	if err := json.Unmarshal([]byte(raw), &orders); err != nil {
		return nil, fmt.Errorf("unmarshal local orders: %w", err)
	}
	return orders, nil
}

// CurrentOrder returns the order most recently placed from this ledger.
func CurrentOrder(ctx context.Context, kv storage.KV) (*domain.Order, error) {
	raw, err := kv.Get(ctx, KeyCurrentOrder)
	if err != nil {
		return nil, err
	}
	var order domain.Order
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		return nil, fmt.Errorf("unmarshal current order: %w", err)
	}
	return &order, nil
}
