// Package cart owns the line items of the active scope and keeps them
// persisted in key-value storage.
package cart

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/designstudio/internal/domain"
	"github.com/utafrali/designstudio/internal/storage"
	apperrors "github.com/utafrali/designstudio/pkg/errors"
	"github.com/utafrali/designstudio/pkg/tracing"
)

var storageFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cart_storage_failures_total",
		Help: "Total number of cart storage operations that failed and were recovered",
	},
	[]string{"op"},
)

// Resolver reports the signed-in identity, or nil for an anonymous session.
type Resolver interface {
	CurrentIdentity(ctx context.Context) *domain.Identity
}

// AddItemInput holds the parameters for adding an item to the cart.
type AddItemInput struct {
	ServiceID string
	TierName  string
	Title     string
	// Price is a number or a display string such as "R150".
	Price    any
	Quantity int
	Details  domain.Details
}

// Options configures a Store.
type Options struct {
	KV          storage.KV
	Resolver    Resolver
	Keys        Keys
	Logger      *slog.Logger
	Clock       func() time.Time
	IDs         IDGenerator
	Observers   []Observer
	TotalPolicy TotalPolicy
}

// Store holds the cart for one scope. It is not safe for concurrent use;
// create one per session or request.
type Store struct {
	kv        storage.KV
	keys      Keys
	logger    *slog.Logger
	now       func() time.Time
	ids       IDGenerator
	observers []Observer
	totals    TotalPolicy
	tracer    trace.Tracer

	scope    domain.Scope
	identity *domain.Identity
	cart     domain.Cart

	// guestConsumed is set once the guest cart has been copied into an
	// identity slot, whether or not the guest slot could be removed.
	guestConsumed bool
}

// NewStore resolves the active identity and loads the matching cart. A
// signed-in identity without a cart of its own adopts the guest cart.
func NewStore(ctx context.Context, opts Options) *Store {
	s := &Store{
		kv:        opts.KV,
		keys:      opts.Keys.withDefaults(),
		logger:    opts.Logger,
		now:       opts.Clock,
		ids:       opts.IDs,
		observers: opts.Observers,
		totals:    opts.TotalPolicy,
		tracer:    tracing.Tracer("cart"),
		scope:     domain.GuestScope(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.ids == nil {
		s.ids = defaultIDs
	}
	if s.totals == nil {
		s.totals = SubtotalPolicy
	}

	ctx, span := s.tracer.Start(ctx, "cart.NewStore")
	defer span.End()

	if opts.Resolver != nil {
		s.identity = opts.Resolver.CurrentIdentity(ctx)
	}
	if s.identity == nil || s.identity.Key == "" {
		s.identity = nil
		s.cart.Items, _ = s.load(ctx, s.keys.Guest)
		span.SetAttributes(attribute.String("cart.scope", s.scope.String()))
		return s
	}

	s.scope = domain.IdentityScope(s.identity.Key)
	span.SetAttributes(attribute.String("cart.scope", s.scope.String()))

	items, err := s.load(ctx, s.keys.For(s.scope))
	switch {
	case err == nil:
		s.cart.Items = items
	case apperrors.IsNotFound(err):
		s.adoptGuestCart(ctx)
	}
	return s
}

// load reads and decodes the cart at key. Any failure yields an empty cart;
// the error is returned only so callers can tell a missing slot from a
// broken one.
func (s *Store) load(ctx context.Context, key string) ([]domain.LineItem, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.recordFailure(ctx, "get", key, err)
		}
		return nil, err
	}
	items, err := decodeItems(raw)
	if err != nil {
		s.recordFailure(ctx, "decode", key, err)
		return nil, err
	}
	return items, nil
}

// adoptGuestCart moves the persisted guest cart into the current identity
// slot. It reports whether a non-empty guest cart existed.
func (s *Store) adoptGuestCart(ctx context.Context) bool {
	items, err := s.load(ctx, s.keys.Guest)
	if err != nil {
		return false
	}
	return s.moveGuestItems(ctx, items)
}

// moveGuestItems writes items to the identity slot. An empty guest cart is
// not migrated: its slot is dropped and the identity slot is left alone.
func (s *Store) moveGuestItems(ctx context.Context, items []domain.LineItem) bool {
	if len(items) == 0 {
		s.dropGuestSlot(ctx)
		return false
	}

	target := s.keys.For(s.scope)
	s.cart.Items = items

	// The guest slot is only dropped once the identity slot holds the copy.
	if !s.persist(ctx) {
		return true
	}
	s.guestConsumed = true
	s.dropGuestSlot(ctx)

	s.logger.InfoContext(ctx, "guest cart migrated",
		slog.String("key", target),
		slog.Int("item_count", len(items)),
	)
	s.publish(ctx, ChangeMigrated, nil)
	return true
}

// dropGuestSlot deletes the guest cart. If the delete fails the slot is
// overwritten with an empty cart, which is never migrated.
func (s *Store) dropGuestSlot(ctx context.Context) {
	err := s.kv.Delete(ctx, s.keys.Guest)
	if err == nil {
		return
	}
	s.recordFailure(ctx, "delete", s.keys.Guest, err)

	raw, _ := encodeItems(nil)
	if err := s.kv.Set(ctx, s.keys.Guest, raw); err != nil {
		s.recordFailure(ctx, "set", s.keys.Guest, err)
	}
}

// AddItem merges the item into the cart by service and tier, or appends it
// with a fresh id. Quantities below one count as one.
func (s *Store) AddItem(ctx context.Context, in AddItemInput) []domain.LineItem {
	quantity := in.Quantity
	if quantity < 1 {
		quantity = 1
	}

	if i := s.cart.FindItemIndex(in.ServiceID, in.TierName); i >= 0 {
		s.cart.Items[i].Quantity += quantity
	} else {
		now := s.now().UTC()
		s.cart.Items = append(s.cart.Items, domain.LineItem{
			ID:           s.ids.NewID(now),
			ServiceID:    in.ServiceID,
			TierName:     in.TierName,
			ServiceTitle: in.Title,
			UnitPrice:    domain.ParsePrice(in.Price),
			Quantity:     quantity,
			Details:      in.Details.Normalized(),
			AddedAt:      now,
		})
	}

	s.persist(ctx)
	s.publish(ctx, ChangeUpdated, nil)

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("scope", s.scope.String()),
		slog.String("service_id", in.ServiceID),
		slog.String("tier_name", in.TierName),
		slog.Int("quantity", quantity),
	)

	return s.Items()
}

// RemoveItem deletes the item with the given id. Unknown ids are ignored.
func (s *Store) RemoveItem(ctx context.Context, itemID string) []domain.LineItem {
	i := s.cart.IndexOf(itemID)
	if i < 0 {
		return s.Items()
	}
	s.cart.Items = append(s.cart.Items[:i], s.cart.Items[i+1:]...)

	s.persist(ctx)
	s.publish(ctx, ChangeUpdated, nil)

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("scope", s.scope.String()),
		slog.String("item_id", itemID),
	)

	return s.Items()
}

// UpdateQuantity sets the item's quantity to max(1, quantity). Unknown ids
// are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, quantity int) []domain.LineItem {
	i := s.cart.IndexOf(itemID)
	if i < 0 {
		return s.Items()
	}
	s.cart.Items[i].Quantity = max(1, quantity)

	s.persist(ctx)
	s.publish(ctx, ChangeUpdated, nil)

	return s.Items()
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.cart.Items = nil
	s.persist(ctx)
	s.publish(ctx, ChangeCleared, nil)

	s.logger.InfoContext(ctx, "cart cleared", slog.String("scope", s.scope.String()))
}

// MigrateGuestCartToIdentity moves the guest cart into the identity slot
// and switches the store to that identity. It returns false, leaving scope
// and the identity cart untouched, when there is no guest cart, the guest
// cart is empty, or it was already migrated by this store.
func (s *Store) MigrateGuestCartToIdentity(ctx context.Context, identityKey string) bool {
	if identityKey == "" || s.guestConsumed {
		return false
	}
	ctx, span := s.tracer.Start(ctx, "cart.MigrateGuestCartToIdentity")
	defer span.End()

	// While still in guest scope the in-memory cart is the guest cart, even
	// if its last write never reached storage.
	var items []domain.LineItem
	if s.scope.IsGuest() && !s.cart.IsEmpty() {
		items = s.cart.Snapshot()
	} else {
		loaded, err := s.load(ctx, s.keys.Guest)
		if err != nil {
			return false
		}
		items = loaded
	}
	span.SetAttributes(attribute.Int("cart.items", len(items)))
	if len(items) == 0 {
		s.dropGuestSlot(ctx)
		return false
	}

	s.scope = domain.IdentityScope(identityKey)
	if s.identity == nil || s.identity.Key != identityKey {
		s.identity = &domain.Identity{Key: identityKey}
	}
	return s.moveGuestItems(ctx, items)
}

// ClearIdentityCart deletes the persisted cart of an identity. The in-memory
// cart is emptied only when it belongs to that identity.
func (s *Store) ClearIdentityCart(ctx context.Context, identityKey string) {
	scope := domain.IdentityScope(identityKey)
	key := s.keys.For(scope)
	if err := s.kv.Delete(ctx, key); err != nil {
		s.recordFailure(ctx, "delete", key, err)
	}

	if s.scope == scope {
		s.cart.Items = nil
		s.publish(ctx, ChangeCleared, nil)
	}

	s.logger.InfoContext(ctx, "identity cart deleted", slog.String("key", key))
}

// Items returns a copy of the current line items.
func (s *Store) Items() []domain.LineItem {
	return s.cart.Snapshot()
}

// Subtotal returns the sum of unit price times quantity.
func (s *Store) Subtotal() decimal.Decimal {
	return s.cart.Subtotal()
}

// Total returns the payable amount according to the total policy.
func (s *Store) Total() decimal.Decimal {
	return s.totals.Total(s.cart.Subtotal(), s.cart.Items)
}

// IsEmpty reports whether the cart has no items.
func (s *Store) IsEmpty() bool {
	return s.cart.IsEmpty()
}

// ItemCount returns the number of units, as shown on the cart badge.
func (s *Store) ItemCount() int {
	return s.cart.ItemCount()
}

// Scope returns the scope the store currently persists under.
func (s *Store) Scope() domain.Scope {
	return s.scope
}

// Identity returns the signed-in identity, or nil for a guest store.
func (s *Store) Identity() *domain.Identity {
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// persist writes the cart to its scope key and reports whether it succeeded.
// Failures are recorded but never returned.
func (s *Store) persist(ctx context.Context) bool {
	key := s.keys.For(s.scope)
	ctx, span := s.tracer.Start(ctx, "cart.persist", trace.WithAttributes(attribute.String("cart.key", key)))
	defer span.End()

	raw, err := encodeItems(s.cart.Items)
	if err == nil {
		err = s.kv.Set(ctx, key, raw)
	}
	if err != nil {
		tracing.RecordError(span, err)
		s.recordFailure(ctx, "set", key, err)
		s.publish(ctx, ChangePersistFailed, err)
		return false
	}
	return true
}

func (s *Store) recordFailure(ctx context.Context, op, key string, err error) {
	storageFailures.WithLabelValues(op).Inc()
	s.logger.ErrorContext(ctx, "cart storage operation failed",
		slog.String("op", op),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

func (s *Store) publish(ctx context.Context, kind ChangeKind, err error) {
	if len(s.observers) == 0 {
		return
	}
	change := Change{
		Kind:      kind,
		Scope:     s.scope,
		Items:     s.cart.Snapshot(),
		Subtotal:  s.cart.Subtotal(),
		ItemCount: s.cart.ItemCount(),
		Err:       err,
	}
	for _, o := range s.observers {
		o.CartChanged(ctx, change)
	}
}
