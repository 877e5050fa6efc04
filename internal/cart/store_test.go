package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/designstudio/internal/domain"
	"github.com/utafrali/designstudio/internal/storage/memory"
	apperrors "github.com/utafrali/designstudio/pkg/errors"
	"github.com/utafrali/designstudio/pkg/logger"
)

// ---------------------------------------------------------------------------
// Test doubles
// ---------------------------------------------------------------------------

type staticResolver struct{ id *domain.Identity }

func (r staticResolver) CurrentIdentity(context.Context) *domain.Identity { return r.id }

// MockKV is a mock implementation of storage.KV.
type MockKV struct {
	mock.Mock
}

func (m *MockKV) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockKV) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockKV) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type seqIDs struct{ n int }

func (g *seqIDs) NewID(time.Time) string {
	g.n++
	return "item-" + strconv.Itoa(g.n)
}

type recorder struct{ changes []Change }

func (r *recorder) CartChanged(_ context.Context, c Change) { r.changes = append(r.changes, c) }

func (r *recorder) kinds() []ChangeKind {
	out := make([]ChangeKind, len(r.changes))
	for i, c := range r.changes {
		out[i] = c.Kind
	}
	return out
}

var fixedNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, kv *memory.KV, id *domain.Identity, observers ...Observer) *Store {
	t.Helper()
	return NewStore(context.Background(), Options{
		KV:        kv,
		Resolver:  staticResolver{id: id},
		Logger:    logger.Discard(),
		Clock:     func() time.Time { return fixedNow },
		IDs:       &seqIDs{},
		Observers: observers,
	})
}

func seed(t *testing.T, kv *memory.KV, key string, items []domain.LineItem) {
	t.Helper()
	raw, err := encodeItems(items)
	require.NoError(t, err)
	require.NoError(t, kv.Set(context.Background(), key, raw))
}

func stored(t *testing.T, kv *memory.KV, key string) []domain.LineItem {
	t.Helper()
	raw, err := kv.Get(context.Background(), key)
	require.NoError(t, err)
	items, err := decodeItems(raw)
	require.NoError(t, err)
	return items
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var alice = &domain.Identity{Key: "CLA1B2C3", UID: "uid-alice", Email: "alice@example.com"}

// ---------------------------------------------------------------------------
// AddItem
// ---------------------------------------------------------------------------

func TestAddItem_SamePairTwice_MergesQuantity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewKV(), nil)

	s.AddItem(ctx, AddItemInput{ServiceID: "svc1", TierName: "basic", Title: "Logo", Price: "R150", Quantity: 1})
	items := s.AddItem(ctx, AddItemInput{ServiceID: "svc1", TierName: "basic", Title: "Logo", Price: "R150", Quantity: 1})

	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, dec("300").Equal(s.Subtotal()), "subtotal = %s", s.Subtotal())
	assert.True(t, s.Subtotal().Equal(s.Total()))
}

func TestAddItem_DistinctPairs_LengthAndQuantities(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewKV(), nil)

	adds := []struct {
		svc, tier string
		qty       int
	}{
		{"logo", "basic", 1},
		{"logo", "premium", 2},
		{"web", "basic", 3},
		{"logo", "basic", 4},
		{"web", "basic", 1},
	}
	want := map[string]int{}
	for _, a := range adds {
		s.AddItem(ctx, AddItemInput{ServiceID: a.svc, TierName: a.tier, Price: 10, Quantity: a.qty})
		want[a.svc+"/"+a.tier] += a.qty
	}

	items := s.Items()
	require.Len(t, items, len(want))
	for _, item := range items {
		assert.Equal(t, want[item.ServiceID+"/"+item.TierName], item.Quantity)
	}
	assert.Equal(t, 11, s.ItemCount())
}

func TestAddItem_NewItemFields(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	s := newTestStore(t, kv, nil)

	items := s.AddItem(ctx, AddItemInput{
		ServiceID: "web",
		TierName:  "premium",
		Title:     "Website",
		Price:     "From R 2499.99",
		Quantity:  1,
		Details: domain.Details{
			Pages:  "5",
			Addons: []domain.Addon{{Name: "SEO", Price: dec("-1")}},
		},
	})

	require.Len(t, items, 1)
	item := items[0]
	assert.Equal(t, "item-1", item.ID)
	assert.Equal(t, "Website", item.ServiceTitle)
	assert.True(t, dec("2499.99").Equal(item.UnitPrice))
	assert.Equal(t, fixedNow, item.AddedAt)
	assert.Equal(t, "5", item.Details.Pages)
	assert.True(t, decimal.Zero.Equal(item.Details.Addons[0].Price))

	assert.Len(t, stored(t, kv, DefaultGuestKey), 1)
}

func TestAddItem_UnparseablePriceIsZero(t *testing.T) {
	s := newTestStore(t, memory.NewKV(), nil)
	items := s.AddItem(context.Background(), AddItemInput{ServiceID: "a", TierName: "b", Price: "free"})
	assert.True(t, decimal.Zero.Equal(items[0].UnitPrice))
}

func TestAddItem_QuantityBelowOneCountsAsOne(t *testing.T) {
	s := newTestStore(t, memory.NewKV(), nil)
	items := s.AddItem(context.Background(), AddItemInput{ServiceID: "a", TierName: "b", Price: 1, Quantity: 0})
	assert.Equal(t, 1, items[0].Quantity)
}

func TestAddItem_ReturnsSnapshot(t *testing.T) {
	s := newTestStore(t, memory.NewKV(), nil)
	items := s.AddItem(context.Background(), AddItemInput{ServiceID: "a", TierName: "b", Price: 1, Quantity: 1})
	items[0].Quantity = 99
	assert.Equal(t, 1, s.Items()[0].Quantity)
}

// ---------------------------------------------------------------------------
// RemoveItem / UpdateQuantity / Clear
// ---------------------------------------------------------------------------

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	s := newTestStore(t, kv, nil)
	s.AddItem(ctx, AddItemInput{ServiceID: "a", TierName: "x", Price: 10, Quantity: 1})
	s.AddItem(ctx, AddItemInput{ServiceID: "b", TierName: "x", Price: 20, Quantity: 1})

	items := s.RemoveItem(ctx, "item-1")

	require.Len(t, items, 1)
	assert.Equal(t, "item-2", items[0].ID)
	assert.Len(t, stored(t, kv, DefaultGuestKey), 1)
}

func TestRemoveItem_UnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewKV(), nil)
	s.AddItem(ctx, AddItemInput{ServiceID: "a", TierName: "x", Price: "R75", Quantity: 2})
	before := s.Subtotal()

	items := s.RemoveItem(ctx, "does-not-exist")

	assert.Len(t, items, 1)
	assert.True(t, before.Equal(s.Subtotal()))
}

func TestUpdateQuantity_NeverBelowOne(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewKV(), nil)
	s.AddItem(ctx, AddItemInput{ServiceID: "a", TierName: "x", Price: 10, Quantity: 3})

	for _, q := range []int{0, -1, -100} {
		items := s.UpdateQuantity(ctx, "item-1", q)
		assert.Equal(t, 1, items[0].Quantity, "quantity %d", q)
	}

	items := s.UpdateQuantity(ctx, "item-1", 7)
	assert.Equal(t, 7, items[0].Quantity)
}

func TestUpdateQuantity_UnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	s := newTestStore(t, memory.NewKV(), nil, rec)

	s.UpdateQuantity(ctx, "missing", 5)
	assert.Empty(t, rec.changes)
}

func TestClear_AlwaysEmpty(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	s := newTestStore(t, kv, nil)

	s.Clear(ctx)
	assert.True(t, s.IsEmpty())

	s.AddItem(ctx, AddItemInput{ServiceID: "a", TierName: "x", Price: 10, Quantity: 1})
	s.AddItem(ctx, AddItemInput{ServiceID: "b", TierName: "x", Price: 10, Quantity: 1})
	s.Clear(ctx)
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.ItemCount())
	assert.Empty(t, stored(t, kv, DefaultGuestKey))
}

// ---------------------------------------------------------------------------
// Scope resolution and migration
// ---------------------------------------------------------------------------

func guestItems(n int) []domain.LineItem {
	items := make([]domain.LineItem, n)
	for i := range items {
		items[i] = domain.LineItem{
			ID:        fmt.Sprintf("g-%d", i),
			ServiceID: fmt.Sprintf("svc-%d", i),
			TierName:  "basic",
			UnitPrice: dec("100"),
			Quantity:  1,
			AddedAt:   fixedNow,
		}
	}
	return items
}

func TestNewStore_GuestLoadsGuestCart(t *testing.T) {
	kv := memory.NewKV()
	seed(t, kv, DefaultGuestKey, guestItems(2))

	s := newTestStore(t, kv, nil)

	assert.True(t, s.Scope().IsGuest())
	assert.Nil(t, s.Identity())
	assert.Len(t, s.Items(), 2)
}

func TestNewStore_IdentityLoadsOwnCart(t *testing.T) {
	kv := memory.NewKV()
	seed(t, kv, "designStudioCart_"+alice.Key, guestItems(1))
	seed(t, kv, DefaultGuestKey, guestItems(3))

	s := newTestStore(t, kv, alice)

	assert.Equal(t, domain.IdentityScope(alice.Key), s.Scope())
	assert.Len(t, s.Items(), 1)
	assert.Len(t, stored(t, kv, DefaultGuestKey), 3, "guest cart untouched when identity has a cart")
}

func TestNewStore_IdentityAdoptsGuestCart(t *testing.T) {
	kv := memory.NewKV()
	seed(t, kv, DefaultGuestKey, guestItems(3))
	rec := &recorder{}

	s := newTestStore(t, kv, alice, rec)

	assert.Len(t, s.Items(), 3)
	assert.Len(t, stored(t, kv, "designStudioCart_"+alice.Key), 3)
	_, err := kv.Get(context.Background(), DefaultGuestKey)
	assert.True(t, apperrors.IsNotFound(err), "guest slot deleted")
	assert.Equal(t, []ChangeKind{ChangeMigrated}, rec.kinds())
}

func TestNewStore_IdentityWithoutAnyCartStartsEmpty(t *testing.T) {
	kv := memory.NewKV()
	s := newTestStore(t, kv, alice)

	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, kv.Len())
}

func TestMigrateGuestCartToIdentity_MovesOnce(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	seed(t, kv, DefaultGuestKey, guestItems(4))

	s := newTestStore(t, kv, nil)
	require.True(t, s.Scope().IsGuest())

	assert.True(t, s.MigrateGuestCartToIdentity(ctx, alice.Key))
	assert.Equal(t, domain.IdentityScope(alice.Key), s.Scope())
	assert.Len(t, s.Items(), 4)
	assert.Len(t, stored(t, kv, "designStudioCart_"+alice.Key), 4)
	_, err := kv.Get(ctx, DefaultGuestKey)
	assert.True(t, apperrors.IsNotFound(err))

	assert.False(t, s.MigrateGuestCartToIdentity(ctx, alice.Key))
	assert.Len(t, s.Items(), 4, "no duplication")
	assert.Len(t, stored(t, kv, "designStudioCart_"+alice.Key), 4)
}

func TestMigrateGuestCartToIdentity_NoGuestCart(t *testing.T) {
	kv := memory.NewKV()
	s := newTestStore(t, kv, nil)

	assert.False(t, s.MigrateGuestCartToIdentity(context.Background(), alice.Key))
	assert.True(t, s.Scope().IsGuest())
}

func TestMigrateGuestCartToIdentity_UsesUnpersistedGuestItems(t *testing.T) {
	ctx := context.Background()
	kv := new(MockKV)
	kv.On("Get", mock.Anything, DefaultGuestKey).Return("", apperrors.NotFound("key", DefaultGuestKey)).Once()
	kv.On("Set", mock.Anything, DefaultGuestKey, mock.Anything).Return(errors.New("redis down")).Once()
	kv.On("Set", mock.Anything, "designStudioCart_"+alice.Key, mock.Anything).Return(nil).Once()
	kv.On("Delete", mock.Anything, DefaultGuestKey).Return(nil).Once()

	s := NewStore(ctx, Options{KV: kv, Logger: logger.Discard(), IDs: &seqIDs{}})
	s.AddItem(ctx, AddItemInput{ServiceID: "a", TierName: "b", Price: 5, Quantity: 1})

	assert.True(t, s.MigrateGuestCartToIdentity(ctx, alice.Key))
	assert.Len(t, s.Items(), 1)
	kv.AssertExpectations(t)
}

func TestMigrateGuestCartToIdentity_EmptyGuestKeepsIdentityCart(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	seed(t, kv, "designStudioCart_"+alice.Key, []domain.LineItem{{
		ID: "1", ServiceID: "logo", TierName: "Basic", UnitPrice: dec("150"), Quantity: 3,
	}})

	s := newTestStore(t, kv, nil)
	s.AddItem(ctx, AddItemInput{ServiceID: "a", TierName: "b", Price: 5, Quantity: 1})
	s.Clear(ctx)
	require.Empty(t, stored(t, kv, DefaultGuestKey), "cleared guest cart persisted as []")

	assert.False(t, s.MigrateGuestCartToIdentity(ctx, alice.Key))
	assert.True(t, s.Scope().IsGuest())

	identity := stored(t, kv, "designStudioCart_"+alice.Key)
	require.Len(t, identity, 1)
	assert.Equal(t, 3, identity[0].Quantity)
	_, err := kv.Get(ctx, DefaultGuestKey)
	assert.True(t, apperrors.IsNotFound(err), "stale guest slot dropped")
}

func TestNewStore_IdentityIgnoresEmptyGuestCart(t *testing.T) {
	kv := memory.NewKV()
	seed(t, kv, DefaultGuestKey, []domain.LineItem{})
	rec := &recorder{}

	s := newTestStore(t, kv, alice, rec)

	assert.True(t, s.IsEmpty())
	assert.Empty(t, rec.kinds())
	assert.Equal(t, 0, kv.Len())
}

func TestMigrateGuestCartToIdentity_GuestDeleteFailsMigratesOnce(t *testing.T) {
	ctx := context.Background()
	guest, err := encodeItems(guestItems(2))
	require.NoError(t, err)

	kv := new(MockKV)
	kv.On("Get", mock.Anything, DefaultGuestKey).Return(guest, nil).Once()
	kv.On("Set", mock.Anything, "designStudioCart_"+alice.Key, mock.Anything).Return(nil).Once()
	kv.On("Delete", mock.Anything, DefaultGuestKey).Return(errors.New("redis down"))
	kv.On("Set", mock.Anything, DefaultGuestKey, "[]").Return(errors.New("redis down"))

	s := NewStore(ctx, Options{KV: kv, Logger: logger.Discard(), IDs: &seqIDs{}})
	require.Len(t, s.Items(), 2)

	assert.True(t, s.MigrateGuestCartToIdentity(ctx, alice.Key))
	assert.False(t, s.MigrateGuestCartToIdentity(ctx, alice.Key))
	assert.Len(t, s.Items(), 2)
	kv.AssertNumberOfCalls(t, "Get", 1)
	kv.AssertExpectations(t)
}

func TestMigrateGuestCartToIdentity_GuestDeleteFailsLeavesEmptySlot(t *testing.T) {
	ctx := context.Background()
	guest, err := encodeItems(guestItems(2))
	require.NoError(t, err)

	kv := new(MockKV)
	kv.On("Get", mock.Anything, DefaultGuestKey).Return(guest, nil).Once()
	kv.On("Set", mock.Anything, "designStudioCart_"+alice.Key, mock.Anything).Return(nil).Once()
	kv.On("Delete", mock.Anything, DefaultGuestKey).Return(errors.New("redis down")).Once()
	kv.On("Set", mock.Anything, DefaultGuestKey, "[]").Return(nil).Once()

	s := NewStore(ctx, Options{KV: kv, Logger: logger.Discard(), IDs: &seqIDs{}})
	assert.True(t, s.MigrateGuestCartToIdentity(ctx, alice.Key))
	kv.AssertExpectations(t)
}

func TestClearIdentityCart_OtherScopeKeepsMemory(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	seed(t, kv, "designStudioCart_CLBOB", guestItems(2))

	s := newTestStore(t, kv, alice)
	s.AddItem(ctx, AddItemInput{ServiceID: "a", TierName: "b", Price: 5, Quantity: 1})

	s.ClearIdentityCart(ctx, "CLBOB")

	_, err := kv.Get(ctx, "designStudioCart_CLBOB")
	assert.True(t, apperrors.IsNotFound(err))
	assert.Len(t, s.Items(), 1)
}

func TestClearIdentityCart_SameScopeEmptiesMemory(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	s := newTestStore(t, kv, alice)
	s.AddItem(ctx, AddItemInput{ServiceID: "a", TierName: "b", Price: 5, Quantity: 1})

	s.ClearIdentityCart(ctx, alice.Key)

	assert.True(t, s.IsEmpty())
	_, err := kv.Get(ctx, "designStudioCart_"+alice.Key)
	assert.True(t, apperrors.IsNotFound(err))
}

// ---------------------------------------------------------------------------
// Failure semantics
// ---------------------------------------------------------------------------

func TestNewStore_ReadFailureYieldsEmptyCart(t *testing.T) {
	kv := new(MockKV)
	kv.On("Get", mock.Anything, DefaultGuestKey).Return("", apperrors.Storage("get", DefaultGuestKey, errors.New("timeout")))

	before := testutil.ToFloat64(storageFailures.WithLabelValues("get"))
	s := NewStore(context.Background(), Options{KV: kv, Logger: logger.Discard()})

	assert.True(t, s.IsEmpty())
	assert.Equal(t, before+1, testutil.ToFloat64(storageFailures.WithLabelValues("get")))
}

func TestNewStore_CorruptValueYieldsEmptyCart(t *testing.T) {
	kv := memory.NewKV()
	require.NoError(t, kv.Set(context.Background(), DefaultGuestKey, "{not json"))

	s := newTestStore(t, kv, nil)
	assert.True(t, s.IsEmpty())
}

func TestNewStore_IdentityReadFailureDoesNotMigrate(t *testing.T) {
	kv := new(MockKV)
	kv.On("Get", mock.Anything, "designStudioCart_"+alice.Key).Return("", errors.New("conn reset"))

	s := NewStore(context.Background(), Options{KV: kv, Resolver: staticResolver{id: alice}, Logger: logger.Discard()})

	assert.True(t, s.IsEmpty())
	kv.AssertNotCalled(t, "Get", mock.Anything, DefaultGuestKey)
}

func TestWriteFailure_MemoryStaysAuthoritative(t *testing.T) {
	ctx := context.Background()
	kv := new(MockKV)
	kv.On("Get", mock.Anything, DefaultGuestKey).Return("", apperrors.NotFound("key", DefaultGuestKey))
	kv.On("Set", mock.Anything, DefaultGuestKey, mock.Anything).Return(errors.New("read-only replica"))
	rec := &recorder{}

	s := NewStore(ctx, Options{KV: kv, Logger: logger.Discard(), Observers: []Observer{rec}})
	items := s.AddItem(ctx, AddItemInput{ServiceID: "a", TierName: "b", Price: "R10", Quantity: 2})

	assert.Len(t, items, 1)
	assert.Equal(t, 2, s.ItemCount())
	require.Equal(t, []ChangeKind{ChangePersistFailed, ChangeUpdated}, rec.kinds())
	assert.Error(t, rec.changes[0].Err)
}

// ---------------------------------------------------------------------------
// Observers, totals, round trip
// ---------------------------------------------------------------------------

func TestObservers_ReceiveSnapshots(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	s := newTestStore(t, memory.NewKV(), alice, rec)

	s.AddItem(ctx, AddItemInput{ServiceID: "a", TierName: "b", Price: "R150", Quantity: 2})
	s.Clear(ctx)

	require.Equal(t, []ChangeKind{ChangeUpdated, ChangeCleared}, rec.kinds())
	first := rec.changes[0]
	assert.Equal(t, domain.IdentityScope(alice.Key), first.Scope)
	assert.Equal(t, 2, first.ItemCount)
	assert.True(t, dec("300").Equal(first.Subtotal))
	assert.Len(t, first.Items, 1, "snapshot not affected by later clear")
}

func TestTotal_UsesPolicy(t *testing.T) {
	ctx := context.Background()
	vat := TotalPolicyFunc(func(subtotal decimal.Decimal, _ []domain.LineItem) decimal.Decimal {
		return subtotal.Mul(dec("1.15"))
	})
	s := NewStore(ctx, Options{KV: memory.NewKV(), Logger: logger.Discard(), TotalPolicy: vat})
	s.AddItem(ctx, AddItemInput{ServiceID: "a", TierName: "b", Price: 100, Quantity: 1})

	assert.True(t, dec("100").Equal(s.Subtotal()))
	assert.True(t, dec("115").Equal(s.Total()))
}

func TestRoundTrip_PersistThenReload(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	s := newTestStore(t, kv, alice)
	s.AddItem(ctx, AddItemInput{ServiceID: "logo", TierName: "basic", Title: "Logo", Price: "R150", Quantity: 2})
	s.AddItem(ctx, AddItemInput{
		ServiceID: "web", TierName: "premium", Title: "Website", Price: 2499.99, Quantity: 1,
		Details: domain.Details{Pages: "8", Addons: []domain.Addon{{Name: "Blog", Price: dec("300")}}},
	})
	want := s.Items()

	reloaded := newTestStore(t, kv, alice)
	got := reloaded.Items()

	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].ServiceID, got[i].ServiceID)
		assert.Equal(t, want[i].TierName, got[i].TierName)
		assert.Equal(t, want[i].ServiceTitle, got[i].ServiceTitle)
		assert.True(t, want[i].UnitPrice.Equal(got[i].UnitPrice))
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.True(t, want[i].AddedAt.Equal(got[i].AddedAt))
		assert.Equal(t, want[i].Details.Pages, got[i].Details.Pages)
		require.Len(t, got[i].Details.Addons, len(want[i].Details.Addons))
		for j := range want[i].Details.Addons {
			assert.Equal(t, want[i].Details.Addons[j].Name, got[i].Details.Addons[j].Name)
			assert.True(t, want[i].Details.Addons[j].Price.Equal(got[i].Details.Addons[j].Price))
		}
	}
	assert.True(t, s.Subtotal().Equal(reloaded.Subtotal()))
}

func TestKeys(t *testing.T) {
	k := DefaultKeys()
	assert.Equal(t, "designStudioGuestCart", k.For(domain.GuestScope()))
	assert.Equal(t, "designStudioCart_CL1", k.For(domain.IdentityScope("CL1")))

	custom := Keys{IdentityPrefix: "cart"}.withDefaults()
	assert.Equal(t, "cart_CL1", custom.For(domain.IdentityScope("CL1")))
	assert.Equal(t, DefaultGuestKey, custom.Guest)

	p := Keys{}.ForProfile("p1")
	assert.Equal(t, "designStudioGuestCart_p1", p.For(domain.GuestScope()))
	assert.Equal(t, "designStudioCart_CL1", p.For(domain.IdentityScope("CL1")))
	assert.Equal(t, DefaultKeys(), DefaultKeys().ForProfile(""))
}

func TestULIDGenerator_Monotonic(t *testing.T) {
	g := newULIDGenerator()
	prev := ""
	for i := 0; i < 100; i++ {
		id := g.NewID(fixedNow)
		assert.Greater(t, id, prev)
		prev = id
	}
}
