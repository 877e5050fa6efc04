package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/designstudio/internal/cart"
	"github.com/utafrali/designstudio/internal/domain"
	"github.com/utafrali/designstudio/internal/storage"
	apperrors "github.com/utafrali/designstudio/pkg/errors"
	"github.com/utafrali/designstudio/pkg/httputil"
	"github.com/utafrali/designstudio/pkg/logger"
	"github.com/utafrali/designstudio/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	kv        storage.KV
	keys      cart.Keys
	observers []cart.Observer
	policy    cart.TotalPolicy
	logger    *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler. Every request gets its own
// cart.Store over kv.
func NewCartHandler(kv storage.KV, keys cart.Keys, observers []cart.Observer, policy cart.TotalPolicy, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		kv:        kv,
		keys:      keys,
		observers: observers,
		policy:    policy,
		logger:    logger,
	}
}

// --- Request DTOs ---

// AddonRequest is one optional extra on an added item.
type AddonRequest struct {
	Name  string          `json:"name" validate:"required,max=200"`
	Price decimal.Decimal `json:"price"`
}

// DetailsRequest carries the customisation chosen for an item.
type DetailsRequest struct {
	Pages  string         `json:"pages" validate:"max=100"`
	Addons []AddonRequest `json:"addons" validate:"max=50,dive"`
}

// AddItemRequest is the JSON request body for adding an item to the cart.
// Price accepts a number or a display string such as "R150".
type AddItemRequest struct {
	ServiceID string          `json:"service_id" validate:"required,max=200"`
	TierName  string          `json:"tier_name" validate:"required,max=200"`
	Title     string          `json:"title" validate:"max=500"`
	Price     json.RawMessage `json:"price"`
	Quantity  int             `json:"quantity"`
	Details   DetailsRequest  `json:"details"`
}

// UpdateQuantityRequest is the JSON request body for updating an item's quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartView is the cart as returned to the storefront.
type CartView struct {
	Scope     string            `json:"scope"`
	Items     []domain.LineItem `json:"items"`
	ItemCount int               `json:"item_count"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
	Total     decimal.Decimal   `json:"total"`
	IsEmpty   bool              `json:"is_empty"`
}

// MigrateView reports the result of an explicit guest cart migration.
type MigrateView struct {
	Migrated bool     `json:"migrated"`
	Cart     CartView `json:"cart"`
}

func viewOf(s *cart.Store) CartView {
	items := s.Items()
	if items == nil {
		items = []domain.LineItem{}
	}
	return CartView{
		Scope:     s.Scope().String(),
		Items:     items,
		ItemCount: s.ItemCount(),
		Subtotal:  s.Subtotal(),
		Total:     s.Total(),
		IsEmpty:   s.IsEmpty(),
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	s := h.store(r)
	respond(w, r, http.StatusOK, viewOf(s))
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s := h.store(r)
	s.Clear(r.Context())
	respond(w, r, http.StatusOK, viewOf(s))
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	price, err := decodePrice(req.Price)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(err.Error()), h.logger)
		return
	}

	addons := make([]domain.Addon, 0, len(req.Details.Addons))
	for _, a := range req.Details.Addons {
		addons = append(addons, domain.Addon{Name: a.Name, Price: a.Price})
	}

	s := h.store(r)
	s.AddItem(r.Context(), cart.AddItemInput{
		ServiceID: req.ServiceID,
		TierName:  req.TierName,
		Title:     req.Title,
		Price:     price,
		Quantity:  req.Quantity,
		Details:   domain.Details{Pages: req.Details.Pages, Addons: addons},
	})

	respond(w, r, http.StatusCreated, viewOf(s))
}

// UpdateItem handles PUT /api/v1/cart/items/{itemId}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body"), h.logger)
		return
	}

	s := h.store(r)
	s.UpdateQuantity(r.Context(), chi.URLParam(r, "itemId"), req.Quantity)
	respond(w, r, http.StatusOK, viewOf(s))
}

// RemoveItem handles DELETE /api/v1/cart/items/{itemId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s := h.store(r)
	s.RemoveItem(r.Context(), chi.URLParam(r, "itemId"))
	respond(w, r, http.StatusOK, viewOf(s))
}

// MigrateCart handles POST /api/v1/cart/migrate. It moves the profile's
// guest cart into the signed-in user's slot, replacing whatever was there.
func (h *CartHandler) MigrateCart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	id := sess.recordedIdentity(r)
	if id == nil {
		httputil.WriteError(w, r, apperrors.AuthRequired("sign in to keep your cart"), h.logger)
		return
	}

	// Open the guest scope explicitly; the identity slot may already hold a cart.
	s := h.newStore(r, nil)
	migrated := s.MigrateGuestCartToIdentity(r.Context(), id.Key)
	if !migrated {
		// Nothing moved: answer with the cart the account already has.
		s = h.store(r)
	}
	respond(w, r, http.StatusOK, MigrateView{Migrated: migrated, Cart: viewOf(s)})
}

// DeleteAccountCart handles DELETE /api/v1/account/cart
func (h *CartHandler) DeleteAccountCart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	id := sess.currentIdentity(r)
	if id == nil {
		httputil.WriteError(w, r, apperrors.AuthRequired("sign in to manage your cart"), h.logger)
		return
	}

	s := h.store(r)
	s.ClearIdentityCart(r.Context(), id.Key)
	respond(w, r, http.StatusOK, viewOf(s))
}

// --- Helpers ---

// store opens the cart of the request's session.
func (h *CartHandler) store(r *http.Request) *cart.Store {
	var resolver cart.Resolver
	if sess := sessionFromContext(r.Context()); sess != nil {
		resolver = sess.resolver
	}
	return h.newStore(r, resolver)
}

func (h *CartHandler) newStore(r *http.Request, resolver cart.Resolver) *cart.Store {
	ctx := r.Context()
	var profileID string
	if sess := sessionFromContext(ctx); sess != nil {
		profileID = sess.profileID
	}
	scope := domain.GuestScope()
	if resolver != nil {
		if id := resolver.CurrentIdentity(ctx); id != nil && id.Key != "" {
			scope = domain.IdentityScope(id.Key)
		}
	}
	return cart.NewStore(ctx, cart.Options{
		KV:          h.kv,
		Resolver:    resolver,
		Keys:        h.keys.ForProfile(profileID),
		Logger:      logger.WithContext(logger.WithScope(ctx, scope.String()), h.logger),
		Observers:   h.observers,
		TotalPolicy: h.policy,
	})
}

// decodePrice turns the raw price field into something domain.ParsePrice
// understands.
func decodePrice(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("invalid price: %w", err)
		}
		return s, nil
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid price %s", raw)
	}
	return d, nil
}

// respond writes data with the notifications raised while serving r.
func respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	resp := httputil.Response{Data: data}
	if f := notifyFlash(r); f != nil {
		if n := f.Drain(); len(n) > 0 {
			resp.Notifications = n
		}
	}
	httputil.WriteJSON(w, status, resp)
}

// maxBodyBytes bounds request bodies; sketches are sent as URLs, not data.
const maxBodyBytes = 1 << 20

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
}
