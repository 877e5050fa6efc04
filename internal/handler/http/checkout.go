package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/designstudio/internal/checkout"
	"github.com/utafrali/designstudio/internal/domain"
	"github.com/utafrali/designstudio/internal/storage"
	apperrors "github.com/utafrali/designstudio/pkg/errors"
	"github.com/utafrali/designstudio/pkg/httputil"
	"github.com/utafrali/designstudio/pkg/logger"
)

// OrderLookup reads orders back from the remote document store.
type OrderLookup interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
}

// CheckoutHandler handles HTTP requests for order placement.
type CheckoutHandler struct {
	service *checkout.Service
	carts   *CartHandler
	orders  OrderLookup
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler. Carts are opened
// the same way the cart endpoints open them. orders may be nil.
func NewCheckoutHandler(svc *checkout.Service, carts *CartHandler, orders OrderLookup, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		carts:   carts,
		orders:  orders,
		logger:  logger,
	}
}

// CheckoutRequest is the JSON request body for placing an order. Validation
// happens in the checkout service so the rejection is also announced.
type CheckoutRequest struct {
	Description     string `json:"description"`
	PreferredColors string `json:"preferred_colors"`
	SketchImageURL  string `json:"sketch_image_url"`
}

// OrderView is the placed order as returned to the storefront.
type OrderView struct {
	OrderID    string        `json:"order_id"`
	Synced     bool          `json:"synced"`
	PaymentURL string        `json:"payment_url"`
	Order      *domain.Order `json:"order"`
}

// PlaceOrder handles POST /api/v1/checkout
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body"), h.logger)
		return
	}

	// An order binds the account, so make sure the directory has it.
	sessionFromContext(r.Context()).recordedIdentity(r)

	out := h.service.PlaceOrder(r.Context(), checkout.Request{
		Cart: h.carts.store(r),
		Instructions: domain.DesignInstructions{
			Description:     req.Description,
			PreferredColors: req.PreferredColors,
			SketchImageURL:  req.SketchImageURL,
		},
		Ledger: h.ledger(r),
	})

	switch out.Kind {
	case checkout.OutcomePlaced:
		respond(w, r, http.StatusCreated, OrderView{
			OrderID:    out.OrderID,
			Synced:     out.Synced,
			PaymentURL: out.PaymentURL,
			Order:      out.Order,
		})
	case checkout.OutcomeInvalid:
		code := "INVALID_INPUT"
		if len(out.Fields) > 0 {
			code = "VALIDATION_ERROR"
		}
		fail(w, r, http.StatusBadRequest, code, out.Message, out.Fields)
	case checkout.OutcomeEmptyCart:
		fail(w, r, http.StatusConflict, "CART_EMPTY", out.Message, nil)
	case checkout.OutcomeAuthRequired:
		fail(w, r, http.StatusUnauthorized, "AUTH_REQUIRED", out.Message, nil)
	default:
		httputil.WriteError(w, r, apperrors.ErrInternal, h.logger)
	}
}

// LocalOrders handles GET /api/v1/orders/local. It lists the orders this
// browser profile has placed, synced or not.
func (h *CheckoutHandler) LocalOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := checkout.LocalOrders(r.Context(), h.ledger(r))
	if err != nil && !apperrors.IsNotFound(err) {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	respond(w, r, http.StatusOK, orders)
}

// CurrentOrder handles GET /api/v1/orders/current, the order the payment
// page picks up.
func (h *CheckoutHandler) CurrentOrder(w http.ResponseWriter, r *http.Request) {
	order, err := checkout.CurrentOrder(r.Context(), h.ledger(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	respond(w, r, http.StatusOK, order)
}

// GetOrder handles GET /api/v1/orders/{orderId}. The local ledger answers
// first; the remote store is asked only for orders of the signed-in user.
func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	local, err := checkout.LocalOrders(r.Context(), h.ledger(r))
	if err != nil && !apperrors.IsNotFound(err) {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	for i := range local {
		if local[i].OrderID == orderID {
			respond(w, r, http.StatusOK, local[i])
			return
		}
	}

	id := sessionFromContext(r.Context()).currentIdentity(r)
	if h.orders == nil || id == nil {
		httputil.WriteError(w, r, apperrors.NotFound("order", orderID), h.logger)
		return
	}

	order, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if order.ClientKey != id.Key {
		httputil.WriteError(w, r, apperrors.NotFound("order", orderID), h.logger)
		return
	}
	respond(w, r, http.StatusOK, order)
}

// ledger is the profile-scoped storage holding the local order record.
func (h *CheckoutHandler) ledger(r *http.Request) storage.KV {
	sess := sessionFromContext(r.Context())
	if sess == nil {
		return nil
	}
	return storage.NewNamespaced(h.carts.kv, "profile:"+sess.profileID+":")
}

// fail writes an error envelope that still carries the request's notifications.
func fail(w http.ResponseWriter, r *http.Request, status int, code, message string, fields map[string]string) {
	resp := httputil.Response{
		Error: &httputil.ErrorResponse{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: logger.CorrelationIDFromContext(r.Context()),
		},
	}
	if f := notifyFlash(r); f != nil {
		if n := f.Drain(); len(n) > 0 {
			resp.Notifications = n
		}
	}
	httputil.WriteJSON(w, status, resp)
}
