// Package checkout turns the active cart into an order.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/designstudio/internal/cart"
	"github.com/utafrali/designstudio/internal/domain"
	"github.com/utafrali/designstudio/internal/notify"
	"github.com/utafrali/designstudio/internal/storage"
	"github.com/utafrali/designstudio/pkg/breaker"
	"github.com/utafrali/designstudio/pkg/validator"
)

// User-visible messages.
const (
	MsgDescriptionRequired = "Please provide a design description"
	MsgCartEmpty           = "Your cart is empty!"
	MsgLoginRequired       = "Please login to proceed with checkout"
	MsgPlacedSynced        = "Order created successfully! Redirecting to payment..."
	MsgPlacedLocal         = "Order created! Redirecting to payment..."
)

// DefaultPaymentPage is where a placed order continues to.
const DefaultPaymentPage = "payment.html"

var orderSubmissions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "order_submissions_total",
		Help: "Total number of remote order submissions by result",
	},
	[]string{"result"},
)

// Submitter writes an order to the remote document store.
type Submitter interface {
	SubmitOrder(ctx context.Context, order *domain.Order) error
}

// OrderPublisher announces placed orders.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, order *domain.Order) error
}

// OutcomeKind classifies the result of PlaceOrder.
type OutcomeKind string

const (
	OutcomePlaced       OutcomeKind = "placed"
	OutcomeInvalid      OutcomeKind = "invalid"
	OutcomeEmptyCart    OutcomeKind = "empty_cart"
	OutcomeAuthRequired OutcomeKind = "auth_required"
)

// Outcome is the definite result of a checkout attempt.
type Outcome struct {
	Kind       OutcomeKind       `json:"kind"`
	Message    string            `json:"message"`
	OrderID    string            `json:"order_id,omitempty"`
	Synced     bool              `json:"synced"`
	PaymentURL string            `json:"payment_url,omitempty"`
	Order      *domain.Order     `json:"order,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// Request is one checkout attempt.
type Request struct {
	Cart         *cart.Store
	Instructions domain.DesignInstructions
	// Ledger receives the local order record. It is usually the
	// browser-profile namespace of the cart storage.
	Ledger storage.KV
}

// Options configures a Service.
type Options struct {
	SubmitTimeout time.Duration
	PaymentPage   string
	Clock         func() time.Time
}

// Service places orders.
type Service struct {
	submitter Submitter
	breaker   *breaker.Breaker[struct{}]
	notifier  notify.Notifier
	publisher OrderPublisher
	logger    *slog.Logger

	timeout     time.Duration
	paymentPage string
	now         func() time.Time
}

// NewService creates a checkout service. publisher may be nil.
func NewService(submitter Submitter, br *breaker.Breaker[struct{}], notifier notify.Notifier, publisher OrderPublisher, logger *slog.Logger, opts Options) *Service {
	s := &Service{
		submitter:   submitter,
		breaker:     br,
		notifier:    notifier,
		publisher:   publisher,
		logger:      logger,
		timeout:     opts.SubmitTimeout,
		paymentPage: opts.PaymentPage,
		now:         opts.Clock,
	}
	if s.paymentPage == "" {
		s.paymentPage = DefaultPaymentPage
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.breaker == nil {
		s.breaker = breaker.New[struct{}](breaker.DefaultConfig("order-submit"), logger)
	}
	return s
}

// PlaceOrder validates the request, records the order and clears the cart.
// It never returns an error: every failure maps to an Outcome.
func (s *Service) PlaceOrder(ctx context.Context, req Request) Outcome {
	instructions := req.Instructions
	instructions.Description = strings.TrimSpace(instructions.Description)

	if instructions.Description == "" {
		return s.reject(ctx, OutcomeInvalid, MsgDescriptionRequired, nil)
	}
	if err := validator.Validate(instructions); err != nil {
		var valErr *validator.ValidationError
		if errors.As(err, &valErr) {
			return s.reject(ctx, OutcomeInvalid, valErr.Error(), valErr.Fields())
		}
		return s.reject(ctx, OutcomeInvalid, err.Error(), nil)
	}
	if req.Cart == nil || req.Cart.IsEmpty() {
		return s.reject(ctx, OutcomeEmptyCart, MsgCartEmpty, nil)
	}
	id := req.Cart.Identity()
	if id == nil {
		return s.reject(ctx, OutcomeAuthRequired, MsgLoginRequired, nil)
	}

	now := s.now().UTC()
	order := &domain.Order{
		OrderID:       domain.NewOrderID(now),
		Items:         req.Cart.Items(),
		Instructions:  instructions,
		Totals:        domain.Totals{Subtotal: req.Cart.Subtotal(), Total: req.Cart.Total()},
		ClientKey:     id.Key,
		UserID:        id.UID,
		UserEmail:     id.Email,
		PaymentStatus: domain.PaymentPending,
		DesignStatus:  domain.DesignWaiting,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	order.Synced = s.submit(ctx, order)

	if req.Ledger != nil {
		if err := recordLocal(ctx, req.Ledger, order); err != nil {
			s.logger.ErrorContext(ctx, "failed to record order locally",
				slog.String("order_id", order.OrderID),
				slog.String("error", err.Error()),
			)
		}
	}

	req.Cart.Clear(ctx)

	if s.publisher != nil {
		if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish order.placed event",
				slog.String("order_id", order.OrderID),
				slog.String("error", err.Error()),
			)
		}
	}

	msg := MsgPlacedLocal
	if order.Synced {
		msg = MsgPlacedSynced
	}
	s.notifier.Notify(ctx, msg, notify.KindSuccess)

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.OrderID),
		slog.String("client_key", order.ClientKey),
		slog.Bool("synced", order.Synced),
		slog.String("total", order.Totals.Total.StringFixed(2)),
	)

	return Outcome{
		Kind:       OutcomePlaced,
		Message:    msg,
		OrderID:    order.OrderID,
		Synced:     order.Synced,
		PaymentURL: s.paymentPage + "?orderId=" + url.QueryEscape(order.OrderID),
		Order:      order,
	}
}

// submit writes the order remotely and reports whether it landed.
func (s *Service) submit(ctx context.Context, order *domain.Order) bool {
	if s.submitter == nil {
		orderSubmissions.WithLabelValues("skipped").Inc()
		return false
	}

	_, err := s.breaker.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		return struct{}{}, s.submitter.SubmitOrder(ctx, order)
	})
	if err != nil {
		result := "failed"
		if errors.Is(err, breaker.ErrOpen) {
			result = "rejected"
		}
		orderSubmissions.WithLabelValues(result).Inc()
		s.logger.WarnContext(ctx, "order not synced, keeping local record",
			slog.String("order_id", order.OrderID),
			slog.String("error", err.Error()),
		)
		return false
	}

	orderSubmissions.WithLabelValues("synced").Inc()
	return true
}

func (s *Service) reject(ctx context.Context, kind OutcomeKind, msg string, fields map[string]string) Outcome {
	s.notifier.Notify(ctx, msg, notify.KindError)
	return Outcome{Kind: kind, Message: msg, Fields: fields}
}
