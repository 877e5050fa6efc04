package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/utafrali/designstudio/internal/cart"
	"github.com/utafrali/designstudio/internal/domain"
	pkgkafka "github.com/utafrali/designstudio/pkg/kafka"
	"github.com/utafrali/designstudio/pkg/logger"
)

// Aggregate types.
const (
	AggregateTypeCart  = "cart"
	AggregateTypeOrder = "order"
)

// Kafka topics for storefront events.
var (
	TopicCartUpdated  = pkgkafka.Topic(AggregateTypeCart, "updated")
	TopicCartCleared  = pkgkafka.Topic(AggregateTypeCart, "cleared")
	TopicCartMigrated = pkgkafka.Topic(AggregateTypeCart, "migrated")
	TopicOrderPlaced  = pkgkafka.Topic(AggregateTypeOrder, "placed")
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront"

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ID           string          `json:"id"`
	ServiceID    string          `json:"service_id"`
	TierName     string          `json:"tier_name"`
	ServiceTitle string          `json:"service_title"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
}

// CartChangedData is the payload for cart.updated, cart.cleared and
// cart.migrated events.
type CartChangedData struct {
	Scope     string          `json:"scope"`
	Items     []CartItemData  `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	OrderID   string          `json:"order_id"`
	ClientKey string          `json:"client_key"`
	UserID    string          `json:"user_id"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
	Synced    bool            `json:"synced"`
}

// Publisher is the subset of pkg/kafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events to Kafka. It observes cart
// stores and is the checkout order publisher.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// CartChanged implements cart.Observer. Publish failures are logged.
func (p *Producer) CartChanged(ctx context.Context, change cart.Change) {
	var topic string
	switch change.Kind {
	case cart.ChangeUpdated:
		topic = TopicCartUpdated
	case cart.ChangeCleared:
		topic = TopicCartCleared
	case cart.ChangeMigrated:
		topic = TopicCartMigrated
	default:
		return
	}

	if err := p.publish(ctx, topic, change.Scope.String(), AggregateTypeCart, cartData(change)); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish cart event",
			slog.String("topic", topic),
			slog.String("scope", change.Scope.String()),
			slog.String("error", err.Error()),
		)
	}
}

// PublishOrderPlaced publishes an order.placed event.
func (p *Producer) PublishOrderPlaced(ctx context.Context, order *domain.Order) error {
	count := 0
	for _, item := range order.Items {
		count += item.Quantity
	}
	data := OrderPlacedData{
		OrderID:   order.OrderID,
		ClientKey: order.ClientKey,
		UserID:    order.UserID,
		ItemCount: count,
		Total:     order.Totals.Total,
		Synced:    order.Synced,
	}
	return p.publish(ctx, TopicOrderPlaced, order.OrderID, AggregateTypeOrder, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

func cartData(change cart.Change) CartChangedData {
	items := make([]CartItemData, len(change.Items))
	for i, item := range change.Items {
		items[i] = CartItemData{
			ID:           item.ID,
			ServiceID:    item.ServiceID,
			TierName:     item.TierName,
			ServiceTitle: item.ServiceTitle,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
		}
	}
	return CartChangedData{
		Scope:     change.Scope.String(),
		Items:     items,
		ItemCount: change.ItemCount,
		Subtotal:  change.Subtotal,
	}
}
