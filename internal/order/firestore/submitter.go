// Package firestore writes placed orders to a Firestore collection.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/utafrali/designstudio/internal/domain"
	apperrors "github.com/utafrali/designstudio/pkg/errors"
)

// DefaultCollection holds one document per order, keyed by order id.
const DefaultCollection = "orders"

type addonDocument struct {
	Name  string  `firestore:"name"`
	Price float64 `firestore:"price"`
}

type itemDocument struct {
	ID           string          `firestore:"id"`
	ServiceID    string          `firestore:"serviceId"`
	TierName     string          `firestore:"tierName"`
	ServiceTitle string          `firestore:"serviceTitle"`
	Price        float64         `firestore:"price"`
	Quantity     int             `firestore:"quantity"`
	Pages        string          `firestore:"pages,omitempty"`
	Addons       []addonDocument `firestore:"addons,omitempty"`
	AddonsTotal  float64         `firestore:"addonsTotal"`
	AddedAt      time.Time       `firestore:"addedAt"`
}

type orderDocument struct {
	OrderID            string                    `firestore:"orderId"`
	ClientID           string                    `firestore:"clientId"`
	UserID             string                    `firestore:"userId"`
	UserEmail          string                    `firestore:"userEmail"`
	Items              []itemDocument            `firestore:"cartItems"`
	DesignInstructions domain.DesignInstructions `firestore:"designInstructions"`
	Subtotal           float64                   `firestore:"subtotal"`
	Total              float64                   `firestore:"total"`
	PaymentStatus      string                    `firestore:"paymentStatus"`
	DesignStatus       string                    `firestore:"designStatus"`
	Progress           int                       `firestore:"progress"`
	AdminNotes         string                    `firestore:"adminNotes"`
	PaymentLink        *string                   `firestore:"ozowPaymentLink"`
	CreatedAt          time.Time                 `firestore:"createdAt"`
	UpdatedAt          time.Time                 `firestore:"updatedAt"`
}

func toDocument(o *domain.Order) orderDocument {
	items := make([]itemDocument, len(o.Items))
	for i, li := range o.Items {
		addons := make([]addonDocument, len(li.Details.Addons))
		for j, a := range li.Details.Addons {
			addons[j] = addonDocument{Name: a.Name, Price: a.Price.InexactFloat64()}
		}
		items[i] = itemDocument{
			ID:           li.ID,
			ServiceID:    li.ServiceID,
			TierName:     li.TierName,
			ServiceTitle: li.ServiceTitle,
			Price:        li.UnitPrice.InexactFloat64(),
			Quantity:     li.Quantity,
			Pages:        li.Details.Pages,
			Addons:       addons,
			AddonsTotal:  li.Details.AddonsTotal().InexactFloat64(),
			AddedAt:      li.AddedAt,
		}
	}
	return orderDocument{
		OrderID:            o.OrderID,
		ClientID:           o.ClientKey,
		UserID:             o.UserID,
		UserEmail:          o.UserEmail,
		Items:              items,
		DesignInstructions: o.Instructions,
		Subtotal:           o.Totals.Subtotal.InexactFloat64(),
		Total:              o.Totals.Total.InexactFloat64(),
		PaymentStatus:      o.PaymentStatus,
		DesignStatus:       o.DesignStatus,
		Progress:           o.Progress,
		AdminNotes:         o.AdminNotes,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

// Submitter implements checkout.Submitter on Firestore.
type Submitter struct {
	client     *firestore.Client
	collection string
}

// NewSubmitter creates a submitter writing to collection.
func NewSubmitter(client *firestore.Client, collection string) *Submitter {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Submitter{client: client, collection: collection}
}

// SubmitOrder creates orders/<id>. An existing document with the same id
// is reported as a conflict rather than overwritten.
func (s *Submitter) SubmitOrder(ctx context.Context, order *domain.Order) error {
	if order == nil || order.OrderID == "" {
		return apperrors.InvalidInput("order id is required")
	}
	_, err := s.client.Collection(s.collection).Doc(order.OrderID).Create(ctx, toDocument(order))
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("order %s already exists: %w", order.OrderID, err)
		}
		return fmt.Errorf("create order %s: %w", order.OrderID, err)
	}
	return nil
}

// GetOrder reads back the stored order summary.
func (s *Submitter) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	snap, err := s.client.Collection(s.collection).Doc(orderID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, apperrors.NotFound("order", orderID)
		}
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	var doc orderDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode order %s: %w", orderID, err)
	}
	return fromDocument(doc), nil
}
