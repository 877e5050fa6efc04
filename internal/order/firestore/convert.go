package firestore

import (
	"github.com/shopspring/decimal"

	"github.com/utafrali/designstudio/internal/domain"
)

func fromDocument(doc orderDocument) *domain.Order {
	items := make([]domain.LineItem, len(doc.Items))
	for i, it := range doc.Items {
		var addons []domain.Addon
		for _, a := range it.Addons {
			addons = append(addons, domain.Addon{Name: a.Name, Price: decimal.NewFromFloat(a.Price)})
		}
		items[i] = domain.LineItem{
			ID:           it.ID,
			ServiceID:    it.ServiceID,
			TierName:     it.TierName,
			ServiceTitle: it.ServiceTitle,
			UnitPrice:    decimal.NewFromFloat(it.Price),
			Quantity:     it.Quantity,
			Details:      domain.Details{Pages: it.Pages, Addons: addons},
			AddedAt:      it.AddedAt,
		}
	}
	return &domain.Order{
		OrderID:      doc.OrderID,
		Items:        items,
		Instructions: doc.DesignInstructions,
		Totals: domain.Totals{
			Subtotal: decimal.NewFromFloat(doc.Subtotal),
			Total:    decimal.NewFromFloat(doc.Total),
		},
		ClientKey:     doc.ClientID,
		UserID:        doc.UserID,
		UserEmail:     doc.UserEmail,
		PaymentStatus: doc.PaymentStatus,
		DesignStatus:  doc.DesignStatus,
		Progress:      doc.Progress,
		AdminNotes:    doc.AdminNotes,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
		Synced:        true,
	}
}
