package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marisca-pt/marisca-backend/pkg/db/models"
	"github.com/marisca-pt/marisca-backend/pkg/enums"
	"github.com/marisca-pt/marisca-backend/pkg/types"
)

const defaultAdminListLimit = 50

// OrderNumber derives the short human-facing reference printed on
// confirmations: the first 8 hex chars of the order id, uppercased.
func OrderNumber(id uuid.UUID) string {
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

// AdminFilters describe the inputs supported by the back-office order list.
type AdminFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	Limit         int
	Offset        int
}

func (f AdminFilters) normalizedLimit() int {
	if f.Limit <= 0 || f.Limit > 200 {
		return defaultAdminListLimit
	}
	return f.Limit
}

// ItemView exposes one order line in API responses.
type ItemView struct {
	ProductID        uuid.UUID              `json:"product_id"`
	Name             string                 `json:"name"`
	FulfillmentState enums.FulfillmentState `json:"state"`
	Quantity         int                    `json:"quantity"`
	UnitPriceCents   int                    `json:"unit_price_cents"`
}

// View exposes an order plus its lines in API responses.
type View struct {
	ID               uuid.UUID               `json:"id"`
	OrderNumber      string                  `json:"order_number"`
	Status           enums.OrderStatus       `json:"status"`
	PaymentStatus    enums.PaymentStatus     `json:"payment_status"`
	SubtotalCents    int                     `json:"subtotal_cents"`
	DeliveryFeeCents int                     `json:"delivery_fee_cents"`
	TotalCents       int                     `json:"total_cents"`
	DeliveryAddress  types.DeliveryAddress   `json:"delivery_address"`
	DeliveryTimeSlot *enums.DeliveryTimeSlot `json:"delivery_time_slot,omitempty"`
	Notes            *string                 `json:"notes,omitempty"`
	Items            []ItemView              `json:"items"`
	CreatedAt        time.Time               `json:"created_at"`
}

// NewView maps a ledger row to its API shape.
func NewView(order *models.Order) View {
	view := View{
		ID:               order.ID,
		OrderNumber:      OrderNumber(order.ID),
		Status:           order.Status,
		PaymentStatus:    order.PaymentStatus,
		SubtotalCents:    order.SubtotalCents,
		DeliveryFeeCents: order.DeliveryFeeCents,
		TotalCents:       order.TotalCents,
		DeliveryAddress:  order.DeliveryAddress,
		DeliveryTimeSlot: order.DeliveryTimeSlot,
		Notes:            order.Notes,
		CreatedAt:        order.CreatedAt,
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, ItemView{
			ProductID:        item.ProductID,
			Name:             item.Name,
			FulfillmentState: item.FulfillmentState,
			Quantity:         item.Quantity,
			UnitPriceCents:   item.UnitPriceCents,
		})
	}
	return view
}
