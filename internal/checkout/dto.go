package checkout

import (
	"github.com/google/uuid"

	"github.com/marisca-pt/marisca-backend/pkg/enums"
	"github.com/marisca-pt/marisca-backend/pkg/types"
)

// CartLine is one validated cart entry as submitted by the storefront.
type CartLine struct {
	ProductID uuid.UUID
	Name      string
	Price     float64
	Quantity  int
	State     enums.FulfillmentState
}

// Input carries everything the orchestrator needs to open a payment session.
// Exactly one of UserID or GuestEmail identifies the buyer.
type Input struct {
	Lines           []CartLine
	DeliveryAddress types.DeliveryAddress
	TimeSlot        *enums.DeliveryTimeSlot
	Notes           *string
	UserID          *uuid.UUID
	UserEmail       string
	GuestEmail      *string
}

// Result is returned to the storefront so it can redirect to the provider.
type Result struct {
	URL     string    `json:"url"`
	OrderID uuid.UUID `json:"order_id"`
}
