package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marisca-pt/marisca-backend/pkg/enums"
)

// OrderItem is the immutable snapshot of one cart line. The unit price is
// captured at order creation and never re-read from the catalog.
type OrderItem struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID        uuid.UUID              `gorm:"column:product_id;type:uuid;not null"`
	Name             string                 `gorm:"column:name;not null"`
	FulfillmentState enums.FulfillmentState `gorm:"column:fulfillment_state;type:text;not null"`
	Quantity         int                    `gorm:"column:quantity;not null"`
	UnitPriceCents   int                    `gorm:"column:unit_price_cents;not null"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
}
