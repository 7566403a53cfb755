package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the catalog entry. The order pipeline treats it as read-only
// except for the atomic stock decrement in the products repository.
type Product struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string    `gorm:"column:name;not null"`
	Description       *string   `gorm:"column:description"`
	PriceCents        int       `gorm:"column:price_cents;not null"`
	Stock             int       `gorm:"column:stock;not null;default:0"`
	// No default tag: gorm would omit false on insert. The column default
	// lives in the migration.
	IsAvailable       bool      `gorm:"column:is_available;not null"`
	FulfillmentStates string    `gorm:"column:fulfillment_states;not null;default:'raw'"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
