package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds the display data for an authenticated buyer. The pipeline only
// reads it to resolve the confirmation-email recipient and greeting name.
type Profile struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	FirstName string    `gorm:"column:first_name;not null"`
	LastName  string    `gorm:"column:last_name;not null"`
	Email     string    `gorm:"column:email;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
