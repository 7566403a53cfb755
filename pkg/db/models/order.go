package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marisca-pt/marisca-backend/pkg/enums"
	"github.com/marisca-pt/marisca-backend/pkg/types"
)

// Order is the durable record of a checkout. It is created pending/pending
// before payment completes and only the webhook reconciler moves it to a
// terminal state. Orders are never deleted.
type Order struct {
	ID                    uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                *uuid.UUID              `gorm:"column:user_id;type:uuid"`
	GuestEmail            *string                 `gorm:"column:guest_email"`
	Status                enums.OrderStatus       `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus         enums.PaymentStatus     `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	SubtotalCents         int                     `gorm:"column:subtotal_cents;not null"`
	DeliveryFeeCents      int                     `gorm:"column:delivery_fee_cents;not null;default:0"`
	TotalCents            int                     `gorm:"column:total_cents;not null"`
	DeliveryAddress       types.DeliveryAddress   `gorm:"column:delivery_address;type:jsonb"`
	DeliveryTimeSlot      *enums.DeliveryTimeSlot `gorm:"column:delivery_time_slot;type:text"`
	Notes                 *string                 `gorm:"column:notes"`
	StripeSessionID       string                  `gorm:"column:stripe_session_id;not null;uniqueIndex"`
	StripePaymentIntentID *string                 `gorm:"column:stripe_payment_intent_id;index"`
	Items                 []OrderItem             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// OwnerEmail returns the guest email when present; authenticated buyers have
// their email resolved from the profile instead.
func (o Order) OwnerEmail() string {
	if o.GuestEmail != nil {
		return *o.GuestEmail
	}
	return ""
}
