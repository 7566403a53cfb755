package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marisca-pt/marisca-backend/pkg/db/models"
	"github.com/marisca-pt/marisca-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an order ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("stripe_session_id = ?", sessionID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("stripe_payment_intent_id = ?", paymentIntentID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListRecent(ctx context.Context, filters AdminFilters) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Items")

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filters.PaymentStatus)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var items []models.Order
	err := query.
		Order("created_at DESC").
		Limit(filters.normalizedLimit()).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// MarkSessionCompleted confirms a pending order for the given checkout session
// and backfills the payment intent reference. The second return reports whether
// this call performed the transition; false means another delivery won the race
// or the order already left pending.
func (r *repository) MarkSessionCompleted(ctx context.Context, sessionID, paymentIntentID string) (*models.Order, bool, error) {
	updates := map[string]any{
		"status":         enums.OrderStatusConfirmed,
		"payment_status": enums.PaymentStatusPaid,
		"updated_at":     time.Now().UTC(),
	}
	if paymentIntentID != "" {
		updates["stripe_payment_intent_id"] = paymentIntentID
	}

	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("stripe_session_id = ? AND status = ?", sessionID, enums.OrderStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}

	order, err := r.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, true, err
	}
	return order, true, nil
}

// MarkPaymentSucceeded records payment without confirming the order; success
// may be observed before or after the session completes.
func (r *repository) MarkPaymentSucceeded(ctx context.Context, paymentIntentID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("stripe_payment_intent_id = ? AND payment_status = ?", paymentIntentID, enums.PaymentStatusPending).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusPaid,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkPaymentFailed cancels a still-pending order whose payment failed.
// Confirmed orders are left untouched; a late failure event loses to the
// earlier completion.
func (r *repository) MarkPaymentFailed(ctx context.Context, paymentIntentID string) (*models.Order, bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("stripe_payment_intent_id = ? AND status = ?", paymentIntentID, enums.OrderStatusPending).
		Updates(map[string]any{
			"status":         enums.OrderStatusCancelled,
			"payment_status": enums.PaymentStatusFailed,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}

	order, err := r.FindByPaymentIntentID(ctx, paymentIntentID)
	if err != nil {
		return nil, true, err
	}
	return order, true, nil
}
