package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marisca-pt/marisca-backend/pkg/db/models"
)

// Repository defines persistence operations for the order ledger.
//
// The Mark* methods are conditional transitions: they only touch rows still in
// the expected prior state and report whether a row actually moved. Replayed or
// out-of-order provider events therefore collapse into no-ops.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error)
	ListRecent(ctx context.Context, filters AdminFilters) ([]models.Order, error)
	MarkSessionCompleted(ctx context.Context, sessionID, paymentIntentID string) (*models.Order, bool, error)
	MarkPaymentSucceeded(ctx context.Context, paymentIntentID string) (bool, error)
	MarkPaymentFailed(ctx context.Context, paymentIntentID string) (*models.Order, bool, error)
}
