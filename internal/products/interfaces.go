package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marisca-pt/marisca-backend/pkg/db/models"
)

// Repository defines persistence operations for the product catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context, filters Filters) ([]models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
}
