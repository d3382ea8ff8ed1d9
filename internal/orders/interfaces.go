package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gtclicks/settlement-service/pkg/db/models"
	"github.com/gtclicks/settlement-service/pkg/enums"
)

// Repository defines persistence operations for orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindByExternalPaymentID(ctx context.Context, externalID string) (*models.Order, error)
	TransitionFromPending(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) (bool, error)
	SetExternalPaymentID(ctx context.Context, orderID uuid.UUID, externalID string) error
}
