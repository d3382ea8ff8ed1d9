package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gtclicks/settlement-service/pkg/db/models"
	"github.com/gtclicks/settlement-service/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByExternalPaymentID(ctx context.Context, externalID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("external_payment_id = ?", externalID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// TransitionFromPending flips the order out of PENDING in a single guarded
// statement. A false return means another delivery won the race or the order
// already reached a terminal state.
func (r *repository) TransitionFromPending(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusPending).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) SetExternalPaymentID(ctx context.Context, orderID uuid.UUID, externalID string) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"external_payment_id": externalID,
			"updated_at":          time.Now(),
		}).Error
}
