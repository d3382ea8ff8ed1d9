package settlement

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gtclicks/settlement-service/pkg/db/models"
	"github.com/gtclicks/settlement-service/pkg/enums"
)

// Repository manages persistence for payment event dedup records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, event *models.PaymentEvent) error
	MarkProcessed(ctx context.Context, provider enums.PaymentProvider, eventID string, at time.Time) error
	Find(ctx context.Context, provider enums.PaymentProvider, eventID string) (*models.PaymentEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a settlement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, event *models.PaymentEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) MarkProcessed(ctx context.Context, provider enums.PaymentProvider, eventID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.PaymentEvent{}).
		Where("provider = ? AND event_id = ?", provider, eventID).
		Update("processed_at", at).Error
}

func (r *repository) Find(ctx context.Context, provider enums.PaymentProvider, eventID string) (*models.PaymentEvent, error) {
	var event models.PaymentEvent
	err := r.db.WithContext(ctx).
		Where("provider = ? AND event_id = ?", provider, eventID).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}
