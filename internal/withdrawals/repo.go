package withdrawals

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gtclicks/settlement-service/pkg/db/models"
	"github.com/gtclicks/settlement-service/pkg/enums"
	"github.com/gtclicks/settlement-service/pkg/pagination"
)

// Repository manages persistence for withdrawal requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.WithdrawalRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	Transition(ctx context.Context, id uuid.UUID, from, to enums.WithdrawalStatus, extra map[string]any) (bool, error)
	ListByPhotographer(ctx context.Context, photographerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.WithdrawalRequest, error)
	ListByStatus(ctx context.Context, status enums.WithdrawalStatus, limit int, cursor *pagination.Cursor) ([]models.WithdrawalRequest, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a withdrawals repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.WithdrawalRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	var request models.WithdrawalRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Transition moves the request from one status to another in a single guarded
// update. It reports false when the row was no longer in the expected status,
// which means another actor won the transition.
func (r *repository) Transition(ctx context.Context, id uuid.UUID, from, to enums.WithdrawalStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for column, value := range extra {
		updates[column] = value
	}
	res := r.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) ListByPhotographer(ctx context.Context, photographerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.WithdrawalRequest, error) {
	query := r.db.WithContext(ctx).
		Where("photographer_id = ?", photographerID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var requests []models.WithdrawalRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.WithdrawalStatus, limit int, cursor *pagination.Cursor) ([]models.WithdrawalRequest, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var requests []models.WithdrawalRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}
