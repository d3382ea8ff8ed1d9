package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gtclicks/settlement-service/pkg/db/models"
	"github.com/gtclicks/settlement-service/pkg/enums"
	"github.com/gtclicks/settlement-service/pkg/pagination"
)

// Repository manages persistence for ledger entries and materialized balances.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateEntry(ctx context.Context, entry *models.LedgerEntry) error
	GetBalance(ctx context.Context, photographerID uuid.UUID) (*models.Balance, error)
	EnsureBalance(ctx context.Context, photographerID uuid.UUID) error
	AddAvailable(ctx context.Context, photographerID uuid.UUID, cents int64) error
	DeductAvailable(ctx context.Context, photographerID uuid.UUID, cents int64) (bool, error)
	MoveAvailableToHeld(ctx context.Context, photographerID uuid.UUID, cents int64) (bool, error)
	MoveHeldToAvailable(ctx context.Context, photographerID uuid.UUID, cents int64) (bool, error)
	DeductHeld(ctx context.Context, photographerID uuid.UUID, cents int64) (bool, error)
	ListEntries(ctx context.Context, photographerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.LedgerEntry, error)
	SumEntries(ctx context.Context, photographerID uuid.UUID) (int64, error)
	ListBalances(ctx context.Context, afterPhotographerID uuid.UUID, limit int) ([]models.Balance, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) GetBalance(ctx context.Context, photographerID uuid.UUID) (*models.Balance, error) {
	var balance models.Balance
	err := r.db.WithContext(ctx).
		Where("photographer_id = ?", photographerID).
		First(&balance).Error
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *repository) EnsureBalance(ctx context.Context, photographerID uuid.UUID) error {
	balance := models.Balance{PhotographerID: photographerID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&balance).Error
}

func (r *repository) AddAvailable(ctx context.Context, photographerID uuid.UUID, cents int64) error {
	return r.db.WithContext(ctx).Model(&models.Balance{}).
		Where("photographer_id = ?", photographerID).
		Updates(map[string]any{
			"available_cents": gorm.Expr("available_cents + ?", cents),
			"updated_at":      time.Now(),
		}).Error
}

// DeductAvailable subtracts from available only when enough funds exist. The
// guard in the WHERE clause makes the check-and-update a single atomic
// statement, so concurrent deductions cannot drive the balance negative.
func (r *repository) DeductAvailable(ctx context.Context, photographerID uuid.UUID, cents int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Balance{}).
		Where("photographer_id = ? AND available_cents >= ?", photographerID, cents).
		Updates(map[string]any{
			"available_cents": gorm.Expr("available_cents - ?", cents),
			"updated_at":      time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) MoveAvailableToHeld(ctx context.Context, photographerID uuid.UUID, cents int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Balance{}).
		Where("photographer_id = ? AND available_cents >= ?", photographerID, cents).
		Updates(map[string]any{
			"available_cents": gorm.Expr("available_cents - ?", cents),
			"held_cents":      gorm.Expr("held_cents + ?", cents),
			"updated_at":      time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) MoveHeldToAvailable(ctx context.Context, photographerID uuid.UUID, cents int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Balance{}).
		Where("photographer_id = ? AND held_cents >= ?", photographerID, cents).
		Updates(map[string]any{
			"available_cents": gorm.Expr("available_cents + ?", cents),
			"held_cents":      gorm.Expr("held_cents - ?", cents),
			"updated_at":      time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) DeductHeld(ctx context.Context, photographerID uuid.UUID, cents int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Balance{}).
		Where("photographer_id = ? AND held_cents >= ?", photographerID, cents).
		Updates(map[string]any{
			"held_cents": gorm.Expr("held_cents - ?", cents),
			"updated_at": time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) ListEntries(ctx context.Context, photographerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.LedgerEntry, error) {
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

	var entries []models.LedgerEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListBalances pages through all materialized balances in photographer ID
// order. Pass uuid.Nil to start from the beginning.
func (r *repository) ListBalances(ctx context.Context, afterPhotographerID uuid.UUID, limit int) ([]models.Balance, error) {
	query := r.db.WithContext(ctx).
		Order("photographer_id ASC").
		Limit(limit)
	if afterPhotographerID != uuid.Nil {
		query = query.Where("photographer_id > ?", afterPhotographerID)
	}

	var balances []models.Balance
	if err := query.Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}

// SumEntries totals the entries that change the photographer's funds. Hold
// movements are excluded; the result must equal available plus held.
func (r *repository) SumEntries(ctx context.Context, photographerID uuid.UUID) (int64, error) {
	kinds := []enums.LedgerEntryKind{
		enums.LedgerEntryKindCreditSale,
		enums.LedgerEntryKindDebitWithdrawal,
		enums.LedgerEntryKindReversal,
	}
	var total int64
	err := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("photographer_id = ? AND kind IN ?", photographerID, kinds).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	return total, err
}
