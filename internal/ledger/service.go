package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/gtclicks/settlement-service/pkg/db"
	"github.com/gtclicks/settlement-service/pkg/db/models"
	"github.com/gtclicks/settlement-service/pkg/enums"
	pkgerrors "github.com/gtclicks/settlement-service/pkg/errors"
	"github.com/gtclicks/settlement-service/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service moves money through the photographer ledger. Every mutation appends
// a ledger entry and updates the materialized balance in the same transaction;
// available and held can never go negative.
type Service interface {
	Credit(ctx context.Context, tx *gorm.DB, input CreditInput) (*models.LedgerEntry, error)
	Reserve(ctx context.Context, tx *gorm.DB, input HoldInput) (*models.LedgerEntry, error)
	Release(ctx context.Context, tx *gorm.DB, input HoldInput) (*models.LedgerEntry, error)
	Settle(ctx context.Context, tx *gorm.DB, input HoldInput) (*models.LedgerEntry, error)
	Reverse(ctx context.Context, tx *gorm.DB, input ReversalInput) (*models.LedgerEntry, error)
	GetBalance(ctx context.Context, photographerID uuid.UUID) (*models.Balance, error)
	ListEntries(ctx context.Context, photographerID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, string, error)
	VerifyBalance(ctx context.Context, photographerID uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// CreditInput adds sale proceeds to a photographer's available funds.
type CreditInput struct {
	PhotographerID uuid.UUID
	AmountCents    int64
	OrderID        uuid.UUID
}

// HoldInput moves funds between available and held for a withdrawal.
type HoldInput struct {
	PhotographerID uuid.UUID
	AmountCents    int64
	WithdrawalID   uuid.UUID
}

// ReversalInput deducts available funds to correct an earlier credit.
type ReversalInput struct {
	PhotographerID uuid.UUID
	AmountCents    int64
	OrderID        uuid.UUID
}

// NewService wires a ledger service with the provided dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// inTx runs fn inside the supplied transaction, or opens one when tx is nil.
func (s *service) inTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.tx.WithTx(ctx, fn)
}

func validateMovement(photographerID uuid.UUID, amountCents int64) error {
	if photographerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "photographer id required")
	}
	if amountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return nil
}

func (s *service) Credit(ctx context.Context, tx *gorm.DB, input CreditInput) (*models.LedgerEntry, error) {
	if err := validateMovement(input.PhotographerID, input.AmountCents); err != nil {
		return nil, err
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var entry *models.LedgerEntry
	err := s.inTx(ctx, tx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.EnsureBalance(ctx, input.PhotographerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure balance row")
		}
		if err := repo.AddAvailable(ctx, input.PhotographerID, input.AmountCents); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit available funds")
		}
		orderID := input.OrderID
		entry = &models.LedgerEntry{
			ID:             uuid.New(),
			PhotographerID: input.PhotographerID,
			Kind:           enums.LedgerEntryKindCreditSale,
			AmountCents:    input.AmountCents,
			RelatedOrderID: &orderID,
		}
		if err := repo.CreateEntry(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append credit entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) Reserve(ctx context.Context, tx *gorm.DB, input HoldInput) (*models.LedgerEntry, error) {
	if err := validateMovement(input.PhotographerID, input.AmountCents); err != nil {
		return nil, err
	}
	if input.WithdrawalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal id required")
	}

	var entry *models.LedgerEntry
	err := s.inTx(ctx, tx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.EnsureBalance(ctx, input.PhotographerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure balance row")
		}
		moved, err := repo.MoveAvailableToHeld(ctx, input.PhotographerID, input.AmountCents)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve funds")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "available balance below requested amount")
		}
		entry = s.holdEntry(input, enums.LedgerEntryKindReserveHold)
		if err := repo.CreateEntry(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append reserve entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) Release(ctx context.Context, tx *gorm.DB, input HoldInput) (*models.LedgerEntry, error) {
	if err := validateMovement(input.PhotographerID, input.AmountCents); err != nil {
		return nil, err
	}
	if input.WithdrawalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal id required")
	}

	var entry *models.LedgerEntry
	err := s.inTx(ctx, tx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		moved, err := repo.MoveHeldToAvailable(ctx, input.PhotographerID, input.AmountCents)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release held funds")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "held balance below release amount")
		}
		entry = s.holdEntry(input, enums.LedgerEntryKindReleaseHold)
		if err := repo.CreateEntry(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append release entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) Settle(ctx context.Context, tx *gorm.DB, input HoldInput) (*models.LedgerEntry, error) {
	if err := validateMovement(input.PhotographerID, input.AmountCents); err != nil {
		return nil, err
	}
	if input.WithdrawalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal id required")
	}

	var entry *models.LedgerEntry
	err := s.inTx(ctx, tx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		deducted, err := repo.DeductHeld(ctx, input.PhotographerID, input.AmountCents)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle held funds")
		}
		if !deducted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "held balance below settlement amount")
		}
		withdrawalID := input.WithdrawalID
		entry = &models.LedgerEntry{
			ID:                  uuid.New(),
			PhotographerID:      input.PhotographerID,
			Kind:                enums.LedgerEntryKindDebitWithdrawal,
			AmountCents:         -input.AmountCents,
			RelatedWithdrawalID: &withdrawalID,
		}
		if err := repo.CreateEntry(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append settlement entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) Reverse(ctx context.Context, tx *gorm.DB, input ReversalInput) (*models.LedgerEntry, error) {
	if err := validateMovement(input.PhotographerID, input.AmountCents); err != nil {
		return nil, err
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var entry *models.LedgerEntry
	err := s.inTx(ctx, tx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		deducted, err := repo.DeductAvailable(ctx, input.PhotographerID, input.AmountCents)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reverse credited funds")
		}
		if !deducted {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "available balance below reversal amount")
		}
		orderID := input.OrderID
		entry = &models.LedgerEntry{
			ID:             uuid.New(),
			PhotographerID: input.PhotographerID,
			Kind:           enums.LedgerEntryKindReversal,
			AmountCents:    -input.AmountCents,
			RelatedOrderID: &orderID,
		}
		if err := repo.CreateEntry(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append reversal entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) holdEntry(input HoldInput, kind enums.LedgerEntryKind) *models.LedgerEntry {
	withdrawalID := input.WithdrawalID
	return &models.LedgerEntry{
		ID:                  uuid.New(),
		PhotographerID:      input.PhotographerID,
		Kind:                kind,
		AmountCents:         input.AmountCents,
		RelatedWithdrawalID: &withdrawalID,
	}
}

// GetBalance returns the materialized balance, or a zero balance when the
// photographer has no ledger activity yet.
func (s *service) GetBalance(ctx context.Context, photographerID uuid.UUID) (*models.Balance, error) {
	if photographerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photographer id required")
	}
	balance, err := s.repo.GetBalance(ctx, photographerID)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return &models.Balance{PhotographerID: photographerID}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load balance")
	}
	return balance, nil
}

func (s *service) ListEntries(ctx context.Context, photographerID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, string, error) {
	if photographerID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "photographer id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	entries, err := s.repo.ListEntries(ctx, photographerID, limit+1, cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}

	nextCursor := ""
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return entries, nextCursor, nil
}

// VerifyBalance recomputes the photographer's funds from the ledger and
// compares them with the materialized row. A mismatch means the store is
// corrupt and must be treated as fatal.
func (s *service) VerifyBalance(ctx context.Context, photographerID uuid.UUID) error {
	balance, err := s.GetBalance(ctx, photographerID)
	if err != nil {
		return err
	}
	total, err := s.repo.SumEntries(ctx, photographerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum ledger entries")
	}
	if materialized := balance.AvailableCents + balance.HeldCents; materialized != total {
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf(
			"ledger mismatch for %s: entries total %d, materialized %d",
			photographerID, total, materialized,
		))
	}
	return nil
}
