package withdrawals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gtclicks/settlement-service/internal/ledger"
	dbpkg "github.com/gtclicks/settlement-service/pkg/db"
	"github.com/gtclicks/settlement-service/pkg/db/models"
	"github.com/gtclicks/settlement-service/pkg/enums"
	pkgerrors "github.com/gtclicks/settlement-service/pkg/errors"
	"github.com/gtclicks/settlement-service/pkg/logger"
	"github.com/gtclicks/settlement-service/pkg/outbox"
	"github.com/gtclicks/settlement-service/pkg/outbox/payloads"
	"github.com/gtclicks/settlement-service/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// RequestInput starts a payout request for a photographer.
type RequestInput struct {
	PhotographerID uuid.UUID
	AmountCents    int64
}

// Service runs the withdrawal lifecycle. Creating a request reserves the
// amount, approval is a pure status change, payment settles the hold and
// rejection returns it, each inside one transaction with the status update.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*models.WithdrawalRequest, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*models.WithdrawalRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	ListByPhotographer(ctx context.Context, photographerID uuid.UUID, params pagination.Params) ([]models.WithdrawalRequest, string, error)
	ListByStatus(ctx context.Context, status enums.WithdrawalStatus, params pagination.Params) ([]models.WithdrawalRequest, string, error)
}

type service struct {
	repo   Repository
	ledger ledger.Service
	outbox outboxPublisher
	tx     txRunner
	logg   *logger.Logger
}

// NewService wires a withdrawals service with its dependencies.
func NewService(
	repo Repository,
	ledgerSvc ledger.Service,
	outboxSvc outboxPublisher,
	tx txRunner,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("withdrawals repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:   repo,
		ledger: ledgerSvc,
		outbox: outboxSvc,
		tx:     tx,
		logg:   logg,
	}, nil
}

func (s *service) Request(ctx context.Context, input RequestInput) (*models.WithdrawalRequest, error) {
	if input.PhotographerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photographer id required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	request := &models.WithdrawalRequest{
		ID:             uuid.New(),
		PhotographerID: input.PhotographerID,
		AmountCents:    input.AmountCents,
		Status:         enums.WithdrawalStatusPending,
		RequestedAt:    time.Now(),
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create withdrawal request")
		}
		if _, err := s.ledger.Reserve(ctx, tx, ledger.HoldInput{
			PhotographerID: input.PhotographerID,
			AmountCents:    input.AmountCents,
			WithdrawalID:   request.ID,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalRequested,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   request.ID,
			Data: payloads.WithdrawalRequestedEvent{
				WithdrawalID:   request.ID,
				PhotographerID: input.PhotographerID,
				AmountCents:    input.AmountCents,
				RequestedAt:    request.RequestedAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(ctx, request, "withdrawal requested")
	return request, nil
}

func (s *service) Approve(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	return s.transition(ctx, id, enums.WithdrawalStatusApproved, nil, func(tx *gorm.DB, request *models.WithdrawalRequest) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalApproved,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   request.ID,
			Data: payloads.WithdrawalApprovedEvent{
				WithdrawalID:   request.ID,
				PhotographerID: request.PhotographerID,
				AmountCents:    request.AmountCents,
			},
		})
	})
}

func (s *service) MarkPaid(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	paidAt := time.Now()
	extra := map[string]any{"resolved_at": paidAt}
	return s.transition(ctx, id, enums.WithdrawalStatusPaid, extra, func(tx *gorm.DB, request *models.WithdrawalRequest) error {
		if _, err := s.ledger.Settle(ctx, tx, ledger.HoldInput{
			PhotographerID: request.PhotographerID,
			AmountCents:    request.AmountCents,
			WithdrawalID:   request.ID,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalPaid,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   request.ID,
			Data: payloads.WithdrawalPaidEvent{
				WithdrawalID:   request.ID,
				PhotographerID: request.PhotographerID,
				AmountCents:    request.AmountCents,
				PaidAt:         paidAt,
			},
		})
	})
}

func (s *service) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.WithdrawalRequest, error) {
	extra := map[string]any{"resolved_at": time.Now()}
	if reason != "" {
		extra["reject_reason"] = reason
	}
	return s.transition(ctx, id, enums.WithdrawalStatusRejected, extra, func(tx *gorm.DB, request *models.WithdrawalRequest) error {
		if _, err := s.ledger.Release(ctx, tx, ledger.HoldInput{
			PhotographerID: request.PhotographerID,
			AmountCents:    request.AmountCents,
			WithdrawalID:   request.ID,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalRejected,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   request.ID,
			Data: payloads.WithdrawalRejectedEvent{
				WithdrawalID:   request.ID,
				PhotographerID: request.PhotographerID,
				AmountCents:    request.AmountCents,
				Reason:         reason,
			},
		})
	})
}

// transition loads the request, checks the state machine, applies the guarded
// status update and runs the side effects, all in one transaction. The guarded
// update makes concurrent admins race safely: only one wins the row.
func (s *service) transition(
	ctx context.Context,
	id uuid.UUID,
	to enums.WithdrawalStatus,
	extra map[string]any,
	sideEffects func(tx *gorm.DB, request *models.WithdrawalRequest) error,
) (*models.WithdrawalRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal id required")
	}

	var request *models.WithdrawalRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		request, err = repo.FindByID(ctx, id)
		if err != nil {
			if dbpkg.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal request")
		}
		if !request.Status.CanTransitionTo(to) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf(
				"cannot move withdrawal from %s to %s", request.Status, to,
			))
		}

		moved, err := repo.Transition(ctx, id, request.Status, to, extra)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update withdrawal status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal status changed concurrently")
		}

		if err := sideEffects(tx, request); err != nil {
			return err
		}
		request.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(ctx, request, fmt.Sprintf("withdrawal moved to %s", to))
	return request, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal id required")
	}
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal request")
	}
	return request, nil
}

func (s *service) ListByPhotographer(ctx context.Context, photographerID uuid.UUID, params pagination.Params) ([]models.WithdrawalRequest, string, error) {
	if photographerID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "photographer id required")
	}
	return s.list(ctx, params, func(limit int, cursor *pagination.Cursor) ([]models.WithdrawalRequest, error) {
		return s.repo.ListByPhotographer(ctx, photographerID, limit, cursor)
	})
}

func (s *service) ListByStatus(ctx context.Context, status enums.WithdrawalStatus, params pagination.Params) ([]models.WithdrawalRequest, string, error) {
	if !status.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "unknown withdrawal status")
	}
	return s.list(ctx, params, func(limit int, cursor *pagination.Cursor) ([]models.WithdrawalRequest, error) {
		return s.repo.ListByStatus(ctx, status, limit, cursor)
	})
}

func (s *service) list(
	ctx context.Context,
	params pagination.Params,
	fetch func(limit int, cursor *pagination.Cursor) ([]models.WithdrawalRequest, error),
) ([]models.WithdrawalRequest, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	requests, err := fetch(limit+1, cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list withdrawal requests")
	}

	nextCursor := ""
	if len(requests) > limit {
		requests = requests[:limit]
		last := requests[len(requests)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return requests, nextCursor, nil
}

func (s *service) logTransition(ctx context.Context, request *models.WithdrawalRequest, message string) {
	if s.logg == nil || request == nil {
		return
	}
	ctx = s.logg.WithPhotographerID(ctx, request.PhotographerID.String())
	ctx = s.logg.WithField(ctx, "withdrawal_id", request.ID.String())
	s.logg.Info(ctx, message)
}
