package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gtclicks/settlement-service/internal/commission"
	"github.com/gtclicks/settlement-service/internal/ledger"
	"github.com/gtclicks/settlement-service/internal/orders"
	dbpkg "github.com/gtclicks/settlement-service/pkg/db"
	"github.com/gtclicks/settlement-service/pkg/db/models"
	"github.com/gtclicks/settlement-service/pkg/enums"
	pkgerrors "github.com/gtclicks/settlement-service/pkg/errors"
	"github.com/gtclicks/settlement-service/pkg/logger"
	"github.com/gtclicks/settlement-service/pkg/outbox"
	"github.com/gtclicks/settlement-service/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// EventInput is a normalized payment notification. Webhook adapters build one
// from the provider payload after signature verification.
type EventInput struct {
	Provider          enums.PaymentProvider
	EventID           string
	OrderID           uuid.UUID
	ExternalPaymentID string
	Outcome           enums.PaymentOutcome
}

// ResultStatus describes what processing an event did.
type ResultStatus string

const (
	// ResultSettled means photographers were credited and the order is PAID.
	ResultSettled ResultStatus = "SETTLED"
	// ResultRecorded means the order moved to a terminal non-paid state.
	ResultRecorded ResultStatus = "RECORDED"
	// ResultDuplicate means this (provider, event id) pair was seen before.
	ResultDuplicate ResultStatus = "DUPLICATE"
	// ResultStale means the order had already left PENDING when the event
	// arrived; the event is recorded but changes nothing.
	ResultStale ResultStatus = "STALE"
)

// Result reports the effect of one payment event.
type Result struct {
	Status      ResultStatus
	OrderID     uuid.UUID
	OrderStatus enums.OrderStatus
	Credits     []payloads.LineCredit
}

// Service applies payment events to orders and the photographer ledger.
// Processing is exactly-once per (provider, event id) and all-or-nothing per
// event: either every photographer on the order is credited and the order is
// PAID, or nothing changes.
type Service interface {
	HandleEvent(ctx context.Context, input EventInput) (*Result, error)
	EventProcessed(ctx context.Context, provider enums.PaymentProvider, eventID string) (bool, error)
}

type service struct {
	repo       Repository
	orders     orders.Repository
	ledger     ledger.Service
	outbox     outboxPublisher
	tx         txRunner
	logg       *logger.Logger
	feePercent decimal.Decimal
}

// NewService wires the settlement processor with its dependencies.
func NewService(
	repo Repository,
	ordersRepo orders.Repository,
	ledgerSvc ledger.Service,
	outboxSvc outboxPublisher,
	tx txRunner,
	logg *logger.Logger,
	feePercent decimal.Decimal,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settlement repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
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
	if feePercent.IsNegative() || feePercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("fee percent out of range: %s", feePercent)
	}
	return &service{
		repo:       repo,
		orders:     ordersRepo,
		ledger:     ledgerSvc,
		outbox:     outboxSvc,
		tx:         tx,
		logg:       logg,
		feePercent: feePercent,
	}, nil
}

func (s *service) HandleEvent(ctx context.Context, input EventInput) (*Result, error) {
	if !input.Provider.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment provider")
	}
	if input.EventID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if !input.Outcome.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment outcome")
	}
	if input.OrderID == uuid.Nil && input.ExternalPaymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference required")
	}

	if s.logg != nil {
		ctx = s.logg.WithProvider(ctx, string(input.Provider))
		ctx = s.logg.WithField(ctx, "event_id", input.EventID)
	}

	var result *Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		order, err := s.resolveOrder(ctx, ordersRepo, input)
		if err != nil {
			return err
		}

		// The composite primary key makes this insert the dedup gate:
		// a second delivery of the same event fails here and the whole
		// transaction unwinds.
		if err := repo.Insert(ctx, &models.PaymentEvent{
			Provider: input.Provider,
			EventID:  input.EventID,
			OrderID:  order.ID,
			Outcome:  input.Outcome,
		}); err != nil {
			if dbpkg.IsDuplicate(err) {
				result = &Result{Status: ResultDuplicate, OrderID: order.ID, OrderStatus: order.Status}
				return errAlreadyProcessed
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment event")
		}

		targetStatus := input.Outcome.OrderStatus()
		moved, err := ordersRepo.TransitionFromPending(ctx, order.ID, targetStatus)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition order status")
		}
		if !moved {
			// Order already decided by an earlier event. Keep the
			// dedup row so this event is never reconsidered.
			if err := repo.MarkProcessed(ctx, input.Provider, input.EventID, time.Now()); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark event processed")
			}
			result = &Result{Status: ResultStale, OrderID: order.ID, OrderStatus: order.Status}
			return nil
		}

		if input.ExternalPaymentID != "" && order.ExternalPaymentID == nil {
			if err := ordersRepo.SetExternalPaymentID(ctx, order.ID, input.ExternalPaymentID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store external payment id")
			}
		}

		var credits []payloads.LineCredit
		if input.Outcome == enums.PaymentOutcomePaid {
			credits, err = s.creditLines(ctx, tx, order)
			if err != nil {
				return err
			}
		}

		if err := repo.MarkProcessed(ctx, input.Provider, input.EventID, time.Now()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark event processed")
		}

		if err := s.emitOutcome(ctx, tx, order, input, credits); err != nil {
			return err
		}

		status := ResultRecorded
		if input.Outcome == enums.PaymentOutcomePaid {
			status = ResultSettled
		}
		result = &Result{
			Status:      status,
			OrderID:     order.ID,
			OrderStatus: targetStatus,
			Credits:     credits,
		}
		return nil
	})
	if err != nil && err != errAlreadyProcessed {
		return nil, err
	}

	if s.logg != nil && result != nil {
		ctx = s.logg.WithOrderID(ctx, result.OrderID.String())
		s.logg.Info(ctx, fmt.Sprintf("payment event %s", result.Status))
	}
	return result, nil
}

// errAlreadyProcessed aborts the transaction without surfacing an error, so
// the dedup insert rolls back cleanly while the caller still gets a result.
var errAlreadyProcessed = fmt.Errorf("payment event already processed")

// EventProcessed reports whether the (provider, event id) pair has a committed
// dedup row. The redis webhook guard marks deliveries before the transaction
// commits, so a guard hit alone does not prove the event settled; callers must
// confirm against this before acking a delivery as duplicate.
func (s *service) EventProcessed(ctx context.Context, provider enums.PaymentProvider, eventID string) (bool, error) {
	if eventID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	event, err := s.repo.Find(ctx, provider, eventID)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment event")
	}
	return event.ProcessedAt != nil, nil
}

func (s *service) resolveOrder(ctx context.Context, repo orders.Repository, input EventInput) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	if input.OrderID != uuid.Nil {
		order, err = repo.FindByID(ctx, input.OrderID)
	} else {
		order, err = repo.FindByExternalPaymentID(ctx, input.ExternalPaymentID)
	}
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found for payment event")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if len(order.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no lines to settle")
	}
	return order, nil
}

func (s *service) creditLines(ctx context.Context, tx *gorm.DB, order *models.Order) ([]payloads.LineCredit, error) {
	credits := make([]payloads.LineCredit, 0, len(order.Lines))
	feePercent, _ := s.feePercent.Float64()
	for _, line := range order.Lines {
		feeCents, photographerCents, err := commission.SplitCents(line.PriceCents, s.feePercent)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "split line amount")
		}
		if photographerCents > 0 {
			if _, err := s.ledger.Credit(ctx, tx, ledger.CreditInput{
				PhotographerID: line.PhotographerID,
				AmountCents:    photographerCents,
				OrderID:        order.ID,
			}); err != nil {
				return nil, err
			}
		}
		credits = append(credits, payloads.LineCredit{
			PhotographerID:    line.PhotographerID,
			PhotoID:           line.PhotoID,
			GrossCents:        line.PriceCents,
			PlatformFeeCents:  feeCents,
			PhotographerCents: photographerCents,
			FeePercentApplied: feePercent,
		})
	}
	return credits, nil
}

func (s *service) emitOutcome(ctx context.Context, tx *gorm.DB, order *models.Order, input EventInput, credits []payloads.LineCredit) error {
	var (
		eventType enums.OutboxEventType
		data      any
	)
	switch input.Outcome {
	case enums.PaymentOutcomePaid:
		eventType = enums.EventOrderSettled
		data = payloads.OrderSettledEvent{
			OrderID:         order.ID,
			BuyerID:         order.BuyerID,
			Provider:        input.Provider,
			ProviderEventID: input.EventID,
			TotalCents:      order.TotalCents,
			Credits:         credits,
			SettledAt:       time.Now(),
		}
	case enums.PaymentOutcomeFailed:
		eventType = enums.EventOrderFailed
		data = payloads.OrderFailedEvent{
			OrderID:         order.ID,
			Provider:        input.Provider,
			ProviderEventID: input.EventID,
		}
	case enums.PaymentOutcomeCancelled:
		eventType = enums.EventOrderCancelled
		data = payloads.OrderCancelledEvent{
			OrderID:         order.ID,
			Provider:        input.Provider,
			ProviderEventID: input.EventID,
		}
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unhandled outcome %s", input.Outcome))
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Data:          data,
	})
}
