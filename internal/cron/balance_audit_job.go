package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/gtclicks/settlement-service/pkg/db/models"
	"github.com/gtclicks/settlement-service/pkg/logger"
)

const defaultAuditBatchSize = 200

type balanceLister interface {
	ListBalances(ctx context.Context, afterPhotographerID uuid.UUID, limit int) ([]models.Balance, error)
}

type balanceVerifier interface {
	VerifyBalance(ctx context.Context, photographerID uuid.UUID) error
}

// BalanceAuditJobParams configure the ledger consistency sweep.
type BalanceAuditJobParams struct {
	Logger     *logger.Logger
	Repository balanceLister
	Ledger     balanceVerifier
	BatchSize  int
}

// NewBalanceAuditJob builds a job that recomputes every photographer's funds
// from the ledger and compares them with the materialized balance. A mismatch
// is reported per photographer; the sweep keeps going so one corrupt row does
// not hide others.
func NewBalanceAuditJob(params BalanceAuditJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("balance repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultAuditBatchSize
	}
	return &balanceAuditJob{
		logg:      params.Logger,
		repo:      params.Repository,
		ledger:    params.Ledger,
		batchSize: batchSize,
	}, nil
}

type balanceAuditJob struct {
	logg      *logger.Logger
	repo      balanceLister
	ledger    balanceVerifier
	batchSize int
}

func (j *balanceAuditJob) Name() string { return "balance-audit" }

func (j *balanceAuditJob) Run(ctx context.Context) error {
	var errs error
	audited := 0
	mismatched := 0
	after := uuid.Nil
	for {
		balances, err := j.repo.ListBalances(ctx, after, j.batchSize)
		if err != nil {
			return fmt.Errorf("list balances: %w", err)
		}
		if len(balances) == 0 {
			break
		}
		for i := range balances {
			audited++
			if err := j.ledger.VerifyBalance(ctx, balances[i].PhotographerID); err != nil {
				mismatched++
				errs = multierr.Append(errs, err)
			}
		}
		after = balances[len(balances)-1].PhotographerID
		if len(balances) < j.batchSize {
			break
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"audited":    audited,
		"mismatched": mismatched,
	})
	j.logg.Info(logCtx, "balance audit sweep complete")
	return errs
}
