package withdrawals

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gtclicks/settlement-service/internal/ledger"
	dbpkg "github.com/gtclicks/settlement-service/pkg/db"
	"github.com/gtclicks/settlement-service/pkg/db/models"
	"github.com/gtclicks/settlement-service/pkg/enums"
	pkgerrors "github.com/gtclicks/settlement-service/pkg/errors"
	"github.com/gtclicks/settlement-service/pkg/outbox"
	"github.com/gtclicks/settlement-service/pkg/pagination"
)

var withdrawalsDDL = []string{
	`CREATE TABLE IF NOT EXISTS withdrawal_requests (
  id TEXT PRIMARY KEY,
  photographer_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDENTE',
  reject_reason TEXT,
  requested_at DATETIME,
  resolved_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
  id TEXT PRIMARY KEY,
  photographer_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  related_order_id TEXT,
  related_withdrawal_id TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS balances (
  photographer_id TEXT PRIMARY KEY,
  available_cents INTEGER NOT NULL DEFAULT 0,
  held_cents INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
}

type withdrawalsFixture struct {
	svc       Service
	ledgerSvc ledger.Service
	client    *dbpkg.Client
}

func setupWithdrawals(t *testing.T) *withdrawalsFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:withdrawals_%s?mode=memory&cache=shared", uuid.NewString())
	client, err := dbpkg.NewSQLite(dsn)
	require.NoError(t, err)
	for _, ddl := range withdrawalsDDL {
		require.NoError(t, client.DB().Exec(ddl).Error)
	}

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(client.DB()), client)
	require.NoError(t, err)
	outboxSvc := outbox.NewService(outbox.NewRepository(client.DB()), nil)

	svc, err := NewService(NewRepository(client.DB()), ledgerSvc, outboxSvc, client, nil)
	require.NoError(t, err)

	return &withdrawalsFixture{svc: svc, ledgerSvc: ledgerSvc, client: client}
}

func creditPhotographer(t *testing.T, f *withdrawalsFixture, photographerID uuid.UUID, cents int64) {
	t.Helper()
	_, err := f.ledgerSvc.Credit(context.Background(), nil, ledger.CreditInput{
		PhotographerID: photographerID,
		AmountCents:    cents,
		OrderID:        uuid.New(),
	})
	require.NoError(t, err)
}

func requireBalance(t *testing.T, f *withdrawalsFixture, photographerID uuid.UUID, available, held int64) {
	t.Helper()
	balance, err := f.ledgerSvc.GetBalance(context.Background(), photographerID)
	require.NoError(t, err)
	require.Equal(t, available, balance.AvailableCents)
	require.Equal(t, held, balance.HeldCents)
}

func requireOutboxCount(t *testing.T, db *gorm.DB, eventType enums.OutboxEventType, want int64) {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", eventType).
		Count(&count).Error)
	require.Equal(t, want, count)
}

func TestRequestReservesFunds(t *testing.T) {
	f := setupWithdrawals(t)
	ctx := context.Background()
	photographerID := uuid.New()
	creditPhotographer(t, f, photographerID, 10000)

	request, err := f.svc.Request(ctx, RequestInput{PhotographerID: photographerID, AmountCents: 3000})
	require.NoError(t, err)
	require.Equal(t, enums.WithdrawalStatusPending, request.Status)
	require.Equal(t, int64(3000), request.AmountCents)

	requireBalance(t, f, photographerID, 7000, 3000)
	requireOutboxCount(t, f.client.DB(), enums.EventWithdrawalRequested, 1)
}

func TestRequestFailsWithoutFunds(t *testing.T) {
	f := setupWithdrawals(t)
	ctx := context.Background()
	photographerID := uuid.New()
	creditPhotographer(t, f, photographerID, 1000)

	_, err := f.svc.Request(ctx, RequestInput{PhotographerID: photographerID, AmountCents: 3000})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeInsufficientFunds, typed.Code())

	// the whole transaction unwinds: no request row, no hold, no event
	var count int64
	require.NoError(t, f.client.DB().Model(&models.WithdrawalRequest{}).Count(&count).Error)
	require.Zero(t, count)
	requireBalance(t, f, photographerID, 1000, 0)
	requireOutboxCount(t, f.client.DB(), enums.EventWithdrawalRequested, 0)
}

func TestRequestValidation(t *testing.T) {
	f := setupWithdrawals(t)
	ctx := context.Background()

	_, err := f.svc.Request(ctx, RequestInput{PhotographerID: uuid.Nil, AmountCents: 100})
	require.Error(t, err)

	_, err = f.svc.Request(ctx, RequestInput{PhotographerID: uuid.New(), AmountCents: 0})
	require.Error(t, err)

	_, err = f.svc.Request(ctx, RequestInput{PhotographerID: uuid.New(), AmountCents: -50})
	require.Error(t, err)
}

func TestApproveThenPayLifecycle(t *testing.T) {
	f := setupWithdrawals(t)
	ctx := context.Background()
	photographerID := uuid.New()
	creditPhotographer(t, f, photographerID, 10000)

	request, err := f.svc.Request(ctx, RequestInput{PhotographerID: photographerID, AmountCents: 3000})
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, request.ID)
	require.NoError(t, err)
	require.Equal(t, enums.WithdrawalStatusApproved, approved.Status)
	requireBalance(t, f, photographerID, 7000, 3000)

	paid, err := f.svc.MarkPaid(ctx, request.ID)
	require.NoError(t, err)
	require.Equal(t, enums.WithdrawalStatusPaid, paid.Status)
	requireBalance(t, f, photographerID, 7000, 0)
	require.NoError(t, f.ledgerSvc.VerifyBalance(ctx, photographerID))

	stored, err := f.svc.Get(ctx, request.ID)
	require.NoError(t, err)
	require.Equal(t, enums.WithdrawalStatusPaid, stored.Status)
	require.NotNil(t, stored.ResolvedAt)

	requireOutboxCount(t, f.client.DB(), enums.EventWithdrawalApproved, 1)
	requireOutboxCount(t, f.client.DB(), enums.EventWithdrawalPaid, 1)
}

func TestRejectReturnsHeldFunds(t *testing.T) {
	f := setupWithdrawals(t)
	ctx := context.Background()
	photographerID := uuid.New()
	creditPhotographer(t, f, photographerID, 5000)

	request, err := f.svc.Request(ctx, RequestInput{PhotographerID: photographerID, AmountCents: 5000})
	require.NoError(t, err)
	requireBalance(t, f, photographerID, 0, 5000)

	rejected, err := f.svc.Reject(ctx, request.ID, "dados bancários inválidos")
	require.NoError(t, err)
	require.Equal(t, enums.WithdrawalStatusRejected, rejected.Status)
	requireBalance(t, f, photographerID, 5000, 0)
	require.NoError(t, f.ledgerSvc.VerifyBalance(ctx, photographerID))

	stored, err := f.svc.Get(ctx, request.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RejectReason)
	require.Equal(t, "dados bancários inválidos", *stored.RejectReason)
	requireOutboxCount(t, f.client.DB(), enums.EventWithdrawalRejected, 1)
}

func TestRejectAfterApproval(t *testing.T) {
	f := setupWithdrawals(t)
	ctx := context.Background()
	photographerID := uuid.New()
	creditPhotographer(t, f, photographerID, 4000)

	request, err := f.svc.Request(ctx, RequestInput{PhotographerID: photographerID, AmountCents: 2000})
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, request.ID)
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, request.ID, "")
	require.NoError(t, err)
	require.Equal(t, enums.WithdrawalStatusRejected, rejected.Status)
	requireBalance(t, f, photographerID, 4000, 0)
}

func TestIllegalTransitions(t *testing.T) {
	f := setupWithdrawals(t)
	ctx := context.Background()
	photographerID := uuid.New()
	creditPhotographer(t, f, photographerID, 4000)

	request, err := f.svc.Request(ctx, RequestInput{PhotographerID: photographerID, AmountCents: 2000})
	require.NoError(t, err)

	// PENDENTE cannot jump straight to PAGO
	_, err = f.svc.MarkPaid(ctx, request.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	_, err = f.svc.Approve(ctx, request.ID)
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(ctx, request.ID)
	require.NoError(t, err)

	// PAGO is terminal
	_, err = f.svc.Approve(ctx, request.ID)
	require.Error(t, err)
	_, err = f.svc.Reject(ctx, request.ID, "tarde demais")
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	requireBalance(t, f, photographerID, 2000, 0)
}

func TestGetUnknownWithdrawal(t *testing.T) {
	f := setupWithdrawals(t)

	_, err := f.svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListByPhotographerPaginates(t *testing.T) {
	f := setupWithdrawals(t)
	ctx := context.Background()
	photographerID := uuid.New()
	creditPhotographer(t, f, photographerID, 10000)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Request(ctx, RequestInput{PhotographerID: photographerID, AmountCents: 1000})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	page, next, err := f.svc.ListByPhotographer(ctx, photographerID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotEmpty(t, next)

	rest, last, err := f.svc.ListByPhotographer(ctx, photographerID, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Empty(t, last)
}

func TestListByStatusFilters(t *testing.T) {
	f := setupWithdrawals(t)
	ctx := context.Background()
	photographerID := uuid.New()
	creditPhotographer(t, f, photographerID, 10000)

	first, err := f.svc.Request(ctx, RequestInput{PhotographerID: photographerID, AmountCents: 1000})
	require.NoError(t, err)
	_, err = f.svc.Request(ctx, RequestInput{PhotographerID: photographerID, AmountCents: 1000})
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, first.ID)
	require.NoError(t, err)

	pending, _, err := f.svc.ListByStatus(ctx, enums.WithdrawalStatusPending, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, pending, 1)

	approved, _, err := f.svc.ListByStatus(ctx, enums.WithdrawalStatusApproved, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	require.Equal(t, first.ID, approved[0].ID)

	_, _, err = f.svc.ListByStatus(ctx, enums.WithdrawalStatus("CANCELADO"), pagination.Params{})
	require.Error(t, err)
}
