package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gtclicks/settlement-service/api/middleware"
	"github.com/gtclicks/settlement-service/api/responses"
	"github.com/gtclicks/settlement-service/api/validators"
	"github.com/gtclicks/settlement-service/pkg/db/models"
	pkgerrors "github.com/gtclicks/settlement-service/pkg/errors"
	"github.com/gtclicks/settlement-service/pkg/logger"
	"github.com/gtclicks/settlement-service/pkg/pagination"
)

type balanceService interface {
	GetBalance(ctx context.Context, photographerID uuid.UUID) (*models.Balance, error)
	ListEntries(ctx context.Context, photographerID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, string, error)
}

type balanceResponse struct {
	PhotographerID string    `json:"photographer_id"`
	AvailableCents int64     `json:"available_cents"`
	HeldCents      int64     `json:"held_cents"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ledgerEntryResponse struct {
	ID                  string    `json:"id"`
	Kind                string    `json:"kind"`
	AmountCents         int64     `json:"amount_cents"`
	RelatedOrderID      *string   `json:"related_order_id,omitempty"`
	RelatedWithdrawalID *string   `json:"related_withdrawal_id,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

type ledgerListResponse struct {
	Entries    []ledgerEntryResponse `json:"entries"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// BalanceFetch returns the caller's materialized balance.
func BalanceFetch(svc balanceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		photographerID, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		balance, err := svc.GetBalance(ctx, photographerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, balanceResponse{
			PhotographerID: balance.PhotographerID.String(),
			AvailableCents: balance.AvailableCents,
			HeldCents:      balance.HeldCents,
			UpdatedAt:      balance.UpdatedAt,
		})
	}
}

// LedgerEntryList returns the caller's ledger history, newest first.
func LedgerEntryList(svc balanceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		photographerID, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		entries, nextCursor, err := svc.ListEntries(ctx, photographerID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payload := ledgerListResponse{
			Entries:    make([]ledgerEntryResponse, 0, len(entries)),
			NextCursor: nextCursor,
		}
		for _, entry := range entries {
			payload.Entries = append(payload.Entries, toLedgerEntryResponse(entry))
		}
		responses.WriteSuccess(w, payload)
	}
}

func toLedgerEntryResponse(entry models.LedgerEntry) ledgerEntryResponse {
	out := ledgerEntryResponse{
		ID:          entry.ID.String(),
		Kind:        string(entry.Kind),
		AmountCents: entry.AmountCents,
		CreatedAt:   entry.CreatedAt,
	}
	if entry.RelatedOrderID != nil {
		id := entry.RelatedOrderID.String()
		out.RelatedOrderID = &id
	}
	if entry.RelatedWithdrawalID != nil {
		id := entry.RelatedWithdrawalID.String()
		out.RelatedWithdrawalID = &id
	}
	return out
}

func callerID(ctx context.Context) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}
