package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gtclicks/settlement-service/api/responses"
	"github.com/gtclicks/settlement-service/api/validators"
	"github.com/gtclicks/settlement-service/internal/withdrawals"
	"github.com/gtclicks/settlement-service/pkg/db/models"
	"github.com/gtclicks/settlement-service/pkg/enums"
	pkgerrors "github.com/gtclicks/settlement-service/pkg/errors"
	"github.com/gtclicks/settlement-service/pkg/logger"
	"github.com/gtclicks/settlement-service/pkg/metrics"
)

type withdrawalRejectRequest struct {
	Reason string `json:"reason" validate:"max=512"`
}

// AdminWithdrawalList returns payout requests filtered by status, defaulting
// to the pending review queue.
func AdminWithdrawalList(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		status := enums.WithdrawalStatusPending
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed, err := enums.ParseWithdrawalStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = parsed
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		requests, nextCursor, err := svc.ListByStatus(ctx, status, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toWithdrawalListResponse(requests, nextCursor))
	}
}

// AdminWithdrawalApprove moves a pending request to APROVADO.
func AdminWithdrawalApprove(svc withdrawals.Service, sm *metrics.SettlementMetrics, logg *logger.Logger) http.HandlerFunc {
	return adminTransition(logg, sm, enums.WithdrawalStatusApproved, func(r *http.Request, id uuid.UUID) (*models.WithdrawalRequest, error) {
		return svc.Approve(r.Context(), id)
	})
}

// AdminWithdrawalPay settles an approved request and debits the held funds.
func AdminWithdrawalPay(svc withdrawals.Service, sm *metrics.SettlementMetrics, logg *logger.Logger) http.HandlerFunc {
	return adminTransition(logg, sm, enums.WithdrawalStatusPaid, func(r *http.Request, id uuid.UUID) (*models.WithdrawalRequest, error) {
		return svc.MarkPaid(r.Context(), id)
	})
}

// AdminWithdrawalReject rejects a request and returns the held amount to the
// photographer's available balance.
func AdminWithdrawalReject(svc withdrawals.Service, sm *metrics.SettlementMetrics, logg *logger.Logger) http.HandlerFunc {
	return adminTransition(logg, sm, enums.WithdrawalStatusRejected, func(r *http.Request, id uuid.UUID) (*models.WithdrawalRequest, error) {
		var body withdrawalRejectRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				return nil, err
			}
		}
		return svc.Reject(r.Context(), id, body.Reason)
	})
}

func adminTransition(
	logg *logger.Logger,
	sm *metrics.SettlementMetrics,
	to enums.WithdrawalStatus,
	apply func(r *http.Request, id uuid.UUID) (*models.WithdrawalRequest, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		withdrawalID, err := uuid.Parse(chi.URLParam(r, "withdrawalId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid withdrawal id"))
			return
		}

		request, err := apply(r, withdrawalID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		sm.IncTransition(string(to))
		responses.WriteSuccess(w, toWithdrawalResponse(request))
	}
}
