package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gtclicks/settlement-service/api/responses"
	"github.com/gtclicks/settlement-service/api/validators"
	"github.com/gtclicks/settlement-service/internal/withdrawals"
	"github.com/gtclicks/settlement-service/pkg/db/models"
	pkgerrors "github.com/gtclicks/settlement-service/pkg/errors"
	"github.com/gtclicks/settlement-service/pkg/logger"
)

type withdrawalCreateRequest struct {
	AmountCents int64 `json:"amount_cents" validate:"required,gt=0"`
}

type withdrawalResponse struct {
	ID             string     `json:"id"`
	PhotographerID string     `json:"photographer_id"`
	AmountCents    int64      `json:"amount_cents"`
	Status         string     `json:"status"`
	RejectReason   *string    `json:"reject_reason,omitempty"`
	RequestedAt    time.Time  `json:"requested_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

type withdrawalListResponse struct {
	Withdrawals []withdrawalResponse `json:"withdrawals"`
	NextCursor  string               `json:"next_cursor,omitempty"`
}

// WithdrawalCreate starts a payout request for the caller and reserves the
// amount from their available balance.
func WithdrawalCreate(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		photographerID, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body withdrawalCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := svc.Request(ctx, withdrawals.RequestInput{
			PhotographerID: photographerID,
			AmountCents:    body.AmountCents,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toWithdrawalResponse(request))
	}
}

// WithdrawalList returns the caller's payout requests, newest first.
func WithdrawalList(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
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

		requests, nextCursor, err := svc.ListByPhotographer(ctx, photographerID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toWithdrawalListResponse(requests, nextCursor))
	}
}

// WithdrawalDetail returns one of the caller's payout requests. Requests that
// belong to someone else are reported as not found.
func WithdrawalDetail(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		photographerID, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		withdrawalID, err := uuid.Parse(chi.URLParam(r, "withdrawalId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid withdrawal id"))
			return
		}

		request, err := svc.Get(ctx, withdrawalID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if request.PhotographerID != photographerID {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal request not found"))
			return
		}
		responses.WriteSuccess(w, toWithdrawalResponse(request))
	}
}

func toWithdrawalResponse(request *models.WithdrawalRequest) withdrawalResponse {
	return withdrawalResponse{
		ID:             request.ID.String(),
		PhotographerID: request.PhotographerID.String(),
		AmountCents:    request.AmountCents,
		Status:         string(request.Status),
		RejectReason:   request.RejectReason,
		RequestedAt:    request.RequestedAt,
		ResolvedAt:     request.ResolvedAt,
	}
}

func toWithdrawalListResponse(requests []models.WithdrawalRequest, nextCursor string) withdrawalListResponse {
	payload := withdrawalListResponse{
		Withdrawals: make([]withdrawalResponse, 0, len(requests)),
		NextCursor:  nextCursor,
	}
	for i := range requests {
		payload.Withdrawals = append(payload.Withdrawals, toWithdrawalResponse(&requests[i]))
	}
	return payload
}
