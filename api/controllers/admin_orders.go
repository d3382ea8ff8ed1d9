package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gtclicks/settlement-service/api/responses"
	"github.com/gtclicks/settlement-service/internal/orders"
	"github.com/gtclicks/settlement-service/pkg/db/models"
	pkgerrors "github.com/gtclicks/settlement-service/pkg/errors"
	"github.com/gtclicks/settlement-service/pkg/logger"
)

type orderLineResponse struct {
	ID             string `json:"id"`
	PhotographerID string `json:"photographer_id"`
	PhotoID        string `json:"photo_id"`
	LicenseType    string `json:"license_type"`
	PriceCents     int64  `json:"price_cents"`
}

type orderResponse struct {
	ID                string              `json:"id"`
	BuyerID           string              `json:"buyer_id"`
	Status            string              `json:"status"`
	TotalCents        int64               `json:"total_cents"`
	ExternalPaymentID *string             `json:"external_payment_id,omitempty"`
	Lines             []orderLineResponse `json:"lines"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// AdminOrderDetail returns one order with its lines for support inspection.
func AdminOrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := svc.Get(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderResponse(order))
	}
}

func toOrderResponse(order *models.Order) orderResponse {
	out := orderResponse{
		ID:                order.ID.String(),
		BuyerID:           order.BuyerID.String(),
		Status:            string(order.Status),
		TotalCents:        order.TotalCents,
		ExternalPaymentID: order.ExternalPaymentID,
		Lines:             make([]orderLineResponse, 0, len(order.Lines)),
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
	for _, line := range order.Lines {
		out.Lines = append(out.Lines, orderLineResponse{
			ID:             line.ID.String(),
			PhotographerID: line.PhotographerID.String(),
			PhotoID:        line.PhotoID.String(),
			LicenseType:    line.LicenseType,
			PriceCents:     line.PriceCents,
		})
	}
	return out
}
