package mercadopago

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gtclicks/settlement-service/pkg/config"
	pkgerrors "github.com/gtclicks/settlement-service/pkg/errors"
)

// Payment is the slice of the Mercado Pago payment resource settlement needs.
// ExternalReference carries the order id the checkout flow set when it
// created the preference.
type Payment struct {
	ID                int64  `json:"id"`
	Status            string `json:"status"`
	StatusDetail      string `json:"status_detail"`
	ExternalReference string `json:"external_reference"`
}

// Client fetches payment resources from the Mercado Pago REST API.
// Notifications only carry the payment id, so every delivery requires one
// lookup before it can be settled.
type Client struct {
	baseURL     string
	accessToken string
	http        *http.Client
}

func NewClient(cfg config.MercadoPago) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("mercado pago access token required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("mercado pago base url required")
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		http:        &http.Client{Timeout: cfg.HTTPTimeout},
	}, nil
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}

	url := fmt.Sprintf("%s/v1/payments/%s", c.baseURL, paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build payment request")
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch payment")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf(
			"mercado pago returned %d: %s", resp.StatusCode, string(body),
		))
	}

	var payment Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment")
	}
	return &payment, nil
}
