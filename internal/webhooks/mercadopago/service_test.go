package mercadopago

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gtclicks/settlement-service/internal/settlement"
	"github.com/gtclicks/settlement-service/pkg/config"
	"github.com/gtclicks/settlement-service/pkg/enums"
)

type fakeProcessor struct {
	inputs    []settlement.EventInput
	result    *settlement.Result
	err       error
	processed map[string]bool
}

func (f *fakeProcessor) HandleEvent(_ context.Context, input settlement.EventInput) (*settlement.Result, error) {
	f.inputs = append(f.inputs, input)
	return f.result, f.err
}

func (f *fakeProcessor) EventProcessed(_ context.Context, _ enums.PaymentProvider, eventID string) (bool, error) {
	return f.processed[eventID], nil
}

func newPaymentServer(t *testing.T, payments map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		for id, body := range payments {
			if r.URL.Path == "/v1/payments/"+id {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, body)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(config.MercadoPago{
		AccessToken: "test-token",
		BaseURL:     baseURL,
		HTTPTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestHandleNotificationApprovedPayment(t *testing.T) {
	orderID := uuid.New()
	server := newPaymentServer(t, map[string]string{
		"987": fmt.Sprintf(`{"id":987,"status":"approved","external_reference":%q}`, orderID),
	})
	defer server.Close()

	processor := &fakeProcessor{result: &settlement.Result{Status: settlement.ResultSettled}}
	svc, err := NewService(processor, newTestClient(t, server.URL))
	require.NoError(t, err)

	notification := &Notification{ID: 555, Action: "payment.updated", Type: "payment"}
	notification.Data.ID = "987"

	result, err := svc.HandleNotification(context.Background(), notification)
	require.NoError(t, err)
	require.Equal(t, settlement.ResultSettled, result.Status)
	require.Len(t, processor.inputs, 1)

	input := processor.inputs[0]
	require.Equal(t, enums.PaymentProviderMercadoPago, input.Provider)
	require.Equal(t, "555", input.EventID)
	require.Equal(t, "987", input.ExternalPaymentID)
	require.Equal(t, orderID, input.OrderID)
	require.Equal(t, enums.PaymentOutcomePaid, input.Outcome)
}

func TestHandleNotificationTerminalStatuses(t *testing.T) {
	cases := []struct {
		status string
		want   enums.PaymentOutcome
	}{
		{"rejected", enums.PaymentOutcomeFailed},
		{"cancelled", enums.PaymentOutcomeCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			server := newPaymentServer(t, map[string]string{
				"1": fmt.Sprintf(`{"id":1,"status":%q,"external_reference":%q}`, tc.status, uuid.New()),
			})
			defer server.Close()

			processor := &fakeProcessor{result: &settlement.Result{Status: settlement.ResultRecorded}}
			svc, err := NewService(processor, newTestClient(t, server.URL))
			require.NoError(t, err)

			notification := &Notification{ID: 1, Type: "payment"}
			notification.Data.ID = "1"
			_, err = svc.HandleNotification(context.Background(), notification)
			require.NoError(t, err)
			require.Len(t, processor.inputs, 1)
			require.Equal(t, tc.want, processor.inputs[0].Outcome)
		})
	}
}

func TestHandleNotificationIgnoresPendingPayment(t *testing.T) {
	server := newPaymentServer(t, map[string]string{
		"2": `{"id":2,"status":"in_process","external_reference":""}`,
	})
	defer server.Close()

	processor := &fakeProcessor{}
	svc, err := NewService(processor, newTestClient(t, server.URL))
	require.NoError(t, err)

	notification := &Notification{ID: 2, Type: "payment"}
	notification.Data.ID = "2"
	result, err := svc.HandleNotification(context.Background(), notification)
	require.NoError(t, err)
	require.Nil(t, result)
	require.Empty(t, processor.inputs)
}

func TestHandleNotificationIgnoresOtherTopics(t *testing.T) {
	processor := &fakeProcessor{}
	svc, err := NewService(processor, newTestClient(t, "http://unused"))
	require.NoError(t, err)

	result, err := svc.HandleNotification(context.Background(), &Notification{Type: "merchant_order"})
	require.NoError(t, err)
	require.Nil(t, result)
	require.Empty(t, processor.inputs)
}

func TestHandleNotificationUnknownPayment(t *testing.T) {
	server := newPaymentServer(t, nil)
	defer server.Close()

	svc, err := NewService(&fakeProcessor{}, newTestClient(t, server.URL))
	require.NoError(t, err)

	notification := &Notification{ID: 3, Type: "payment"}
	notification.Data.ID = "missing"
	_, err = svc.HandleNotification(context.Background(), notification)
	require.Error(t, err)
}

func signManifest(secret, dataID, requestID, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "id:%s;request-id:%s;ts:%s;", dataID, requestID, ts)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "webhook-secret"
	v1 := signManifest(secret, "987", "req-1", "1700000000")
	header := fmt.Sprintf("ts=1700000000,v1=%s", v1)

	require.NoError(t, VerifySignature(secret, header, "req-1", "987"))

	// spaces after commas are tolerated
	spaced := fmt.Sprintf("ts=1700000000, v1=%s", v1)
	require.NoError(t, VerifySignature(secret, spaced, "req-1", "987"))

	require.Error(t, VerifySignature(secret, header, "req-2", "987"))
	require.Error(t, VerifySignature(secret, header, "req-1", "988"))
	require.Error(t, VerifySignature("other-secret", header, "req-1", "987"))
	require.Error(t, VerifySignature(secret, "", "req-1", "987"))
	require.Error(t, VerifySignature(secret, "ts=1700000000", "req-1", "987"))
	require.Error(t, VerifySignature("", header, "req-1", "987"))
}
