package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"rafflehouse/domain/common"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentClient_CreateCheckoutSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "ord_1", r.PostForm.Get("client_reference_id"))
		assert.Equal(t, "398", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "gbp", r.PostForm.Get("line_items[0][price_data][currency]"))
		assert.Equal(t, "user_1", r.PostForm.Get("metadata[user_id]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_123","url":"https://checkout.example/pay/cs_test_123","status":"open"}`))
	}))
	defer server.Close()

	client := NewPaymentClient(PaymentClientConfig{BaseURL: server.URL, APIKey: "sk_test"})

	session, err := client.CreateCheckoutSession(context.Background(), interfaces.CheckoutRequest{
		OrderID:     "ord_1",
		UserID:      "user_1",
		Amount:      398,
		Currency:    "gbp",
		Description: "2 tickets",
		SuccessURL:  "https://shop.example/ok",
		CancelURL:   "https://shop.example/cancel",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", session.SessionID)
	assert.Equal(t, "https://checkout.example/pay/cs_test_123", session.URL)
}

func TestPaymentClient_GetSessionStatus(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected entities.PaymentStatus
	}{
		{"paid", `{"id":"cs_1","status":"complete","payment_status":"paid","amount_total":500,"currency":"gbp"}`, entities.PaymentStatusPaid},
		{"no payment required", `{"id":"cs_1","status":"complete","payment_status":"no_payment_required","amount_total":0,"currency":"gbp"}`, entities.PaymentStatusPaid},
		{"open", `{"id":"cs_1","status":"open","payment_status":"unpaid","amount_total":500,"currency":"gbp"}`, entities.PaymentStatusUnpaid},
		{"expired", `{"id":"cs_1","status":"expired","payment_status":"unpaid","amount_total":500,"currency":"gbp"}`, entities.PaymentStatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/v1/checkout/sessions/cs_1", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewPaymentClient(PaymentClientConfig{BaseURL: server.URL, APIKey: "sk_test"})
			status, err := client.GetSessionStatus(context.Background(), "cs_1")
			require.NoError(t, err)
			assert.Equal(t, "cs_1", status.SessionID)
			assert.Equal(t, tt.expected, status.Status)
			assert.Equal(t, "gbp", status.Currency)
		})
	}
}

func TestPaymentClient_ProviderErrorIsExternalFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"No such checkout.session"}}`))
	}))
	defer server.Close()

	client := NewPaymentClient(PaymentClientConfig{BaseURL: server.URL, APIKey: "sk_test"})
	_, err := client.GetSessionStatus(context.Background(), "cs_missing")
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindExternalDependencyFailure))
	assert.Contains(t, err.Error(), "No such checkout.session")
}

func TestPaymentClient_InvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"object":"checkout.session"}`))
	}))
	defer server.Close()

	client := NewPaymentClient(PaymentClientConfig{BaseURL: server.URL})
	_, err := client.CreateCheckoutSession(context.Background(), interfaces.CheckoutRequest{OrderID: "ord_1", Amount: 100, Currency: "gbp"})
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindExternalDependencyFailure))
}

func TestPaymentClient_CancelledContext(t *testing.T) {
	client := NewPaymentClient(PaymentClientConfig{BaseURL: "http://127.0.0.1:1", RequestsPerSec: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetSessionStatus(ctx, "cs_1")
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindExternalDependencyFailure))
}
