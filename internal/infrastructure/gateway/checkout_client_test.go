package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/paywallsvc/domain"
)

func testPurchase() *domain.Purchase {
	return &domain.Purchase{
		ID:          "purchase_1",
		AmountCents: 999,
		Currency:    "USD",
		Status:      domain.PurchasePending,
	}
}

func TestCheckoutClient_CreateIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req createIntentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(999), req.AmountCents)
		assert.Equal(t, "USD", req.Currency)
		assert.Equal(t, "purchase_1", req.Metadata["purchase_id"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(createIntentResponse{
			Reference:   "pay_abc",
			RedirectURL: "https://gateway.example/checkout/abc",
		})
	}))
	defer server.Close()

	client := NewCheckoutClient(server.URL, "test-key", "whsec")

	intent, err := client.CreateIntent(context.Background(), testPurchase())
	require.NoError(t, err)
	assert.Equal(t, "pay_abc", intent.ExternalRef)
	assert.Equal(t, "https://gateway.example/checkout/abc", intent.RedirectURL)
}

func TestCheckoutClient_CreateIntent_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewCheckoutClient(server.URL, "test-key", "whsec")

	_, err := client.CreateIntent(context.Background(), testPurchase())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestCheckoutClient_MockMode(t *testing.T) {
	client := NewCheckoutClient("", "", "whsec")

	intent, err := client.CreateIntent(context.Background(), testPurchase())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(intent.ExternalRef, "mockpay_"))
}

func TestCheckoutClient_VerifyWebhookSignature(t *testing.T) {
	client := NewCheckoutClient("", "", "whsec")
	payload := []byte(`{"reference":"pay_abc","outcome":"success"}`)

	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, client.VerifyWebhookSignature(payload, signature))
	assert.False(t, client.VerifyWebhookSignature(payload, "deadbeef"))
	assert.False(t, client.VerifyWebhookSignature([]byte("tampered"), signature))
}
