package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/you/paywallsvc/domain"
)

// CheckoutClientImpl implements domain.PaymentGateway against the external
// processor's REST API. When no base URL is configured it runs in mock mode
// and fabricates a payment reference, mirroring how the notification client
// degrades when unconfigured.
type CheckoutClientImpl struct {
	baseURL       string
	apiKey        string
	webhookSecret []byte
	httpClient    *http.Client
}

// NewCheckoutClient creates a new payment gateway client
func NewCheckoutClient(baseURL, apiKey, webhookSecret string) domain.PaymentGateway {
	return &CheckoutClientImpl{
		baseURL:       baseURL,
		apiKey:        apiKey,
		webhookSecret: []byte(webhookSecret),
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

type createIntentRequest struct {
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata"`
}

type createIntentResponse struct {
	Reference   string `json:"reference"`
	RedirectURL string `json:"redirect_url"`
}

// CreateIntent implements domain.PaymentGateway
func (c *CheckoutClientImpl) CreateIntent(ctx context.Context, purchase *domain.Purchase) (*domain.PaymentIntent, error) {
	if c.baseURL == "" {
		return &domain.PaymentIntent{
			ExternalRef: "mockpay_" + uuid.NewString(),
			RedirectURL: "",
		}, nil
	}

	body, err := json.Marshal(createIntentRequest{
		AmountCents: purchase.AmountCents,
		Currency:    purchase.Currency,
		Metadata:    map[string]string{"purchase_id": purchase.ID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal intent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment_intents", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var out createIntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode intent response: %w", err)
	}

	return &domain.PaymentIntent{
		ExternalRef: out.Reference,
		RedirectURL: out.RedirectURL,
	}, nil
}

// VerifyWebhookSignature implements domain.PaymentGateway. The gateway signs
// webhook payloads with HMAC-SHA256 over the raw body.
func (c *CheckoutClientImpl) VerifyWebhookSignature(payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, c.webhookSecret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
