package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rafflehouse/domain/common"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// PaymentClientConfig configures the checkout provider client
type PaymentClientConfig struct {
	BaseURL        string
	APIKey         string
	RequestsPerSec int
	Timeout        time.Duration
}

// PaymentClient talks to a Stripe-compatible checkout sessions API
type PaymentClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ interfaces.PaymentProvider = (*PaymentClient)(nil)

// NewPaymentClient creates a payment client with client-side rate limiting
func NewPaymentClient(cfg PaymentClientConfig) *PaymentClient {
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &PaymentClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.RequestsPerSec),
	}
}

// CreateCheckoutSession starts a hosted checkout for the externally charged amount
func (c *PaymentClient) CreateCheckoutSession(ctx context.Context, req interfaces.CheckoutRequest) (*interfaces.CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("client_reference_id", req.OrderID)
	if req.Email != "" {
		form.Set("customer_email", req.Email)
	}
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", req.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(req.Amount, 10))
	form.Set("line_items[0][price_data][product_data][name]", req.Description)
	form.Set("metadata[order_id]", req.OrderID)
	form.Set("metadata[user_id]", req.UserID)

	body, err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}

	fields := gjson.GetManyBytes(body, "id", "url")
	if fields[0].String() == "" || fields[1].String() == "" {
		return nil, common.ExternalFailure(fmt.Errorf("checkout response missing id or url"), "Payment provider returned an invalid response")
	}

	log.WithFields(log.Fields{
		"orderID":   req.OrderID,
		"sessionID": fields[0].String(),
		"amount":    req.Amount,
	}).Info("Created checkout session")

	return &interfaces.CheckoutSession{
		SessionID: fields[0].String(),
		URL:       fields[1].String(),
	}, nil
}

// GetSessionStatus asks the provider for the session's current state
func (c *PaymentClient) GetSessionStatus(ctx context.Context, sessionID string) (*interfaces.SessionStatus, error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}

	if !gjson.GetBytes(body, "id").Exists() {
		return nil, common.ExternalFailure(fmt.Errorf("session response missing id"), "Payment provider returned an invalid response")
	}

	return &interfaces.SessionStatus{
		SessionID:   gjson.GetBytes(body, "id").String(),
		Status:      mapSessionStatus(gjson.GetBytes(body, "status").String(), gjson.GetBytes(body, "payment_status").String()),
		AmountTotal: gjson.GetBytes(body, "amount_total").Int(),
		Currency:    gjson.GetBytes(body, "currency").String(),
	}, nil
}

// mapSessionStatus folds the provider's session and payment states into ours
func mapSessionStatus(sessionStatus, paymentStatus string) entities.PaymentStatus {
	switch {
	case paymentStatus == "paid" || paymentStatus == "no_payment_required":
		return entities.PaymentStatusPaid
	case sessionStatus == "expired":
		return entities.PaymentStatusExpired
	case paymentStatus == "failed":
		return entities.PaymentStatusFailed
	default:
		return entities.PaymentStatusUnpaid
	}
}

func (c *PaymentClient) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, common.ExternalFailure(err, "Payment provider rate limit wait cancelled")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, common.ExternalFailure(err, "Payment provider unavailable")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, common.ExternalFailure(err, "Payment provider unavailable")
	}

	if resp.StatusCode >= 300 {
		message := gjson.GetBytes(data, "error.message").String()
		log.WithFields(log.Fields{
			"status":  resp.StatusCode,
			"path":    path,
			"message": message,
		}).Warn("Payment provider returned an error")
		return nil, common.ExternalFailure(fmt.Errorf("payment provider status %d: %s", resp.StatusCode, message), "Payment provider rejected the request")
	}
	if !gjson.ValidBytes(data) {
		return nil, common.ExternalFailure(fmt.Errorf("invalid JSON from payment provider"), "Payment provider returned an invalid response")
	}

	return data, nil
}
