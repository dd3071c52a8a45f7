package infrastructure

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rafflehouse/domain/common"
	"rafflehouse/domain/entities"

	"github.com/tidwall/gjson"
)

// PaymentSignatureHeader carries the webhook signature
const PaymentSignatureHeader = "Stripe-Signature"

// WebhookEvent is a verified provider notification about one checkout session
type WebhookEvent struct {
	ID        string
	Type      string
	SessionID string
	Status    entities.PaymentStatus // empty for events we do not act on
}

// WebhookVerifier checks signatures of the form t=<unix>,v1=<hex hmac-sha256(secret, t + "." + body)>
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewWebhookVerifier creates a verifier; tolerance bounds how old a signature may be
func NewWebhookVerifier(secret string, tolerance time.Duration) *WebhookVerifier {
	return &WebhookVerifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Sign produces a header value for payload at timestamp
func (v *WebhookVerifier) Sign(payload []byte, timestamp time.Time) string {
	ts := strconv.FormatInt(timestamp.Unix(), 10)
	return fmt.Sprintf("t=%s,v1=%s", ts, v.mac(ts, payload))
}

func (v *WebhookVerifier) mac(ts string, payload []byte) string {
	h := hmac.New(sha256.New, v.secret)
	h.Write([]byte(ts))
	h.Write([]byte("."))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify checks the header against payload
func (v *WebhookVerifier) Verify(payload []byte, header string) error {
	if len(v.secret) == 0 {
		return common.InvalidInput("Webhook secret not configured")
	}

	var ts string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			ts = value
		case "v1":
			signatures = append(signatures, value)
		}
	}
	if ts == "" || len(signatures) == 0 {
		return common.InvalidInput("Malformed signature header")
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return common.InvalidInput("Malformed signature timestamp")
	}
	age := v.now().Sub(time.Unix(unix, 0))
	if v.tolerance > 0 && (age > v.tolerance || age < -v.tolerance) {
		return common.InvalidInput("Signature timestamp outside tolerance")
	}

	expected := v.mac(ts, payload)
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return common.InvalidInput("Signature mismatch")
}

// ParseWebhook verifies and decodes a notification
func (v *WebhookVerifier) ParseWebhook(payload []byte, header string) (*WebhookEvent, error) {
	if err := v.Verify(payload, header); err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(payload) {
		return nil, common.InvalidInput("Webhook body is not JSON")
	}

	fields := gjson.GetManyBytes(payload, "id", "type", "data.object.id", "data.object.payment_status")
	event := &WebhookEvent{
		ID:        fields[0].String(),
		Type:      fields[1].String(),
		SessionID: fields[2].String(),
	}

	switch event.Type {
	case "checkout.session.completed":
		if fields[3].String() == "paid" || fields[3].String() == "no_payment_required" {
			event.Status = entities.PaymentStatusPaid
		} else {
			event.Status = entities.PaymentStatusUnpaid
		}
	case "checkout.session.async_payment_succeeded":
		event.Status = entities.PaymentStatusPaid
	case "checkout.session.async_payment_failed":
		event.Status = entities.PaymentStatusFailed
	case "checkout.session.expired":
		event.Status = entities.PaymentStatusExpired
	}

	if event.Status != "" && event.SessionID == "" {
		return nil, common.InvalidInput("Webhook event missing session")
	}
	return event, nil
}
