package application

import (
	"time"
)

// Metrics records business outcomes. The Prometheus recorder implements it.
type Metrics interface {
	// RecordOrder counts a purchase outcome such as "completed", "checkout" or "refunded"
	RecordOrder(outcome string)

	// RecordTicketsIssued counts tickets handed out
	RecordTicketsIssued(count int)

	// RecordJobRun records one background job execution
	RecordJobRun(job string, err error, duration time.Duration)
}

// CheckoutSettings configures the hosted checkout pages
type CheckoutSettings struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

// Order outcomes reported to Metrics
const (
	OrderOutcomeCompleted = "completed"
	OrderOutcomeCheckout  = "checkout"
	OrderOutcomeFailed    = "failed"
	OrderOutcomeRefunded  = "refunded"
)

type noopMetrics struct{}

func (noopMetrics) RecordOrder(string)                        {}
func (noopMetrics) RecordTicketsIssued(int)                   {}
func (noopMetrics) RecordJobRun(string, error, time.Duration) {}

func metricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
