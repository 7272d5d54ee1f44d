package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PaymentResult is the payment processor's answer.
type PaymentResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	Message       string `json:"message"`
}

// Processor is the mock payment processor: it waits a fixed delay and then
// approves, exactly like the stand-in gateway the storefront shipped with.
// Real payment integration replaces this type wholesale.
type Processor struct {
	delay time.Duration

	// newID mints transaction ids, overridable in tests.
	newID func() string
}

// NewProcessor creates a processor with the given simulated latency.
func NewProcessor(delay time.Duration) *Processor {
	return &Processor{
		delay: delay,
		newID: func() string { return "TXN-" + uuid.NewString() },
	}
}

// Process runs one payment. It honors context cancellation during the
// simulated latency window.
func (p *Processor) Process(ctx context.Context) (PaymentResult, error) {
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return PaymentResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	return PaymentResult{
		Success:       true,
		TransactionID: p.newID(),
		Message:       "payment approved",
	}, nil
}
