package processor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sheldonroth/sheldonroth/pkg/circuitbreaker"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v80"
)

type breakerProcessor struct {
	next Processor
	cb   *gobreaker.CircuitBreaker[*Session]
}

// WithBreaker guards next with a circuit breaker. Only outages count as
// failures; a missing key or a rejected request leaves the breaker closed.
func WithBreaker(next Processor, settings circuitbreaker.Settings, log *slog.Logger) Processor {
	if settings.IsSuccessful == nil {
		settings.IsSuccessful = isNotOutage
	}
	return &breakerProcessor{
		next: next,
		cb:   circuitbreaker.New[*Session](settings, log),
	}
}

func (b *breakerProcessor) CreateSession(ctx context.Context, params *SessionParams) (*Session, error) {
	return b.cb.Execute(func() (*Session, error) {
		return b.next.CreateSession(ctx, params)
	})
}

func isNotOutage(err error) bool {
	if err == nil || errors.Is(err, ErrNotConfigured) || errors.Is(err, context.Canceled) {
		return true
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500 &&
			stripeErr.HTTPStatusCode != 429
	}
	return false
}
