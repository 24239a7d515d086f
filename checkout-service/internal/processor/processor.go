package processor

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured = errors.New("STRIPE_SECRET_KEY is not configured")
	ErrNoSessionURL  = errors.New("payment session has no redirect url")
)

type LineItem struct {
	Name        string
	Description string
	Image       string
	// UnitAmount is in minor units (cents).
	UnitAmount int64
	Quantity   int64
}

type ShippingOption struct {
	DisplayName     string
	Amount          int64
	MinBusinessDays int64
	MaxBusinessDays int64
}

// SessionParams describes a hosted payment session independent of the processor.
type SessionParams struct {
	Currency         string
	LineItems        []LineItem
	AllowedCountries []string
	Shipping         ShippingOption
	SuccessURL       string
	CancelURL        string
	Metadata         map[string]string
}

type Session struct {
	ID  string
	URL string
}

// Processor creates hosted payment sessions.
type Processor interface {
	CreateSession(ctx context.Context, params *SessionParams) (*Session, error)
}
