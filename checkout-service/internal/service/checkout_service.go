package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	d "github.com/sheldonroth/sheldonroth/checkout-service/domain"
	"github.com/sheldonroth/sheldonroth/checkout-service/internal/processor"
	r "github.com/sheldonroth/sheldonroth/checkout-service/internal/repository"
	"github.com/sheldonroth/sheldonroth/pkg/logger"
)

const (
	Currency    = "usd"
	OrderType   = "fine_art_print"
	DefaultBase = "http://localhost:3000"
)

// AllowedCountries are the shipping destinations offered at checkout.
var AllowedCountries = []string{"US", "CA", "GB", "AU", "DE", "FR", "IT", "ES", "NL", "BE", "CH", "AT", "JP", "SG", "AE"}

var FreeShipping = processor.ShippingOption{
	DisplayName:     "Free Worldwide Shipping",
	Amount:          0,
	MinBusinessDays: 14,
	MaxBusinessDays: 28,
}

type CheckoutService interface {
	CreateSession(ctx context.Context, request *d.CheckoutRequest) (*d.CheckoutResponse, error)
}

// Ledger records created sessions. It is optional.
type Ledger interface {
	CreateCheckoutSession(ctx context.Context, session *r.CheckoutSession) error
}

var _ Ledger = (*r.Repository)(nil)

type CheckoutServiceImpl struct {
	processor processor.Processor
	ledger    Ledger
	baseURL   string
	now       func() time.Time
	logger    *slog.Logger
}

func NewCheckoutService(p processor.Processor, ledger Ledger, baseURL string, log *slog.Logger) *CheckoutServiceImpl {
	if baseURL == "" {
		baseURL = DefaultBase
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CheckoutServiceImpl{
		processor: p,
		ledger:    ledger,
		baseURL:   strings.TrimRight(baseURL, "/"),
		now:       time.Now,
		logger:    log,
	}
}

func (s *CheckoutServiceImpl) CreateSession(ctx context.Context, request *d.CheckoutRequest) (*d.CheckoutResponse, error) {
	if err := validate(request); err != nil {
		return nil, err
	}

	params := s.sessionParams(request)
	session, err := s.processor.CreateSession(ctx, params)
	if err != nil {
		s.logger.ErrorContext(ctx, "stripe checkout error", "error", err)
		return nil, err
	}
	if session == nil || session.URL == "" {
		return nil, processor.ErrNoSessionURL
	}

	s.record(ctx, session, request)

	return &d.CheckoutResponse{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

func validate(request *d.CheckoutRequest) error {
	if request == nil || len(request.Items) == 0 {
		return ErrInvalidItems
	}
	for i, item := range request.Items {
		if strings.TrimSpace(item.Name) == "" {
			return fmt.Errorf("%w: item %d has no name", ErrInvalidItems, i)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item %d quantity must be at least 1", ErrInvalidItems, i)
		}
		if item.Price < 0 {
			return fmt.Errorf("%w: item %d price must not be negative", ErrInvalidItems, i)
		}
	}
	return nil
}

func (s *CheckoutServiceImpl) sessionParams(request *d.CheckoutRequest) *processor.SessionParams {
	items := make([]processor.LineItem, 0, len(request.Items))
	for _, item := range request.Items {
		items = append(items, processor.LineItem{
			Name:        item.Name,
			Description: item.Description,
			Image:       item.Image,
			UnitAmount:  d.ToMinorUnits(item.Price),
			Quantity:    item.Quantity,
		})
	}

	successURL := request.SuccessURL
	if successURL == "" {
		successURL = s.baseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
	}
	cancelURL := request.CancelURL
	if cancelURL == "" {
		cancelURL = s.baseURL + "/cart"
	}

	return &processor.SessionParams{
		Currency:         Currency,
		LineItems:        items,
		AllowedCountries: AllowedCountries,
		Shipping:         FreeShipping,
		SuccessURL:       successURL,
		CancelURL:        cancelURL,
		Metadata:         map[string]string{"order_type": OrderType},
	}
}

// record writes the session to the ledger. Failures are logged only; the
// customer already has a valid payment session.
func (s *CheckoutServiceImpl) record(ctx context.Context, session *processor.Session, request *d.CheckoutRequest) {
	if s.ledger == nil {
		return
	}
	snapshot := d.NewCartSnapshot(request.Items, Currency, s.now())
	err := s.ledger.CreateCheckoutSession(ctx, &r.CheckoutSession{
		ID:          session.ID,
		ItemCount:   snapshot.ItemCount(),
		AmountTotal: snapshot.TotalAmount,
		Currency:    Currency,
		Snapshot:    snapshot,
		CreatedAt:   snapshot.CapturedAt,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to record checkout session", "session_id", session.ID, "error", err)
	}
}
