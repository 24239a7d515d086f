package service

import (
	"context"
	"sync"

	"github.com/sheldonroth/sheldonroth/checkout-service/internal/processor"
	r "github.com/sheldonroth/sheldonroth/checkout-service/internal/repository"
)

// MockProcessor implements processor.Processor for testing
type MockProcessor struct {
	mu      sync.Mutex
	Session *processor.Session
	Err     error
	Params  *processor.SessionParams // Captures the params passed to CreateSession
	Calls   int
}

func (m *MockProcessor) CreateSession(_ context.Context, params *processor.SessionParams) (*processor.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.Params = params
	return m.Session, m.Err
}

// MockLedger implements Ledger for testing
type MockLedger struct {
	mu        sync.Mutex
	CreateErr error
	Created   []*r.CheckoutSession
}

func (m *MockLedger) CreateCheckoutSession(_ context.Context, session *r.CheckoutSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, session)
	return m.CreateErr
}
