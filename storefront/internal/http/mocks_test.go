package http

import (
	"context"
	"sync"

	"github.com/sheldonroth/sheldonroth/storefront/internal/catalog"
	"github.com/sheldonroth/sheldonroth/storefront/internal/checkout"
)

type CatalogMock struct {
	mu          sync.Mutex
	collections []*catalog.Collection
	products    []*catalog.Product
	err         error
}

func (m *CatalogMock) ListCollections(ctx context.Context) ([]*catalog.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.collections, nil
}

func (m *CatalogMock) GetCollection(ctx context.Context, slug string) (*catalog.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, c := range m.collections {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, catalog.ErrCollectionNotFound
}

func (m *CatalogMock) ListProducts(ctx context.Context, opts catalog.ListOptions) ([]*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*catalog.Product
	for _, p := range m.products {
		if opts.Collection != "" && p.CollectionSlug != opts.Collection {
			continue
		}
		if opts.Featured && !p.Featured {
			continue
		}
		out = append(out, p)
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *CatalogMock) GetProduct(ctx context.Context, slug string) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, catalog.ErrProductNotFound
}

type checkoutCall struct {
	key   string
	items []checkout.Item
}

type CheckoutMock struct {
	mu    sync.Mutex
	url   string
	err   error
	calls []checkoutCall
}

// Checkout mirrors the real initiator: an empty list never leaves the process.
func (m *CheckoutMock) Checkout(ctx context.Context, key string, items []checkout.Item) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, checkoutCall{key: key, items: items})
	if m.err != nil {
		return "", m.err
	}
	return m.url, nil
}

func (m *CheckoutMock) Calls() []checkoutCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]checkoutCall(nil), m.calls...)
}
