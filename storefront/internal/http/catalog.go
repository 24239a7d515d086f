package http

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sheldonroth/sheldonroth/storefront/internal/catalog"
)

// catalogSource reads from the catalog and substitutes the placeholder dataset
// when the catalog fails or has no published content yet.
type catalogSource struct {
	reader catalog.Reader
	logger *slog.Logger
}

func (c catalogSource) collections(ctx context.Context) []*catalog.Collection {
	collections, err := c.reader.ListCollections(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "using fallback collections", "error", err)
		return catalog.FallbackCollections()
	}
	if len(collections) == 0 {
		return catalog.FallbackCollections()
	}
	return collections
}

func (c catalogSource) collection(ctx context.Context, slug string) (*catalog.Collection, error) {
	col, err := c.reader.GetCollection(ctx, slug)
	if err == nil {
		return col, nil
	}
	if !errors.Is(err, catalog.ErrCollectionNotFound) {
		c.logger.WarnContext(ctx, "using fallback collection", "slug", slug, "error", err)
	}
	return catalog.FallbackCollection(slug)
}

func (c catalogSource) products(ctx context.Context, opts catalog.ListOptions) []*catalog.Product {
	products, err := c.reader.ListProducts(ctx, opts)
	if err != nil {
		c.logger.WarnContext(ctx, "using fallback products", "error", err)
		return catalog.FallbackProducts(opts)
	}
	if len(products) == 0 {
		return catalog.FallbackProducts(opts)
	}
	return products
}

func (c catalogSource) product(ctx context.Context, slug string) (*catalog.Product, error) {
	p, err := c.reader.GetProduct(ctx, slug)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, catalog.ErrProductNotFound) {
		c.logger.WarnContext(ctx, "using fallback product", "slug", slug, "error", err)
	}
	return catalog.FallbackProduct(slug)
}
