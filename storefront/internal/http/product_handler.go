package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sheldonroth/sheldonroth/storefront/internal/catalog"
	"github.com/sheldonroth/sheldonroth/storefront/internal/checkout"
)

type ProductHandler struct {
	catalog  catalogSource
	checkout Checkouter
	timeout  time.Duration
	logger   *slog.Logger
}

func NewProductHandler(reader catalog.Reader, checkouter Checkouter, timeout time.Duration, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		catalog:  catalogSource{reader: reader, logger: logger},
		checkout: checkouter,
		timeout:  timeout,
		logger:   logger,
	}
}

type CollectionResponseDTO struct {
	Collection *catalog.Collection `json:"collection"`
	Products   []*catalog.Product  `json:"products"`
}

type BuyNowRequestDTO struct {
	Size string `json:"size"`
}

// GET /api/collections
func (h *ProductHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	respondJSON(w, http.StatusOK, h.catalog.collections(ctx))
}

// GET /api/collections/{slug}
func (h *ProductHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	slug := chi.URLParam(r, "slug")
	col, err := h.catalog.collection(ctx, slug)
	if err != nil {
		respondError(w, http.StatusNotFound, "collection_not_found", "collection not found")
		return
	}

	products := h.catalog.products(ctx, catalog.ListOptions{Collection: slug})
	if products == nil {
		products = []*catalog.Product{}
	}
	respondJSON(w, http.StatusOK, CollectionResponseDTO{Collection: col, Products: products})
}

// GET /api/products?collection=&featured=&limit=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	opts := catalog.ListOptions{Collection: q.Get("collection")}

	if v := q.Get("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_featured", "featured must be a boolean")
			return
		}
		opts.Featured = featured
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		opts.Limit = limit
	}

	products := h.catalog.products(ctx, opts)
	if products == nil {
		products = []*catalog.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

// GET /api/products/{slug}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.product(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, http.StatusNotFound, "product_not_found", "product not found")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// POST /api/products/{slug}/buy-now
// Checks out a single print without touching the cart.
func (h *ProductHandler) BuyNow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req BuyNowRequestDTO
	if isForm(r) {
		req.Size = r.FormValue("size")
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Size == "" {
		respondError(w, http.StatusBadRequest, "invalid_size", "size is required")
		return
	}

	slug := chi.URLParam(r, "slug")
	product, size, ok := lookupProductSize(ctx, w, h.catalog, slug, req.Size)
	if !ok {
		return
	}

	key := "buy-now:" + getDeviceID(ctx) + ":" + product.Slug + ":" + size.Name
	url, err := h.checkout.Checkout(ctx, key, []checkout.Item{checkout.BuyNowItem(product, size)})
	respondCheckout(w, r, h.logger, url, err)
}
