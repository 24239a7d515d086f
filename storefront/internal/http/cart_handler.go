package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sheldonroth/sheldonroth/storefront/internal/cart"
	"github.com/sheldonroth/sheldonroth/storefront/internal/catalog"
	"github.com/sheldonroth/sheldonroth/storefront/internal/checkout"
)

const checkoutFailedMessage = "Failed to initiate checkout. Please try again."

// Checkouter turns checkout items into a hosted payment page URL.
type Checkouter interface {
	Checkout(ctx context.Context, key string, items []checkout.Item) (string, error)
}

type CartHandler struct {
	storage  cart.Storage
	catalog  catalogSource
	checkout Checkouter
	timeout  time.Duration
	logger   *slog.Logger
}

func NewCartHandler(storage cart.Storage, reader catalog.Reader, checkouter Checkouter, timeout time.Duration, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		storage:  storage,
		catalog:  catalogSource{reader: reader, logger: logger},
		checkout: checkouter,
		timeout:  timeout,
		logger:   logger,
	}
}

type AddItemRequestDTO struct {
	ProductSlug string `json:"productSlug"`
	Size        string `json:"size"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity"`
}

type CheckoutResponseDTO struct {
	URL string `json:"url"`
}

// openCart loads the device's cart. It writes the error response itself and
// reports false when the cart cannot be used.
func (h *CartHandler) openCart(ctx context.Context, w http.ResponseWriter) (*cart.Store, bool) {
	deviceID := getDeviceID(ctx)
	if deviceID == "" {
		respondError(w, http.StatusBadRequest, "missing_device", "device cookie is required")
		return nil, false
	}

	store, err := cart.Open(ctx, h.storage, deviceID, cart.WithLogger(h.logger))
	if err != nil {
		h.logger.ErrorContext(ctx, "open cart failed", "device_id", deviceID, "request_id", getRequestID(ctx), "error", err)
		respondError(w, http.StatusServiceUnavailable, "storage_unavailable", "cart storage is unavailable")
		return nil, false
	}
	return store, true
}

// respondMutation answers with the cart after a mutation, or with the
// persistence failure when the change could not be saved.
func (h *CartHandler) respondMutation(w http.ResponseWriter, status int, store *cart.Store, err error) {
	if err != nil {
		if errors.Is(err, cart.ErrPersist) {
			respondError(w, http.StatusServiceUnavailable, "persist_failed", "cart could not be saved")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	respondJSON(w, status, store.Snapshot())
}

// GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, ok := h.openCart(ctx, w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, store.Snapshot())
}

// POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductSlug == "" || req.Size == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "productSlug and size are required")
		return
	}

	product, size, ok := lookupProductSize(ctx, w, h.catalog, req.ProductSlug, req.Size)
	if !ok {
		return
	}

	store, ok := h.openCart(ctx, w)
	if !ok {
		return
	}

	err := store.AddItem(ctx, cart.Draft{
		ProductSlug: product.Slug,
		Title:       product.Title,
		Size:        size.Name,
		Dimensions:  size.Dimensions,
		Price:       size.Price,
		Image:       product.Image(),
		Edition:     product.Edition.Label(),
	})
	h.respondMutation(w, http.StatusCreated, store, err)
}

// PATCH /api/cart/items/{id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity is required")
		return
	}

	store, ok := h.openCart(ctx, w)
	if !ok {
		return
	}
	h.respondMutation(w, http.StatusOK, store, store.UpdateQuantity(ctx, id, *req.Quantity))
}

// DELETE /api/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, ok := h.openCart(ctx, w)
	if !ok {
		return
	}
	h.respondMutation(w, http.StatusOK, store, store.RemoveItem(ctx, chi.URLParam(r, "id")))
}

// DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, ok := h.openCart(ctx, w)
	if !ok {
		return
	}
	h.respondMutation(w, http.StatusOK, store, store.ClearCart(ctx))
}

// POST /api/cart/checkout
// The cart is never modified here; a failed attempt can simply be retried.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, ok := h.openCart(ctx, w)
	if !ok {
		return
	}

	items := checkout.ItemsFromLines(store.Items())
	url, err := h.checkout.Checkout(ctx, cart.Key(getDeviceID(ctx)), items)
	respondCheckout(w, r, h.logger, url, err)
}

func lookupProductSize(ctx context.Context, w http.ResponseWriter, src catalogSource, slug, sizeName string) (*catalog.Product, catalog.Size, bool) {
	product, err := src.product(ctx, slug)
	if err != nil {
		respondError(w, http.StatusNotFound, "product_not_found", "product not found")
		return nil, catalog.Size{}, false
	}
	if product.Status == catalog.StatusSoldOut || product.Edition.Remaining() == 0 {
		respondError(w, http.StatusConflict, "sold_out", "this print is sold out")
		return nil, catalog.Size{}, false
	}
	size, err := product.Size(sizeName)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_size", "size is not offered for this product")
		return nil, catalog.Size{}, false
	}
	return product, size, true
}

// respondCheckout writes the outcome of a checkout attempt. Browsers posting a
// plain form are redirected; API callers get the URL as JSON.
func respondCheckout(w http.ResponseWriter, r *http.Request, logger *slog.Logger, url string, err error) {
	if err != nil {
		logger.WarnContext(r.Context(), "checkout failed", "request_id", getRequestID(r.Context()), "error", err)
		respondError(w, http.StatusBadGateway, "checkout_failed", checkoutFailedMessage)
		return
	}
	if url == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if wantsRedirect(r) {
		http.Redirect(w, r, url, http.StatusSeeOther)
		return
	}
	respondJSON(w, http.StatusOK, CheckoutResponseDTO{URL: url})
}

func wantsRedirect(r *http.Request) bool {
	if isForm(r) {
		return true
	}
	for _, accept := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(accept))
		if err == nil && mediaType == "text/html" {
			return true
		}
	}
	return false
}

func isForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}
