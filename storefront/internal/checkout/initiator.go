package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sheldonroth/sheldonroth/pkg/logger"
	"github.com/sheldonroth/sheldonroth/storefront/internal/cart"
	"github.com/sheldonroth/sheldonroth/storefront/internal/catalog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

// ErrCheckoutFailed covers every way a checkout attempt can fail: transport
// errors, non-2xx answers and answers without a redirect URL.
var ErrCheckoutFailed = errors.New("checkout failed")

// Item is one entry of the checkout request, in the endpoint's wire format.
// Price is in whole dollars.
type Item struct {
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
}

type request struct {
	Items []Item `json:"items"`
}

type response struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
	Error     string `json:"error"`
}

// ItemsFromLines maps cart lines to checkout items. The payment processor has
// no notion of sizes, so title and size are folded into the name here.
func ItemsFromLines(lines []cart.LineItem) []Item {
	items := make([]Item, 0, len(lines))
	for _, line := range lines {
		items = append(items, Item{
			Name:        fmt.Sprintf("%s - %s", line.Title, line.Size),
			Price:       line.Price,
			Quantity:    line.Quantity,
			Image:       line.Image,
			Description: fmt.Sprintf("%s | %s", line.Dimensions, line.Edition),
		})
	}
	return items
}

// BuyNowItem builds the single item for an immediate purchase of one print.
func BuyNowItem(p *catalog.Product, size catalog.Size) Item {
	edition := p.Edition.Label()
	if p.Edition.Total > 0 {
		edition = fmt.Sprintf("%s of %d", edition, p.Edition.Total)
	}
	return Item{
		Name:        fmt.Sprintf("%s - %s", p.Title, size.Name),
		Price:       size.Price,
		Quantity:    1,
		Image:       p.Image(),
		Description: fmt.Sprintf("%s | %s", size.Dimensions, edition),
	}
}

// DefaultTimeout bounds a shared checkout request once it is detached from
// the caller that started it.
const DefaultTimeout = 30 * time.Second

type Initiator struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	logger   *slog.Logger
	inflight singleflight.Group
}

type Option func(*Initiator)

func WithHTTPClient(c *http.Client) Option {
	return func(i *Initiator) { i.client = c }
}

func WithTimeout(d time.Duration) Option {
	return func(i *Initiator) { i.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(i *Initiator) { i.logger = l }
}

// NewInitiator posts checkout requests to endpoint. The HTTP client has no
// timeout of its own; each request is bounded by the initiator timeout.
func NewInitiator(endpoint string, opts ...Option) *Initiator {
	i := &Initiator{
		endpoint: endpoint,
		client:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		timeout:  DefaultTimeout,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Checkout asks the checkout endpoint for a payment session and returns the
// URL the browser must be sent to. An empty item list is a no-op and returns
// "" without touching the network. Concurrent calls with the same key share
// one request, so a double submit from one device creates one session. A
// caller whose ctx ends stops waiting; the shared request keeps running for
// the others until the initiator timeout.
func (i *Initiator) Checkout(ctx context.Context, key string, items []Item) (string, error) {
	if len(items) == 0 {
		return "", nil
	}

	ch := i.inflight.DoChan(key, func() (interface{}, error) {
		reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.timeout)
		defer cancel()
		return i.post(reqCtx, items)
	})

	select {
	case <-ctx.Done():
		i.logger.WarnContext(ctx, "checkout abandoned by caller", "key", key, "error", ctx.Err())
		return "", fmt.Errorf("%w: %v", ErrCheckoutFailed, ctx.Err())
	case res := <-ch:
		if res.Shared {
			i.logger.InfoContext(ctx, "joined in-flight checkout", "key", key)
		}
		if res.Err != nil {
			i.logger.WarnContext(ctx, "checkout failed", "key", key, "error", res.Err)
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (i *Initiator) post(ctx context.Context, items []Item) (string, error) {
	body, err := json.Marshal(request{Items: items})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrCheckoutFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrCheckoutFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrCheckoutFailed, err)
	}

	var out response
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && out.Error != "" {
			return "", fmt.Errorf("%w: status %d: %s", ErrCheckoutFailed, resp.StatusCode, out.Error)
		}
		return "", fmt.Errorf("%w: status %d", ErrCheckoutFailed, resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrCheckoutFailed, decodeErr)
	}
	if out.URL == "" {
		return "", fmt.Errorf("%w: response has no redirect url", ErrCheckoutFailed)
	}

	i.logger.InfoContext(ctx, "checkout session created", "session_id", out.SessionID, "items", len(items))
	return out.URL, nil
}
