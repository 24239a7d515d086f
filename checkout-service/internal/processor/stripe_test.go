package processor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"
)

func testParams() *SessionParams {
	return &SessionParams{
		Currency: "usd",
		LineItems: []LineItem{
			{Name: "Gemsbok in the Mist - Large", Description: `60" x 45" | Limited Edition`, Image: "https://cdn.example.com/g.jpg", UnitAmount: 450000, Quantity: 2},
			{Name: "Reflection Pool - Medium", UnitAmount: 320000, Quantity: 1},
		},
		AllowedCountries: []string{"US", "CA"},
		Shipping:         ShippingOption{DisplayName: "Free Worldwide Shipping", Amount: 0, MinBusinessDays: 14, MaxBusinessDays: 28},
		SuccessURL:       "http://localhost:3000/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:        "http://localhost:3000/cart",
		Metadata:         map[string]string{"order_type": "fine_art_print"},
	}
}

func newTestBackend(t *testing.T, handler http.HandlerFunc) stripe.Backend {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
}

func TestBuildSessionParams(t *testing.T) {
	ctx := context.Background()
	params := buildSessionParams(ctx, testParams())

	assert.Equal(t, ctx, params.Context)
	assert.Equal(t, "payment", *params.Mode)
	require.Len(t, params.PaymentMethodTypes, 1)
	assert.Equal(t, "card", *params.PaymentMethodTypes[0])

	require.Len(t, params.LineItems, 2)
	first := params.LineItems[0]
	assert.Equal(t, int64(450000), *first.PriceData.UnitAmount)
	assert.Equal(t, "usd", *first.PriceData.Currency)
	assert.Equal(t, int64(2), *first.Quantity)
	assert.Equal(t, "Gemsbok in the Mist - Large", *first.PriceData.ProductData.Name)
	assert.Equal(t, `60" x 45" | Limited Edition`, *first.PriceData.ProductData.Description)
	require.Len(t, first.PriceData.ProductData.Images, 1)
	assert.Equal(t, "https://cdn.example.com/g.jpg", *first.PriceData.ProductData.Images[0])

	second := params.LineItems[1]
	assert.Nil(t, second.PriceData.ProductData.Description)
	assert.Empty(t, second.PriceData.ProductData.Images)

	assert.Equal(t, []*string{stripe.String("US"), stripe.String("CA")}, params.ShippingAddressCollection.AllowedCountries)

	require.Len(t, params.ShippingOptions, 1)
	rate := params.ShippingOptions[0].ShippingRateData
	assert.Equal(t, "fixed_amount", *rate.Type)
	assert.Equal(t, int64(0), *rate.FixedAmount.Amount)
	assert.Equal(t, "usd", *rate.FixedAmount.Currency)
	assert.Equal(t, "Free Worldwide Shipping", *rate.DisplayName)
	assert.Equal(t, "business_day", *rate.DeliveryEstimate.Minimum.Unit)
	assert.Equal(t, int64(14), *rate.DeliveryEstimate.Minimum.Value)
	assert.Equal(t, int64(28), *rate.DeliveryEstimate.Maximum.Value)

	assert.Equal(t, "http://localhost:3000/checkout/success?session_id={CHECKOUT_SESSION_ID}", *params.SuccessURL)
	assert.Equal(t, "http://localhost:3000/cart", *params.CancelURL)
	assert.Equal(t, map[string]string{"order_type": "fine_art_print"}, params.Metadata)
}

func TestStripeProcessor_MissingKey(t *testing.T) {
	p := NewStripeProcessor("", nil)

	s, err := p.CreateSession(context.Background(), testParams())
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.EqualError(t, err, "STRIPE_SECRET_KEY is not configured")
	assert.Nil(t, s)
}

func TestStripeProcessor_CreatesSession(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "card", r.PostForm.Get("payment_method_types[0]"))
		assert.Equal(t, "450000", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "2", r.PostForm.Get("line_items[0][quantity]"))
		assert.Equal(t, "CA", r.PostForm.Get("shipping_address_collection[allowed_countries][1]"))
		assert.Equal(t, "fine_art_print", r.PostForm.Get("metadata[order_type]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`))
	})

	s, err := NewStripeProcessor("sk_test_123", backend).CreateSession(context.Background(), testParams())
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", s.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", s.URL)
}

func TestStripeProcessor_PropagatesStripeError(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Invalid integer: abc"}}`))
	})

	s, err := NewStripeProcessor("sk_test_123", backend).CreateSession(context.Background(), testParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid integer: abc")
	assert.Nil(t, s)
	assert.True(t, isNotOutage(err), "a rejected request is not an outage")
}

func TestStripeProcessor_SessionWithoutURL(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_test_2","object":"checkout.session"}`))
	})

	_, err := NewStripeProcessor("sk_test_123", backend).CreateSession(context.Background(), testParams())
	assert.ErrorIs(t, err, ErrNoSessionURL)
}
