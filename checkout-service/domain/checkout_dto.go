package domain

import "math"

// CheckoutItem is one line of a checkout request. Price is in major currency
// units (dollars) and may carry cents.
type CheckoutItem struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Quantity    int64   `json:"quantity"`
	Image       string  `json:"image,omitempty"`
	Description string  `json:"description,omitempty"`
}

type CheckoutRequest struct {
	Items      []CheckoutItem `json:"items"`
	SuccessURL string         `json:"successUrl,omitempty"`
	CancelURL  string         `json:"cancelUrl,omitempty"`
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// ToMinorUnits converts a major-unit price to cents, rounding half away from zero.
func ToMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
