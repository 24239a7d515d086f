package cart

import (
	"context"
	"errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// KeyPrefix namespaces every persisted cart.
const KeyPrefix = "sheldonroth-cart"

var (
	ErrNotFound = errors.New("cart not found in storage")
	ErrPersist  = errors.New("failed to persist cart")
)

// LineItem is one product+size entry. Display fields and price are a snapshot
// taken when the item was added and are never refreshed from the catalog.
type LineItem struct {
	ID          string `json:"id"`
	ProductSlug string `json:"productSlug"`
	Title       string `json:"title"`
	Size        string `json:"size"`
	Dimensions  string `json:"dimensions"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	Image       string `json:"image"`
	Edition     string `json:"edition"`
}

// Draft is what callers hand to AddItem: a line item without id and quantity.
type Draft struct {
	ProductSlug string
	Title       string
	Size        string
	Dimensions  string
	Price       int64
	Image       string
	Edition     string
}

type Snapshot struct {
	Items               []LineItem `json:"items"`
	TotalItems          int        `json:"totalItems"`
	TotalPrice          int64      `json:"totalPrice"`
	TotalPriceFormatted string     `json:"totalPriceFormatted"`
}

// Storage is durable key/value storage for serialized carts.
// Load returns ErrNotFound when nothing is stored under key.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

func Key(deviceID string) string {
	return KeyPrefix + ":" + deviceID
}

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatPrice renders whole dollars the way the storefront displays them: "$1,300".
func FormatPrice(dollars int64) string {
	if dollars < 0 {
		return usd.Sprintf("-$%d", -dollars)
	}
	return usd.Sprintf("$%d", dollars)
}

func totals(items []LineItem) (count int, price int64) {
	for _, item := range items {
		count += item.Quantity
		price += item.Price * int64(item.Quantity)
	}
	return count, price
}
