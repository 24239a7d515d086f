package domain

import "time"

type CartSnapshotItem struct {
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Subtotal  int64  `json:"subtotal"`
}

// CartSnapshot is what a payment session was created for, in minor units.
type CartSnapshot struct {
	Items       []CartSnapshotItem `json:"items"`
	TotalAmount int64              `json:"total_amount"`
	Currency    string             `json:"currency"`
	CapturedAt  time.Time          `json:"captured_at"`
}

func NewCartSnapshot(items []CheckoutItem, currency string, capturedAt time.Time) *CartSnapshot {
	snap := &CartSnapshot{
		Items:      make([]CartSnapshotItem, 0, len(items)),
		Currency:   currency,
		CapturedAt: capturedAt,
	}
	for _, item := range items {
		unit := ToMinorUnits(item.Price)
		snap.Items = append(snap.Items, CartSnapshotItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: unit,
			Subtotal:  unit * item.Quantity,
		})
		snap.TotalAmount += unit * item.Quantity
	}
	return snap
}

func (s *CartSnapshot) ItemCount() int64 {
	var n int64
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}
