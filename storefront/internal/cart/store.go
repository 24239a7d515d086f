package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sheldonroth/sheldonroth/pkg/logger"
)

// Store owns one device's cart in memory and writes it through to Storage after
// every mutation. A Store is meant to be used by a single owner (one request,
// one tab); two stores opened on the same key do not see each other's changes
// and the last Save wins.
type Store struct {
	mu       sync.Mutex
	storage  Storage
	key      string
	items    []LineItem
	hydrated bool

	now    func() time.Time
	logger *slog.Logger

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func New(storage Storage, key string, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		key:     key,
		now:     time.Now,
		logger:  logger.Nop(),
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns a hydrated store for the device.
func Open(ctx context.Context, storage Storage, deviceID string, opts ...Option) (*Store, error) {
	s := New(storage, Key(deviceID), opts...)
	if err := s.Hydrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Hydrate replaces the in-memory items with whatever is persisted under the
// store key. Missing or undecodable data yields an empty cart. Until Hydrate
// succeeds once, mutations are kept in memory only so that an empty default
// never overwrites a persisted cart.
func (s *Store) Hydrate(ctx context.Context) error {
	data, err := s.storage.Load(ctx, s.key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("load cart %s: %w", s.key, err)
	}

	var items []LineItem
	if len(data) > 0 {
		if errDecode := json.Unmarshal(data, &items); errDecode != nil {
			s.logger.WarnContext(ctx, "discarding unreadable cart", "key", s.key, "error", errDecode)
			items = nil
		}
	}
	items = sanitize(items)

	s.mu.Lock()
	s.items = items
	s.hydrated = true
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// AddItem increments the quantity of the line with the same product and size,
// or appends a new line with quantity 1.
func (s *Store) AddItem(ctx context.Context, d Draft) error {
	return s.mutate(ctx, func(items []LineItem) []LineItem {
		for i := range items {
			if items[i].ProductSlug == d.ProductSlug && items[i].Size == d.Size {
				items[i].Quantity++
				return items
			}
		}
		return append(items, LineItem{
			ID:          s.newID(items, d),
			ProductSlug: d.ProductSlug,
			Title:       d.Title,
			Size:        d.Size,
			Dimensions:  d.Dimensions,
			Price:       d.Price,
			Quantity:    1,
			Image:       d.Image,
			Edition:     d.Edition,
		})
	})
}

// RemoveItem drops the line with the given id. Unknown ids are ignored.
func (s *Store) RemoveItem(ctx context.Context, id string) error {
	return s.mutate(ctx, func(items []LineItem) []LineItem {
		return slices.DeleteFunc(items, func(item LineItem) bool { return item.ID == id })
	})
}

// UpdateQuantity sets the quantity of a line. Zero or negative removes it.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, id)
	}
	return s.mutate(ctx, func(items []LineItem) []LineItem {
		for i := range items {
			if items[i].ID == id {
				items[i].Quantity = quantity
			}
		}
		return items
	})
}

func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, func([]LineItem) []LineItem { return nil })
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count, _ := totals(s.items)
	return count
}

func (s *Store) TotalPrice() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, price := totals(s.items)
	return price
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to run after every hydration and mutation.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// mutate applies fn to the lines, then persists and notifies. The in-memory
// change stands even if persisting fails.
func (s *Store) mutate(ctx context.Context, fn func([]LineItem) []LineItem) error {
	s.mu.Lock()
	s.items = fn(s.items)
	snap := s.snapshotLocked()
	hydrated := s.hydrated
	var data []byte
	var errEncode error
	if hydrated {
		data, errEncode = json.Marshal(nonNil(s.items))
	}
	s.mu.Unlock()

	s.notify(snap)

	if !hydrated {
		return nil
	}
	if errEncode != nil {
		return fmt.Errorf("%w: %v", ErrPersist, errEncode)
	}
	if err := s.storage.Save(ctx, s.key, data); err != nil {
		s.logger.ErrorContext(ctx, "cart save failed", "key", s.key, "error", err)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (s *Store) snapshotLocked() Snapshot {
	count, price := totals(s.items)
	return Snapshot{
		Items:               nonNil(slices.Clone(s.items)),
		TotalItems:          count,
		TotalPrice:          price,
		TotalPriceFormatted: FormatPrice(price),
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// newID derives the line id from product, size and insertion time. A random
// suffix is added only when that id is already present in the cart.
func (s *Store) newID(items []LineItem, d Draft) string {
	id := fmt.Sprintf("%s-%s-%d", d.ProductSlug, d.Size, s.now().UnixMilli())
	taken := slices.ContainsFunc(items, func(item LineItem) bool { return item.ID == id })
	if taken {
		id = id + "-" + uuid.NewString()[:8]
	}
	return id
}

// sanitize drops persisted lines that would break the quantity floor.
func sanitize(items []LineItem) []LineItem {
	return slices.DeleteFunc(items, func(item LineItem) bool { return item.Quantity <= 0 })
}

func nonNil(items []LineItem) []LineItem {
	if items == nil {
		return []LineItem{}
	}
	return items
}
