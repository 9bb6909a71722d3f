package memory

import (
	"context"
	"sync"
	"time"

	"paybridge/internal/domain/order"
	"paybridge/internal/domain/webhook"
	"paybridge/internal/store/repositories"
)

// Store is an in-memory OrderStore and DeliveryLog. It backs the core's
// tests and local development; the production implementation is postgres.
type Store struct {
	mu         sync.Mutex
	orders     map[string]*order.Order
	notes      map[string][]order.Note
	deliveries []*webhook.Delivery
	nextNoteID int64

	// side-effect counters, observable by tests
	StockReductions   map[string]int
	CartClears        map[string]int
	CompletionSignals map[string]int
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		orders:            make(map[string]*order.Order),
		notes:             make(map[string][]order.Note),
		StockReductions:   make(map[string]int),
		CartClears:        make(map[string]int),
		CompletionSignals: make(map[string]int),
	}
}

// Seed registers an order. The checkout flow creates orders before this
// service ever sees them.
func (s *Store) Seed(ord *order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ord
	s.orders[ord.ID] = &cp
}

// Load returns a copy of the stored order.
func (s *Store) Load(_ context.Context, id string) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ord, ok := s.orders[id]
	if !ok {
		return nil, repositories.ErrOrderNotFound
	}
	cp := *ord
	return &cp, nil
}

// Atomic serialises all mutations under one mutex, matching the per-order
// mutual-exclusion scope the state machine requires.
func (s *Store) Atomic(ctx context.Context, fn func(repositories.OrderTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&tx{s: s})
}

// Notes returns the notes appended to an order.
func (s *Store) Notes(id string) []order.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]order.Note(nil), s.notes[id]...)
}

// Status returns the current stored status.
func (s *Store) Status(id string) order.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ord, ok := s.orders[id]; ok {
		return ord.Status
	}
	return ""
}

// ListStalePending returns pending orders last touched before olderThan.
func (s *Store) ListStalePending(_ context.Context, olderThan time.Time, limit int) ([]*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*order.Order
	for _, ord := range s.orders {
		if ord.Status != order.StatusPendingPayment || !ord.UpdatedAt.Before(olderThan) {
			continue
		}
		cp := *ord
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Record appends a delivery audit record.
func (s *Store) Record(_ context.Context, d *webhook.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	cp.ID = int64(len(s.deliveries) + 1)
	s.deliveries = append(s.deliveries, &cp)
	return nil
}

// ListSince returns logged deliveries received at or after since.
func (s *Store) ListSince(_ context.Context, since time.Time, limit int) ([]*webhook.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*webhook.Delivery
	for _, d := range s.deliveries {
		if d.ReceivedAt.Before(since) {
			continue
		}
		cp := *d
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// tx mutates the store while its parent holds the lock.
type tx struct {
	s *Store
}

func (t *tx) LoadStatus(_ context.Context, id string) (order.Status, error) {
	ord, ok := t.s.orders[id]
	if !ok {
		return "", repositories.ErrOrderNotFound
	}
	return ord.Status, nil
}

func (t *tx) CompareAndSetStatus(_ context.Context, ord *order.Order, expected, next order.Status) (bool, error) {
	stored, ok := t.s.orders[ord.ID]
	if !ok {
		return false, repositories.ErrOrderNotFound
	}
	if stored.Status != expected {
		return false, nil
	}
	stored.Status = next
	stored.UpdatedAt = time.Now()
	return true, nil
}

func (t *tx) SetAcquiringURL(_ context.Context, ord *order.Order, url string) error {
	stored, ok := t.s.orders[ord.ID]
	if !ok {
		return repositories.ErrOrderNotFound
	}
	stored.AcquiringURL = url
	return nil
}

func (t *tx) AppendNote(_ context.Context, ord *order.Order, text string) error {
	t.s.nextNoteID++
	t.s.notes[ord.ID] = append(t.s.notes[ord.ID], order.Note{
		ID:        t.s.nextNoteID,
		OrderID:   ord.ID,
		Text:      text,
		CreatedAt: time.Now(),
	})
	return nil
}

func (t *tx) MarkPaid(_ context.Context, ord *order.Order, at time.Time) error {
	stored, ok := t.s.orders[ord.ID]
	if !ok {
		return repositories.ErrOrderNotFound
	}
	stored.PaidAt = &at
	return nil
}

func (t *tx) ReduceStock(_ context.Context, ord *order.Order) error {
	t.s.StockReductions[ord.ID]++
	return nil
}

func (t *tx) ClearCart(_ context.Context, ord *order.Order) error {
	t.s.CartClears[ord.ID]++
	return nil
}

func (t *tx) OnPaymentCompleted(_ context.Context, ord *order.Order) error {
	t.s.CompletionSignals[ord.ID]++
	return nil
}
