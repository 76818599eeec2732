package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/watch-companion/internal/device"
)

var (
	// ErrNotFound is returned when no delivery of the requested kind is recorded.
	ErrNotFound = errors.New("no deliveries for kind")
)

// DeliveryHistory holds deliveries of one kind, oldest first.
type DeliveryHistory struct {
	Deliveries []device.Delivery
}

// MemoryStore is a concurrency-safe in-memory log of delivered messages.
type MemoryStore struct {
	mu sync.RWMutex

	// key: message kind
	data map[string]*DeliveryHistory

	maxHistory int           // per kind, <= 0 is unlimited
	maxAge     time.Duration // zero disables age retention

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*DeliveryHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveDelivery appends d to its kind's history and enforces retention.
func (s *MemoryStore) SaveDelivery(d device.Delivery) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[d.Kind]
	if !ok {
		history = &DeliveryHistory{}
		s.data[d.Kind] = history
	}

	history.Deliveries = append(history.Deliveries, d)

	if s.maxHistory > 0 && len(history.Deliveries) > s.maxHistory {
		over := len(history.Deliveries) - s.maxHistory
		history.Deliveries = history.Deliveries[over:]
	}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Deliveries); i++ {
			if !history.Deliveries[i].SentAt.Before(cutoff) {
				break
			}
		}
		history.Deliveries = history.Deliveries[i:]
	}
}

// GetLatest returns the most recent delivery of kind.
func (s *MemoryStore) GetLatest(kind string) (device.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[kind]
	if !ok || len(history.Deliveries) == 0 {
		return device.Delivery{}, ErrNotFound
	}
	return history.Deliveries[len(history.Deliveries)-1], nil
}

// GetRange returns deliveries of kind sent between from and to (inclusive).
func (s *MemoryStore) GetRange(kind string, from, to time.Time) ([]device.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[kind]
	if !ok || len(history.Deliveries) == 0 {
		return nil, ErrNotFound
	}

	var result []device.Delivery
	for _, d := range history.Deliveries {
		if !d.SentAt.Before(from) && !d.SentAt.After(to) {
			result = append(result, d)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
