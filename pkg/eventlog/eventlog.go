package eventlog

import (
	"context"
	"sort"
	"sync"
	"time"

	"hotel_management/pkg/models"
)

// Event is one committed booking status change.
type Event struct {
	BookingID string               `bson:"booking_id" json:"bookingId"`
	From      models.BookingStatus `bson:"from" json:"from"`
	To        models.BookingStatus `bson:"to" json:"to"`
	Source    string               `bson:"source" json:"source"`
	At        time.Time            `bson:"at" json:"at"`
}

type Recorder interface {
	Record(ctx context.Context, event Event) error
	History(ctx context.Context, bookingID string) ([]Event, error)
}

type MemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string][]Event)}
}

func (s *MemoryStore) Record(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.BookingID] = append(s.events[event.BookingID], event)
	return nil
}

func (s *MemoryStore) History(_ context.Context, bookingID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Event, len(s.events[bookingID]))
	copy(result, s.events[bookingID])
	sort.SliceStable(result, func(i, j int) bool { return result[i].At.Before(result[j].At) })
	return result, nil
}
