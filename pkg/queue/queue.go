package queue

import (
	"sync"
	"time"
)

const DefaultMaxRetries = 5

// RetryRequest is a payment status check scheduled for a later poll.
type RetryRequest struct {
	PaymentID  string
	OrderID    string
	RetryAt    time.Time
	RetryCount int
	MaxRetries int
	LastError  string
}

// Exhausted reports whether no further attempt is allowed.
func (r *RetryRequest) Exhausted() bool {
	return r.RetryCount >= r.MaxRetries
}

// Backoff doubles from base for every attempt already made.
func Backoff(base time.Duration, retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	if retryCount > 10 {
		retryCount = 10
	}
	return base * time.Duration(1<<uint(retryCount))
}

type Queue struct {
	items []*RetryRequest
	mu    sync.Mutex
	now   func() time.Time
}

func NewQueue() *Queue {
	return &Queue{
		items: make([]*RetryRequest, 0),
		now:   time.Now,
	}
}

// Enqueue replaces any entry already queued for the same payment.
func (q *Queue) Enqueue(req *RetryRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if req.MaxRetries == 0 {
		req.MaxRetries = DefaultMaxRetries
	}
	for i, item := range q.items {
		if item.PaymentID == req.PaymentID {
			q.items[i] = req
			return
		}
	}
	q.items = append(q.items, req)
}

// DequeueDue removes and returns every request whose retry time has passed.
func (q *Queue) DequeueDue() []*RetryRequest {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	due := make([]*RetryRequest, 0)
	remaining := q.items[:0]
	for _, req := range q.items {
		if !req.RetryAt.After(now) {
			due = append(due, req)
		} else {
			remaining = append(remaining, req)
		}
	}
	q.items = remaining
	return due
}

// Pending reports whether a payment is waiting in the queue.
func (q *Queue) Pending(paymentID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, req := range q.items {
		if req.PaymentID == paymentID {
			return true
		}
	}
	return false
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
