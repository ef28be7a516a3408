package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDequeueDueReturnsOnlyDueItems(t *testing.T) {
	q := NewQueue()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return now }

	q.Enqueue(&RetryRequest{PaymentID: "p1", RetryAt: now.Add(-time.Second)})
	q.Enqueue(&RetryRequest{PaymentID: "p2", RetryAt: now})
	q.Enqueue(&RetryRequest{PaymentID: "p3", RetryAt: now.Add(time.Minute)})

	due := q.DequeueDue()

	require.Len(t, due, 2)
	assert.Equal(t, "p1", due[0].PaymentID)
	assert.Equal(t, "p2", due[1].PaymentID)
	assert.Equal(t, 1, q.Size())
	assert.True(t, q.Pending("p3"))
	assert.False(t, q.Pending("p1"))
}

func TestEnqueueReplacesSamePayment(t *testing.T) {
	q := NewQueue()

	q.Enqueue(&RetryRequest{PaymentID: "p1", RetryCount: 1})
	q.Enqueue(&RetryRequest{PaymentID: "p1", RetryCount: 2})

	assert.Equal(t, 1, q.Size())
	due := q.DequeueDue()
	require.Len(t, due, 1)
	assert.Equal(t, 2, due[0].RetryCount)
	assert.Equal(t, DefaultMaxRetries, due[0].MaxRetries)
}

func TestExhausted(t *testing.T) {
	req := &RetryRequest{RetryCount: 4, MaxRetries: 5}
	assert.False(t, req.Exhausted())
	req.RetryCount++
	assert.True(t, req.Exhausted())
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Minute, Backoff(time.Minute, 0))
	assert.Equal(t, 4*time.Minute, Backoff(time.Minute, 2))
	assert.Equal(t, Backoff(time.Second, 10), Backoff(time.Second, 50))
}
