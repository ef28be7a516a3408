package poller

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"hotel_management/pkg/models"
	"hotel_management/pkg/payment"
	"hotel_management/pkg/queue"
)

const (
	defaultBatch   = 50
	defaultBackoff = 30 * time.Second
	roundTimeout   = 2 * time.Minute
)

type confirmer interface {
	Confirm(ctx context.Context, paymentID string, reported models.PaymentStatus) (*models.Payment, bool, error)
	PendingPayments(ctx context.Context, limit int) ([]models.Payment, error)
}

// Poller asks the gateway about Waiting payments and settles the finished ones.
type Poller struct {
	payments confirmer
	gateway  payment.Gateway
	retries  *queue.Queue
	log      logrus.FieldLogger
	batch    int
	backoff  time.Duration
	now      func() time.Time
	cron     *cron.Cron
}

type Summary struct {
	Checked   int
	Confirmed int
	Requeued  int
	Dropped   int
}

func New(payments confirmer, gateway payment.Gateway, retries *queue.Queue, log logrus.FieldLogger) *Poller {
	return &Poller{
		payments: payments,
		gateway:  gateway,
		retries:  retries,
		log:      log.WithField("component", "payment-poller"),
		batch:    defaultBatch,
		backoff:  defaultBackoff,
		now:      time.Now,
	}
}

// Start schedules Poll. Overlapping rounds are skipped.
func (p *Poller) Start(schedule string) error {
	p.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := p.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), roundTimeout)
		defer cancel()
		p.Poll(ctx)
	})
	if err != nil {
		return err
	}
	p.cron.Start()
	p.log.WithField("schedule", schedule).Info("payment poller started")
	return nil
}

// Stop waits for a running round to finish.
func (p *Poller) Stop() {
	if p.cron == nil {
		return
	}
	<-p.cron.Stop().Done()
}

// Poll runs one round: due retries first, then fresh Waiting payments.
func (p *Poller) Poll(ctx context.Context) Summary {
	var summary Summary
	seen := make(map[string]bool)

	for _, req := range p.retries.DequeueDue() {
		seen[req.PaymentID] = true
		p.check(ctx, req.PaymentID, req.OrderID, req.RetryCount, &summary)
	}

	pending, err := p.payments.PendingPayments(ctx, p.batch)
	if err != nil {
		p.log.WithError(err).Error("failed to load pending payments")
		return summary
	}
	for _, pay := range pending {
		if seen[pay.ID] || p.retries.Pending(pay.ID) {
			continue
		}
		p.check(ctx, pay.ID, pay.OrderID, 0, &summary)
	}

	if summary.Checked > 0 {
		p.log.WithFields(logrus.Fields{
			"checked":   summary.Checked,
			"confirmed": summary.Confirmed,
			"requeued":  summary.Requeued,
			"dropped":   summary.Dropped,
		}).Info("payment poll finished")
	}
	return summary
}

func (p *Poller) check(ctx context.Context, paymentID, orderID string, retryCount int, summary *Summary) {
	summary.Checked++
	entry := p.log.WithFields(logrus.Fields{"payment_id": paymentID, "order_id": orderID})

	status, err := p.gateway.TransactionStatus(ctx, orderID)
	if err != nil {
		req := &queue.RetryRequest{
			PaymentID:  paymentID,
			OrderID:    orderID,
			RetryCount: retryCount + 1,
			MaxRetries: queue.DefaultMaxRetries,
			RetryAt:    p.now().Add(queue.Backoff(p.backoff, retryCount)),
			LastError:  err.Error(),
		}
		if req.Exhausted() {
			summary.Dropped++
			entry.WithError(err).Error("giving up on payment status after retries")
			return
		}
		p.retries.Enqueue(req)
		summary.Requeued++
		entry.WithError(err).WithField("retry_at", req.RetryAt).Warn("payment status check failed")
		return
	}

	reported, final := payment.Reported(status.State)
	if !final {
		return
	}

	_, changed, err := p.payments.Confirm(ctx, paymentID, reported)
	if err != nil {
		entry.WithError(err).Error("failed to confirm payment")
		return
	}
	if changed {
		summary.Confirmed++
	}
}
