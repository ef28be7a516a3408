package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotel_management/pkg/apperr"
	"hotel_management/pkg/booking"
	"hotel_management/pkg/models"
)

const MethodMidtrans = "Midtrans"

// Reconciler creates gateway payments for bookings and applies their outcome.
type Reconciler struct {
	db       *gorm.DB
	gateway  Gateway
	bookings *booking.Manager
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewReconciler(db *gorm.DB, gateway Gateway, bookings *booking.Manager, log logrus.FieldLogger) *Reconciler {
	return &Reconciler{
		db:       db,
		gateway:  gateway,
		bookings: bookings,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Initiate opens a gateway transaction for the whole stay of a booking.
func (r *Reconciler) Initiate(ctx context.Context, bookingID string) (*models.Payment, error) {
	var b models.Booking
	err := r.db.WithContext(ctx).Preload("Room").Preload("Guest").First(&b, "id = ?", bookingID).Error
	if err != nil {
		return nil, apperr.FromDB(err, "booking", bookingID)
	}
	if b.Room == nil || b.Guest == nil {
		return nil, apperr.NotFound("booking references", bookingID)
	}

	var existing int64
	if err := r.db.WithContext(ctx).Model(&models.Payment{}).Where("booking_id = ?", bookingID).Count(&existing).Error; err != nil {
		return nil, apperr.FromDB(err, "payment", bookingID)
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: booking %s already has a payment, refresh it instead", apperr.ErrConflict, bookingID)
	}

	amount := int64(b.TotalDay) * b.Room.Price
	customer := Customer{ID: b.Guest.ID, Name: b.Guest.Name, Email: b.Guest.Email}

	tx, err := r.gateway.CreateTransaction(ctx, b.ID, amount, customer)
	if err != nil {
		r.log.WithError(err).WithField("booking_id", bookingID).Warn("gateway transaction failed")
		return nil, err
	}

	p := models.Payment{
		ID:              uuid.NewString(),
		BookingID:       b.ID,
		OrderID:         tx.OrderID,
		Total:           amount,
		PaymentDate:     r.now(),
		PaymentMethod:   MethodMidtrans,
		Status:          models.PaymentWaiting,
		PaymentToken:    stringPtr(tx.Token),
		PaymentURL:      stringPtr(tx.RedirectURL),
		Attempts:        1,
		GatewayResponse: rawJSON(tx.Raw),
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&p).Error; err != nil {
		return nil, apperr.FromDB(err, "payment", bookingID)
	}

	r.log.WithFields(logrus.Fields{"booking_id": b.ID, "payment_id": p.ID, "total": amount}).Info("payment initiated")
	return &p, nil
}

// Refresh replaces the gateway token when the previous transaction expired.
// The returned flag tells whether a new token was issued.
func (r *Reconciler) Refresh(ctx context.Context, bookingID string) (*models.Payment, bool, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).
		Preload("Booking.Guest").
		First(&p, "booking_id = ?", bookingID).Error
	if err != nil {
		return nil, false, apperr.FromDB(err, "payment", bookingID)
	}

	status, err := r.gateway.TransactionStatus(ctx, p.OrderID)
	if err != nil {
		return nil, false, err
	}
	if status.State != StateExpired && status.Code != CodeExpired {
		return &p, false, nil
	}
	if p.Status != models.PaymentWaiting {
		return nil, false, fmt.Errorf("%w: payment %s is %s", apperr.ErrInvalidTransition, p.ID, p.Status)
	}

	amount := p.Total
	if amount < 1 {
		amount = 1
	}
	customer := Customer{ID: bookingID}
	if p.Booking != nil && p.Booking.Guest != nil {
		customer = Customer{ID: p.Booking.Guest.ID, Name: p.Booking.Guest.Name, Email: p.Booking.Guest.Email}
	}

	attempt := p.Attempts + 1
	tx, err := r.gateway.CreateTransaction(ctx, fmt.Sprintf("%s-%d", bookingID, attempt), amount, customer)
	if err != nil {
		return nil, false, err
	}

	result := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", p.ID, models.PaymentWaiting).
		Updates(map[string]interface{}{
			"order_id":         tx.OrderID,
			"payment_token":    tx.Token,
			"payment_url":      tx.RedirectURL,
			"attempts":         attempt,
			"gateway_response": rawJSON(tx.Raw),
		})
	if result.Error != nil {
		return nil, false, apperr.FromDB(result.Error, "payment", p.ID)
	}
	if result.RowsAffected == 0 {
		return nil, false, fmt.Errorf("%w: payment %s changed concurrently", apperr.ErrConflict, p.ID)
	}

	r.log.WithFields(logrus.Fields{"payment_id": p.ID, "order_id": tx.OrderID}).Info("payment token refreshed")
	refreshed, err := r.Get(ctx, p.ID)
	return refreshed, true, err
}

// Confirm applies a terminal status to a payment and its booking once. The
// returned flag is false when nothing changed.
func (r *Reconciler) Confirm(ctx context.Context, paymentID string, reported models.PaymentStatus) (*models.Payment, bool, error) {
	if !reported.Terminal() {
		return nil, false, fmt.Errorf("%w: %q is not a confirmable payment status", apperr.ErrInvalidStatus, string(reported))
	}

	var bookingID string
	var from, to models.BookingStatus
	changed := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Payment
		if err := tx.First(&p, "id = ?", paymentID).Error; err != nil {
			return apperr.FromDB(err, "payment", paymentID)
		}
		if err := checkTerminal(p, reported); err != nil || p.Status == reported {
			return err
		}

		result := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", p.ID, models.PaymentWaiting).
			Update("status", reported)
		if result.Error != nil {
			return apperr.FromDB(result.Error, "payment", p.ID)
		}
		if result.RowsAffected == 0 {
			if err := tx.First(&p, "id = ?", paymentID).Error; err != nil {
				return apperr.FromDB(err, "payment", paymentID)
			}
			return checkTerminal(p, reported)
		}
		changed = true

		var b models.Booking
		if err := tx.First(&b, "id = ?", p.BookingID).Error; err != nil {
			return apperr.FromDB(err, "booking", p.BookingID)
		}
		bookingID, from = b.ID, b.Status

		switch reported {
		case models.PaymentComplete:
			if b.Status != models.BookingUnset {
				return nil
			}
			to = models.BookingWaiting
			return booking.CompareAndSetStatus(tx, b.ID, b.Status, to)
		default:
			if b.Status == models.BookingCancel {
				return nil
			}
			to = models.BookingCancel
			if err := booking.CompareAndSetStatus(tx, b.ID, b.Status, to); err != nil {
				return err
			}
			return booking.SyncAvailability(tx, b.RoomID)
		}
	})
	if err != nil {
		return nil, false, err
	}

	if to != "" && r.bookings != nil {
		r.bookings.RecordTransition(ctx, bookingID, from, to, "payment")
	}
	if changed {
		r.log.WithFields(logrus.Fields{"payment_id": paymentID, "status": reported}).Info("payment confirmed")
	}

	p, err := r.Get(ctx, paymentID)
	return p, changed, err
}

// ConfirmByOrder is Confirm keyed by the gateway order id.
func (r *Reconciler) ConfirmByOrder(ctx context.Context, orderID string, reported models.PaymentStatus) (*models.Payment, bool, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).Select("id").First(&p, "order_id = ?", orderID).Error; err != nil {
		return nil, false, apperr.FromDB(err, "payment order", orderID)
	}
	return r.Confirm(ctx, p.ID, reported)
}

func (r *Reconciler) Get(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, apperr.FromDB(err, "payment", id)
	}
	return &p, nil
}

// PendingPayments returns the oldest payments still waiting on the gateway.
func (r *Reconciler) PendingPayments(ctx context.Context, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ?", models.PaymentWaiting).
		Order("payment_date ASC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, apperr.FromDB(err, "payment", "pending")
	}
	return payments, nil
}

// checkTerminal rejects overwriting one terminal status with another.
func checkTerminal(p models.Payment, reported models.PaymentStatus) error {
	if p.Status.Terminal() && p.Status != reported {
		return fmt.Errorf("%w: payment %s is already %s", apperr.ErrInvalidTransition, p.ID, p.Status)
	}
	return nil
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func rawJSON(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return nil
	}
	return datatypes.JSON(raw)
}
