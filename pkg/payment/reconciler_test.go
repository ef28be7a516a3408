package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"hotel_management/pkg/apperr"
	"hotel_management/pkg/booking"
	"hotel_management/pkg/eventlog"
	"hotel_management/pkg/models"
)

type fakeGateway struct {
	mu        sync.Mutex
	created   []string
	amounts   []int64
	statuses  map[string]*TransactionStatus
	createErr error
	statusErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{statuses: make(map[string]*TransactionStatus)}
}

func (g *fakeGateway) CreateTransaction(_ context.Context, orderID string, amount int64, _ Customer) (*Transaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, orderID)
	g.amounts = append(g.amounts, amount)
	n := len(g.created)
	return &Transaction{
		OrderID:     orderID,
		Token:       fmt.Sprintf("token-%d", n),
		RedirectURL: fmt.Sprintf("https://pay.example/%d", n),
		Raw:         []byte(fmt.Sprintf(`{"token":"token-%d"}`, n)),
	}, nil
}

func (g *fakeGateway) TransactionStatus(_ context.Context, orderID string) (*TransactionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	if s, ok := g.statuses[orderID]; ok {
		return s, nil
	}
	return &TransactionStatus{OrderID: orderID, Code: "201", State: StatePending}, nil
}

func (g *fakeGateway) setStatus(orderID, code string, state State) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[orderID] = &TransactionStatus{OrderID: orderID, Code: code, State: state}
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type fixture struct {
	db         *gorm.DB
	gateway    *fakeGateway
	events     *eventlog.MemoryStore
	reconciler *Reconciler
}

func newFixture(t *testing.T, status models.BookingStatus) *fixture {
	db := setupTestDB(t)
	log := logrus.New()
	log.SetOutput(io.Discard)

	require.NoError(t, db.Create(&models.RoomType{ID: 1, Name: "Deluxe"}).Error)
	require.NoError(t, db.Create(&models.Room{ID: 1, Name: "Melati", MaxCapacity: 2, Floor: 1, RoomNumber: "101", Price: 150000, Availability: true, RoomTypeID: 1}).Error)
	require.NoError(t, db.Create(&models.Guest{ID: "G1", Name: "Siti", Address: "Jl. Sudirman 5", Email: "siti@example.com"}).Error)
	require.NoError(t, db.Create(&models.Booking{
		ID:           "B1",
		GuestID:      "G1",
		RoomID:       1,
		CheckInDate:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		CheckOutDate: time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC),
		BookingDate:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		TotalGuest:   2,
		TotalDay:     3,
		Status:       status,
	}).Error)

	events := eventlog.NewMemoryStore()
	gateway := newFakeGateway()
	bookings := booking.NewManager(db, events, log)

	return &fixture{
		db:         db,
		gateway:    gateway,
		events:     events,
		reconciler: NewReconciler(db, gateway, bookings, log),
	}
}

func (f *fixture) bookingStatus(t *testing.T) models.BookingStatus {
	var b models.Booking
	require.NoError(t, f.db.First(&b, "id = ?", "B1").Error)
	return b.Status
}

func TestInitiate(t *testing.T) {
	f := newFixture(t, models.BookingUnset)

	p, err := f.reconciler.Initiate(context.Background(), "B1")

	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "B1", p.BookingID)
	assert.Equal(t, "B1", p.OrderID)
	assert.Equal(t, int64(450000), p.Total)
	assert.Equal(t, models.PaymentWaiting, p.Status)
	assert.Equal(t, MethodMidtrans, p.PaymentMethod)
	require.NotNil(t, p.PaymentToken)
	assert.Equal(t, "token-1", *p.PaymentToken)
	require.NotNil(t, p.PaymentURL)
	assert.JSONEq(t, `{"token":"token-1"}`, string(p.GatewayResponse))
	assert.Equal(t, []int64{450000}, f.gateway.amounts)
}

func TestInitiateTwiceConflicts(t *testing.T) {
	f := newFixture(t, models.BookingUnset)
	_, err := f.reconciler.Initiate(context.Background(), "B1")
	require.NoError(t, err)

	_, err = f.reconciler.Initiate(context.Background(), "B1")

	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Len(t, f.gateway.created, 1)
}

func TestInitiateUnknownBooking(t *testing.T) {
	f := newFixture(t, models.BookingUnset)

	_, err := f.reconciler.Initiate(context.Background(), "missing")

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, f.gateway.created)
}

func TestInitiateGatewayFailurePersistsNothing(t *testing.T) {
	f := newFixture(t, models.BookingUnset)
	f.gateway.createErr = fmt.Errorf("%w: deadline", apperr.ErrGatewayTimeout)

	_, err := f.reconciler.Initiate(context.Background(), "B1")

	assert.ErrorIs(t, err, apperr.ErrGatewayTimeout)
	var count int64
	f.db.Model(&models.Payment{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestRefreshNotExpiredReturnsUnchanged(t *testing.T) {
	f := newFixture(t, models.BookingUnset)
	initial, err := f.reconciler.Initiate(context.Background(), "B1")
	require.NoError(t, err)

	p, refreshed, err := f.reconciler.Refresh(context.Background(), "B1")

	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Equal(t, initial.ID, p.ID)
	assert.Equal(t, *initial.PaymentToken, *p.PaymentToken)
	assert.Len(t, f.gateway.created, 1)
}

func TestRefreshExpiredIssuesNewTokenInPlace(t *testing.T) {
	f := newFixture(t, models.BookingUnset)
	initial, err := f.reconciler.Initiate(context.Background(), "B1")
	require.NoError(t, err)
	f.gateway.setStatus("B1", CodeExpired, StateExpired)

	p, refreshed, err := f.reconciler.Refresh(context.Background(), "B1")

	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, initial.ID, p.ID)
	assert.Equal(t, "B1-2", p.OrderID)
	assert.Equal(t, "token-2", *p.PaymentToken)
	assert.Equal(t, 2, p.Attempts)
	assert.Equal(t, []int64{450000, 450000}, f.gateway.amounts)

	var count int64
	f.db.Model(&models.Payment{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRefreshExpiredByCodeOnly(t *testing.T) {
	f := newFixture(t, models.BookingUnset)
	_, err := f.reconciler.Initiate(context.Background(), "B1")
	require.NoError(t, err)
	f.gateway.setStatus("B1", CodeExpired, StatePending)

	_, refreshed, err := f.reconciler.Refresh(context.Background(), "B1")

	require.NoError(t, err)
	assert.True(t, refreshed)
}

func TestRefreshWithoutPayment(t *testing.T) {
	f := newFixture(t, models.BookingUnset)

	_, _, err := f.reconciler.Refresh(context.Background(), "B1")

	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRefreshGatewayRejected(t *testing.T) {
	f := newFixture(t, models.BookingUnset)
	_, err := f.reconciler.Initiate(context.Background(), "B1")
	require.NoError(t, err)
	f.gateway.statusErr = fmt.Errorf("%w: 401", apperr.ErrGatewayRejected)

	_, _, err = f.reconciler.Refresh(context.Background(), "B1")

	assert.ErrorIs(t, err, apperr.ErrGatewayRejected)
}

func TestConfirmCompleteMovesBookingToWaiting(t *testing.T) {
	f := newFixture(t, models.BookingUnset)
	initial, err := f.reconciler.Initiate(context.Background(), "B1")
	require.NoError(t, err)

	p, changed, err := f.reconciler.Confirm(context.Background(), initial.ID, models.PaymentComplete)

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.PaymentComplete, p.Status)
	assert.Equal(t, models.BookingWaiting, f.bookingStatus(t))

	history, err := f.events.History(context.Background(), "B1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "payment", history[0].Source)
}

func TestConfirmIsIdempotent(t *testing.T) {
	f := newFixture(t, models.BookingUnset)
	initial, err := f.reconciler.Initiate(context.Background(), "B1")
	require.NoError(t, err)

	_, changed, err := f.reconciler.Confirm(context.Background(), initial.ID, models.PaymentComplete)
	require.NoError(t, err)
	require.True(t, changed)

	require.NoError(t, f.db.Model(&models.Booking{}).Where("id = ?", "B1").Update("status", models.BookingCheckin).Error)

	p, changed, err := f.reconciler.Confirm(context.Background(), initial.ID, models.PaymentComplete)

	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.PaymentComplete, p.Status)
	assert.Equal(t, models.BookingCheckin, f.bookingStatus(t))

	history, err := f.events.History(context.Background(), "B1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestConfirmCancelReleasesRoom(t *testing.T) {
	f := newFixture(t, models.BookingWaiting)
	initial, err := f.reconciler.Initiate(context.Background(), "B1")
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Room{}).Where("id = ?", 1).Update("availability", false).Error)

	_, changed, err := f.reconciler.Confirm(context.Background(), initial.ID, models.PaymentCancel)

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.BookingCancel, f.bookingStatus(t))

	var room models.Room
	require.NoError(t, f.db.First(&room, 1).Error)
	assert.True(t, room.Availability)
}

func TestConfirmConflictingTerminalStatus(t *testing.T) {
	f := newFixture(t, models.BookingUnset)
	initial, err := f.reconciler.Initiate(context.Background(), "B1")
	require.NoError(t, err)
	_, _, err = f.reconciler.Confirm(context.Background(), initial.ID, models.PaymentComplete)
	require.NoError(t, err)

	_, _, err = f.reconciler.Confirm(context.Background(), initial.ID, models.PaymentCancel)

	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, models.BookingWaiting, f.bookingStatus(t))
}

func TestConfirmRejectsNonTerminalStatus(t *testing.T) {
	f := newFixture(t, models.BookingUnset)
	initial, err := f.reconciler.Initiate(context.Background(), "B1")
	require.NoError(t, err)

	_, _, err = f.reconciler.Confirm(context.Background(), initial.ID, models.PaymentWaiting)

	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestConfirmUnknownPayment(t *testing.T) {
	f := newFixture(t, models.BookingUnset)

	_, _, err := f.reconciler.Confirm(context.Background(), "missing", models.PaymentComplete)

	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func (f *fixture) paymentStatus(t *testing.T, id string) models.PaymentStatus {
	var p models.Payment
	require.NoError(t, f.db.First(&p, "id = ?", id).Error)
	return p.Status
}

func TestConfirmRollsBackPaymentWhenBookingWriteFails(t *testing.T) {
	f := newFixture(t, models.BookingUnset)
	p, err := f.reconciler.Initiate(context.Background(), "B1")
	require.NoError(t, err)

	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("fail_booking_update", func(tx *gorm.DB) {
		if tx.Statement.Table == "bookings" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	_, changed, err := f.reconciler.Confirm(context.Background(), p.ID, models.PaymentComplete)

	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.False(t, changed)
	assert.Equal(t, models.PaymentWaiting, f.paymentStatus(t, p.ID))
	assert.Equal(t, models.BookingUnset, f.bookingStatus(t))
	history, _ := f.events.History(context.Background(), "B1")
	assert.Empty(t, history)
}

func TestConfirmCancelRollsBackWhenRoomWriteFails(t *testing.T) {
	f := newFixture(t, models.BookingWaiting)
	p, err := f.reconciler.Initiate(context.Background(), "B1")
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Booking{}).Where("id = ?", "B1").Update("room_id", 99).Error)

	_, _, err = f.reconciler.Confirm(context.Background(), p.ID, models.PaymentCancel)

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, models.PaymentWaiting, f.paymentStatus(t, p.ID))
	assert.Equal(t, models.BookingWaiting, f.bookingStatus(t))
}

func TestConfirmByOrder(t *testing.T) {
	f := newFixture(t, models.BookingUnset)
	_, err := f.reconciler.Initiate(context.Background(), "B1")
	require.NoError(t, err)

	p, changed, err := f.reconciler.ConfirmByOrder(context.Background(), "B1", models.PaymentComplete)

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.PaymentComplete, p.Status)

	_, _, err = f.reconciler.ConfirmByOrder(context.Background(), "unknown", models.PaymentComplete)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPendingPayments(t *testing.T) {
	f := newFixture(t, models.BookingUnset)
	initial, err := f.reconciler.Initiate(context.Background(), "B1")
	require.NoError(t, err)

	pending, err := f.reconciler.PendingPayments(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, initial.ID, pending[0].ID)

	_, _, err = f.reconciler.Confirm(context.Background(), initial.ID, models.PaymentCancel)
	require.NoError(t, err)

	pending, err = f.reconciler.PendingPayments(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReported(t *testing.T) {
	status, ok := Reported(StateSettled)
	assert.True(t, ok)
	assert.Equal(t, models.PaymentComplete, status)

	status, ok = Reported(StateFailed)
	assert.True(t, ok)
	assert.Equal(t, models.PaymentCancel, status)

	_, ok = Reported(StatePending)
	assert.False(t, ok)
	_, ok = Reported(StateExpired)
	assert.False(t, ok)
}
