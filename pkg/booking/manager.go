package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotel_management/pkg/apperr"
	"hotel_management/pkg/eventlog"
	"hotel_management/pkg/models"
)

// Manager owns booking state and keeps room availability consistent with it.
type Manager struct {
	db     *gorm.DB
	events eventlog.Recorder
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewManager(db *gorm.DB, events eventlog.Recorder, log logrus.FieldLogger) *Manager {
	return &Manager{
		db:     db,
		events: events,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type CreateInput struct {
	ID           string
	GuestID      string
	RoomID       uint
	CheckInDate  time.Time
	CheckOutDate time.Time
	BookingDate  *time.Time
	TotalGuest   int
	TotalDay     int
	Status       string
}

type UpdateInput struct {
	GuestID      *string
	RoomID       *uint
	CheckInDate  *time.Time
	CheckOutDate *time.Time
	TotalGuest   *int
	TotalDay     *int
}

type Page struct {
	Page  int
	Limit int
}

func (p Page) Normalize(defaultLimit int) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	return p
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TransitionCheckState applies a requested check state to a booking and its
// room in one transaction.
func (m *Manager) TransitionCheckState(ctx context.Context, bookingID string, requested models.BookingStatus) (*models.Booking, error) {
	var from, to models.BookingStatus

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Booking
		if err := tx.First(&b, "id = ?", bookingID).Error; err != nil {
			return apperr.FromDB(err, "booking", bookingID)
		}

		next, err := Transition(b.Status, requested)
		if err != nil {
			return err
		}

		if next == models.BookingCheckin {
			taken, err := occupiedByOther(tx, b.RoomID, b.ID)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: room %d is occupied", apperr.ErrConflict, b.RoomID)
			}
		}

		if err := CompareAndSetStatus(tx, b.ID, b.Status, next); err != nil {
			return err
		}
		if err := SyncAvailability(tx, b.RoomID); err != nil {
			return err
		}

		from, to = b.Status, next
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.record(ctx, bookingID, from, to, "check-state")
	return m.Get(ctx, bookingID)
}

func (m *Manager) record(ctx context.Context, bookingID string, from, to models.BookingStatus, source string) {
	if m.events == nil {
		return
	}
	event := eventlog.Event{BookingID: bookingID, From: from, To: to, Source: source, At: m.now()}
	if err := m.events.Record(ctx, event); err != nil {
		m.log.WithError(err).WithField("booking_id", bookingID).Warn("failed to record booking event")
	}
}

func (m *Manager) Create(ctx context.Context, in CreateInput) (*models.Booking, error) {
	status, err := models.ParseBookingStatus(in.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidStatus, err)
	}
	if status != models.BookingUnset && status != models.BookingWaiting {
		return nil, apperr.Validation("a new booking cannot start as %s", status)
	}
	if err := validateStay(in.CheckInDate, in.CheckOutDate, in.TotalGuest, in.TotalDay); err != nil {
		return nil, err
	}

	b := models.Booking{
		ID:           strings.TrimSpace(in.ID),
		GuestID:      in.GuestID,
		RoomID:       in.RoomID,
		CheckInDate:  in.CheckInDate.UTC(),
		CheckOutDate: in.CheckOutDate.UTC(),
		BookingDate:  m.now(),
		TotalGuest:   in.TotalGuest,
		TotalDay:     in.TotalDay,
		Status:       status,
	}
	if in.BookingDate != nil {
		b.BookingDate = in.BookingDate.UTC()
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, b.GuestID, b.RoomID, b.TotalGuest); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Booking{}).Where("id = ?", b.ID).Count(&existing).Error; err != nil {
			return apperr.FromDB(err, "booking", b.ID)
		}
		if existing > 0 {
			return fmt.Errorf("%w: booking %s already exists", apperr.ErrConflict, b.ID)
		}

		return apperr.FromDB(tx.Omit(clause.Associations).Create(&b).Error, "booking", b.ID)
	})
	if err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{"booking_id": b.ID, "room_id": b.RoomID}).Info("booking created")
	return m.Get(ctx, b.ID)
}

// Update changes stay details. Status is only changed through TransitionCheckState.
func (m *Manager) Update(ctx context.Context, id string, in UpdateInput) (*models.Booking, error) {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Booking
		if err := tx.First(&b, "id = ?", id).Error; err != nil {
			return apperr.FromDB(err, "booking", id)
		}

		changes := map[string]interface{}{}
		if in.GuestID != nil {
			b.GuestID = *in.GuestID
			changes["guest_id"] = b.GuestID
		}
		if in.RoomID != nil && *in.RoomID != b.RoomID {
			if b.Status == models.BookingCheckin {
				return fmt.Errorf("%w: booking %s is checked in", apperr.ErrConflict, id)
			}
			b.RoomID = *in.RoomID
			changes["room_id"] = b.RoomID
		}
		if in.CheckInDate != nil {
			b.CheckInDate = in.CheckInDate.UTC()
			changes["check_in_date"] = b.CheckInDate
		}
		if in.CheckOutDate != nil {
			b.CheckOutDate = in.CheckOutDate.UTC()
			changes["check_out_date"] = b.CheckOutDate
		}
		if in.TotalGuest != nil {
			b.TotalGuest = *in.TotalGuest
			changes["total_guest"] = b.TotalGuest
		}
		if in.TotalDay != nil {
			b.TotalDay = *in.TotalDay
			changes["total_day"] = b.TotalDay
		}
		if len(changes) == 0 {
			return nil
		}

		if err := validateStay(b.CheckInDate, b.CheckOutDate, b.TotalGuest, b.TotalDay); err != nil {
			return err
		}
		if err := checkReferences(tx, b.GuestID, b.RoomID, b.TotalGuest); err != nil {
			return err
		}

		return apperr.FromDB(tx.Model(&models.Booking{}).Where("id = ?", id).Updates(changes).Error, "booking", id)
	})
	if err != nil {
		return nil, err
	}
	return m.Get(ctx, id)
}

func (m *Manager) Get(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	err := m.db.WithContext(ctx).
		Preload("Guest").
		Preload("Room").
		Preload("Payment").
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, apperr.FromDB(err, "booking", id)
	}
	return &b, nil
}

func (m *Manager) List(ctx context.Context, page Page) ([]models.Booking, int64, error) {
	page = page.Normalize(10)

	var total int64
	if err := m.db.WithContext(ctx).Model(&models.Booking{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.FromDB(err, "booking", "list")
	}

	var bookings []models.Booking
	err := m.db.WithContext(ctx).
		Preload("Guest").
		Preload("Room").
		Order("booking_date DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, apperr.FromDB(err, "booking", "list")
	}
	return bookings, total, nil
}

// ListAwaitingCheckIn returns paid bookings the front desk has not checked in yet.
func (m *Manager) ListAwaitingCheckIn(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	err := m.db.WithContext(ctx).
		Preload("Guest").
		Preload("Room").
		Preload("Payment").
		Where("status = ?", models.BookingWaiting).
		Order("check_in_date ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, apperr.FromDB(err, "booking", "checkin")
	}
	return bookings, nil
}

func (m *Manager) History(ctx context.Context, bookingID string) ([]eventlog.Event, error) {
	if _, err := m.Get(ctx, bookingID); err != nil {
		return nil, err
	}
	if m.events == nil {
		return []eventlog.Event{}, nil
	}
	return m.events.History(ctx, bookingID)
}

// RecordTransition stores a status change committed outside the manager.
func (m *Manager) RecordTransition(ctx context.Context, bookingID string, from, to models.BookingStatus, source string) {
	m.record(ctx, bookingID, from, to, source)
}

func validateStay(checkIn, checkOut time.Time, totalGuest, totalDay int) error {
	var problems []string
	if checkIn.IsZero() || checkOut.IsZero() {
		problems = append(problems, "check-in and check-out dates are required")
	} else if !checkOut.After(checkIn) {
		problems = append(problems, "check-out date must be after check-in date")
	}
	if totalGuest < 1 {
		problems = append(problems, "total guest must be at least 1")
	}
	if totalDay < 1 {
		problems = append(problems, "total day must be at least 1")
	}
	if len(problems) > 0 {
		return apperr.Validation("%s", strings.Join(problems, "; "))
	}
	return nil
}

func checkReferences(tx *gorm.DB, guestID string, roomID uint, totalGuest int) error {
	var guest models.Guest
	if err := tx.Select("id").First(&guest, "id = ?", guestID).Error; err != nil {
		return apperr.FromDB(err, "guest", guestID)
	}

	var room models.Room
	if err := tx.Select("id", "max_capacity").First(&room, "id = ?", roomID).Error; err != nil {
		return apperr.FromDB(err, "room", roomID)
	}
	if room.MaxCapacity > 0 && totalGuest > room.MaxCapacity {
		return apperr.Validation("room %d holds at most %d guests", roomID, room.MaxCapacity)
	}
	return nil
}
