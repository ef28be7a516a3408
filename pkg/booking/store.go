package booking

import (
	"fmt"

	"gorm.io/gorm"

	"hotel_management/pkg/apperr"
	"hotel_management/pkg/models"
)

// CompareAndSetStatus writes next only while the row still holds observed.
// tx must be the caller's transaction.
func CompareAndSetStatus(tx *gorm.DB, bookingID string, observed, next models.BookingStatus) error {
	result := tx.Model(&models.Booking{}).
		Where("id = ? AND status = ?", bookingID, observed).
		Update("status", next)
	if result.Error != nil {
		return apperr.FromDB(result.Error, "booking", bookingID)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: booking %s changed concurrently", apperr.ErrConflict, bookingID)
	}
	return nil
}

// SyncAvailability derives the room flag from its checked-in bookings.
func SyncAvailability(tx *gorm.DB, roomID uint) error {
	var active int64
	err := tx.Model(&models.Booking{}).
		Where("room_id = ? AND status = ?", roomID, models.BookingCheckin).
		Count(&active).Error
	if err != nil {
		return apperr.FromDB(err, "room", roomID)
	}

	result := tx.Model(&models.Room{}).Where("id = ?", roomID).Update("availability", active == 0)
	if result.Error != nil {
		return apperr.FromDB(result.Error, "room", roomID)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("room", roomID)
	}
	return nil
}

func occupiedByOther(tx *gorm.DB, roomID uint, bookingID string) (bool, error) {
	var count int64
	err := tx.Model(&models.Booking{}).
		Where("room_id = ? AND status = ? AND id <> ?", roomID, models.BookingCheckin, bookingID).
		Count(&count).Error
	if err != nil {
		return false, apperr.FromDB(err, "room", roomID)
	}
	return count > 0, nil
}
