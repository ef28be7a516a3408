package booking

import (
	"context"
	"time"

	"gorm.io/gorm"

	"hotel_management/pkg/apperr"
	"hotel_management/pkg/models"
)

type RoomQuery struct {
	Start      *time.Time
	End        *time.Time
	RoomTypeID *uint
	Page       Page
}

// QueryAvailableRooms lists rooms free for the requested stay. Without a full
// date range it falls back to the stored availability flag.
func (m *Manager) QueryAvailableRooms(ctx context.Context, q RoomQuery) ([]models.Room, int64, error) {
	page := q.Page.Normalize(10)
	byDate := q.Start != nil && q.End != nil
	if byDate && q.End.Before(*q.Start) {
		return nil, 0, apperr.Validation("end date must not be before start date")
	}

	scope := func(db *gorm.DB) *gorm.DB {
		if byDate {
			holding := m.db.Model(&models.Booking{}).
				Select("room_id").
				Where("check_in_date <= ? AND check_out_date >= ?", q.End.UTC(), q.Start.UTC()).
				Where("status NOT IN ?", models.ReleasedStatuses())
			db = db.Where("id NOT IN (?)", holding)
		} else {
			db = db.Where("availability = ?", true)
		}
		if q.RoomTypeID != nil {
			db = db.Where("room_type_id = ?", *q.RoomTypeID)
		}
		return db
	}

	db := m.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Room{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, apperr.FromDB(err, "room", "query")
	}

	var rooms []models.Room
	err := db.Model(&models.Room{}).
		Scopes(scope).
		Preload("RoomType").
		Order("id ASC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&rooms).Error
	if err != nil {
		return nil, 0, apperr.FromDB(err, "room", "query")
	}
	return rooms, total, nil
}
