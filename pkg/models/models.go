package models

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:120;not null;uniqueIndex" json:"email"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `gorm:"size:20;not null" json:"role"`
	Image     *string   `gorm:"size:255" json:"image,omitempty"`
	ImageID   *string   `gorm:"size:255" json:"imageId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Guest identity is the externally issued identity number (passport, national id).
type Guest struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"size:120;not null" json:"name"`
	Address     string    `gorm:"not null" json:"address"`
	Email       string    `gorm:"size:120;not null" json:"email"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type RoomType struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:80;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Room struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:80;not null" json:"name"`
	MaxCapacity  int       `gorm:"not null" json:"maxCapacity"`
	Floor        int       `gorm:"not null" json:"floor"`
	RoomNumber   string    `gorm:"size:20;not null" json:"roomNumber"`
	Price        int64     `gorm:"not null" json:"price"`
	Description  string    `json:"description"`
	Availability bool      `gorm:"not null;default:true" json:"availability"`
	RoomTypeID   uint      `gorm:"not null;index" json:"roomtypeId"`
	RoomType     *RoomType `gorm:"foreignKey:RoomTypeID" json:"roomtype,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Booking struct {
	ID           string        `gorm:"primaryKey;size:64" json:"id"`
	GuestID      string        `gorm:"size:64;not null;index" json:"guestId"`
	RoomID       uint          `gorm:"not null;index" json:"roomId"`
	CheckInDate  time.Time     `gorm:"not null" json:"checkInDate"`
	CheckOutDate time.Time     `gorm:"not null" json:"checkOutDate"`
	BookingDate  time.Time     `gorm:"not null" json:"bookingDate"`
	TotalGuest   int           `gorm:"not null" json:"totalGuest"`
	TotalDay     int           `gorm:"not null" json:"totalDay"`
	Status       BookingStatus `gorm:"size:20;not null;default:'';index" json:"status"`

	Guest   *Guest   `gorm:"foreignKey:GuestID" json:"guest,omitempty"`
	Room    *Room    `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Payment *Payment `gorm:"foreignKey:BookingID" json:"payment,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Payment struct {
	ID              string         `gorm:"primaryKey;size:64" json:"id"`
	BookingID       string         `gorm:"size:64;not null;uniqueIndex" json:"bookingId"`
	OrderID         string         `gorm:"size:80;not null;uniqueIndex" json:"orderId"`
	Total           int64          `gorm:"not null" json:"total"`
	PaymentDate     time.Time      `gorm:"not null" json:"paymentDate"`
	PaymentMethod   string         `gorm:"size:40;not null" json:"paymentMethod"`
	Status          PaymentStatus  `gorm:"size:20;not null;index" json:"status"`
	PaymentToken    *string        `gorm:"size:255" json:"paymentToken,omitempty"`
	PaymentURL      *string        `gorm:"size:512" json:"paymentUrl,omitempty"`
	Attempts        int            `gorm:"not null;default:1" json:"attempts"`
	GatewayResponse datatypes.JSON `json:"gatewayResponse,omitempty"`

	Booking *Booking `gorm:"foreignKey:BookingID" json:"booking,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&RoomType{},
		&Room{},
		&Guest{},
		&Booking{},
		&Payment{},
	}
}
