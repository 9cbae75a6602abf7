package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCheckedIn BookingStatus = "CHECKED_IN"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// PaymentStatus tracks whether a booking has been paid.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
	PaymentStatusPaid   PaymentStatus = "PAID"
)

// Booking is a guest's stay over one or more physical rooms.
type Booking struct {
	ID                         int64           `gorm:"primaryKey" json:"id"`
	Reference                  string          `gorm:"uniqueIndex;size:8;not null" json:"reference"`
	GuestID                    int64           `gorm:"index;not null" json:"guestId"`
	CheckIn                    time.Time       `gorm:"not null;index" json:"checkIn"`
	CheckOut                   time.Time       `gorm:"not null;index" json:"checkOut"`
	NightsCount                int             `gorm:"not null" json:"nightsCount"`
	TotalPrice                 decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalPrice"`
	Status                     BookingStatus   `gorm:"type:varchar(16);not null;index" json:"status"`
	PaymentStatus              PaymentStatus   `gorm:"type:varchar(16);not null" json:"paymentStatus"`
	WantsDailyCleaning         bool            `gorm:"not null" json:"wantsDailyCleaning"`
	NextCleaningRequiresTowels bool            `gorm:"not null" json:"nextCleaningRequiresTowels"`
	Version                    int64           `gorm:"not null" json:"-"`
	CreatedAt                  time.Time       `gorm:"not null" json:"createdAt"`
	UpdatedAt                  time.Time       `gorm:"not null" json:"updatedAt"`

	// Associations
	Guest *Guest        `gorm:"foreignKey:GuestID;constraint:OnDelete:RESTRICT" json:"guest,omitempty"`
	Rooms []BookingRoom `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE" json:"rooms"`
}

// HasRoom reports whether roomID is one of the booking's rooms.
func (b *Booking) HasRoom(roomID int64) bool {
	for _, br := range b.Rooms {
		if br.RoomID == roomID {
			return true
		}
	}
	return false
}

// BookingRoom links a booking to a physical room and freezes the nightly price
// at the time of booking.
type BookingRoom struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	BookingID     int64           `gorm:"index;not null" json:"bookingId"`
	RoomID        int64           `gorm:"index;not null" json:"roomId"`
	Position      int             `gorm:"not null" json:"position"`
	PricePerNight decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"pricePerNight"`

	Room *Room `gorm:"foreignKey:RoomID;constraint:OnDelete:RESTRICT" json:"room,omitempty"`
}
