package model

import "time"

// ReservationStatus is the lifecycle state of a category-level reservation.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
)

// Reservation pre-allocates one room of a category for a date range. A
// physical room is attached later.
type Reservation struct {
	ID         int64             `gorm:"primaryKey" json:"id"`
	CategoryID int64             `gorm:"index;not null" json:"categoryId"`
	StartDate  time.Time         `gorm:"not null;index" json:"startDate"`
	EndDate    time.Time         `gorm:"not null;index" json:"endDate"`
	Status     ReservationStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	RoomID     *int64            `gorm:"index" json:"roomId,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`

	Category *RoomCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"-"`
	Room     *Room         `gorm:"foreignKey:RoomID;constraint:OnDelete:SET NULL" json:"-"`
}

// Allocation is a date range occupying one room of a category, taken either
// from a reservation or from a booked room.
type Allocation struct {
	Start time.Time `gorm:"column:starts_at"`
	End   time.Time `gorm:"column:ends_at"`
}
