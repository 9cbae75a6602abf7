package events

import "time"

type BookingEvent struct {
	BookingID     int64     `json:"bookingId"`
	Reference     string    `json:"reference"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	CheckIn       time.Time `json:"checkIn"`
	CheckOut      time.Time `json:"checkOut"`
	RoomIDs       []int64   `json:"roomIds"`
}

type TaskEvent struct {
	TaskID        int64  `json:"taskId"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	Priority      string `json:"priority"`
	RoomID        int64  `json:"roomId"`
	BookingID     *int64 `json:"bookingId,omitempty"`
	CompletedByID *int64 `json:"completedById,omitempty"`
}
