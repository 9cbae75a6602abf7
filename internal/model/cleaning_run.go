package model

import "time"

// CleaningRun records that the daily scheduler handled a booking on a given
// calendar day (YYYY-MM-DD in the scheduler's time zone).
type CleaningRun struct {
	BookingID    int64     `gorm:"primaryKey;autoIncrement:false"`
	Day          string    `gorm:"primaryKey;size:10"`
	TasksCreated int       `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}
