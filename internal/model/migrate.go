package model

import "gorm.io/gorm"

// AutoMigrate creates or updates every table used by the service.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Guest{},
		&User{},
		&Employee{},
		&AccessConfiguration{},
		&RoomCategory{},
		&Room{},
		&Booking{},
		&BookingRoom{},
		&Reservation{},
		&ServiceTask{},
		&CleaningRun{},
		&PushSubscription{},
	)
}
