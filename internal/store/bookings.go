package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
)

func (s *gormStore) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Booking{}).
		Where("reference = ?", reference).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("check reference %s: %w", reference, err)
	}
	return n > 0, nil
}

// CreateBooking inserts the booking and its rooms as one unit. A reference
// collision is reported as a Conflict with CodeDuplicateReference.
func (s *gormStore) CreateBooking(ctx context.Context, booking *model.Booking) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(booking).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict(apperr.CodeDuplicateReference, "booking reference %s already taken", booking.Reference).Wrap(err)
			}
			return fmt.Errorf("insert booking: %w", err)
		}
		for i := range booking.Rooms {
			booking.Rooms[i].BookingID = booking.ID
			booking.Rooms[i].Position = i
		}
		if len(booking.Rooms) > 0 {
			if err := tx.Omit(clause.Associations).Create(&booking.Rooms).Error; err != nil {
				return fmt.Errorf("insert booking rooms: %w", err)
			}
		}
		return nil
	})
}

func (s *gormStore) bookingQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Guest").
		Preload("Rooms", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Rooms.Room.AccessConfiguration")
}

// GetBooking loads a booking with its guest and its rooms in booking order.
func (s *gormStore) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	var b model.Booking
	if err := s.bookingQuery(ctx).First(&b, id).Error; err != nil {
		return nil, notFound(err, apperr.CodeBookingNotFound, "booking", id)
	}
	return &b, nil
}

func (s *gormStore) GetBookingByReference(ctx context.Context, reference string) (*model.Booking, error) {
	var b model.Booking
	if err := s.bookingQuery(ctx).Where("reference = ?", reference).First(&b).Error; err != nil {
		return nil, notFound(err, apperr.CodeBookingNotFound, "booking", reference)
	}
	return &b, nil
}

func (s *gormStore) ListBookingsByStatus(ctx context.Context, status model.BookingStatus) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := s.db.WithContext(ctx).
		Preload("Rooms", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("status = ?", status).
		Order("id ASC").
		Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("list bookings with status %s: %w", status, err)
	}
	return bookings, nil
}

// UpdateBooking writes fields if booking.Version is still current and bumps
// booking.Version on success.
func (s *gormStore) UpdateBooking(ctx context.Context, booking *model.Booking, fields map[string]any) error {
	if err := s.compareAndSwap(ctx, &model.Booking{}, "booking", booking.ID, booking.Version, fields); err != nil {
		return err
	}
	booking.Version++
	return nil
}

// DeleteBooking removes a booking and its room assignments.
func (s *gormStore) DeleteBooking(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("booking_id = ?", id).Delete(&model.BookingRoom{}).Error; err != nil {
			return fmt.Errorf("delete rooms of booking %d: %w", id, err)
		}
		res := tx.Delete(&model.Booking{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete booking %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound(apperr.CodeBookingNotFound, "booking %d not found", id)
		}
		return nil
	})
}
