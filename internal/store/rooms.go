package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
)

func (s *gormStore) GetCategory(ctx context.Context, id int64) (*model.RoomCategory, error) {
	var c model.RoomCategory
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, apperr.CodeCategoryNotFound, "category", id)
	}
	return &c, nil
}

// LockCategory reads the category row with SELECT ... FOR UPDATE. Counting
// and allocation inside the same transaction are then serialized per
// category. SQLite ignores the locking clause and serializes writers itself.
func (s *gormStore) LockCategory(ctx context.Context, id int64) (*model.RoomCategory, error) {
	var c model.RoomCategory
	if err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&c, id).Error; err != nil {
		return nil, notFound(err, apperr.CodeCategoryNotFound, "category", id)
	}
	return &c, nil
}

func (s *gormStore) CountRoomsInCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Room{}).
		Where("category_id = ?", categoryID).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count rooms in category %d: %w", categoryID, err)
	}
	return n, nil
}

// GetRoom loads a room with its category and access configuration.
func (s *gormStore) GetRoom(ctx context.Context, id int64) (*model.Room, error) {
	var r model.Room
	if err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("AccessConfiguration").
		First(&r, id).Error; err != nil {
		return nil, notFound(err, apperr.CodeRoomNotFound, "room", id)
	}
	return &r, nil
}

// ListRoomsByCategory returns the rooms of a category ordered by room number.
func (s *gormStore) ListRoomsByCategory(ctx context.Context, categoryID int64) ([]model.Room, error) {
	var rooms []model.Room
	if err := s.db.WithContext(ctx).
		Preload("Category").
		Where("category_id = ?", categoryID).
		Order("number ASC").
		Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("list rooms of category %d: %w", categoryID, err)
	}
	return rooms, nil
}

// UpdateRoom writes fields if room.Version is still current and bumps
// room.Version on success.
func (s *gormStore) UpdateRoom(ctx context.Context, room *model.Room, fields map[string]any) error {
	if err := s.compareAndSwap(ctx, &model.Room{}, "room", room.ID, room.Version, fields); err != nil {
		if apperr.CodeOf(err) == apperr.CodeDuplicate {
			return apperr.Conflict(apperr.CodeDuplicateRoomNumber, "room number already in use").Wrap(err)
		}
		return err
	}
	room.Version++
	return nil
}

// ListCategoryAllocations returns every active allocation that occupies a
// room of the category: open reservations of the category and booked rooms
// belonging to it. Rooms of excludeBookingID are left out.
func (s *gormStore) ListCategoryAllocations(ctx context.Context, categoryID, excludeBookingID int64) ([]model.Allocation, error) {
	var allocations []model.Allocation

	if err := s.db.WithContext(ctx).Model(&model.Reservation{}).
		Select("start_date AS starts_at, end_date AS ends_at").
		Where("category_id = ?", categoryID).
		Where("status NOT IN ?", []model.ReservationStatus{model.ReservationStatusCancelled, model.ReservationStatusCompleted}).
		Scan(&allocations).Error; err != nil {
		return nil, fmt.Errorf("list reservations of category %d: %w", categoryID, err)
	}

	var booked []model.Allocation
	if err := s.db.WithContext(ctx).Table("booking_rooms").
		Select("bookings.check_in AS starts_at, bookings.check_out AS ends_at").
		Joins("JOIN bookings ON bookings.id = booking_rooms.booking_id").
		Joins("JOIN rooms ON rooms.id = booking_rooms.room_id").
		Where("rooms.category_id = ?", categoryID).
		Where("bookings.status NOT IN ?", []model.BookingStatus{model.BookingStatusCancelled, model.BookingStatusCompleted}).
		Where("bookings.id <> ?", excludeBookingID).
		Scan(&booked).Error; err != nil {
		return nil, fmt.Errorf("list booked rooms of category %d: %w", categoryID, err)
	}

	return append(allocations, booked...), nil
}

// ListRoomBookings returns the stay intervals of active bookings on the given
// rooms, ignoring excludeBookingID.
func (s *gormStore) ListRoomBookings(ctx context.Context, roomIDs []int64, excludeBookingID int64) ([]RoomBooking, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}
	var out []RoomBooking
	q := s.db.WithContext(ctx).Table("booking_rooms").
		Select("booking_rooms.room_id, booking_rooms.booking_id, bookings.check_in, bookings.check_out").
		Joins("JOIN bookings ON bookings.id = booking_rooms.booking_id").
		Where("booking_rooms.room_id IN ?", roomIDs).
		Where("bookings.status NOT IN ?", []model.BookingStatus{model.BookingStatusCancelled, model.BookingStatusCompleted})
	if excludeBookingID != 0 {
		q = q.Where("bookings.id <> ?", excludeBookingID)
	}
	if err := q.Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("list bookings of rooms: %w", err)
	}
	return out, nil
}

// ListRoomReservations returns the active reservations holding any of the
// given rooms, ignoring excludeReservationID.
func (s *gormStore) ListRoomReservations(ctx context.Context, roomIDs []int64, excludeReservationID int64) ([]model.Reservation, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}
	var out []model.Reservation
	q := s.db.WithContext(ctx).
		Where("room_id IN ?", roomIDs).
		Where("status NOT IN ?", []model.ReservationStatus{model.ReservationStatusCancelled, model.ReservationStatusCompleted})
	if excludeReservationID != 0 {
		q = q.Where("id <> ?", excludeReservationID)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list reservations of rooms: %w", err)
	}
	return out, nil
}
