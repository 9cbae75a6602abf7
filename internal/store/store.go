package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	// Transaction runs fn against a Store bound to a single database
	// transaction. Nested calls use savepoints.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	// Directory lookups
	GetGuest(ctx context.Context, id int64) (*model.Guest, error)
	UpsertGuestByEmail(ctx context.Context, guest *model.Guest) (*model.Guest, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	ListUserIDsByRole(ctx context.Context, roles ...model.UserRole) ([]int64, error)
	GetEmployeeByUserID(ctx context.Context, userID int64) (*model.Employee, error)
	GetEmployee(ctx context.Context, id int64) (*model.Employee, error)

	// Rooms and categories
	GetCategory(ctx context.Context, id int64) (*model.RoomCategory, error)
	LockCategory(ctx context.Context, id int64) (*model.RoomCategory, error)
	CountRoomsInCategory(ctx context.Context, categoryID int64) (int64, error)
	GetRoom(ctx context.Context, id int64) (*model.Room, error)
	ListRoomsByCategory(ctx context.Context, categoryID int64) ([]model.Room, error)
	UpdateRoom(ctx context.Context, room *model.Room, fields map[string]any) error
	ListCategoryAllocations(ctx context.Context, categoryID, excludeBookingID int64) ([]model.Allocation, error)
	ListRoomBookings(ctx context.Context, roomIDs []int64, excludeBookingID int64) ([]RoomBooking, error)
	ListRoomReservations(ctx context.Context, roomIDs []int64, excludeReservationID int64) ([]model.Reservation, error)

	// Bookings
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	CreateBooking(ctx context.Context, booking *model.Booking) error
	GetBooking(ctx context.Context, id int64) (*model.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*model.Booking, error)
	ListBookingsByStatus(ctx context.Context, status model.BookingStatus) ([]model.Booking, error)
	UpdateBooking(ctx context.Context, booking *model.Booking, fields map[string]any) error
	DeleteBooking(ctx context.Context, id int64) error

	// Reservations
	CreateReservation(ctx context.Context, r *model.Reservation) error
	GetReservation(ctx context.Context, id int64) (*model.Reservation, error)
	UpdateReservation(ctx context.Context, id int64, fields map[string]any) error

	// Service tasks
	CreateTask(ctx context.Context, task *model.ServiceTask) error
	GetTask(ctx context.Context, id int64) (*model.ServiceTask, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]model.ServiceTask, error)
	UpdateTask(ctx context.Context, task *model.ServiceTask, fields map[string]any) error
	DeleteTask(ctx context.Context, id int64) error

	// Daily scheduler bookkeeping
	RecordCleaningRun(ctx context.Context, run *model.CleaningRun) error

	// Push subscriptions
	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	ListSubscriptionsForUsers(ctx context.Context, userIDs []int64) ([]model.PushSubscription, error)
}

// TaskFilter narrows ListTasks. Zero values are ignored.
type TaskFilter struct {
	Status       model.TaskStatus
	Type         model.TaskType
	RoomID       int64
	AssignedToID int64
	BookingID    int64
	DueBefore    *time.Time
}

// RoomBooking is the stay interval of an active booking on one room.
type RoomBooking struct {
	RoomID    int64
	BookingID int64
	CheckIn   time.Time
	CheckOut  time.Time
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store. The connection should be
// opened with TranslateError so that unique violations surface as
// gorm.ErrDuplicatedKey.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// notFound converts gorm.ErrRecordNotFound into an application error and wraps
// anything else.
func notFound(err error, code, what string, key any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(code, "%s %v not found", what, key)
	}
	return fmt.Errorf("get %s %v: %w", what, key, err)
}

// compareAndSwap applies fields to the row identified by id only if its
// version still matches. The version is bumped on success.
func (s *gormStore) compareAndSwap(ctx context.Context, m any, table string, id, version int64, fields map[string]any) error {
	fields["version"] = gorm.Expr("version + 1")
	res := s.db.WithContext(ctx).Model(m).
		Where("id = ? AND version = ?", id, version).
		Updates(fields)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperr.Conflict(apperr.CodeDuplicate, "%s %d: duplicate value", table, id).Wrap(res.Error)
		}
		return fmt.Errorf("update %s %d: %w", table, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict(apperr.CodeStaleWrite, "%s %d was modified concurrently", table, id)
	}
	return nil
}
