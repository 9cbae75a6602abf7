package store

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/testdb"
)

// A helper function to create a mock database connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormStore_UpdateRoomCompareAndSwap(t *testing.T) {
	testCases := []struct {
		name         string
		rowsAffected int64
		expectedCode string
		expectedVer  int64
	}{
		{name: "Version matches, row is updated", rowsAffected: 1, expectedVer: 4},
		{name: "Version moved on, stale write is rejected", rowsAffected: 0, expectedCode: apperr.CodeStaleWrite, expectedVer: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newMockDB(t)
			s := NewGormStore(gormDB)

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "rooms" SET`)).
				WillReturnResult(sqlmock.NewResult(0, tc.rowsAffected))
			mock.ExpectCommit()

			room := &model.Room{ID: 7, Version: 3, Condition: model.RoomConditionDirty}
			err := s.UpdateRoom(context.Background(), room, map[string]any{"condition": model.RoomConditionDirty})

			if tc.expectedCode != "" {
				require.Error(t, err)
				assert.Equal(t, tc.expectedCode, apperr.CodeOf(err))
				assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.expectedVer, room.Version)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_UpdateTaskUsesVersionPredicate(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "service_tasks" SET .*"version"=version \+ 1.* WHERE .*id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	task := &model.ServiceTask{ID: 12, Version: 0}
	err := s.UpdateTask(context.Background(), task, map[string]any{"status": model.TaskStatusDone})
	require.NoError(t, err)
	assert.Equal(t, int64(1), task.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_GetBookingNotFound(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "bookings" WHERE "bookings"."id" = $1`)).
		WithArgs(Any{}, Any{}).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetBooking(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeBookingNotFound, apperr.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CreateBookingRejectsDuplicateReference(t *testing.T) {
	db := testdb.Open(t)
	s := NewGormStore(db)
	ctx := context.Background()
	guest := testdb.Guest(t, db, "ada@example.com")
	_, rooms := testdb.Category(t, db, "Double", 100, 1)

	newBooking := func() *model.Booking {
		return &model.Booking{
			Reference:     "ABCD1234",
			GuestID:       guest.ID,
			CheckIn:       testdb.Date(2024, 6, 1),
			CheckOut:      testdb.Date(2024, 6, 2),
			NightsCount:   1,
			TotalPrice:    decimal.NewFromInt(100),
			Status:        model.BookingStatusPending,
			PaymentStatus: model.PaymentStatusUnpaid,
			Rooms:         []model.BookingRoom{{RoomID: rooms[0].ID, PricePerNight: decimal.NewFromInt(100)}},
		}
	}

	require.NoError(t, s.CreateBooking(ctx, newBooking()))

	err := s.CreateBooking(ctx, newBooking())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeDuplicateReference, apperr.CodeOf(err))

	var count int64
	require.NoError(t, db.Model(&model.BookingRoom{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "failed insert must not leave booking rooms behind")
}

func TestGormStore_ListCategoryAllocations(t *testing.T) {
	db := testdb.Open(t)
	s := NewGormStore(db)
	ctx := context.Background()
	guest := testdb.Guest(t, db, "grace@example.com")
	cat, rooms := testdb.Category(t, db, "Suite", 200, 3)
	other, _ := testdb.Category(t, db, "Single", 50, 1)

	jun1, jun5 := testdb.Date(2024, 6, 1), testdb.Date(2024, 6, 5)
	testdb.Reservation(t, db, cat.ID, jun1, jun5, model.ReservationStatusPending)
	testdb.Reservation(t, db, cat.ID, jun1, jun5, model.ReservationStatusCancelled)
	testdb.Reservation(t, db, cat.ID, jun1, jun5, model.ReservationStatusCompleted)
	testdb.Reservation(t, db, other.ID, jun1, jun5, model.ReservationStatusConfirmed)

	var bookingIDs []int64
	for i, status := range []model.BookingStatus{model.BookingStatusCheckedIn, model.BookingStatusCancelled} {
		b := &model.Booking{
			Reference:     []string{"AAAA0001", "AAAA0002"}[i],
			GuestID:       guest.ID,
			CheckIn:       jun1,
			CheckOut:      jun5,
			Status:        status,
			PaymentStatus: model.PaymentStatusPaid,
			Rooms:         []model.BookingRoom{{RoomID: rooms[i].ID, PricePerNight: decimal.NewFromInt(200)}},
		}
		require.NoError(t, s.CreateBooking(ctx, b))
		bookingIDs = append(bookingIDs, b.ID)
	}

	allocations, err := s.ListCategoryAllocations(ctx, cat.ID, 0)
	require.NoError(t, err)
	require.Len(t, allocations, 2)
	for _, a := range allocations {
		assert.True(t, a.Start.Equal(jun1))
		assert.True(t, a.End.Equal(jun5))
	}

	withoutOwn, err := s.ListCategoryAllocations(ctx, cat.ID, bookingIDs[0])
	require.NoError(t, err)
	assert.Len(t, withoutOwn, 1, "only the reservation remains")
}

func TestGormStore_ListRoomReservations(t *testing.T) {
	db := testdb.Open(t)
	s := NewGormStore(db)
	ctx := context.Background()
	cat, rooms := testdb.Category(t, db, "Suite", 200, 2)

	jun1, jun5 := testdb.Date(2024, 6, 1), testdb.Date(2024, 6, 5)
	held := testdb.Reservation(t, db, cat.ID, jun1, jun5, model.ReservationStatusConfirmed)
	closed := testdb.Reservation(t, db, cat.ID, jun1, jun5, model.ReservationStatusCancelled)
	testdb.Reservation(t, db, cat.ID, jun1, jun5, model.ReservationStatusPending)
	for _, r := range []*model.Reservation{held, closed} {
		require.NoError(t, s.UpdateReservation(ctx, r.ID, map[string]any{"room_id": rooms[0].ID}))
	}

	out, err := s.ListRoomReservations(ctx, []int64{rooms[0].ID, rooms[1].ID}, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, held.ID, out[0].ID)

	out, err = s.ListRoomReservations(ctx, []int64{rooms[0].ID}, held.ID)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGormStore_UpsertGuestByEmailReusesExisting(t *testing.T) {
	db := testdb.Open(t)
	s := NewGormStore(db)
	ctx := context.Background()

	first, err := s.UpsertGuestByEmail(ctx, &model.Guest{Email: "Linus@Example.com", FirstName: "Linus"})
	require.NoError(t, err)
	assert.Equal(t, "linus@example.com", first.Email)

	second, err := s.UpsertGuestByEmail(ctx, &model.Guest{Email: "linus@example.com", FirstName: "Other"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Linus", second.FirstName)

	_, err = s.UpsertGuestByEmail(ctx, &model.Guest{Email: "  "})
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestGormStore_RecordCleaningRunOncePerDay(t *testing.T) {
	db := testdb.Open(t)
	s := NewGormStore(db)
	ctx := context.Background()

	require.NoError(t, s.RecordCleaningRun(ctx, &model.CleaningRun{BookingID: 1, Day: "2024-06-02", CreatedAt: time.Now()}))
	err := s.RecordCleaningRun(ctx, &model.CleaningRun{BookingID: 1, Day: "2024-06-02", CreatedAt: time.Now()})
	assert.Equal(t, apperr.CodeAlreadyProcessed, apperr.CodeOf(err))

	require.NoError(t, s.RecordCleaningRun(ctx, &model.CleaningRun{BookingID: 1, Day: "2024-06-03", CreatedAt: time.Now()}))
}

func TestGormStore_TransactionRollsBack(t *testing.T) {
	db := testdb.Open(t)
	s := NewGormStore(db)
	ctx := context.Background()
	_, rooms := testdb.Category(t, db, "Twin", 80, 1)

	err := s.Transaction(ctx, func(tx Store) error {
		room, err := tx.GetRoom(ctx, rooms[0].ID)
		if err != nil {
			return err
		}
		if err := tx.UpdateRoom(ctx, room, map[string]any{"condition": model.RoomConditionDirty}); err != nil {
			return err
		}
		return apperr.Precondition(apperr.CodeInvalidTransition, "abort")
	})
	require.Error(t, err)

	room, err := s.GetRoom(ctx, rooms[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoomConditionClean, room.Condition)
	assert.Equal(t, int64(0), room.Version)
}

func TestGormStore_ListTasksFilter(t *testing.T) {
	db := testdb.Open(t)
	s := NewGormStore(db)
	ctx := context.Background()
	_, rooms := testdb.Category(t, db, "Loft", 120, 2)

	now := time.Now().UTC()
	later := now.Add(48 * time.Hour)
	for _, task := range []*model.ServiceTask{
		{Type: model.TaskTypeCleaning, Status: model.TaskStatusPending, Priority: model.TaskPriorityNormal, RoomID: rooms[0].ID, ScheduledFor: &now},
		{Type: model.TaskTypeRepair, Status: model.TaskStatusPending, Priority: model.TaskPriorityLow, RoomID: rooms[1].ID, ScheduledFor: &later},
		{Type: model.TaskTypeCleaning, Status: model.TaskStatusDone, Priority: model.TaskPriorityNormal, RoomID: rooms[1].ID},
	} {
		require.NoError(t, s.CreateTask(ctx, task))
	}

	cleaning, err := s.ListTasks(ctx, TaskFilter{Type: model.TaskTypeCleaning})
	require.NoError(t, err)
	assert.Len(t, cleaning, 2)

	cutoff := now.Add(time.Hour)
	due, err := s.ListTasks(ctx, TaskFilter{Status: model.TaskStatusPending, DueBefore: &cutoff})
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, rooms[0].ID, due[0].RoomID)
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
