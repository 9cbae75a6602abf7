package availability

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/store"
	"hotel-ops-backend/internal/testdb"
)

func TestCalculator_CountsOverlappingAllocations(t *testing.T) {
	db := testdb.Open(t)
	calc := NewCalculator(store.NewGormStore(db))
	ctx := context.Background()
	cat, _ := testdb.Category(t, db, "Standard", 90, 5)

	for i := 0; i < 3; i++ {
		testdb.Reservation(t, db, cat.ID, day(1), day(4), model.ReservationStatusConfirmed)
	}
	// Inactive reservations are not counted.
	testdb.Reservation(t, db, cat.ID, day(1), day(4), model.ReservationStatusCancelled)
	testdb.Reservation(t, db, cat.ID, day(1), day(4), model.ReservationStatusCompleted)

	res, err := calc.CheckAvailability(ctx, cat.ID, day(2), day(3))
	require.NoError(t, err)
	assert.Equal(t, Result{Available: true, AvailableRooms: 2}, res)

	for i := 0; i < 2; i++ {
		testdb.Reservation(t, db, cat.ID, day(3), day(6), model.ReservationStatusPending)
	}
	res, err = calc.CheckAvailability(ctx, cat.ID, day(2), day(3))
	require.NoError(t, err)
	assert.Equal(t, Result{Available: false, AvailableRooms: 0}, res)
}

func TestCalculator_CountsBookedRooms(t *testing.T) {
	db := testdb.Open(t)
	st := store.NewGormStore(db)
	calc := NewCalculator(st)
	ctx := context.Background()
	cat, rooms := testdb.Category(t, db, "Family", 150, 2)
	guest := testdb.Guest(t, db, "kim@example.com")

	require.NoError(t, st.CreateBooking(ctx, &model.Booking{
		Reference:     "QWER1234",
		GuestID:       guest.ID,
		CheckIn:       day(1),
		CheckOut:      day(4),
		Status:        model.BookingStatusConfirmed,
		PaymentStatus: model.PaymentStatusUnpaid,
		Rooms:         []model.BookingRoom{{RoomID: rooms[0].ID, PricePerNight: decimal.NewFromInt(150)}},
	}))

	res, err := calc.CheckAvailability(ctx, cat.ID, day(4), day(6))
	require.NoError(t, err)
	assert.Equal(t, 1, res.AvailableRooms, "checkout day conflicts with a new check-in")

	res, err = calc.CheckAvailability(ctx, cat.ID, day(5), day(6))
	require.NoError(t, err)
	assert.Equal(t, 2, res.AvailableRooms)
}

func TestCalculator_CheckAvailabilityErrors(t *testing.T) {
	db := testdb.Open(t)
	calc := NewCalculator(store.NewGormStore(db))
	ctx := context.Background()
	cat, _ := testdb.Category(t, db, "Standard", 90, 1)

	_, err := calc.CheckAvailability(ctx, 404, day(1), day(2))
	assert.Equal(t, apperr.CodeCategoryNotFound, apperr.CodeOf(err))

	_, err = calc.CheckAvailability(ctx, cat.ID, day(3), day(2))
	assert.Equal(t, apperr.CodeInvalidDateRange, apperr.CodeOf(err))
}

func TestCalculator_ReserveNeverOverAllocates(t *testing.T) {
	db := testdb.Open(t)
	calc := NewCalculator(store.NewGormStore(db))
	ctx := context.Background()
	cat, _ := testdb.Category(t, db, "Standard", 90, 3)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, conflicts := 0, 0
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := calc.Reserve(ctx, cat.ID, day(1), day(3))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if apperr.CodeOf(err) == apperr.CodeNoAvailability {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 3, conflicts)

	res, err := calc.CheckAvailability(ctx, cat.ID, day(1), day(3))
	require.NoError(t, err)
	assert.Equal(t, 0, res.AvailableRooms)
}

func TestCalculator_AssignRoom(t *testing.T) {
	db := testdb.Open(t)
	calc := NewCalculator(store.NewGormStore(db))
	ctx := context.Background()
	cat, rooms := testdb.Category(t, db, "Standard", 90, 2)
	_, otherRooms := testdb.Category(t, db, "Penthouse", 900, 1)

	r, err := calc.Reserve(ctx, cat.ID, day(1), day(3))
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.Room{}).Where("id = ?", rooms[0].ID).Update("condition", model.RoomConditionDirty).Error)

	_, err = calc.AssignRoom(ctx, r.ID, rooms[0].ID)
	assert.Equal(t, apperr.CodeRoomNotClean, apperr.CodeOf(err))

	_, err = calc.AssignRoom(ctx, r.ID, otherRooms[0].ID)
	assert.Equal(t, apperr.CodeCategoryMismatch, apperr.CodeOf(err))

	_, err = calc.AssignRoom(ctx, 999, rooms[1].ID)
	assert.Equal(t, apperr.CodeReservationNotFound, apperr.CodeOf(err))

	assigned, err := calc.AssignRoom(ctx, r.ID, rooms[1].ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.RoomID)
	assert.Equal(t, rooms[1].ID, *assigned.RoomID)

	_, err = calc.UpdateReservationStatus(ctx, r.ID, model.ReservationStatusCancelled)
	require.NoError(t, err)
	_, err = calc.AssignRoom(ctx, r.ID, rooms[1].ID)
	assert.Equal(t, apperr.CodeReservationClosed, apperr.CodeOf(err))
}

func TestCalculator_UpdateReservationStatus(t *testing.T) {
	db := testdb.Open(t)
	calc := NewCalculator(store.NewGormStore(db))
	ctx := context.Background()
	cat, _ := testdb.Category(t, db, "Standard", 90, 1)

	r, err := calc.Reserve(ctx, cat.ID, day(1), day(3))
	require.NoError(t, err)

	_, err = calc.UpdateReservationStatus(ctx, r.ID, model.ReservationStatusCompleted)
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.CodeOf(err))

	_, err = calc.UpdateReservationStatus(ctx, r.ID, "ARCHIVED")
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))

	confirmed, err := calc.UpdateReservationStatus(ctx, r.ID, model.ReservationStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusConfirmed, confirmed.Status)

	again, err := calc.UpdateReservationStatus(ctx, r.ID, model.ReservationStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusConfirmed, again.Status)
}

func TestCalculator_AssignRoomRejectsRoomHeldByAnotherReservation(t *testing.T) {
	db := testdb.Open(t)
	calc := NewCalculator(store.NewGormStore(db))
	ctx := context.Background()
	cat, rooms := testdb.Category(t, db, "Standard", 90, 2)

	first, err := calc.Reserve(ctx, cat.ID, day(1), day(3))
	require.NoError(t, err)
	second, err := calc.Reserve(ctx, cat.ID, day(2), day(4))
	require.NoError(t, err)

	_, err = calc.AssignRoom(ctx, first.ID, rooms[0].ID)
	require.NoError(t, err)

	_, err = calc.AssignRoom(ctx, second.ID, rooms[0].ID)
	assert.Equal(t, apperr.CodeRoomUnavailable, apperr.CodeOf(err))

	// Re-assigning the same reservation to its own room is not a clash.
	_, err = calc.AssignRoom(ctx, first.ID, rooms[0].ID)
	require.NoError(t, err)

	assigned, err := calc.AssignRoom(ctx, second.ID, rooms[1].ID)
	require.NoError(t, err)
	assert.Equal(t, rooms[1].ID, *assigned.RoomID)

	// Once the first reservation is cancelled its room is free again.
	_, err = calc.UpdateReservationStatus(ctx, first.ID, model.ReservationStatusCancelled)
	require.NoError(t, err)
	third, err := calc.Reserve(ctx, cat.ID, day(1), day(2))
	require.NoError(t, err)
	_, err = calc.AssignRoom(ctx, third.ID, rooms[0].ID)
	require.NoError(t, err)
}

func TestCalculator_CheckRooms(t *testing.T) {
	db := testdb.Open(t)
	st := store.NewGormStore(db)
	calc := NewCalculator(st)
	ctx := context.Background()
	cat, rooms := testdb.Category(t, db, "Standard", 90, 2)
	guest := testdb.Guest(t, db, "kim@example.com")

	// A category-level reservation takes one of the two rooms.
	testdb.Reservation(t, db, cat.ID, day(1), day(4), model.ReservationStatusConfirmed)

	require.NoError(t, calc.CheckRooms(ctx, rooms[:1], day(1), day(4), 0))
	err := calc.CheckRooms(ctx, rooms, day(1), day(4), 0)
	assert.Equal(t, apperr.CodeNoAvailability, apperr.CodeOf(err))
	require.NoError(t, calc.CheckRooms(ctx, rooms, day(5), day(6), 0))

	b := &model.Booking{
		Reference:     "QWER1234",
		GuestID:       guest.ID,
		CheckIn:       day(1),
		CheckOut:      day(4),
		Status:        model.BookingStatusConfirmed,
		PaymentStatus: model.PaymentStatusUnpaid,
		Rooms:         []model.BookingRoom{{RoomID: rooms[0].ID, PricePerNight: decimal.NewFromInt(90)}},
	}
	require.NoError(t, st.CreateBooking(ctx, b))

	err = calc.CheckRooms(ctx, rooms[:1], day(3), day(5), 0)
	assert.Equal(t, apperr.CodeRoomUnavailable, apperr.CodeOf(err))
	err = calc.CheckRooms(ctx, rooms[1:], day(3), day(5), 0)
	assert.Equal(t, apperr.CodeNoAvailability, apperr.CodeOf(err), "booking and reservation use up the category")

	// The booking's own allocation is ignored when it is re-dated.
	require.NoError(t, calc.CheckRooms(ctx, rooms[:1], day(2), day(5), b.ID))
}

func TestCalculator_FreeRooms(t *testing.T) {
	db := testdb.Open(t)
	st := store.NewGormStore(db)
	calc := NewCalculator(st)
	ctx := context.Background()
	cat, rooms := testdb.Category(t, db, "Standard", 90, 3)

	held, err := calc.Reserve(ctx, cat.ID, day(1), day(3))
	require.NoError(t, err)
	_, err = calc.AssignRoom(ctx, held.ID, rooms[0].ID)
	require.NoError(t, err)
	testdb.Reservation(t, db, cat.ID, day(2), day(3), model.ReservationStatusPending)

	free, err := calc.FreeRooms(ctx, cat.ID, rooms, day(1), day(3))
	require.NoError(t, err)
	require.Len(t, free, 1, "one held room and one unassigned reservation leave a single room")
	assert.Equal(t, rooms[1].ID, free[0].ID)

	free, err = calc.FreeRooms(ctx, cat.ID, rooms, day(4), day(5))
	require.NoError(t, err)
	assert.Len(t, free, 3)
}
