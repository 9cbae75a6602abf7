// Package availability counts free rooms per category over a date range and
// attaches physical rooms to category-level reservations.
package availability

import (
	"context"
	"time"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/store"
)

type Calculator struct {
	store store.Store
}

func NewCalculator(st store.Store) *Calculator {
	return &Calculator{store: st}
}

// WithStore returns a calculator bound to st, typically a transaction.
func (c *Calculator) WithStore(st store.Store) *Calculator {
	return &Calculator{store: st}
}

func validateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Invalid(apperr.CodeInvalidDateRange, "start and end are required")
	}
	if start.After(end) {
		return apperr.Invalid(apperr.CodeInvalidDateRange, "start %s is after end %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

// CheckAvailability counts the rooms of a category not held by an active
// reservation or booking overlapping [start, end].
func (c *Calculator) CheckAvailability(ctx context.Context, categoryID int64, start, end time.Time) (Result, error) {
	if err := validateRange(start, end); err != nil {
		return Result{}, err
	}
	if _, err := c.store.GetCategory(ctx, categoryID); err != nil {
		return Result{}, err
	}
	return c.count(ctx, c.store, categoryID, start, end, 0)
}

func (c *Calculator) count(ctx context.Context, st store.Store, categoryID int64, start, end time.Time, excludeBookingID int64) (Result, error) {
	total, err := st.CountRoomsInCategory(ctx, categoryID)
	if err != nil {
		return Result{}, err
	}
	allocations, err := st.ListCategoryAllocations(ctx, categoryID, excludeBookingID)
	if err != nil {
		return Result{}, err
	}
	return Count(int(total), allocations, start, end), nil
}

// Reserve holds one room of the category for [start, end]. Counting and
// inserting happen under the category lock so concurrent reservations cannot
// over-allocate.
func (c *Calculator) Reserve(ctx context.Context, categoryID int64, start, end time.Time) (*model.Reservation, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	var reservation *model.Reservation
	err := c.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.LockCategory(ctx, categoryID); err != nil {
			return err
		}
		res, err := c.count(ctx, tx, categoryID, start, end, 0)
		if err != nil {
			return err
		}
		if !res.Available {
			return apperr.Conflict(apperr.CodeNoAvailability, "no room of category %d is free for the requested dates", categoryID)
		}
		r := &model.Reservation{
			CategoryID: categoryID,
			StartDate:  start,
			EndDate:    end,
			Status:     model.ReservationStatusPending,
		}
		if err := tx.CreateReservation(ctx, r); err != nil {
			return err
		}
		reservation = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// AssignRoom attaches a physical room to a reservation. The room must be
// CLEAN, belong to the reservation's category and have no overlapping
// booking or other reservation.
func (c *Calculator) AssignRoom(ctx context.Context, reservationID, roomID int64) (*model.Reservation, error) {
	var assigned *model.Reservation
	err := c.store.Transaction(ctx, func(tx store.Store) error {
		r, err := tx.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if _, err := tx.LockCategory(ctx, r.CategoryID); err != nil {
			return err
		}
		// re-read under the lock
		if r, err = tx.GetReservation(ctx, reservationID); err != nil {
			return err
		}
		if !r.Status.IsActive() {
			return apperr.Precondition(apperr.CodeReservationClosed, "reservation %d is %s", r.ID, r.Status)
		}

		room, err := tx.GetRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if room.CategoryID != r.CategoryID {
			return apperr.Precondition(apperr.CodeCategoryMismatch, "room %s is not in category %d", room.Number, r.CategoryID)
		}
		if room.Condition != model.RoomConditionClean {
			return apperr.Precondition(apperr.CodeRoomNotClean, "room %s is %s; only CLEAN rooms can be assigned", room.Number, room.Condition)
		}

		bookings, err := tx.ListRoomBookings(ctx, []int64{room.ID}, 0)
		if err != nil {
			return err
		}
		if BusyRooms(bookings, r.StartDate, r.EndDate)[room.ID] {
			return apperr.Conflict(apperr.CodeRoomUnavailable, "room %s is booked during the reservation", room.Number)
		}
		holds, err := tx.ListRoomReservations(ctx, []int64{room.ID}, r.ID)
		if err != nil {
			return err
		}
		if ReservedRooms(holds, r.StartDate, r.EndDate)[room.ID] {
			return apperr.Conflict(apperr.CodeRoomUnavailable, "room %s is held by another reservation during these dates", room.Number)
		}

		if err := tx.UpdateReservation(ctx, r.ID, map[string]any{"room_id": room.ID}); err != nil {
			return err
		}
		r.RoomID = &room.ID
		assigned = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assigned, nil
}

// UpdateReservationStatus moves a reservation along its lifecycle. Setting the
// current status again is a no-op.
func (c *Calculator) UpdateReservationStatus(ctx context.Context, reservationID int64, status model.ReservationStatus) (*model.Reservation, error) {
	to, err := model.ParseReservationStatus(string(status))
	if err != nil {
		return nil, apperr.Invalid(apperr.CodeInvalidInput, "%v", err)
	}

	var updated *model.Reservation
	err = c.store.Transaction(ctx, func(tx store.Store) error {
		r, err := tx.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if _, err := tx.LockCategory(ctx, r.CategoryID); err != nil {
			return err
		}
		if r.Status == to {
			updated = r
			return nil
		}
		if !model.CanTransitionReservation(r.Status, to) {
			return apperr.Precondition(apperr.CodeInvalidTransition, "reservation %d cannot move from %s to %s", r.ID, r.Status, to)
		}
		if err := tx.UpdateReservation(ctx, r.ID, map[string]any{"status": to}); err != nil {
			return err
		}
		r.Status = to
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CheckRooms verifies that rooms can be booked for [start, end]: no room has
// an overlapping booking or reservation, and every category keeps enough
// unallocated rooms for the ones requested from it. The caller must hold the
// category locks in the transaction the calculator is bound to. Allocations
// of excludeBookingID are ignored so a booking can be re-dated.
func (c *Calculator) CheckRooms(ctx context.Context, rooms []model.Room, start, end time.Time, excludeBookingID int64) error {
	ids := make([]int64, len(rooms))
	perCategory := make(map[int64]int)
	for i, r := range rooms {
		ids[i] = r.ID
		perCategory[r.CategoryID]++
	}

	busy, err := c.takenRooms(ctx, ids, start, end, excludeBookingID)
	if err != nil {
		return err
	}
	for _, r := range rooms {
		if busy[r.ID] {
			return apperr.Conflict(apperr.CodeRoomUnavailable, "room %s is already allocated for these dates", r.Number)
		}
	}

	for categoryID, want := range perCategory {
		res, err := c.count(ctx, c.store, categoryID, start, end, excludeBookingID)
		if err != nil {
			return err
		}
		if want > res.AvailableRooms {
			return apperr.Conflict(apperr.CodeNoAvailability,
				"category %d has %d rooms free for these dates, %d requested", categoryID, res.AvailableRooms, want)
		}
	}
	return nil
}

// FreeRooms filters rooms down to those with no overlapping booking or
// reservation, capped at the category's unallocated count. All rooms must
// belong to categoryID and the caller must hold its lock.
func (c *Calculator) FreeRooms(ctx context.Context, categoryID int64, rooms []model.Room, start, end time.Time) ([]model.Room, error) {
	ids := make([]int64, len(rooms))
	for i, r := range rooms {
		ids[i] = r.ID
	}
	busy, err := c.takenRooms(ctx, ids, start, end, 0)
	if err != nil {
		return nil, err
	}
	res, err := c.count(ctx, c.store, categoryID, start, end, 0)
	if err != nil {
		return nil, err
	}

	free := make([]model.Room, 0, len(rooms))
	for _, r := range rooms {
		if len(free) == res.AvailableRooms {
			break
		}
		if !busy[r.ID] {
			free = append(free, r)
		}
	}
	return free, nil
}

func (c *Calculator) takenRooms(ctx context.Context, roomIDs []int64, start, end time.Time, excludeBookingID int64) (map[int64]bool, error) {
	bookings, err := c.store.ListRoomBookings(ctx, roomIDs, excludeBookingID)
	if err != nil {
		return nil, err
	}
	holds, err := c.store.ListRoomReservations(ctx, roomIDs, 0)
	if err != nil {
		return nil, err
	}
	taken := BusyRooms(bookings, start, end)
	for id := range ReservedRooms(holds, start, end) {
		taken[id] = true
	}
	return taken, nil
}
