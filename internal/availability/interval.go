package availability

import (
	"time"

	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/store"
)

// Overlaps reports whether the closed intervals [aStart, aEnd] and
// [bStart, bEnd] share at least one instant. A stay ending on the day the
// next one starts counts as overlapping.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// Result is the answer to an availability query.
type Result struct {
	Available      bool `json:"available"`
	AvailableRooms int  `json:"availableRooms"`
}

// Count subtracts the allocations overlapping [start, end] from the number of
// physical rooms. The result is never negative.
func Count(totalRooms int, allocations []model.Allocation, start, end time.Time) Result {
	overlapping := 0
	for _, a := range allocations {
		if Overlaps(a.Start, a.End, start, end) {
			overlapping++
		}
	}
	free := totalRooms - overlapping
	if free < 0 {
		free = 0
	}
	return Result{Available: free > 0, AvailableRooms: free}
}

// BusyRooms returns the ids of rooms whose bookings overlap [start, end].
func BusyRooms(bookings []store.RoomBooking, start, end time.Time) map[int64]bool {
	busy := make(map[int64]bool)
	for _, b := range bookings {
		if Overlaps(b.CheckIn, b.CheckOut, start, end) {
			busy[b.RoomID] = true
		}
	}
	return busy
}

// ReservedRooms returns the ids of rooms held by reservations overlapping
// [start, end]. Reservations without a room are ignored.
func ReservedRooms(reservations []model.Reservation, start, end time.Time) map[int64]bool {
	held := make(map[int64]bool)
	for _, r := range reservations {
		if r.RoomID != nil && Overlaps(r.StartDate, r.EndDate, start, end) {
			held[*r.RoomID] = true
		}
	}
	return held
}
