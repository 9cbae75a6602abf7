package scheduler

import (
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/task"
)

const (
	descriptionDaily  = "Daily cleaning"
	descriptionTowels = "Daily cleaning - replace towels"
)

// Plan returns the cleaning tasks a booking needs today: one per room for a
// checked-in stay that wants daily cleaning, nothing otherwise.
func Plan(b *model.Booking) []task.CreateInput {
	if b.Status != model.BookingStatusCheckedIn || !b.WantsDailyCleaning {
		return nil
	}
	description := descriptionDaily
	if b.NextCleaningRequiresTowels {
		description = descriptionTowels
	}

	bookingID := b.ID
	out := make([]task.CreateInput, 0, len(b.Rooms))
	for _, br := range b.Rooms {
		out = append(out, task.CreateInput{
			Type:        model.TaskTypeCleaning,
			Priority:    model.TaskPriorityNormal,
			Description: description,
			RoomID:      br.RoomID,
			BookingID:   &bookingID,
		})
	}
	return out
}
