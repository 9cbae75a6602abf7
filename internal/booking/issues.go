package booking

import (
	"context"
	"strings"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/store"
	"hotel-ops-backend/internal/task"
)

// ReportIssue opens a REPAIR task for a room of the booking. URGENT and
// NORMAL issues are scheduled now, LOW ones at check-out.
func (s *Service) ReportIssue(ctx context.Context, bookingID, roomID int64, description string, priority model.TaskPriority) (*model.ServiceTask, error) {
	p, err := model.ParseTaskPriority(string(priority))
	if err != nil {
		return nil, apperr.Invalid(apperr.CodeInvalidInput, "%v", err)
	}
	if strings.TrimSpace(description) == "" {
		return nil, apperr.Invalid(apperr.CodeInvalidInput, "issue description is required")
	}

	var created *model.ServiceTask
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if !b.HasRoom(roomID) {
			return apperr.Precondition(apperr.CodeRoomNotInBooking, "room %d is not part of booking %s", roomID, b.Reference)
		}

		scheduled := s.now()
		if p == model.TaskPriorityLow {
			scheduled = b.CheckOut
		}
		t, err := s.tasks.CreateTx(ctx, tx, task.CreateInput{
			Type:         model.TaskTypeRepair,
			Priority:     p,
			Description:  description,
			ScheduledFor: &scheduled,
			RoomID:       roomID,
			BookingID:    &b.ID,
		})
		created = t
		return err
	})
	if err != nil {
		return nil, err
	}
	s.tasks.Announce(ctx, created)
	return created, nil
}
